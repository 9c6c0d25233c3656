// Package audio plays the game's sound cues. In a terminal the only sound
// available is the bell, so every cue rings it.
package audio

import (
	"io"
	"sync"
)

// Sound identifiers.
const (
	SoundFlap  = "sfx_wing"
	SoundPoint = "sfx_point"
)

// Player is fire-and-forget: Play never blocks on the sound and never fails.
type Player interface {
	Play(sound string, enabled bool)
}

// Nop ignores every cue.
type Nop struct{}

// Play does nothing.
func (Nop) Play(string, bool) {}

// Bell rings the terminal bell on w for known sounds.
type Bell struct {
	mu     sync.Mutex
	w      io.Writer
	sounds map[string]bool
}

// NewBell creates a bell player writing to w (usually the TTY).
func NewBell(w io.Writer) *Bell {
	return &Bell{
		w:      w,
		sounds: map[string]bool{SoundFlap: true, SoundPoint: true},
	}
}

// Play rings the bell if enabled and the sound is known.
func (b *Bell) Play(sound string, enabled bool) {
	if !enabled || !b.sounds[sound] {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.w.Write([]byte{'\a'}) //nolint:errcheck // Best-effort cue
}
