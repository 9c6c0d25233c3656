package audio

import (
	"bytes"
	"testing"
)

func TestBellPlaysKnownEnabledSounds(t *testing.T) {
	var buf bytes.Buffer
	b := NewBell(&buf)

	b.Play(SoundFlap, true)
	b.Play(SoundPoint, true)
	b.Play(SoundPoint, false)
	b.Play("sfx_unknown", true)

	if got := buf.String(); got != "\a\a" {
		t.Errorf("expected two bells, got %q", got)
	}
}

func TestNopSatisfiesPlayer(t *testing.T) {
	var p Player = Nop{}
	p.Play(SoundFlap, true)
}
