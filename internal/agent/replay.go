package agent

import "math/rand"

// Transition is one recorded step of experience.
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64
	Done      bool
}

// ReplayBuffer is a fixed-capacity ring of transitions. Once full, each new
// transition overwrites the oldest one.
type ReplayBuffer struct {
	buffer []Transition
	added  int // Total insertions; the next slot is added % cap
}

// NewReplayBuffer creates an empty buffer holding at most capacity transitions.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	return &ReplayBuffer{buffer: make([]Transition, 0, capacity)}
}

// Add stores a transition, evicting the oldest one when full.
func (b *ReplayBuffer) Add(t Transition) {
	if len(b.buffer) < cap(b.buffer) {
		b.buffer = append(b.buffer, t)
	} else {
		b.buffer[b.added%cap(b.buffer)] = t
	}
	b.added++
}

// Len returns the number of stored transitions.
func (b *ReplayBuffer) Len() int {
	return len(b.buffer)
}

// Cap returns the buffer capacity.
func (b *ReplayBuffer) Cap() int {
	return cap(b.buffer)
}

// Sample draws n transitions uniformly with replacement.
func (b *ReplayBuffer) Sample(rng *rand.Rand, n int) []Transition {
	if len(b.buffer) == 0 {
		return nil
	}
	batch := make([]Transition, n)
	for i := range batch {
		batch[i] = b.buffer[rng.Intn(len(b.buffer))]
	}
	return batch
}

// Transitions returns the stored transitions oldest first.
func (b *ReplayBuffer) Transitions() []Transition {
	out := make([]Transition, 0, len(b.buffer))
	if len(b.buffer) < cap(b.buffer) {
		return append(out, b.buffer...)
	}
	start := b.added % cap(b.buffer)
	out = append(out, b.buffer[start:]...)
	return append(out, b.buffer[:start]...)
}
