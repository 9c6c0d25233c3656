package flappy

import (
	"math"

	"github.com/vovakirdan/flappy-rl/internal/config"
	"github.com/vovakirdan/flappy-rl/internal/core"
)

// Bird is the controlled body. X never changes; Y grows downward.
type Bird struct {
	X        int
	Y        float64
	Velocity float64
}

// NewBird places a bird at its configured start position at rest.
func NewBird(cfg config.BirdConfig) Bird {
	return Bird{X: cfg.X, Y: cfg.Y}
}

// Flap applies a one-frame upward impulse.
func (b *Bird) Flap(impulse float64) {
	b.Velocity -= impulse
}

// Update clamps the velocity, then integrates one frame of gravity.
// Position moves by whole pixels only.
func (b *Bird) Update(gravity, maxVelocity float64) {
	b.Velocity = core.ClampF(b.Velocity, -maxVelocity, maxVelocity)
	b.Velocity += gravity
	b.Y += math.Floor(b.Velocity)
}

// Rect returns the bird's collision rectangle.
func (b Bird) Rect(width, height int) core.Rect {
	return core.NewRect(b.X, int(math.Floor(b.Y)), width, height)
}
