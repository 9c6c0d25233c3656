package flappy

import (
	"math/rand"

	"github.com/vovakirdan/flappy-rl/internal/config"
	"github.com/vovakirdan/flappy-rl/internal/core"
)

// Pipe represents a vertical obstacle with a gap for the bird to pass through.
type Pipe struct {
	X       int  // Horizontal position (left edge)
	GapY    int  // Vertical centre of the gap
	GapHalf int  // Half the gap height
	Cleared bool // Whether the bird has passed this pipe (for scoring)
}

// GapTop returns the y-coordinate of the top edge of the gap.
func (p Pipe) GapTop() int {
	return p.GapY - p.GapHalf
}

// GapBottom returns the y-coordinate of the bottom edge of the gap.
func (p Pipe) GapBottom() int {
	return p.GapY + p.GapHalf
}

// TopRect returns the collision rectangle for the upper pipe section.
func (p Pipe) TopRect(pipeWidth, ceiling int) core.Rect {
	return core.NewRect(p.X, ceiling, pipeWidth, p.GapTop()-ceiling)
}

// BottomRect returns the collision rectangle for the lower pipe section.
func (p Pipe) BottomRect(pipeWidth, floor int) core.Rect {
	return core.NewRect(p.X, p.GapBottom(), pipeWidth, floor-p.GapBottom())
}

// PipeManager handles spawning, movement, and removal of pipes.
// Pipes are kept in spawn order, which is also left-to-right order.
type PipeManager struct {
	pipes   []Pipe
	rng     *rand.Rand
	cfg     config.PipeConfig
	screenW int
	screenH int
	speed   int
	period  int
}

// NewPipeManager creates a pipe manager drawing gap positions from rng.
func NewPipeManager(rng *rand.Rand, cfg config.Config) *PipeManager {
	return &PipeManager{
		pipes:   make([]Pipe, 0, 4),
		rng:     rng,
		cfg:     cfg.Pipes,
		screenW: cfg.Window.Width,
		screenH: cfg.Window.Height,
		speed:   cfg.Physics.ScrollSpeed,
		period:  cfg.SpawnPeriodFrames(),
	}
}

// Reset clears all pipes. The random source keeps its position.
func (pm *PipeManager) Reset() {
	pm.pipes = pm.pipes[:0]
}

// MaybeSpawn spawns a pipe when the frame counter hits the spawn cadence.
func (pm *PipeManager) MaybeSpawn(frame int) bool {
	if frame%pm.period != 0 {
		return false
	}
	pm.Spawn()
	return true
}

// Spawn creates a new pipe just beyond the right edge of the screen.
// The gap centre is uniform over the range that keeps both halves on screen.
func (pm *PipeManager) Spawn() Pipe {
	offset := pm.cfg.GapHalfHeight + pm.cfg.SpawnMargin
	minGapY := offset
	maxGapY := pm.screenH - offset
	if maxGapY < minGapY {
		maxGapY = minGapY // Edge case for very small screens
	}

	pipe := Pipe{
		X:       pm.screenW + pm.cfg.SpawnOffset,
		GapY:    minGapY + pm.rng.Intn(maxGapY-minGapY+1),
		GapHalf: pm.cfg.GapHalfHeight,
	}
	pm.pipes = append(pm.pipes, pipe)
	return pipe
}

// Update moves pipes left and drops those that left the screen.
func (pm *PipeManager) Update() {
	valid := pm.pipes[:0]
	for _, p := range pm.pipes {
		p.X -= pm.speed
		if p.X > -pm.cfg.Width {
			valid = append(valid, p)
		}
	}
	pm.pipes = valid
}

// Pipes returns the current pipes in spawn order.
func (pm *PipeManager) Pipes() []Pipe {
	return pm.pipes
}

// Leading returns the first pipe in the sequence, the one the bird is
// currently dealing with.
func (pm *PipeManager) Leading() (Pipe, bool) {
	if len(pm.pipes) == 0 {
		return Pipe{}, false
	}
	return pm.pipes[0], true
}

// ClearLeading marks the leading pipe cleared once birdX has passed its
// left edge. Returns true only on the frame the flag flips.
func (pm *PipeManager) ClearLeading(birdX int) bool {
	if len(pm.pipes) == 0 {
		return false
	}
	p := &pm.pipes[0]
	if p.Cleared || birdX <= p.X {
		return false
	}
	p.Cleared = true
	return true
}

// CheckCollision tests whether the bird rectangle hits any pipe section.
// The sections span from the gap to the ceiling and floor.
func (pm *PipeManager) CheckCollision(bird core.Rect, ceiling, floor int) bool {
	for _, p := range pm.pipes {
		if bird.Intersects(p.TopRect(pm.cfg.Width, ceiling)) || bird.Intersects(p.BottomRect(pm.cfg.Width, floor)) {
			return true
		}
	}
	return false
}

// Add appends a pipe, used to build fixed scenarios.
func (pm *PipeManager) Add(p Pipe) {
	pm.pipes = append(pm.pipes, p)
}
