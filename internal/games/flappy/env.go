package flappy

import (
	"math"
	"math/rand"

	"github.com/vovakirdan/flappy-rl/internal/config"
)

// Discrete actions understood by the environment.
const (
	ActionGlide = 0
	ActionFlap  = 1
)

// ActionCount is the size of the action space.
const ActionCount = 2

// ObservationSize is the length of the vector returned by Observation.
const ObservationSize = 2

// StepResult reports what happened during one frame.
type StepResult struct {
	Reward  float64
	Done    bool // The bird collided this frame (or earlier)
	Cleared bool // A pipe was cleared this frame
}

// Environment is the frame-stepped simulation: one bird, a stream of pipes,
// the collision rules and the shaped reward.
//
// A frame is driven in this order: SpawnPipes, Observation, (Flap), Update,
// DetectCollision, Reward, PipeCleared. Step bundles everything after the
// observation. Reward is computed before the cleared flag updates so that it
// still refers to the pipe the bird was dealing with.
type Environment struct {
	cfg     config.Config
	running bool
	gravity float64
	score   int
	frames  int
	bird    Bird
	pipes   *PipeManager
	ceiling int
	floor   int
}

// NewEnvironment creates an environment ready for its first frame.
// Gap positions are drawn from rng, so equal seeds replay equal episodes.
func NewEnvironment(cfg config.Config, rng *rand.Rand) *Environment {
	e := &Environment{
		cfg:   cfg,
		pipes: NewPipeManager(rng, cfg),
	}
	e.Reset()
	return e
}

// Reset starts a new episode. The random source is not reseeded.
func (e *Environment) Reset() {
	e.running = true
	e.gravity = e.cfg.Physics.Gravity
	e.score = 0
	e.frames = 0
	e.bird = NewBird(e.cfg.Bird)
	e.pipes.Reset()
	e.ceiling = 0
	e.floor = e.cfg.Window.Height
}

// SpawnPipes spawns a pipe if the cadence fires on the current frame.
func (e *Environment) SpawnPipes() bool {
	return e.pipes.MaybeSpawn(e.frames)
}

// Flap gives the bird an upward impulse for the next update.
func (e *Environment) Flap() {
	e.bird.Flap(e.cfg.Physics.FlapImpulse)
}

// Update advances pipes and bird physics by one frame.
func (e *Environment) Update() {
	e.pipes.Update()
	e.bird.Update(e.gravity, e.cfg.Physics.MaxVelocity)
	e.frames++
}

// DetectCollision checks the world bounds and every pipe and reports whether
// the bird is still flying. The first collision ends the episode for good.
func (e *Environment) DetectCollision() bool {
	if !e.running {
		return false
	}
	if e.HitsWorld() {
		e.running = false
		return false
	}
	birdRect := e.bird.Rect(e.cfg.Bird.Width, e.cfg.Bird.Height)
	if e.pipes.CheckCollision(birdRect, e.ceiling, e.floor) {
		e.running = false
		return false
	}
	return true
}

// HitsWorld reports whether the bird touches the ceiling or the floor.
func (e *Environment) HitsWorld() bool {
	return e.bird.Y <= float64(e.ceiling) || e.bird.Y >= float64(e.floor-e.cfg.Bird.Height)
}

// Reward scores the frame against the leading pipe given the action taken.
func (e *Environment) Reward(action int) float64 {
	r := e.cfg.Reward
	if !e.running {
		return r.Collision
	}

	reward := r.Survive
	p, ok := e.pipes.Leading()
	if !ok {
		return reward
	}

	if e.InRewardZone() {
		reward = r.ZoneBonus + r.ZoneScoreScale*float64(e.score)
	}
	// Moving further away from an unreachable gap
	if e.bird.Y+float64(e.cfg.Bird.Height) < float64(p.GapTop()) && action == ActionFlap {
		reward -= r.WrongWayPenalty
	}
	if e.bird.Y > float64(p.GapBottom()) && action == ActionGlide {
		reward -= r.WrongWayPenalty
	}
	return reward
}

// RewardZone returns the band around the shifted gap centre that earns the
// zone bonus, in world pixels.
func (e *Environment) RewardZone() (top, bottom float64, ok bool) {
	centre, width, ok := e.rewardZone()
	if !ok {
		return 0, 0, false
	}
	return centre - width, centre + width, true
}

// InRewardZone reports whether the bird's hitbox centre lies strictly
// inside the reward zone.
func (e *Environment) InRewardZone() bool {
	centre, width, ok := e.rewardZone()
	if !ok {
		return false
	}
	return math.Abs(centre-e.BirdCenterY()) < width
}

func (e *Environment) rewardZone() (centre, halfWidth float64, ok bool) {
	p, ok := e.pipes.Leading()
	if !ok {
		return 0, 0, false
	}
	half := float64(p.GapHalf)
	return float64(p.GapY) + half*e.cfg.Reward.ShiftDown, half * e.cfg.Reward.CenterFocus, true
}

// PipeCleared scores the leading pipe the first frame the bird passes it.
func (e *Environment) PipeCleared() bool {
	if !e.pipes.ClearLeading(e.bird.X) {
		return false
	}
	e.score++
	return true
}

// Step applies an action and runs the rest of the frame. It does nothing
// once the episode has ended.
func (e *Environment) Step(action int) StepResult {
	if !e.running {
		return StepResult{Done: true}
	}
	if action == ActionFlap {
		e.Flap()
	}
	e.Update()
	e.DetectCollision()
	reward := e.Reward(action)
	cleared := e.PipeCleared()
	return StepResult{
		Reward:  reward,
		Done:    !e.running,
		Cleared: cleared,
	}
}

// Observation returns the bird's offset from the leading gap centre and its
// velocity. Without a pipe the playfield centre stands in for the gap.
func (e *Environment) Observation() []float64 {
	gapY := float64(e.floor-e.ceiling) / 2
	if p, ok := e.pipes.Leading(); ok {
		gapY = float64(p.GapY)
	}
	return []float64{e.BirdCenterY() - gapY, e.bird.Velocity}
}

// BirdCenterY returns the vertical centre of the bird's hitbox.
func (e *Environment) BirdCenterY() float64 {
	return e.bird.Y + float64(e.cfg.Bird.Height/2)
}

// Running reports whether the episode is still going.
func (e *Environment) Running() bool { return e.running }

// Score returns the number of pipes cleared this episode.
func (e *Environment) Score() int { return e.score }

// Frames returns the number of frames simulated this episode.
func (e *Environment) Frames() int { return e.frames }

// Bird returns a copy of the bird.
func (e *Environment) Bird() Bird { return e.bird }

// SetBird overwrites the bird state, used to set up scenarios.
func (e *Environment) SetBird(b Bird) { e.bird = b }

// Pipes returns the current pipes in spawn order.
func (e *Environment) Pipes() []Pipe { return e.pipes.Pipes() }

// AddPipe inserts a pipe at the end of the sequence, used to set up scenarios.
func (e *Environment) AddPipe(p Pipe) { e.pipes.Add(p) }

// Bounds returns the ceiling and floor y-coordinates.
func (e *Environment) Bounds() (ceiling, floor int) { return e.ceiling, e.floor }

// Config returns the configuration the environment was built with.
func (e *Environment) Config() config.Config { return e.cfg }
