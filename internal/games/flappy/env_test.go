package flappy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/vovakirdan/flappy-rl/internal/config"
)

func newTestEnv(seed int64) *Environment {
	return NewEnvironment(config.Default(), rand.New(rand.NewSource(seed)))
}

// centredPipe is a pipe far to the right of the bird with the gap at y=300.
func centredPipe() Pipe {
	return Pipe{X: 300, GapY: 300, GapHalf: 75}
}

func TestNewEnvironment(t *testing.T) {
	env := newTestEnv(1)

	if !env.Running() {
		t.Error("new environment should be running")
	}
	if env.Score() != 0 || env.Frames() != 0 {
		t.Errorf("expected zero score and frames, got %d/%d", env.Score(), env.Frames())
	}
	b := env.Bird()
	if b.X != 25 || b.Y != 300 || b.Velocity != 0 {
		t.Errorf("bird should start at rest at (25, 300), got %+v", b)
	}
	if len(env.Pipes()) != 0 {
		t.Errorf("no pipes expected before the first spawn, got %d", len(env.Pipes()))
	}
	ceiling, floor := env.Bounds()
	if ceiling != 0 || floor != 600 {
		t.Errorf("bounds = %d/%d, expected 0/600", ceiling, floor)
	}
}

func TestRewardZoneScenario(t *testing.T) {
	// Zone centre is 300 + 0.1*75 = 307.5, half-width 0.4*75 = 30.
	for _, y := range []float64{300, 300 - 75*0.4} {
		env := newTestEnv(1)
		env.AddPipe(centredPipe())
		env.SetBird(Bird{X: 25, Y: y})

		if !env.DetectCollision() {
			t.Fatalf("y=%v: bird inside the playfield and away from pipes should not collide", y)
		}
		if !env.InRewardZone() {
			t.Errorf("y=%v: bird centre %v should be inside the zone", y, env.BirdCenterY())
		}
		if got := env.Reward(ActionGlide); got != 20 {
			t.Errorf("y=%v: reward = %v, expected 20 at score 0", y, got)
		}
	}

	env := newTestEnv(1)
	env.AddPipe(centredPipe())
	env.score = 50
	env.SetBird(Bird{X: 25, Y: 300})
	if got, want := env.Reward(ActionFlap), 20+0.01*50; math.Abs(got-want) > 1e-9 {
		t.Errorf("reward at score 50 = %v, expected %v", got, want)
	}
}

func TestRewardBelowFloorIsCollision(t *testing.T) {
	env := newTestEnv(1)
	env.AddPipe(centredPipe())
	env.SetBird(Bird{X: 25, Y: 1000})

	if env.DetectCollision() {
		t.Error("bird below the floor should collide")
	}
	if env.Running() {
		t.Error("running should be false after a collision")
	}
	for _, action := range []int{ActionGlide, ActionFlap} {
		if got := env.Reward(action); got != -100 {
			t.Errorf("reward after collision = %v, expected -100", got)
		}
	}
}

func TestRewardWrongWayPenalties(t *testing.T) {
	tests := []struct {
		name   string
		y      float64
		action int
		want   float64
	}{
		{"above gap flapping", 100, ActionFlap, 0.5 - 20},
		{"above gap gliding", 100, ActionGlide, 0.5},
		{"below gap gliding", 400, ActionGlide, 0.5 - 20},
		{"below gap flapping", 400, ActionFlap, 0.5},
		{"outside zone inside gap", 240, ActionGlide, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(1)
			env.AddPipe(centredPipe())
			env.SetBird(Bird{X: 25, Y: tt.y})
			if got := env.Reward(tt.action); got != tt.want {
				t.Errorf("Reward(%d) at y=%v = %v, expected %v", tt.action, tt.y, got, tt.want)
			}
		})
	}
}

func TestRewardWithoutPipes(t *testing.T) {
	env := newTestEnv(1)
	if got := env.Reward(ActionFlap); got != 0.5 {
		t.Errorf("reward without pipes = %v, expected survival reward 0.5", got)
	}
	if _, _, ok := env.RewardZone(); ok {
		t.Error("there is no reward zone without a pipe")
	}
}

func TestWorldCollision(t *testing.T) {
	tests := []struct {
		y       float64
		collide bool
	}{
		{-5, true},
		{0, true},
		{1, false},
		{300, false},
		{559, false},
		{560, true}, // floor - bird height
		{1000, true},
	}

	for _, tt := range tests {
		env := newTestEnv(1)
		// A pipe overlapping the bird must not change the world check.
		env.AddPipe(Pipe{X: 25, GapY: 300, GapHalf: 75})
		env.SetBird(Bird{X: 25, Y: tt.y})
		if got := env.HitsWorld(); got != tt.collide {
			t.Errorf("HitsWorld() at y=%v = %v, expected %v", tt.y, got, tt.collide)
		}
	}
}

func TestPipeCollision(t *testing.T) {
	tests := []struct {
		name    string
		bird    Bird
		collide bool
	}{
		{"inside gap", Bird{X: 25, Y: 240}, false},
		{"touching gap top", Bird{X: 25, Y: 225}, false},
		{"touching gap bottom", Bird{X: 25, Y: 335}, false},
		{"through top pipe", Bird{X: 25, Y: 200}, true},
		{"through bottom pipe", Bird{X: 25, Y: 350}, true},
		{"left of pipe", Bird{X: 0, Y: 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(1)
			env.AddPipe(Pipe{X: 60, GapY: 300, GapHalf: 75})
			env.SetBird(tt.bird)
			if got := !env.DetectCollision(); got != tt.collide {
				t.Errorf("collision = %v, expected %v", got, tt.collide)
			}
		})
	}
}

func TestCollisionIsAbsorbing(t *testing.T) {
	env := newTestEnv(1)
	env.SetBird(Bird{X: 25, Y: 0})
	if env.DetectCollision() {
		t.Fatal("bird on the ceiling should collide")
	}

	env.SetBird(Bird{X: 25, Y: 300})
	if env.DetectCollision() || env.Running() {
		t.Error("a safe position must not revive a finished episode")
	}

	frames := env.Frames()
	res := env.Step(ActionFlap)
	if !res.Done || res.Reward != 0 || res.Cleared {
		t.Errorf("Step after termination = %+v, expected a bare done result", res)
	}
	if env.Frames() != frames {
		t.Error("Step after termination should not advance the simulation")
	}

	env.Reset()
	if !env.Running() {
		t.Error("Reset should start a new episode")
	}
}

func TestStepTerminalReward(t *testing.T) {
	env := newTestEnv(1)
	env.SetBird(Bird{X: 25, Y: 561, Velocity: 5})
	res := env.Step(ActionGlide)
	if !res.Done {
		t.Fatal("falling into the floor should end the episode")
	}
	if res.Reward != -100 {
		t.Errorf("terminal reward = %v, expected -100", res.Reward)
	}
}

func TestVelocityBoundedAfterUpdate(t *testing.T) {
	cfg := config.Default()
	rng := rand.New(rand.NewSource(7))
	b := NewBird(cfg.Bird)
	maxVel := cfg.Physics.MaxVelocity

	for i := 0; i < 1000; i++ {
		if rng.Intn(3) == 0 {
			b.Flap(cfg.Physics.FlapImpulse)
		}
		b.Update(cfg.Physics.Gravity, maxVel)

		// The clamp runs before gravity is added.
		integrated := b.Velocity - cfg.Physics.Gravity
		if integrated < -maxVel || integrated > maxVel {
			t.Fatalf("step %d: integrated velocity %v outside [-%v, %v]", i, integrated, maxVel, maxVel)
		}
	}
}

func TestBirdUpdateFloorsMovement(t *testing.T) {
	b := Bird{X: 25, Y: 300}
	b.Update(0.5, 8)
	if b.Y != 300 {
		t.Errorf("velocity 0.5 should not move the bird, Y = %v", b.Y)
	}
	b.Update(0.5, 8)
	if b.Y != 301 {
		t.Errorf("velocity 1.0 should move one pixel, Y = %v", b.Y)
	}

	up := Bird{X: 25, Y: 300}
	up.Flap(16)
	up.Update(0.5, 8)
	// Clamped to -8, then -7.5, floored to -8.
	if up.Velocity != -7.5 || up.Y != 292 {
		t.Errorf("after flap: velocity %v Y %v, expected -7.5 and 292", up.Velocity, up.Y)
	}
}

func TestScoreOncePerPipe(t *testing.T) {
	env := newTestEnv(1)
	env.AddPipe(Pipe{X: 20, GapY: 300, GapHalf: 75})

	if !env.PipeCleared() {
		t.Fatal("bird past the pipe's left edge should clear it")
	}
	if env.Score() != 1 {
		t.Errorf("score = %d, expected 1", env.Score())
	}
	for i := 0; i < 5; i++ {
		if env.PipeCleared() {
			t.Error("a pipe must only be cleared once")
		}
	}
	if env.Score() != 1 {
		t.Errorf("score = %d, expected 1 after repeated checks", env.Score())
	}
}

func TestScoreMonotonicOverEpisode(t *testing.T) {
	env := newTestEnv(3)
	prev := 0
	clears := 0
	spawned := 0

	for env.Running() && env.Frames() < 5000 {
		if env.SpawnPipes() {
			spawned++
		}
		// Hover around the gap centre.
		action := ActionGlide
		if obs := env.Observation(); obs[0] > 10 && obs[1] > -2 {
			action = ActionFlap
		}
		res := env.Step(action)
		if res.Cleared {
			clears++
		}

		score := env.Score()
		if score < prev || score > prev+1 {
			t.Fatalf("frame %d: score went from %d to %d", env.Frames(), prev, score)
		}
		if res.Cleared != (score == prev+1) {
			t.Fatalf("frame %d: cleared=%v but score %d -> %d", env.Frames(), res.Cleared, prev, score)
		}
		prev = score
	}

	if clears != env.Score() {
		t.Errorf("clear events %d != score %d", clears, env.Score())
	}
	if env.Score() > spawned {
		t.Errorf("score %d exceeds pipes spawned %d", env.Score(), spawned)
	}
}

func TestSpawnCadenceAndRange(t *testing.T) {
	cfg := config.Default()
	pm := NewPipeManager(rand.New(rand.NewSource(1)), cfg)

	if !pm.MaybeSpawn(0) {
		t.Error("frame 0 should spawn")
	}
	if pm.MaybeSpawn(1) || pm.MaybeSpawn(111) {
		t.Error("frames between periods should not spawn")
	}
	if !pm.MaybeSpawn(112) {
		t.Error("frame 112 should spawn")
	}

	seenMin, seenMax := 1000, 0
	for i := 0; i < 2000; i++ {
		p := pm.Spawn()
		if p.X != 500 {
			t.Fatalf("pipe spawned at x=%d, expected 500", p.X)
		}
		if p.GapY < 100 || p.GapY > 500 {
			t.Fatalf("gap centre %d outside [100, 500]", p.GapY)
		}
		seenMin = min(seenMin, p.GapY)
		seenMax = max(seenMax, p.GapY)
	}
	if seenMin > 110 || seenMax < 490 {
		t.Errorf("gap centres should cover the range, saw [%d, %d]", seenMin, seenMax)
	}
}

func TestPipesLeaveScreen(t *testing.T) {
	pm := NewPipeManager(rand.New(rand.NewSource(1)), config.Default())
	pm.Add(Pipe{X: -75, GapY: 300, GapHalf: 75})
	pm.Add(Pipe{X: -76, GapY: 300, GapHalf: 75})
	pm.Add(Pipe{X: 100, GapY: 300, GapHalf: 75})

	pm.Update()

	pipes := pm.Pipes()
	if len(pipes) != 2 {
		t.Fatalf("expected 2 pipes left, got %d", len(pipes))
	}
	if pipes[0].X != -79 || pipes[1].X != 96 {
		t.Errorf("unexpected positions after update: %d, %d", pipes[0].X, pipes[1].X)
	}
}

func TestObservation(t *testing.T) {
	env := newTestEnv(1)
	obs := env.Observation()
	if len(obs) != ObservationSize {
		t.Fatalf("observation length %d, expected %d", len(obs), ObservationSize)
	}
	// No pipe: offset from the playfield centre.
	if obs[0] != 20 || obs[1] != 0 {
		t.Errorf("observation without pipes = %v, expected [20 0]", obs)
	}

	env.AddPipe(Pipe{X: 300, GapY: 250, GapHalf: 75})
	env.SetBird(Bird{X: 25, Y: 300, Velocity: -3})
	obs = env.Observation()
	if obs[0] != 70 || obs[1] != -3 {
		t.Errorf("observation = %v, expected [70 -3]", obs)
	}
}

func TestDeterministicBySeed(t *testing.T) {
	run := func(seed int64) ([]Pipe, int) {
		env := newTestEnv(seed)
		actions := rand.New(rand.NewSource(99))
		for env.Running() && env.Frames() < 400 {
			env.SpawnPipes()
			env.Step(actions.Intn(ActionCount))
		}
		return append([]Pipe(nil), env.Pipes()...), env.Frames()
	}

	a, fa := run(5)
	b, fb := run(5)
	if fa != fb || len(a) != len(b) {
		t.Fatalf("same seed diverged: %d/%d frames, %d/%d pipes", fa, fb, len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("pipe %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
