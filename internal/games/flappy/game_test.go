package flappy

import (
	"testing"

	"github.com/vovakirdan/flappy-rl/internal/config"
	"github.com/vovakirdan/flappy-rl/internal/core"
)

func TestGameInitialization(t *testing.T) {
	g := New(config.Default(), 1)
	state := g.State()

	if state.Score != 0 {
		t.Errorf("Initial score should be 0, got %d", state.Score)
	}
	if state.GameOver {
		t.Error("Game should not be over at start")
	}
	if state.Paused {
		t.Error("Game should not be paused at start")
	}
}

func TestGameFirstStepSpawnsPipe(t *testing.T) {
	g := New(config.Default(), 1)
	g.Step(false, false)

	if n := len(g.Environment().Pipes()); n != 1 {
		t.Errorf("expected one pipe after the first frame, got %d", n)
	}
	if g.State().Frames != 1 {
		t.Errorf("expected 1 frame, got %d", g.State().Frames)
	}
}

func TestGamePause(t *testing.T) {
	g := New(config.Default(), 1)
	g.Step(false, false)

	state := g.Step(false, true)
	if !state.Paused {
		t.Fatal("Game should be paused")
	}

	yBefore := g.Environment().Bird().Y
	frames := state.Frames
	for i := 0; i < 10; i++ {
		g.Step(true, false)
	}
	if g.Environment().Bird().Y != yBefore || g.State().Frames != frames {
		t.Error("Nothing should move while paused")
	}

	if g.Step(false, true).Paused {
		t.Error("Game should be unpaused")
	}
}

func TestGameOverWithoutFlapping(t *testing.T) {
	g := New(config.Default(), 1)

	var state State
	for i := 0; i < 500 && !state.GameOver; i++ {
		state = g.Step(false, false)
	}
	if !state.GameOver {
		t.Fatal("a bird that never flaps should hit the floor")
	}

	frames := state.Frames
	if g.Step(true, false).Frames != frames {
		t.Error("steps after game over should not advance")
	}

	g.Reset()
	if g.State().GameOver || g.State().Frames != 0 {
		t.Error("Reset should start a fresh game")
	}
}

func TestGameRender(t *testing.T) {
	g := New(config.Default(), 1)
	g.Step(false, false)

	screen := core.NewScreen(80, 24)
	g.Render(screen, 90)

	if screen.Get(0, 23) != GroundChar {
		t.Errorf("Ground should be drawn at bottom, got %q", screen.Get(0, 23))
	}

	foundBird := false
	for y := 0; y < 23 && !foundBird; y++ {
		for x := 0; x < 80; x++ {
			if screen.Get(x, y) == BirdChar {
				foundBird = true
				break
			}
		}
	}
	if !foundBird {
		t.Error("Render should draw the bird")
	}
}

func TestRenderRewardZone(t *testing.T) {
	env := newTestEnv(1)
	env.AddPipe(Pipe{X: 300, GapY: 300, GapHalf: 75})

	screen := core.NewScreen(90, 60)
	Render(screen, env, View{ShowRewardZone: true})

	// Zone spans world rows 277.5..337.5, screen rows 27..32 of a 59-row playfield.
	if screen.GetCell(0, 30).Color != core.ColorGreen {
		t.Errorf("zone rows should be tinted green, got %v", screen.GetCell(0, 30).Color)
	}
	if screen.GetCell(0, 10).Color == core.ColorGreen {
		t.Error("rows outside the zone should not be tinted")
	}
}
