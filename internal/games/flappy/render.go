package flappy

import (
	"fmt"

	"github.com/vovakirdan/flappy-rl/internal/core"
)

// Visual characters for rendering
const (
	BirdChar     = '●'
	BirdBeakChar = '▶'
	PipeChar     = '█'
	ZoneChar     = '·'
	CenterChar   = '─'
	GroundChar   = '═'
)

// View carries the per-frame values the renderer shows next to the world.
type View struct {
	Reward         float64
	HasReward      bool // Human play has no reward to show
	FPS            int
	ShowRewardZone bool
	Status         string // Optional extra HUD text (episode, epsilon, ...)
}

// Render draws the environment scaled from world pixels onto dst.
// The last row is the ground line; the first row holds the HUD.
func Render(dst *core.Screen, env *Environment, view View) {
	dst.Clear()
	if dst.Width() <= 0 || dst.Height() < 3 {
		return
	}

	cfg := env.Config()
	sx := newScale(cfg.Window.Width, dst.Width())
	sy := newScale(cfg.Window.Height, dst.Height()-1)

	if view.ShowRewardZone {
		drawRewardZone(dst, env, sy)
	}

	for _, p := range env.Pipes() {
		x0, x1 := sx.span(p.X, p.X+cfg.Pipes.Width)
		top := sy.to(p.GapTop())
		bottom := sy.to(p.GapBottom())
		dst.FillRect(core.NewRect(x0, 0, x1-x0, top), PipeChar, core.ColorBrightGreen)
		dst.FillRect(core.NewRect(x0, bottom, x1-x0, sy.out-bottom), PipeChar, core.ColorBrightGreen)
	}

	bird := env.Bird()
	bx0, bx1 := sx.span(bird.X, bird.X+cfg.Bird.Width)
	by := int(bird.Y)
	by0, by1 := sy.span(by, by+cfg.Bird.Height)
	dst.FillRect(core.NewRect(bx0, by0, bx1-bx0, by1-by0), BirdChar, core.ColorYellow)
	dst.SetColored(bx1-1, by0, BirdBeakChar, core.ColorYellow)

	dst.DrawHLine(0, dst.Height()-1, dst.Width(), GroundChar, core.ColorGray)

	hud := fmt.Sprintf(" Score: %d ", env.Score())
	if view.HasReward {
		hud += fmt.Sprintf(" Reward: %.2f ", view.Reward)
	}
	if view.FPS > 0 {
		hud += fmt.Sprintf(" FPS: %d ", view.FPS)
	}
	if view.Status != "" {
		hud += " " + view.Status + " "
	}
	dst.DrawTextColored(1, 0, hud, core.ColorWhite)
}

// drawRewardZone shades the rows that earn the zone bonus and marks the
// bird's hitbox centre line.
func drawRewardZone(dst *core.Screen, env *Environment, sy scale) {
	top, bottom, ok := env.RewardZone()
	if !ok {
		return
	}
	y0, y1 := sy.span(int(top), int(bottom))
	for y := y0; y < y1; y++ {
		dst.DrawHLine(0, y, dst.Width(), ZoneChar, core.ColorGreen)
	}
	cy := sy.to(int(env.BirdCenterY()))
	dst.DrawHLine(0, cy, dst.Width(), CenterChar, core.ColorBlue)
}

// scale maps world pixels onto screen cells along one axis.
type scale struct {
	in, out int
}

func newScale(in, out int) scale {
	return scale{in: in, out: out}
}

func (s scale) to(v int) int {
	if s.in <= 0 {
		return 0
	}
	return v * s.out / s.in
}

// span maps [a, b) to cells, always covering at least one cell.
func (s scale) span(a, b int) (int, int) {
	a0, b0 := s.to(a), s.to(b)
	if b0 <= a0 {
		b0 = a0 + 1
	}
	return a0, b0
}
