// Package flappy implements the Flappy Bird environment the agent learns in,
// plus a thin human-play wrapper around it.
// The bird must navigate through gaps in vertical pipes; the world is measured
// in pixels and rendered scaled onto a character screen.
package flappy

import (
	"math/rand"

	"github.com/vovakirdan/flappy-rl/internal/config"
	"github.com/vovakirdan/flappy-rl/internal/core"
)

// State is a snapshot of the human-play game.
type State struct {
	Score    int
	Frames   int
	GameOver bool
	Paused   bool
}

// Game lets a person fly the bird with the same rules the agent trains on.
type Game struct {
	env    *Environment
	paused bool
}

// New creates a human-play game. Equal seeds produce equal pipe layouts.
func New(cfg config.Config, seed int64) *Game {
	return &Game{
		env: NewEnvironment(cfg, rand.New(rand.NewSource(seed))),
	}
}

// Reset restarts the game with fresh pipes.
func (g *Game) Reset() {
	g.env.Reset()
	g.paused = false
}

// Step advances the game by one frame.
// togglePause flips the pause state before anything else happens.
func (g *Game) Step(flap, togglePause bool) State {
	if togglePause && g.env.Running() {
		g.paused = !g.paused
	}
	if g.paused || !g.env.Running() {
		return g.State()
	}

	g.env.SpawnPipes()
	action := ActionGlide
	if flap {
		action = ActionFlap
	}
	g.env.Step(action)
	return g.State()
}

// State returns the current game state.
func (g *Game) State() State {
	return State{
		Score:    g.env.Score(),
		Frames:   g.env.Frames(),
		GameOver: !g.env.Running(),
		Paused:   g.paused,
	}
}

// Render draws the game onto dst.
func (g *Game) Render(dst *core.Screen, fps int) {
	Render(dst, g.env, View{FPS: fps})
	if g.paused {
		drawBanner(dst, "PAUSED")
	} else if !g.env.Running() {
		drawBanner(dst, "GAME OVER - press r to restart")
	}
}

// Environment exposes the underlying simulation.
func (g *Game) Environment() *Environment {
	return g.env
}

func drawBanner(dst *core.Screen, text string) {
	x := (dst.Width() - len([]rune(text))) / 2
	y := dst.Height() / 2
	dst.DrawTextColored(core.Max(x, 0), y, text, core.ColorRed)
}
