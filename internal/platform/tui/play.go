package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-rl/internal/audio"
	"github.com/vovakirdan/flappy-rl/internal/config"
	"github.com/vovakirdan/flappy-rl/internal/core"
	"github.com/vovakirdan/flappy-rl/internal/games/flappy"
	"github.com/vovakirdan/flappy-rl/internal/plot"
)

// ScoreSaver records human play results.
type ScoreSaver interface {
	SaveScore(score int) (int64, error)
}

// PlayOptions configure a PlayModel.
type PlayOptions struct {
	Config  config.Config
	Runtime core.RuntimeConfig // Seed 0 = time based, TickRate 0 = window.fps
	Store   ScoreSaver         // nil disables the scoreboard
	Audio   audio.Player       // nil disables sound
	Logger  *log.Logger
}

// PlayModel lets a person fly the bird.
type PlayModel struct {
	game    *flappy.Game
	screen  *core.Screen
	store   ScoreSaver
	audio   audio.Player
	plotter *plot.Plotter
	logger  *log.Logger
	keys    PlayKeyMap
	help    help.Model
	cfg     config.Config

	fps        int
	flap       bool // Queued for the next tick
	pause      bool
	lastScore  int
	scoreSaved bool
	total      int
	quitting   bool
}

// NewPlayModel creates a human-play model.
func NewPlayModel(opts PlayOptions) PlayModel {
	rt := opts.Runtime
	if rt.Seed == 0 {
		rt.Seed = time.Now().UnixNano()
	}
	if rt.TickRate <= 0 {
		rt.TickRate = opts.Config.Window.FPS
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	player := opts.Audio
	if player == nil {
		player = audio.Nop{}
	}
	w, h := playfieldSize(rt.ScreenW, rt.ScreenH)

	return PlayModel{
		game:    flappy.New(opts.Config, rt.Seed),
		screen:  core.NewScreen(w, h),
		store:   opts.Store,
		audio:   player,
		plotter: plot.New(),
		logger:  logger,
		keys:    DefaultPlayKeyMap(),
		help:    help.New(),
		cfg:     opts.Config,
		fps:     rt.TickRate,
	}
}

// Init starts the tick loop.
func (m PlayModel) Init() tea.Cmd {
	return tickCmd(m.fps)
}

// Update handles messages and updates the model state.
func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		w, h := playfieldSize(msg.Width, msg.Height)
		m.screen.Resize(w, h)
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick()
	}
	return m, nil
}

func (m PlayModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Flap):
		m.flap = true
	case key.Matches(msg, m.keys.Pause):
		m.pause = true
	case key.Matches(msg, m.keys.Restart):
		if m.game.State().GameOver {
			m.game.Reset()
			m.lastScore = 0
			m.scoreSaved = false
		}
	}
	return m, nil
}

func (m PlayModel) handleTick() (tea.Model, tea.Cmd) {
	before := m.game.State()
	state := m.game.Step(m.flap, m.pause)

	sound := m.cfg.Sound
	if m.flap && state.Frames > before.Frames {
		m.audio.Play(audio.SoundFlap, sound.Enabled && sound.Flap)
	}
	if state.Score > m.lastScore {
		m.audio.Play(audio.SoundPoint, sound.Enabled && sound.Point)
	}
	m.lastScore = state.Score
	m.flap = false
	m.pause = false

	if state.GameOver && !m.scoreSaved {
		m.finishGame(state.Score)
	}
	return m, tickCmd(m.fps)
}

// finishGame plots the result and saves it to the scoreboard.
func (m *PlayModel) finishGame(score int) {
	m.scoreSaved = true
	m.total += score
	m.plotter.AddGame(score, float64(m.total)/float64(m.plotter.Len()+1))

	if m.store == nil || score <= 0 {
		return
	}
	if _, err := m.store.SaveScore(score); err != nil {
		m.logger.Warn("cannot save score", "error", err)
	}
}

// View renders the game.
func (m PlayModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(statusStyle.Render(fmt.Sprintf("Games %d  Best %d", m.plotter.Len(), m.best())))
	b.WriteString("\n")
	m.game.Render(m.screen, m.fps)
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m PlayModel) best() int {
	best := 0
	for _, s := range m.plotter.Scores() {
		best = core.Max(best, int(s))
	}
	return best
}

// State returns the current game state.
func (m PlayModel) State() flappy.State { return m.game.State() }

// Plotter returns the scores of every finished game.
func (m PlayModel) Plotter() *plot.Plotter { return m.plotter }

// RunPlay starts human play and blocks until it exits. The returned plotter
// holds the finished games.
func RunPlay(opts PlayOptions) (*plot.Plotter, error) {
	p := tea.NewProgram(NewPlayModel(opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	if m, ok := final.(PlayModel); ok {
		return m.plotter, nil
	}
	return nil, nil
}
