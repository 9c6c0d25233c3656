package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-rl/internal/core"
	"github.com/vovakirdan/flappy-rl/internal/games/flappy"
	"github.com/vovakirdan/flappy-rl/internal/trainer"
)

const (
	fpsStep  = 5
	minFPS   = 5
	maxFPS   = 480
	hiddenHz = 20 // View refreshes per second while drawing is off

	// hiddenFramesPerTick is how many frames run per refresh while drawing
	// is off.
	hiddenFramesPerTick = 2000
)

// WatchOptions configure a WatchModel.
type WatchOptions struct {
	// Runtime sets the screen size and the starting draw rate; a zero
	// TickRate uses window.fps.
	Runtime core.RuntimeConfig

	// Spectator sessions never snapshot on quit and do not stop the
	// program when training finishes.
	Spectator bool
	Logger    *log.Logger
}

// WatchModel runs a training session live: one frame per tick while
// drawing, thousands per tick while hidden.
type WatchModel struct {
	session   *trainer.Session
	screen    *core.Screen
	keys      WatchKeyMap
	help      help.Model
	logger    *log.Logger
	spectator bool

	fps      int
	draw     bool
	showZone bool
	last     trainer.FrameResult
	err      error
	done     bool
	quitting bool
}

// NewWatchModel creates the live view for session.
func NewWatchModel(session *trainer.Session, opts WatchOptions) WatchModel {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	w, h := playfieldSize(opts.Runtime.ScreenW, opts.Runtime.ScreenH)
	fps := opts.Runtime.TickRate
	if fps <= 0 {
		fps = session.Config().Window.FPS
	}

	return WatchModel{
		session:   session,
		screen:    core.NewScreen(w, h),
		keys:      DefaultWatchKeyMap(),
		help:      help.New(),
		logger:    logger,
		spectator: opts.Spectator,
		fps:       core.Clamp(fps, minFPS, maxFPS),
		draw:      true,
		showZone:  true,
		done:      session.Finished(),
	}
}

// Init starts the tick loop.
func (m WatchModel) Init() tea.Cmd {
	return m.nextTick()
}

// Update handles messages and updates the model state.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if !m.spectator && m.session.Config().Training.SaveModel {
			if dir, err := m.session.Snapshot(); err != nil {
				m.logger.Warn("cannot save model", "error", err)
			} else {
				m.logger.Info("model saved", "dir", dir)
			}
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Zone):
		m.showZone = !m.showZone

	case key.Matches(msg, m.keys.Draw):
		m.draw = !m.draw

	case key.Matches(msg, m.keys.Faster):
		m.fps = core.Clamp(m.fps+fpsStep, minFPS, maxFPS)

	case key.Matches(msg, m.keys.Slower):
		m.fps = core.Clamp(m.fps-fpsStep, minFPS, maxFPS)

	case key.Matches(msg, m.keys.Sound):
		m.session.SetSound(!m.session.SoundOn())

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m WatchModel) handleTick() (tea.Model, tea.Cmd) {
	if m.done || m.err != nil {
		return m, nil
	}

	frames := 1
	if !m.draw {
		frames = hiddenFramesPerTick
	}
	for i := 0; i < frames; i++ {
		res, err := m.session.Frame()
		if err != nil {
			m.err = err
			m.logger.Error("training stopped", "error", err)
			return m, nil
		}
		m.last = res
		if res.Finished {
			m.done = true
			if m.spectator {
				return m, nil
			}
			return m, tea.Quit
		}
	}
	return m, m.nextTick()
}

func (m WatchModel) nextTick() tea.Cmd {
	if !m.draw {
		return tickCmd(hiddenHz)
	}
	return tickCmd(m.fps)
}

// View renders the status line, the playfield and the help bar.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(statusStyle.Render(m.statusLine()))
	b.WriteString("\n")

	if m.draw {
		flappy.Render(m.screen, m.session.Environment(), flappy.View{
			Reward:         m.session.LastReward(),
			HasReward:      true,
			FPS:            m.fps,
			ShowRewardZone: m.showZone,
		})
	} else {
		m.screen.Clear()
		m.screen.DrawTextColored(1, m.screen.Height()/2, "Drawing off, training at full speed. Press v to watch.", core.ColorGray)
	}
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m WatchModel) statusLine() string {
	a := m.session.Agent()
	status := fmt.Sprintf("Episode %d  Top %d  Last %d  Eps %.4f  Mem %d  LR %.2e",
		a.Episode(), a.TopScore(), a.LastScore(), a.Epsilon(), a.Memory().Len(), a.LearningRate())
	switch {
	case m.err != nil:
		status += "  ERROR: " + m.err.Error()
	case m.done:
		status += "  FINISHED"
	case !a.Learning():
		status += "  (not learning)"
	}
	return status
}

// Session returns the training session being shown.
func (m WatchModel) Session() *trainer.Session { return m.session }

// FPS returns the current draw rate.
func (m WatchModel) FPS() int { return m.fps }

// Drawing reports whether frames are drawn one per tick.
func (m WatchModel) Drawing() bool { return m.draw }

// ShowRewardZone reports whether the reward zone overlay is on.
func (m WatchModel) ShowRewardZone() bool { return m.showZone }

// Done reports whether training reached its episode limit.
func (m WatchModel) Done() bool { return m.done }

// Err returns the error that stopped training, if any.
func (m WatchModel) Err() error { return m.err }

// RunWatch starts the live training view and blocks until it exits.
func RunWatch(session *trainer.Session, opts WatchOptions) error {
	p := tea.NewProgram(NewWatchModel(session, opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(WatchModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
