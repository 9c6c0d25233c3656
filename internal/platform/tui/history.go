package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/flappy-rl/internal/storage"
)

// History layout constants
const (
	maxRuns   = 200 // Max runs to load
	maxScores = 100 // Max scores to load
)

// HistorySource is the read side of the history store.
type HistorySource interface {
	Runs(limit int) ([]storage.Run, error)
	Episodes(runID string) ([]storage.EpisodeRecord, error)
	TopScores(limit int) ([]storage.ScoreEntry, error)
}

type historyView int

const (
	viewRuns historyView = iota
	viewEpisodes
	viewScores
)

// HistoryModel browses training runs, their episodes and human high scores.
type HistoryModel struct {
	source   HistorySource
	view     historyView
	runs     []storage.Run
	episodes []storage.EpisodeRecord
	scores   []storage.ScoreEntry
	selected storage.Run
	err      error

	table    table.Model
	help     help.Model
	keys     HistoryKeyMap
	width    int
	height   int
	quitting bool
}

// NewHistoryModel creates the browser and loads the run list.
func NewHistoryModel(source HistorySource, width, height int) HistoryModel {
	m := HistoryModel{
		source: source,
		keys:   DefaultHistoryKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.loadRuns()
	return m
}

func (m *HistoryModel) loadRuns() {
	m.view = viewRuns
	m.runs, m.err = m.source.Runs(maxRuns)
	m.rebuildTable()
}

func (m *HistoryModel) loadEpisodes(run storage.Run) {
	m.view = viewEpisodes
	m.selected = run
	m.episodes, m.err = m.source.Episodes(run.ID)
	m.rebuildTable()
}

func (m *HistoryModel) loadScores() {
	m.view = viewScores
	m.scores, m.err = m.source.TopScores(maxScores)
	m.rebuildTable()
}

// rebuildTable creates a table with the columns and rows of the current view.
func (m *HistoryModel) rebuildTable() {
	var columns []table.Column
	var rows []table.Row

	switch m.view {
	case viewRuns:
		columns = []table.Column{
			{Title: "ID", Width: 10},
			{Title: "Mode", Width: 6},
			{Title: "Episodes", Width: 9},
			{Title: "Top", Width: 6},
			{Title: "Started", Width: 18},
		}
		rows = make([]table.Row, len(m.runs))
		for i, r := range m.runs {
			rows[i] = table.Row{
				shortID(r.ID),
				r.Mode,
				fmt.Sprintf("%d", r.Episodes),
				fmt.Sprintf("%d", r.TopScore),
				r.StartedAt.Format("Jan 02 15:04:05"),
			}
		}

	case viewEpisodes:
		columns = []table.Column{
			{Title: "Episode", Width: 8},
			{Title: "Score", Width: 6},
			{Title: "Top", Width: 6},
			{Title: "Average", Width: 8},
			{Title: "Epsilon", Width: 8},
			{Title: "Memory", Width: 8},
			{Title: "LR", Width: 9},
			{Title: "Frames", Width: 7},
		}
		rows = make([]table.Row, len(m.episodes))
		for i, e := range m.episodes {
			rows[i] = table.Row{
				fmt.Sprintf("%d", e.Episode),
				fmt.Sprintf("%d", e.Score),
				fmt.Sprintf("%d", e.TopScore),
				fmt.Sprintf("%.2f", e.AverageScore),
				fmt.Sprintf("%.4f", e.Epsilon),
				fmt.Sprintf("%d", e.MemorySize),
				fmt.Sprintf("%.2e", e.LearningRate),
				fmt.Sprintf("%d", e.Frames),
			}
		}

	case viewScores:
		columns = []table.Column{
			{Title: "Rank", Width: 6},
			{Title: "Score", Width: 10},
			{Title: "Date", Width: 18},
		}
		rows = make([]table.Row, len(m.scores))
		for i, s := range m.scores {
			rows[i] = table.Row{
				fmt.Sprintf("#%d", i+1),
				fmt.Sprintf("%d", s.Score),
				s.CreatedAt.Format("Jan 02 15:04"),
			}
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)), // Leave room for header, help, and margins
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m.table = t
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history browser.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			if m.view == viewRuns {
				m.quitting = true
				return m, tea.Quit
			}
			m.loadRuns()
			return m, nil

		case key.Matches(msg, m.keys.Switch):
			if m.view == viewScores {
				m.loadRuns()
			} else {
				m.loadScores()
			}
			return m, nil

		case key.Matches(msg, m.keys.Select):
			if m.view == viewRuns && len(m.runs) > 0 {
				m.loadEpisodes(m.runs[m.table.Cursor()])
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.rebuildTable()
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the browser.
func (m HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)
	b.WriteString(titleStyle.Render(centerText(m.title(), m.width)))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.tableContent()))

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m HistoryModel) title() string {
	switch m.view {
	case viewEpisodes:
		return fmt.Sprintf("RUN %s - %s, top %d", shortID(m.selected.ID), m.selected.Mode, m.selected.TopScore)
	case viewScores:
		return "HIGH SCORES"
	default:
		return "TRAINING RUNS"
	}
}

// tableContent renders the table or an empty message.
func (m HistoryModel) tableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	if m.err != nil {
		return emptyStyle.Render("Cannot read history: " + m.err.Error())
	}
	if len(m.table.Rows()) == 0 {
		switch m.view {
		case viewRuns:
			return emptyStyle.Render("No runs recorded yet.\nStart one with 'flappyrl train'.")
		case viewScores:
			return emptyStyle.Render("No scores recorded yet.\nPlay with 'flappyrl play' to set a high score!")
		default:
			return emptyStyle.Render("This run has no finished episodes.")
		}
	}
	return m.table.View()
}

// RunHistory runs the history browser.
func RunHistory(source HistorySource, width, height int) error {
	p := tea.NewProgram(NewHistoryModel(source, width, height), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// shortID trims a run UUID to its first block.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// centerText centers text within the given width.
func centerText(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	return strings.Repeat(" ", (width-textWidth)/2) + text
}
