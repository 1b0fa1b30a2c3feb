package watch

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chmouel/zygal/internal/theme"
)

// SegmentFunc computes the current git segment.
type SegmentFunc func(ctx context.Context) (segment string, inRepo bool, err error)

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

type segmentMsg struct {
	segment string
	inRepo  bool
	err     error
	at      time.Time
}

type changedMsg struct{}

// Model is the bubbletea model of `zygal watch`.
type Model struct {
	ctx       context.Context
	dir       string
	theme     *theme.Theme
	fetch     SegmentFunc
	events    <-chan struct{}
	keys      keyMap
	help      help.Model
	segment   string
	inRepo    bool
	err       error
	updated   time.Time
	refreshes int
	width     int
	quitting  bool
}

// NewModel builds a watch model. dir is the already abbreviated directory
// label; events may be nil, in which case only manual refreshes happen.
func NewModel(ctx context.Context, dir string, th *theme.Theme, fetch SegmentFunc, events <-chan struct{}) *Model {
	if th == nil {
		th = theme.GetTheme(theme.DefaultName())
	}
	return &Model{
		ctx:    ctx,
		dir:    dir,
		theme:  th,
		fetch:  fetch,
		events: events,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

// Init starts the first refresh and waits for repository changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.waitForChange())
}

// Update handles key presses, refresh results and change signals.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refreshCmd()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case segmentMsg:
		m.segment = msg.segment
		m.inRepo = msg.inRepo
		m.err = msg.err
		m.updated = msg.at
		m.refreshes++
	case changedMsg:
		return m, tea.Batch(m.refreshCmd(), m.waitForChange())
	}
	return m, nil
}

// View renders the styled prompt line, the last update time and key help.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	line := m.theme.DirStyle().Render(" " + m.dir + " ")
	if m.inRepo && m.segment != "" {
		line += m.theme.GitStyle().Render(" [" + m.segment + "] ")
	}

	var status string
	switch {
	case m.err != nil:
		status = errorStyle.Render("error: " + m.err.Error())
	case m.refreshes == 0:
		status = faintStyle.Render("loading…")
	case !m.inRepo:
		status = faintStyle.Render("not a git repository")
	default:
		status = faintStyle.Render("updated " + m.updated.Format(time.TimeOnly))
	}

	return strings.Join([]string{line, status, m.help.View(m.keys)}, "\n") + "\n"
}

// Segment returns the last computed segment.
func (m *Model) Segment() string {
	return m.segment
}

// Refreshes returns how many refreshes completed.
func (m *Model) Refreshes() int {
	return m.refreshes
}

var (
	faintStyle = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func (m *Model) refreshCmd() tea.Cmd {
	fetch := m.fetch
	ctx := m.ctx
	return func() tea.Msg {
		if fetch == nil {
			return segmentMsg{at: time.Now()}
		}
		segment, inRepo, err := fetch(ctx)
		return segmentMsg{segment: segment, inRepo: inRepo, err: err, at: time.Now()}
	}
}

func (m *Model) waitForChange() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return nil
		}
		return changedMsg{}
	}
}
