package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kalambet/devfolio/internal/profileview"
	"github.com/kalambet/devfolio/internal/projects"
)

// DefaultNoticeTTL is how long a failure notice stays on screen.
const DefaultNoticeTTL = 5 * time.Second

// fetchedMsg carries a finished fetch back onto the event loop.
type fetchedMsg struct {
	generation uint64
	result     projects.ProfileProjects
	err        error
}

type clearNoticeMsg struct {
	generation uint64
}

// Options configures the interactive model.
type Options struct {
	NoColor   bool
	NoticeTTL time.Duration
}

// Model is the bubbletea model for the profile page. Fetches run as
// commands and their results are applied in Update, so page state only
// changes on the event loop.
type Model struct {
	view      *profileview.View
	subject   string
	styles    Styles
	spinner   spinner.Model
	noticeTTL time.Duration

	selected int
	width    int
	intent   *profileview.NavigationIntent
	quitting bool
}

// NewModel creates a model that shows subject's projects through view.
func NewModel(view *profileview.View, subject string, opts Options) Model {
	styles := DefaultStyles()
	if opts.NoColor {
		styles = PlainStyles()
	}
	ttl := opts.NoticeTTL
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Loading

	return Model{
		view:      view,
		subject:   subject,
		styles:    styles,
		spinner:   sp,
		noticeTTL: ttl,
	}
}

// Init starts the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// load moves the view to Loading and returns the command that fetches.
func (m Model) load() tea.Cmd {
	gen := m.view.Begin(m.subject)
	view, subject := m.view, m.subject
	return func() tea.Msg {
		res, err := view.Fetch(view.Context(), subject)
		return fetchedMsg{generation: gen, result: res, err: err}
	}
}

// Update handles keys, fetch results and timers.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		out, applied := m.view.Resolve(msg.generation, msg.result, msg.err)
		m.clampSelection()
		if applied && out.Result == profileview.ResultFailed {
			gen := msg.generation
			return m, tea.Tick(m.noticeTTL, func(time.Time) tea.Msg {
				return clearNoticeMsg{generation: gen}
			})
		}
		return m, nil

	case clearNoticeMsg:
		m.view.ClearNotice(msg.generation)
		return m, nil

	case spinner.TickMsg:
		if m.view.State().Phase != profileview.PhaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(CardIDs(m.view.Page()))-1 {
			m.selected++
		}
	case "r":
		return m, tea.Batch(m.spinner.Tick, m.load())
	case "enter":
		ids := CardIDs(m.view.Page())
		if m.selected < 0 || m.selected >= len(ids) {
			return m, nil
		}
		intent, err := m.view.SelectProject(ids[m.selected])
		if err != nil {
			return m, nil
		}
		m.intent = &intent
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) clampSelection() {
	n := len(CardIDs(m.view.Page()))
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// View renders the page plus a key help line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	page := RenderPage(m.view.Page(), RenderOptions{
		Styles:   m.styles,
		Selected: m.selected,
		Spinner:  m.spinner.View(),
		Width:    m.width,
	})
	help := m.styles.Help.Render("↑/↓ move · enter open · r reload · q quit")
	return page + "\n" + help + "\n"
}

// Intent returns the navigation intent chosen with enter, if any.
func (m Model) Intent() *profileview.NavigationIntent {
	return m.intent
}

// Run shows the interactive page until the user quits or opens a project.
// The returned intent is nil when the user quit without choosing.
func Run(ctx context.Context, view *profileview.View, subject string, opts Options) (*profileview.NavigationIntent, error) {
	p := tea.NewProgram(NewModel(view, subject, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	if m, ok := final.(Model); ok {
		return m.Intent(), nil
	}
	return nil, nil
}
