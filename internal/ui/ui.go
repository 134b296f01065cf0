package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/albumsync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlanView ViewState = iota
	ReviewView
	ConfirmView
	AppendView
	ResultView
)

// Engine is the part of [tasks.SyncEngine] the TUI drives.
type Engine interface {
	Run(ctx context.Context, progress chan<- tasks.ProgressUpdate, opts tasks.SyncOptions) (*tasks.SyncResult, error)
	Apply(ctx context.Context, progress chan<- tasks.ProgressUpdate, planned *tasks.SyncResult) (*tasks.SyncResult, error)
}

var _ Engine = (*tasks.SyncEngine)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       Engine
	width        int
	height       int
	spinner      spinner.Model
	bar          progress.Model
	albumList    list.Model
	progressChan <-chan tasks.ProgressUpdate
	finalChan    <-chan tea.Msg
	progress     tasks.ProgressUpdate
	planned      *tasks.SyncResult
	result       *tasks.SyncResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model that plans with a dry run, then appends after confirmation.
func NewModel(ctx context.Context, engine Engine) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &Model{
		ctx:     ctx,
		view:    PlanView,
		engine:  engine,
		spinner: sp,
		bar:     bar,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the dry run that builds the plan.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startPlan())
}

// Result returns the outcome once the program has exited: the appended result if rows were appended,
// otherwise the reviewed plan.
func (m *Model) Result() (*tasks.SyncResult, error) {
	if m.result != nil {
		return m.result, m.err
	}
	return m.planned, m.err
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ReviewView {
			m.albumList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlanView, AppendView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ReviewView:
			return m.handleReviewKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			if key.Matches(msg, m.keys.quit) || key.Matches(msg, m.keys.enter) {
				return m, tea.Quit
			}
			return m, nil
		}

	case spinner.TickMsg:
		if m.view != PlanView && m.view != AppendView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case planReadyMsg:
		m.clearJob()
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultView
			return m, nil
		}
		m.planned = msg.result
		if msg.result.Plan.Empty() {
			m.view = ResultView
			return m, nil
		}
		m.albumList = m.newAlbumList(msg.result)
		m.view = ReviewView
		return m, nil

	case appendDoneMsg:
		m.clearJob()
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	if m.view == ReviewView {
		var cmd tea.Cmd
		m.albumList, cmd = m.albumList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PlanView:
		return m.renderWorking("Comparing playlist with sheet")
	case ReviewView:
		return m.renderReview()
	case ConfirmView:
		return m.renderConfirm()
	case AppendView:
		return m.renderWorking("Appending rows")
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.albumList, cmd = m.albumList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = ReviewView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = AppendView
		m.progress = tasks.ProgressUpdate{}
		return m, tea.Batch(m.spinner.Tick, m.startAppend())
	}
	return m, nil
}

func (m *Model) newAlbumList(result *tasks.SyncResult) list.Model {
	l := list.New(albumItems(result.Plan.Missing), list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%d albums missing from the sheet", len(result.Plan.Missing))
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	l.SetSize(m.width-4, m.height-8)
	return l
}

func (m *Model) startPlan() tea.Cmd {
	return m.runJob(func(progress chan<- tasks.ProgressUpdate) tea.Msg {
		result, err := m.engine.Run(m.ctx, progress, tasks.SyncOptions{DryRun: true})
		return planReadyMsg{result: result, err: err}
	})
}

func (m *Model) startAppend() tea.Cmd {
	planned := m.planned
	return m.runJob(func(progress chan<- tasks.ProgressUpdate) tea.Msg {
		result, err := m.engine.Apply(m.ctx, progress, planned)
		return appendDoneMsg{result: result, err: err}
	})
}

// runJob runs fn in the background. Its progress updates are relayed as messages and its
// return value is delivered once the progress channel is closed.
func (m *Model) runJob(fn func(progress chan<- tasks.ProgressUpdate) tea.Msg) tea.Cmd {
	progressChan := make(chan tasks.ProgressUpdate, 50)
	finalChan := make(chan tea.Msg, 1)

	go func() {
		finalChan <- fn(progressChan)
		close(progressChan)
	}()

	m.progressChan = progressChan
	m.finalChan = finalChan
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, finalChan := m.progressChan, m.finalChan
	if progressChan == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progressChan
		if !ok {
			return <-finalChan
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) clearJob() {
	m.progressChan = nil
	m.finalChan = nil
}

func (m *Model) renderWorking(title string) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	message := m.progress.Message
	if message == "" {
		message = "Starting..."
	}
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(message)

	if m.progress.Phase == tasks.FetchTracks && m.progress.Total > 0 {
		percent := float64(m.progress.Step) / float64(m.progress.Total)
		b.WriteString("\n\n")
		b.WriteString(m.bar.ViewAs(percent))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}

func (m *Model) renderReview() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.albumList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	rows := len(m.planned.Plan.Rows)
	title := styles.title.Render(fmt.Sprintf("Append %d rows to the sheet?", rows))
	info := fmt.Sprintf("\nAlbums in playlist: %d\nRecorded in sheet: %d\nMissing: %d\n",
		len(m.planned.Aggregate.Albums), m.planned.Plan.Recorded, rows)

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.error.Render(fmt.Sprintf("Sync failed: %v", m.err)), helpView)
	}

	if m.result == nil {
		if m.planned == nil {
			return styles.error.Render("No result available") + "\n\n" + helpView
		}
		return fmt.Sprintf("%s\n\n%s", styles.success.Render("✓ Sheet is up to date"), helpView)
	}

	var b strings.Builder
	b.WriteString(styles.success.Render(fmt.Sprintf("✓ %d rows appended", m.result.RowsAppended)))
	b.WriteString("\n")
	for _, album := range m.result.Plan.Missing {
		fmt.Fprintf(&b, "\n  • %s %s - %s", album.Date, album.Artists, album.Name)
	}
	b.WriteString("\n\n")
	b.WriteString(helpView)
	return b.String()
}
