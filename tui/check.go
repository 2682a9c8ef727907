package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mindsgn-studio/torutil/engine"
)

// Styles contains all lipgloss styles
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Ok       lipgloss.Style
	Bad      lipgloss.Style
	Help     lipgloss.Style
}

func defaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")),
		Ok: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")),
		Bad: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1),
	}
}

// Messages
type resultMsg engine.PieceResult
type doneMsg struct {
	summary engine.Summary
	err     error
}

// Model is the verification progress model.
type Model struct {
	torrent string
	total   int

	done    int
	valid   int
	current string

	summary *engine.Summary
	err     error

	results <-chan engine.PieceResult
	final   <-chan doneMsg
	cancel  context.CancelFunc

	progressBar progress.Model
	styles      Styles
}

// newModel creates a progress model for a verification run. Piece results
// arrive on results; the summary arrives on final once the run ends.
func newModel(torrent string, total int, results <-chan engine.PieceResult, final <-chan doneMsg, cancel context.CancelFunc) Model {
	return Model{
		torrent: torrent,
		total:   total,
		results: results,
		final:   final,
		cancel:  cancel,
		progressBar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(50),
		),
		styles: defaultStyles(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.wait()
}

// wait blocks on the next verifier event.
func (m Model) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case r, ok := <-m.results:
			if ok {
				return resultMsg(r)
			}
			return <-m.final
		case d := <-m.final:
			return d
		}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, nil
		}
		return m, nil

	case resultMsg:
		m.done++
		if msg.Status == engine.PieceOk {
			m.valid++
		}
		frags := make([]string, 0, len(msg.Fragments))
		for _, f := range msg.Fragments {
			frags = append(frags, f.Describe())
		}
		m.current = fmt.Sprintf("piece %d/%d %s  %s",
			msg.Index+1, m.total, msg.Status, strings.Join(frags, " "))
		return m, m.wait()

	case doneMsg:
		m.summary = &msg.summary
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	title := m.styles.Title.Render("🔍 Verifying: " + m.torrent)

	percent := 1.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}

	counts := fmt.Sprintf("%d valid / %d checked / %d total", m.valid, m.done, m.total)
	style := m.styles.Ok
	if m.valid < m.done {
		style = m.styles.Bad
	}

	lines := []string{
		title,
		m.progressBar.ViewAs(percent),
		style.Render(counts),
		m.styles.Subtitle.Render(m.current),
	}

	if m.summary != nil {
		verdict := m.styles.Ok.Render("no errors detected")
		if m.summary.ErrorsDetected {
			verdict = m.styles.Bad.Render("errors detected")
		}
		lines = append(lines, "", verdict)
		for _, extra := range m.summary.ExtraFiles {
			lines = append(lines, m.styles.Subtitle.Render("extra file: "+extra))
		}
	} else {
		lines = append(lines, m.styles.Help.Render("[q] Cancel"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

// RunCheck verifies m under opts with an interactive progress display and
// returns the run's summary. The verifier runs in the background; the UI
// consumes its per-piece results.
func RunCheck(ctx context.Context, meta *engine.MetaInfo, opts engine.CheckOptions) (engine.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan engine.PieceResult)
	final := make(chan doneMsg, 1)

	opts.Progress = func(r engine.PieceResult) {
		results <- r
	}

	go func() {
		summary, err := engine.Check(ctx, meta, opts)
		close(results)
		final <- doneMsg{summary: summary, err: err}
	}()

	model := newModel(meta.Name(), meta.NumPieces(), results, final, cancel)
	p := tea.NewProgram(model)
	out, err := p.Run()
	if err != nil {
		return engine.Summary{}, fmt.Errorf("error running TUI: %w", err)
	}

	m := out.(Model)
	if m.summary == nil {
		// UI ended before the verifier; drain it.
		cancel()
		for range results {
		}
		d := <-m.final
		return d.summary, d.err
	}
	return *m.summary, m.err
}
