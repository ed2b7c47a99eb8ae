package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ormasoftchile/mobup/pkg/pipeline"
)

// --- Tea messages ---

// eventMsg wraps a pipeline event delivered to the model.
type eventMsg pipeline.Event

// eventsClosedMsg signals that the engine finished publishing.
type eventsClosedMsg struct{}

type rowStatus int

const (
	rowPending rowStatus = iota
	rowRunning
	rowPassed
	rowFailed
	rowWarned
	rowSkipped
)

type stepRow struct {
	name     string
	title    string
	status   rowStatus
	detail   string
	attempts int
	elapsed  time.Duration
}

// TUI renders the pipeline as a live step list. It implements
// pipeline.Reporter; Publish hands events to the Bubble Tea program
// through a channel so rendering stays off the engine's goroutine.
type TUI struct {
	events chan pipeline.Event
	cancel context.CancelFunc
	mode   string
}

// NewTUI returns a reporter that feeds a live view. cancel is invoked
// when the user interrupts from the keyboard.
func NewTUI(mode string, cancel context.CancelFunc) *TUI {
	return &TUI{
		events: make(chan pipeline.Event, 64),
		cancel: cancel,
		mode:   mode,
	}
}

func (t *TUI) Publish(ev pipeline.Event) {
	t.events <- ev
}

// Run starts the engine in a goroutine and drives the live view until
// the engine stops publishing. The engine's error is returned; view
// errors are secondary.
func (t *TUI) Run(steps []pipeline.Step, run func() error) error {
	var runErr error
	go func() {
		runErr = run()
		close(t.events)
	}()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	rows := make([]stepRow, len(steps))
	for i, s := range steps {
		rows[i] = stepRow{name: s.Name, title: s.Title}
	}

	m := tuiModel{
		rows:    rows,
		spinner: sp,
		events:  t.events,
		cancel:  t.cancel,
		mode:    t.mode,
		width:   80,
	}
	// Inline rendering (no alt screen) so the final frame survives in
	// scrollback and the post-run prompt gets a normal terminal.
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		if runErr != nil {
			return runErr
		}
		return fmt.Errorf("render progress: %w", err)
	}
	return runErr
}

type tuiModel struct {
	rows        []stepRow
	spinner     spinner.Model
	events      <-chan pipeline.Event
	cancel      context.CancelFunc
	mode        string
	summary     *pipeline.Summary
	abortReason string
	done        bool
	interrupted bool
	width       int
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

// listen waits for the next engine event.
func (m tuiModel) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Ask the engine to stop; the view quits when events close.
			m.interrupted = true
			if m.cancel != nil {
				m.cancel()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.apply(pipeline.Event(msg))
		return m, m.listen()

	case eventsClosedMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *tuiModel) apply(ev pipeline.Event) {
	row := m.row(ev.Step)
	switch ev.Kind {
	case pipeline.EventStepStarted:
		if row != nil {
			row.status = rowRunning
		}
	case pipeline.EventStepTick:
		if row != nil {
			row.elapsed = ev.Elapsed
		}
	case pipeline.EventStepSkipped:
		if row != nil {
			row.status = rowSkipped
			row.detail = ev.Outcome.Reason
		}
	case pipeline.EventStepSucceeded:
		if row != nil {
			row.status = rowPassed
			row.attempts = ev.Outcome.Attempts
			row.elapsed = ev.Outcome.EndedAt.Sub(ev.Outcome.StartedAt)
		}
	case pipeline.EventStepFailed:
		if row != nil {
			row.status = rowFailed
			if !ev.Outcome.Fatal {
				row.status = rowWarned
			}
			row.detail = ev.Outcome.Error
			row.attempts = ev.Outcome.Attempts
		}
	case pipeline.EventRunCompleted:
		m.summary = ev.Summary
	case pipeline.EventRunAborted:
		m.summary = ev.Summary
		m.abortReason = ev.Message
	}
}

func (m *tuiModel) row(name string) *stepRow {
	for i := range m.rows {
		if m.rows[i].name == name {
			return &m.rows[i]
		}
	}
	return nil
}

func (m tuiModel) View() string {
	var b strings.Builder

	done := 0
	for _, row := range m.rows {
		if row.status != rowPending && row.status != rowRunning {
			done++
		}
	}
	header := headerStyle.Render("mobup " + m.mode)
	if m.mode == "dry-run" {
		header += " " + modeBadgeStyle.Render("DRY-RUN")
	}
	header += stepDetail.Render(fmt.Sprintf("  %d/%d", done, len(m.rows)))
	b.WriteString(header + "\n\n")

	for i, row := range m.rows {
		b.WriteString(m.renderRow(i, row) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.abortReason != "":
		b.WriteString(abortBannerStyle.Render(GlyphAborted+" aborted: "+m.abortReason) + "\n")
	case m.summary != nil:
		s := m.summary
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			summaryPassedStyle.Render(fmt.Sprintf("%s%d", GlyphPassed, s.Succeeded)),
			summaryFailedStyle.Render(fmt.Sprintf("%s%d", GlyphFailed, s.Failed)),
			summaryStatStyle.Render(fmt.Sprintf("%s%d", GlyphWarning, s.Warnings)),
			summaryStatStyle.Render(fmt.Sprintf("%s%d", GlyphSkipped, s.Skipped))))
	case m.interrupted:
		b.WriteString(stepDetail.Render("stopping after current attempt...") + "\n")
	default:
		b.WriteString(stepDetail.Render("q or ctrl+c to stop") + "\n")
	}
	return b.String()
}

func (m tuiModel) renderRow(i int, row stepRow) string {
	ordinal := fmt.Sprintf("%2d.", i+1)
	switch row.status {
	case rowRunning:
		line := fmt.Sprintf("%s %s %s", ordinal, m.spinner.View(), row.title)
		if row.elapsed > 0 {
			line += stepDetail.Render(fmt.Sprintf("  (%s)", row.elapsed.Round(time.Second)))
		}
		return stepCurrent.Render(line)
	case rowPassed:
		line := fmt.Sprintf("%s %s %s", ordinal, GlyphPassed, row.title)
		if row.attempts > 1 {
			line += fmt.Sprintf("  (%d attempts)", row.attempts)
		}
		return stepPassed.Render(line)
	case rowFailed:
		return stepFailed.Render(fmt.Sprintf("%s %s %s  %s", ordinal, GlyphFailed, row.title, row.detail))
	case rowWarned:
		return stepWarned.Render(fmt.Sprintf("%s %s %s  %s", ordinal, GlyphWarning, row.title, row.detail))
	case rowSkipped:
		return stepSkipped.Render(fmt.Sprintf("%s %s %s  (%s)", ordinal, GlyphSkipped, row.title, row.detail))
	default:
		return stepPending.Render(fmt.Sprintf("%s %s %s", ordinal, GlyphPending, row.title))
	}
}
