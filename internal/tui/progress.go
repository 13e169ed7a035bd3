package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/gemhelper/internal/task"
	"github.com/kingrea/gemhelper/internal/ui"
)

const transcriptTail = 8

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	stepStyleDone   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	stepStyleFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	stepStyleActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	stepStyleIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	detailTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// StepExecutor runs one step of a plan. *task.Runner satisfies it.
type StepExecutor interface {
	Execute(ctx context.Context, plan *task.Plan, step *task.Step) error
}

type stepFinishedMsg struct {
	name string
	err  error
}

// Model renders a task run while its steps execute one at a time.
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	exec       StepExecutor
	plan       *task.Plan
	transcript *ui.Transcript
	spinner    spinner.Model

	// status mirrors step outcomes on the UI goroutine; steps themselves are
	// mutated by the executing command.
	status      map[string]task.Status
	current     string
	err         error
	done        bool
	interrupted bool
	width       int
}

// NewModel prepares a progress view for plan. Cancelling ctx through cancel
// aborts the running step.
func NewModel(ctx context.Context, cancel context.CancelFunc, exec StepExecutor, plan *task.Plan, transcript *ui.Transcript) *Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = stepStyleActive
	status := make(map[string]task.Status, len(plan.Steps))
	for _, step := range plan.Steps {
		status[step.Name] = step.Status
	}
	if cancel == nil {
		cancel = func() {}
	}
	if transcript == nil {
		transcript = &ui.Transcript{}
	}
	return &Model{
		ctx:        ctx,
		cancel:     cancel,
		exec:       exec,
		plan:       plan,
		transcript: transcript,
		spinner:    spin,
		status:     status,
	}
}

// Err returns the failure that ended the run, if any.
func (m *Model) Err() error { return m.err }

// Done reports whether the run has finished.
func (m *Model) Done() bool { return m.done }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *Model) next() tea.Cmd {
	var step *task.Step
	for _, candidate := range m.plan.Steps {
		if m.status[candidate.Name] == task.StatusPending {
			step = candidate
			break
		}
	}
	if step == nil {
		m.done = true
		m.current = ""
		return tea.Quit
	}
	m.current = step.Name
	m.status[step.Name] = task.StatusRunning
	ctx, exec, plan := m.ctx, m.exec, m.plan
	return func() tea.Msg {
		return stepFinishedMsg{name: step.Name, err: exec.Execute(ctx, plan, step)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			m.interrupted = true
			m.cancel()
			if m.current == "" {
				m.done = true
				return m, tea.Quit
			}
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepFinishedMsg:
		if msg.err != nil {
			m.status[msg.name] = task.StatusFailed
			m.err = msg.err
			for name, status := range m.status {
				if status == task.StatusPending {
					m.status[name] = task.StatusAborted
				}
			}
			m.current = ""
			m.done = true
			return m, tea.Quit
		}
		m.status[msg.name] = task.StatusCompleted
		return m, m.next()
	}
	return m, nil
}

func (m *Model) View() string {
	title := headerStyle.Render(fmt.Sprintf("gemhelper · %s", m.plan.Target))
	if id := m.plan.RunID; len(id) >= 8 {
		title += detailTextStyle.Render(" · run " + id[:8])
	}
	lines := []string{title, ""}
	for _, step := range m.plan.Steps {
		lines = append(lines, m.renderStep(step))
	}
	if log := m.renderTranscript(); log != "" {
		lines = append(lines, "", log)
	}
	switch {
	case m.err != nil:
		lines = append(lines, "", stepStyleFailed.Render(fmt.Sprintf("%s failed", m.plan.Target)))
	case m.done:
		lines = append(lines, "", stepStyleDone.Render(fmt.Sprintf("%s finished", m.plan.Target)))
	case m.interrupted:
		lines = append(lines, "", detailTextStyle.Render("aborting after the current step…"))
	default:
		lines = append(lines, "", detailTextStyle.Render("ctrl+c=abort"))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *Model) renderStep(step *task.Step) string {
	var icon string
	style := stepStyleIdle
	switch m.status[step.Name] {
	case task.StatusRunning:
		icon, style = m.spinner.View(), stepStyleActive
	case task.StatusCompleted:
		icon, style = "✓", stepStyleDone
	case task.StatusFailed:
		icon, style = "✗", stepStyleFailed
	case task.StatusAborted:
		icon = "-"
	default:
		icon = "·"
	}
	line := fmt.Sprintf("%s %s", icon, style.Render(step.Name))
	if step.Description != "" {
		line += detailTextStyle.Render(" · " + step.Description)
	}
	return line
}

// While running only the tail fits; once finished the whole transcript stays
// on screen.
func (m *Model) renderTranscript() string {
	lines := m.transcript.Lines()
	if !m.done {
		lines = m.transcript.Tail(transcriptTail)
	}
	if len(lines) == 0 {
		return ""
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1)
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	return box.Render(strings.Join(lines, "\n"))
}

// Run executes plan behind the progress view and returns the first step
// failure.
func Run(ctx context.Context, exec StepExecutor, plan *task.Plan, transcript *ui.Transcript, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	model := NewModel(ctx, cancel, exec, plan, transcript)
	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if m, ok := final.(*Model); ok {
		if m.err != nil {
			return m.err
		}
		if m.interrupted {
			return context.Canceled
		}
	}
	return nil
}
