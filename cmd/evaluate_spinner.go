package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type evaluateDoneMsg struct {
	err error
}

type evaluateSpinnerModel struct {
	spinner  spinner.Model
	label    string
	evaluate tea.Cmd
	err      error
	done     bool
}

func newEvaluateSpinnerModel(label string, evaluate tea.Cmd) evaluateSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return evaluateSpinnerModel{
		spinner:  s,
		label:    label,
		evaluate: evaluate,
	}
}

func (m evaluateSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.evaluate)
}

func (m evaluateSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case evaluateDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m evaluateSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runEvaluateSpinner(ctx context.Context, output io.Writer, evaluate func(context.Context) error) error {
	evaluateCmd := func() tea.Msg {
		return evaluateDoneMsg{err: evaluate(ctx)}
	}

	p := tea.NewProgram(
		newEvaluateSpinnerModel("Evaluating conversation...", evaluateCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(evaluateSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
