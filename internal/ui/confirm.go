package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// confirmWord must be typed in full; a bare enter or any other input aborts.
const confirmWord = "yes"

// ConfirmModel is a minimal bubbletea model that asks the user to type the
// confirmation word before a destructive operation proceeds.
type ConfirmModel struct {
	input     textinput.Model
	prompt    string
	done      bool
	confirmed bool
}

func NewConfirm(prompt string) ConfirmModel {
	ti := textinput.New()
	ti.Placeholder = confirmWord
	ti.CharLimit = 16
	ti.Width = 20
	ti.Focus()
	return ConfirmModel{input: ti, prompt: prompt}
}

func (m ConfirmModel) Init() tea.Cmd { return textinput.Blink }

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.confirmed = strings.EqualFold(strings.TrimSpace(m.input.Value()), confirmWord)
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ConfirmModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s\n",
		Warn(m.prompt),
		m.input.View(),
		Help(fmt.Sprintf("type %q and press enter to continue, esc to abort", confirmWord)))
}

// Confirmed reports whether the user typed the confirmation word.
func (m ConfirmModel) Confirmed() bool { return m.confirmed }

// ConfirmDestructive runs the prompt and reports the user's answer. Any
// outcome other than the exact confirmation word counts as a refusal.
func ConfirmDestructive(prompt string) (bool, error) {
	final, err := tea.NewProgram(NewConfirm(prompt)).Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}

	model, ok := final.(ConfirmModel)
	if !ok {
		return false, nil
	}
	return model.Confirmed(), nil
}
