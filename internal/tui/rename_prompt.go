package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tormodhaugland/maiden/internal/explorer"
)

var (
	renameTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				MarginBottom(1)

	renameHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type renameView struct {
	modal *explorer.RenameModal
	input textinput.Model
}

func newRenameView(m *explorer.RenameModal) *renameView {
	input := textinput.New()
	input.Placeholder = "name"
	input.CharLimit = 255
	input.Width = 40
	input.Cursor.SetMode(cursor.CursorStatic)
	input.SetValue(m.InitialName)
	input.CursorEnd()
	input.Focus()

	return &renameView{modal: m, input: input}
}

func (v *renameView) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		v.modal.Complete(explorer.ChoiceCancel, "")
		return nil

	case "enter":
		v.modal.Complete(explorer.ChoiceOK, v.input.Value())
		return nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

func (v *renameView) View() string {
	var sb strings.Builder

	sb.WriteString(renameTitleStyle.Render(v.modal.Message) + "\n")
	sb.WriteString(v.input.View() + "\n")

	if strings.TrimSpace(v.input.Value()) == "" {
		sb.WriteString("\n" + renameHelpStyle.Render("an empty name leaves the file unchanged") + "\n")
	}

	sb.WriteString("\n" + renameHelpStyle.Render("enter: rename • esc: cancel"))

	return modalBoxStyle.Render(sb.String())
}
