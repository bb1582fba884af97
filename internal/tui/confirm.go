package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tormodhaugland/maiden/internal/explorer"
)

var (
	confirmLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	confirmSupportingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	confirmHintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	modalBoxStyle          = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("212")).
				Padding(1, 2)
)

// modalView renders an explorer modal and turns keys into its answer.
type modalView interface {
	Update(msg tea.KeyMsg) tea.Cmd
	View() string
}

func newModalView(m explorer.Modal) modalView {
	switch m := m.(type) {
	case *explorer.ConfirmModal:
		return newConfirmView(m)
	case *explorer.RenameModal:
		return newRenameView(m)
	default:
		return nil
	}
}

type confirmView struct {
	modal    *explorer.ConfirmModal
	selected bool // true = Yes, false = No
}

func newConfirmView(m *explorer.ConfirmModal) *confirmView {
	return &confirmView{
		modal: m,
		// destructive, so default to No
		selected: false,
	}
}

func (v *confirmView) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		v.modal.Complete(explorer.ChoiceCancel, "")

	case "left", "right", "tab", "h", "l":
		v.selected = !v.selected

	case "y", "Y":
		v.selected = true
		v.modal.Complete(explorer.ChoiceOK, "")

	case "n", "N":
		v.selected = false
		v.modal.Complete(explorer.ChoiceCancel, "")

	case "enter":
		if v.selected {
			v.modal.Complete(explorer.ChoiceOK, "")
		} else {
			v.modal.Complete(explorer.ChoiceCancel, "")
		}
	}
	return nil
}

func (v *confirmView) View() string {
	var sb strings.Builder

	sb.WriteString(confirmLabelStyle.Render(v.modal.Message) + "\n")
	if v.modal.Supporting != "" {
		sb.WriteString(confirmSupportingStyle.Render(v.modal.Supporting) + "\n")
	}
	sb.WriteString("\n")

	yesStyle := lipgloss.NewStyle().Padding(0, 2)
	noStyle := lipgloss.NewStyle().Padding(0, 2)

	if v.selected {
		yesStyle = yesStyle.Background(lipgloss.Color("212")).Foreground(lipgloss.Color("0"))
	} else {
		noStyle = noStyle.Background(lipgloss.Color("212")).Foreground(lipgloss.Color("0"))
	}

	sb.WriteString(fmt.Sprintf("  %s  %s\n", yesStyle.Render("OK"), noStyle.Render("Cancel")))
	sb.WriteString("\n" + confirmHintStyle.Render("←/→: select • enter: confirm • y/n: quick select • esc: cancel"))

	return modalBoxStyle.Render(sb.String())
}
