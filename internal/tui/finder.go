package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"github.com/tormodhaugland/maiden/internal/tree"
)

const finderMaxResults = 10

var (
	finderSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	finderMatchStyle    = lipgloss.NewStyle().Underline(true)
)

// finder fuzzy-matches the leaves loaded so far. Unloaded directories
// are not searched.
type finder struct {
	input    textinput.Model
	leaves   []*tree.Leaf
	labels   []string
	matches  fuzzy.Matches
	selected int
}

func newFinder(roots []tree.Node, label func(*tree.Leaf) string) *finder {
	input := textinput.New()
	input.Placeholder = "find file"
	input.CharLimit = 128
	input.Width = 40
	input.Cursor.SetMode(cursor.CursorStatic)
	input.Focus()

	f := &finder{input: input, leaves: tree.Leaves(roots)}
	for _, l := range f.leaves {
		f.labels = append(f.labels, label(l))
	}
	f.refresh()
	return f
}

func (f *finder) refresh() {
	query := strings.TrimSpace(f.input.Value())
	if query == "" {
		f.matches = make(fuzzy.Matches, 0, len(f.labels))
		for i, s := range f.labels {
			f.matches = append(f.matches, fuzzy.Match{Str: s, Index: i})
		}
	} else {
		f.matches = fuzzy.Find(query, f.labels)
	}
	if len(f.matches) > finderMaxResults {
		f.matches = f.matches[:finderMaxResults]
	}
	if f.selected >= len(f.matches) {
		f.selected = len(f.matches) - 1
	}
	if f.selected < 0 {
		f.selected = 0
	}
}

// Update handles a key. It returns the chosen leaf when the user
// accepts, and done when the finder should close.
func (f *finder) Update(msg tea.KeyMsg) (chosen *tree.Leaf, done bool, cmd tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return nil, true, nil
	case "up", "ctrl+p":
		if f.selected > 0 {
			f.selected--
		}
		return nil, false, nil
	case "down", "ctrl+n":
		if f.selected < len(f.matches)-1 {
			f.selected++
		}
		return nil, false, nil
	case "enter":
		if len(f.matches) == 0 {
			return nil, true, nil
		}
		return f.leaves[f.matches[f.selected].Index], true, nil
	}

	f.input, cmd = f.input.Update(msg)
	f.refresh()
	return nil, false, cmd
}

func (f *finder) View() string {
	var sb strings.Builder
	sb.WriteString(renameTitleStyle.Render("Find") + "\n")
	sb.WriteString(f.input.View() + "\n\n")

	if len(f.matches) == 0 {
		sb.WriteString(renameHelpStyle.Render("no matches") + "\n")
	}
	for i, m := range f.matches {
		line := highlight(m)
		if i == f.selected {
			sb.WriteString("> " + finderSelectedStyle.Render(line) + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
	}

	sb.WriteString("\n" + renameHelpStyle.Render("↑/↓: select • enter: open • esc: close"))
	return modalBoxStyle.Render(sb.String())
}

func highlight(m fuzzy.Match) string {
	if len(m.MatchedIndexes) == 0 {
		return m.Str
	}
	matched := make(map[int]bool, len(m.MatchedIndexes))
	for _, i := range m.MatchedIndexes {
		matched[i] = true
	}
	var sb strings.Builder
	for i, r := range m.Str {
		if matched[i] {
			sb.WriteString(finderMatchStyle.Render(string(r)))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
