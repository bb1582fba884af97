package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	Collapse    key.Binding
	NextSection key.Binding
	PrevSection key.Binding
	Save        key.Binding
	Edit        key.Binding
	Hide        key.Binding
	Find        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "up")),
	Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "down")),
	Toggle:      key.NewBinding(key.WithKeys("enter", " ", "l", "right"), key.WithHelp("enter", "open/expand")),
	Collapse:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h", "collapse")),
	NextSection: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next section")),
	PrevSection: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev section")),
	Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "open in editor")),
	Hide:        key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "toggle explorer")),
	Find:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find")),
	PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll up")),
	PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdown", "scroll down")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
