package tui

import (
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tormodhaugland/maiden/internal/dust"
)

// editedMsg reports that the external editor exited.
type editedMsg struct {
	url string
	err error
}

// editorArgv splits the configured editor command, falling back to
// $EDITOR and then vi.
func editorArgv(configured string) []string {
	for _, candidate := range []string{configured, os.Getenv("EDITOR")} {
		if argv := strings.Fields(candidate); len(argv) > 0 {
			return argv
		}
	}
	return []string{"vi"}
}

// editActive hands the active buffer to the external editor. Only files
// of a local store that exist on disk can be edited this way.
func (m *Model) editActive() {
	b, ok := m.buffers[m.activeBuffer]
	if !ok {
		m.setStatus("nothing to edit", true)
		return
	}
	if b.virtual {
		m.setStatus("save "+dust.Base(b.url)+" before editing", true)
		return
	}
	local, ok := m.store.(*dust.LocalStore)
	if !ok {
		m.setStatus("editing needs a local dust directory", true)
		return
	}
	_, p, err := local.Locate(b.url)
	if err != nil {
		m.fail("edit", err)
		return
	}

	argv := append(editorArgv(m.editor), p)
	url := b.url
	m.logger.Debug("launching editor", "argv", argv)
	m.enqueue(tea.ExecProcess(exec.Command(argv[0], argv[1:]...), func(err error) tea.Msg {
		return editedMsg{url: url, err: err}
	}))
}

func (m *Model) handleEdited(msg editedMsg) {
	if msg.err != nil {
		m.fail("editor", msg.err)
	}
	// the file may have changed even if the editor failed
	if b, ok := m.buffers[msg.url]; ok {
		b.loaded = false
	}
	m.enqueue(readCmd(m.ctx, m.store, msg.url))
	m.enqueue(listCmd(m.ctx, m.store, dust.Parent(msg.url)))
}
