// Package explorer implements the file explorer panel: three sections
// (scripts, data, audio) of collapsible trees with per-section tool rows.
//
// The explorer holds no data of its own. The owner supplies the tree,
// the active buffer and node, and a Capabilities implementation that
// performs every effect. The explorer only decides which capability a
// gesture maps to.
package explorer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tormodhaugland/maiden/internal/dust"
	"github.com/tormodhaugland/maiden/internal/tree"
)

var (
	// ErrUnwired is returned for events on a section that has no
	// handler for them.
	ErrUnwired = errors.New("section has no handler")
	// ErrUnimplemented marks a declared tool with no behavior.
	ErrUnimplemented = errors.New("tool not implemented")
)

// Capabilities are the effects the explorer can request. Calls are fire
// and forget: the explorer never observes their outcome.
type Capabilities interface {
	ToggleNode(node *tree.Directory, toggled bool)
	ReadDirectory(api dust.Store, url string)
	SelectBuffer(url string)
	CreateScript(buffer string)
	DuplicateScript(buffer string)
	DeleteResource(api dust.Store, buffer string)
	RenameResource(api dust.Store, url, name string, virtual bool)
	ShowModal(m Modal)
	HideModal()
}

// Props is the state the owner hands the explorer on every render.
type Props struct {
	Data         []tree.Node
	ActiveBuffer string
	// ActiveNode is the node the tools act on, nil when nothing is
	// selected.
	ActiveNode tree.Node
	API        dust.Store
	Hidden     bool
}

// Explorer dispatches tree and tool events to capabilities.
type Explorer struct {
	caps     Capabilities
	logger   *slog.Logger
	props    Props
	sections []*Section
}

// New creates an explorer with its three sections.
func New(caps Capabilities, logger *slog.Logger) *Explorer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Explorer{caps: caps, logger: logger}

	data := func() []tree.Node { return e.props.Data }
	e.sections = []*Section{
		NewSection(SectionConfig{
			Name:     SectionScripts,
			Tools:    ScriptTools,
			Data:     data,
			OnToggle: e.OnToggle,
			OnTool:   e.OnScriptTool,
			Logger:   logger,
		}),
		// data mirrors the scripts tree and audio has no source yet;
		// neither is wired to handlers.
		NewSection(SectionConfig{
			Name:   SectionData,
			Tools:  ScriptTools,
			Data:   data,
			Logger: logger,
		}),
		NewSection(SectionConfig{
			Name:   SectionAudio,
			Tools:  ScriptTools,
			Logger: logger,
		}),
	}
	return e
}

// SetProps replaces the owner-supplied state.
func (e *Explorer) SetProps(p Props) {
	e.props = p
}

// Props returns the current owner-supplied state.
func (e *Explorer) Props() Props {
	return e.props
}

// Hidden reports whether the owner has hidden the panel.
func (e *Explorer) Hidden() bool {
	return e.props.Hidden
}

// Sections returns the sections in display order.
func (e *Explorer) Sections() []*Section {
	return e.sections
}

// Section returns the section with the given name, or nil.
func (e *Explorer) Section(name string) *Section {
	for _, s := range e.sections {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// OnToggle handles a tree toggle. Directories are expanded or collapsed,
// and expanding one also asks for its listing. Leaves are selected.
func (e *Explorer) OnToggle(node tree.Node, toggled bool) {
	switch n := node.(type) {
	case *tree.Directory:
		e.caps.ToggleNode(n, toggled)
		if toggled {
			e.caps.ReadDirectory(e.props.API, n.URL)
		}
	case *tree.Leaf:
		e.caps.SelectBuffer(n.URL)
	}
}

// OnScriptTool handles a scripts header tool. Unknown names are logged
// and ignored.
func (e *Explorer) OnScriptTool(name string) {
	switch name {
	case ToolAdd:
		e.caps.CreateScript(e.props.ActiveBuffer)
	case ToolDuplicate:
		e.caps.DuplicateScript(e.props.ActiveBuffer)
	case ToolRemove:
		e.handleRemove()
	case ToolRename:
		e.handleRename()
	case ToolNewFolder:
		e.logger.Info("tool pressed", "tool", name, "error", ErrUnimplemented)
	default:
		e.logger.Debug("unhandled tool", "tool", name)
	}
}

func (e *Explorer) handleRemove() {
	node := e.props.ActiveNode
	if node == nil {
		e.logger.Debug("remove with nothing selected")
		return
	}

	api := e.props.API
	buffer := e.props.ActiveBuffer
	e.caps.ShowModal(&ConfirmModal{
		Message:    fmt.Sprintf("Delete %q?", node.Base().Name),
		Supporting: "This operation cannot be undone.",
		complete: e.closing(func(choice Choice, _ string) {
			e.logger.Debug("remove modal closed", "choice", choice)
			if choice == ChoiceOK {
				e.caps.DeleteResource(api, buffer)
			}
		}),
	})
}

func (e *Explorer) handleRename() {
	node := e.props.ActiveNode
	if node == nil {
		e.logger.Debug("rename with nothing selected")
		return
	}

	api := e.props.API
	attrs := *node.Base()
	e.caps.ShowModal(&RenameModal{
		Message:     "Rename",
		InitialName: attrs.Name,
		complete: e.closing(func(choice Choice, input string) {
			e.logger.Debug("rename modal closed", "choice", choice, "name", input)
			// whitespace alone counts as no name; anything else is
			// forwarded as typed
			if choice == ChoiceOK && strings.TrimSpace(input) != "" {
				e.caps.RenameResource(api, attrs.URL, input, attrs.Virtual)
			}
		}),
	})
}

// closing wraps a modal continuation so the modal is hidden after it
// runs, on every path, and so a second completion does nothing.
func (e *Explorer) closing(fn func(Choice, string)) func(Choice, string) {
	done := false
	return func(choice Choice, input string) {
		if done {
			return
		}
		done = true
		defer e.caps.HideModal()
		fn(choice, input)
	}
}
