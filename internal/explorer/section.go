package explorer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tormodhaugland/maiden/internal/tree"
)

// Tool names dispatched by section headers.
const (
	ToolAdd       = "add"
	ToolRemove    = "remove"
	ToolDuplicate = "duplicate"
	ToolNewFolder = "new-folder"
	ToolRename    = "rename"
)

// Tool is one header button. Key is the shortcut that presses it from
// the keyboard.
type Tool struct {
	Name string
	Icon string
	Key  string
}

// ScriptTools is the tool row of the scripts section. The data and
// audio sections show the same row.
var ScriptTools = []Tool{
	{Name: ToolAdd, Icon: "+", Key: "a"},
	{Name: ToolRemove, Icon: "−", Key: "x"},
	{Name: ToolDuplicate, Icon: "⧉", Key: "d"},
	{Name: ToolNewFolder, Icon: "▣", Key: "n"},
	{Name: ToolRename, Icon: "✎", Key: "r"},
}

// Section names.
const (
	SectionScripts = "scripts"
	SectionData    = "data"
	SectionAudio   = "audio"
)

// HeaderProps is everything a section header needs to render.
type HeaderProps struct {
	Name      string
	Tools     []Tool
	ShowTools bool
	OnTool    func(name string)
}

// Click dispatches a tool by name. It reports whether anything was
// listening.
func (p HeaderProps) Click(name string) bool {
	if p.OnTool == nil {
		return false
	}
	p.OnTool(name)
	return true
}

// ToolForKey returns the tool bound to key.
func (p HeaderProps) ToolForKey(key string) (Tool, bool) {
	for _, t := range p.Tools {
		if t.Key == key {
			return t, true
		}
	}
	return Tool{}, false
}

// RenderHeader draws the section name and its tool row. Hidden tools
// are dimmed rather than dropped so the row never shifts.
func RenderHeader(p HeaderProps, st Styles) string {
	var sb strings.Builder
	sb.WriteString(st.SectionName.Render(strings.ToUpper(p.Name)))

	toolStyle := st.ToolHidden
	if p.ShowTools {
		toolStyle = st.Tool
	}
	icons := make([]string, 0, len(p.Tools))
	for _, t := range p.Tools {
		icons = append(icons, toolStyle.Render(t.Icon))
	}
	if len(icons) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(icons, " "))
	}
	return st.Header.Render(sb.String())
}

// Section is one collapsible group of the explorer. Its only state is
// whether the pointer is over it, which decides if the tool row shows.
type Section struct {
	name     string
	tools    []Tool
	data     func() []tree.Node
	onToggle func(node tree.Node, toggled bool)
	onTool   func(name string)
	logger   *slog.Logger

	toolsVisible bool
}

// SectionConfig wires a section. Nil handlers leave the section
// read-only: events on it fail with ErrUnwired.
type SectionConfig struct {
	Name     string
	Tools    []Tool
	Data     func() []tree.Node
	OnToggle func(node tree.Node, toggled bool)
	OnTool   func(name string)
	Logger   *slog.Logger
}

// NewSection creates a section with its tools hidden.
func NewSection(cfg SectionConfig) *Section {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	data := cfg.Data
	if data == nil {
		data = func() []tree.Node { return nil }
	}
	return &Section{
		name:     cfg.Name,
		tools:    cfg.Tools,
		data:     data,
		onToggle: cfg.OnToggle,
		onTool:   cfg.OnTool,
		logger:   logger,
	}
}

func (s *Section) Name() string       { return s.name }
func (s *Section) Tools() []Tool      { return s.tools }
func (s *Section) Data() []tree.Node  { return s.data() }
func (s *Section) ToolsVisible() bool { return s.toolsVisible }

// PointerEnter shows the tool row.
func (s *Section) PointerEnter() {
	s.toolsVisible = true
}

// PointerLeave hides the tool row.
func (s *Section) PointerLeave() {
	s.toolsVisible = false
}

// Header returns the header props for the current state.
func (s *Section) Header() HeaderProps {
	return HeaderProps{
		Name:      s.name,
		Tools:     s.tools,
		ShowTools: s.toolsVisible,
		OnTool:    s.onTool,
	}
}

// Toggle forwards a tree toggle to the section's handler.
func (s *Section) Toggle(node tree.Node, toggled bool) error {
	if s.onToggle == nil {
		err := fmt.Errorf("%s: toggle: %w", s.name, ErrUnwired)
		s.logger.Debug("ignored toggle", "section", s.name, "url", node.Base().URL, "error", err)
		return err
	}
	s.onToggle(node, toggled)
	return nil
}

// ClickTool presses a header tool.
func (s *Section) ClickTool(name string) error {
	if !s.Header().Click(name) {
		err := fmt.Errorf("%s: %s: %w", s.name, name, ErrUnwired)
		s.logger.Debug("ignored tool", "section", s.name, "tool", name, "error", err)
		return err
	}
	return nil
}
