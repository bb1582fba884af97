package explorer

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/tormodhaugland/maiden/internal/tree"
)

// Styles holds the lipgloss styles the explorer renders with.
type Styles struct {
	Header      lipgloss.Style
	SectionName lipgloss.Style
	Tool        lipgloss.Style
	ToolHidden  lipgloss.Style
	Entry       lipgloss.Style
	Dirty       lipgloss.Style
	Active      lipgloss.Style
	Toggle      lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Header:      lipgloss.NewStyle(),
		SectionName: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")),
		Tool:        lipgloss.NewStyle().Foreground(lipgloss.Color("254")),
		ToolHidden:  lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		Entry:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Dirty:       lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214")),
		Active:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Toggle:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// NodeClasses returns the class list of a node label: always
// "explorer-entry" and "noselect", plus "dirty" and "active" when set.
func NodeClasses(n tree.Node) []string {
	a := n.Base()
	classes := []string{"explorer-entry", "noselect"}
	if a.Modified {
		classes = append(classes, "dirty")
	}
	if a.Active {
		classes = append(classes, "active")
	}
	return classes
}

// RenderNode draws a node label styled by its classes.
func RenderNode(n tree.Node, st Styles) string {
	style := st.Entry
	for _, class := range NodeClasses(n) {
		switch class {
		case "dirty":
			style = st.Dirty.Inherit(style)
		case "active":
			style = st.Active.Inherit(style)
		}
	}
	return style.Render(n.Base().Name)
}

// Point is a vertex of the disclosure triangle.
type Point struct {
	X, Y float64
}

// Toggle is the disclosure indicator drawn next to a directory.
type Toggle struct {
	Height float64
	Width  float64
}

// Points returns the triangle (0,0) (0,h) (w,h/2).
func (t Toggle) Points() [3]Point {
	mid := t.Height * 0.5
	return [3]Point{{0, 0}, {0, t.Height}, {t.Width, mid}}
}

// String formats the vertices as an SVG points attribute.
func (t Toggle) String() string {
	p := t.Points()
	return fmt.Sprintf("%s,%s %s,%s %s,%s",
		num(p[0].X), num(p[0].Y), num(p[1].X), num(p[1].Y), num(p[2].X), num(p[2].Y))
}

// Glyph is the terminal rendition of the indicator.
func (t Toggle) Glyph(toggled bool) string {
	if toggled {
		return "▾"
	}
	return "▸"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
