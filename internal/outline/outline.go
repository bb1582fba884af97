// Package outline extracts a symbol outline from script buffers using
// tree-sitter, for display above the buffer view.
package outline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/lua"
)

// ErrUnsupported is returned for files with no known grammar.
var ErrUnsupported = errors.New("unsupported file type")

// Symbol is one named definition in a script.
type Symbol struct {
	Name string
	Kind string
	Line int // 1-indexed
}

// Outline is the parse result of one buffer.
type Outline struct {
	Symbols []Symbol
	// HasError is set when the parser had to recover from a syntax error.
	HasError bool
}

// functionTypes covers the node names used by the lua grammars for
// named function statements.
var functionTypes = map[string]bool{
	"function_declaration":       true,
	"local_function_declaration": true,
	"local_function":             true,
	"function_statement":         true,
}

// Supported reports whether name has a grammar.
func Supported(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".lua")
}

// Parse builds the outline of source, picking the grammar by file name.
func Parse(ctx context.Context, source []byte, name string) (*Outline, error) {
	if !Supported(name) {
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lua.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	out := &Outline{HasError: root.HasError()}
	walk(root, source, &out.Symbols)
	return out, nil
}

func walk(node *sitter.Node, source []byte, symbols *[]Symbol) {
	if functionTypes[node.Type()] {
		if name := symbolName(node, source); name != "" {
			*symbols = append(*symbols, Symbol{
				Name: name,
				Kind: "function",
				Line: int(node.StartPoint().Row) + 1,
			})
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), source, symbols)
	}
}

func symbolName(node *sitter.Node, source []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return n.Content(source)
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier", "function_name", "dot_index_expression", "method_index_expression":
			return child.Content(source)
		}
	}
	return ""
}

// Summary renders the outline as a single line, e.g. "ƒ init · ƒ redraw".
func (o *Outline) Summary() string {
	if o == nil || len(o.Symbols) == 0 {
		return ""
	}
	parts := make([]string, 0, len(o.Symbols))
	for _, s := range o.Symbols {
		parts = append(parts, "ƒ "+s.Name)
	}
	return strings.Join(parts, " · ")
}
