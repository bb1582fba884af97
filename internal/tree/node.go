// Package tree models the explorer's file tree. A node is either a
// *Directory or a *Leaf; there is no third kind, so callers switch on
// the concrete type instead of probing for children.
package tree

import (
	"sort"
	"strings"

	"github.com/tormodhaugland/maiden/internal/dust"
)

// Attrs are the attributes shared by every node.
type Attrs struct {
	Name     string
	URL      string
	Active   bool
	Modified bool
	// Virtual marks an entry that exists only in memory (an unsaved
	// script).
	Virtual bool
}

// Node is implemented by *Directory and *Leaf only.
type Node interface {
	Base() *Attrs
	isNode()
}

// Directory is an expandable node.
type Directory struct {
	Attrs
	Toggled bool
	// Loaded is set once Children reflects a directory listing.
	Loaded   bool
	Children []Node
}

// Leaf is a selectable resource.
type Leaf struct {
	Attrs
}

func (d *Directory) Base() *Attrs { return &d.Attrs }
func (l *Leaf) Base() *Attrs      { return &l.Attrs }

func (*Directory) isNode() {}
func (*Leaf) isNode()      {}

// FromEntries converts listing entries into unloaded nodes.
func FromEntries(entries []dust.Entry) []Node {
	nodes := make([]Node, 0, len(entries))
	for _, e := range entries {
		nodes = append(nodes, FromEntry(e))
	}
	return nodes
}

// FromEntry converts a single listing entry.
func FromEntry(e dust.Entry) Node {
	attrs := Attrs{Name: e.Name, URL: e.URL}
	if !e.IsDir() {
		return &Leaf{Attrs: attrs}
	}
	dir := &Directory{Attrs: attrs}
	if len(*e.Children) > 0 {
		dir.Children = FromEntries(*e.Children)
		dir.Loaded = true
	}
	return dir
}

// Find returns the node with the given URL, or nil.
func Find(roots []Node, url string) Node {
	var found Node
	Walk(roots, func(n Node, _ int) bool {
		if n.Base().URL == url {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindDir returns the directory with the given URL, or nil.
func FindDir(roots []Node, url string) *Directory {
	if d, ok := Find(roots, url).(*Directory); ok {
		return d
	}
	return nil
}

// Walk visits nodes depth first. Returning false from fn stops the walk.
func Walk(roots []Node, fn func(n Node, depth int) bool) {
	walk(roots, 0, fn)
}

func walk(nodes []Node, depth int, fn func(Node, int) bool) bool {
	for _, n := range nodes {
		if !fn(n, depth) {
			return false
		}
		if d, ok := n.(*Directory); ok {
			if !walk(d.Children, depth+1, fn) {
				return false
			}
		}
	}
	return true
}

// Row is one visible line of a rendered tree.
type Row struct {
	Node  Node
	Depth int
}

// Visible flattens the tree, descending only into expanded directories.
func Visible(roots []Node) []Row {
	var rows []Row
	var visit func(nodes []Node, depth int)
	visit = func(nodes []Node, depth int) {
		for _, n := range nodes {
			rows = append(rows, Row{Node: n, Depth: depth})
			if d, ok := n.(*Directory); ok && d.Toggled {
				visit(d.Children, depth+1)
			}
		}
	}
	visit(roots, 0)
	return rows
}

// Leaves returns every leaf in the tree, loaded or not.
func Leaves(roots []Node) []*Leaf {
	var leaves []*Leaf
	Walk(roots, func(n Node, _ int) bool {
		if l, ok := n.(*Leaf); ok {
			leaves = append(leaves, l)
		}
		return true
	})
	return leaves
}

// Expanded returns the URLs of toggled directories.
func Expanded(roots []Node) []string {
	var urls []string
	Walk(roots, func(n Node, _ int) bool {
		if d, ok := n.(*Directory); ok && d.Toggled {
			urls = append(urls, d.URL)
		}
		return true
	})
	return urls
}

// SetActive marks the node with url active and clears every other node.
func SetActive(roots []Node, url string) {
	Walk(roots, func(n Node, _ int) bool {
		a := n.Base()
		a.Active = url != "" && a.URL == url
		return true
	})
}

// Merge replaces children with the entries of a fresh listing. Nodes
// already present keep their state, and virtual nodes survive even
// though the listing cannot know about them.
func Merge(existing []Node, entries []dust.Entry) []Node {
	byURL := make(map[string]Node, len(existing))
	for _, n := range existing {
		byURL[n.Base().URL] = n
	}

	merged := make([]Node, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.URL] = true
		old, ok := byURL[e.URL]
		if !ok {
			merged = append(merged, FromEntry(e))
			continue
		}
		switch o := old.(type) {
		case *Directory:
			if e.IsDir() {
				merged = append(merged, o)
				continue
			}
		case *Leaf:
			if !e.IsDir() {
				o.Virtual = false
				merged = append(merged, o)
				continue
			}
		}
		merged = append(merged, FromEntry(e))
	}

	for _, n := range existing {
		if n.Base().Virtual && !seen[n.Base().URL] {
			merged = append(merged, n)
		}
	}
	sortNodes(merged)
	return merged
}

// Attach merges a listing into the directory it describes. It returns
// false when the directory is not part of the tree.
func Attach(roots []Node, listing *dust.Listing) bool {
	d := FindDir(roots, listing.URL)
	if d == nil {
		return false
	}
	d.Children = Merge(d.Children, listing.Entries)
	d.Loaded = true
	return true
}

// Insert adds a node to the directory at dirURL, keeping name order.
func Insert(roots []Node, dirURL string, n Node) bool {
	d := FindDir(roots, dirURL)
	if d == nil {
		return false
	}
	d.Children = append(d.Children, n)
	sortNodes(d.Children)
	return true
}

// Remove deletes the node with url from wherever it lives.
func Remove(roots []Node, url string) []Node {
	out := roots[:0:0]
	for _, n := range roots {
		if n.Base().URL == url {
			continue
		}
		if d, ok := n.(*Directory); ok {
			d.Children = Remove(d.Children, url)
		}
		out = append(out, n)
	}
	return out
}

func sortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return strings.ToLower(nodes[i].Base().Name) < strings.ToLower(nodes[j].Base().Name)
	})
}
