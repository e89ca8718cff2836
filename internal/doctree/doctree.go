// Package doctree holds the parsed shape of an act: sections nested by
// heading, and the passages cut from them.
package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Walk visits every node depth-first in document order. Returning false from
// fn skips the node's children.
func (t *DocTree) Walk(fn func(n *DocNode, depth int) bool) {
	var visit func(n *DocNode, depth int)
	visit = func(n *DocNode, depth int) {
		if !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, c := range t.Children {
		visit(c, 0)
	}
}

// Chunk is a passage of one section with its heading path.
type Chunk struct {
	Text       string   // Passage text
	Index      int      // Sequence number within document
	Breadcrumb []string // Heading path, e.g. ["Chapter IX", "Section 43A"]
	PageStart  int
	PageEnd    int
}

// Label joins the breadcrumb for display.
func (c Chunk) Label() string {
	return strings.Join(c.Breadcrumb, " / ")
}
