package parser

import (
	"strings"

	"github.com/dgallion1/lawgpt/internal/doctree"
)

// outline builds a DocNode hierarchy from a stream of headings and text
// blocks. A heading nests under the nearest open heading of a lower level.
type outline struct {
	root    *doctree.DocNode
	stack   []outlineEntry
	pending strings.Builder
}

type outlineEntry struct {
	node  *doctree.DocNode
	level int
}

func newOutline() *outline {
	root := &doctree.DocNode{}
	return &outline{root: root, stack: []outlineEntry{{node: root}}}
}

// heading opens a section at level (1 is the outermost).
func (o *outline) heading(level int, title string, page int) {
	o.flush()
	n := &doctree.DocNode{Title: title, Page: page}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1].node
	parent.Children = append(parent.Children, n)
	o.stack = append(o.stack, outlineEntry{node: n, level: level})
}

// text appends a block to the open section. Blocks are separated by a blank line.
func (o *outline) text(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if o.pending.Len() > 0 {
		o.pending.WriteString("\n\n")
	}
	o.pending.WriteString(t)
}

func (o *outline) flush() {
	t := o.pending.String()
	o.pending.Reset()
	if t == "" {
		return
	}
	top := o.stack[len(o.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// tree finishes the outline. Text seen before the first heading becomes the
// first child so it is not lost.
func (o *outline) tree(title string) *doctree.DocTree {
	o.flush()
	children := o.root.Children
	if o.root.Text != "" {
		children = append([]*doctree.DocNode{{Text: o.root.Text}}, children...)
	}
	return &doctree.DocTree{Title: title, Children: children}
}
