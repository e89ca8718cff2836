package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/lawgpt/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	o := newOutline()
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			o.heading(h.Level, string(h.Text(src)), 0)
			continue
		}
		o.text(extractText(n, src))
	}
	return o.tree(stripExt(filename, ".markdown", ".md")), nil
}

// extractText returns the plain text of a block. Inline text comes from the
// node's children; leaf blocks such as code keep their raw lines.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeText(&buf, n, src)
	return strings.TrimSpace(buf.String())
}

func writeText(buf *bytes.Buffer, n ast.Node, src []byte) {
	if t, ok := n.(*ast.Text); ok {
		buf.Write(t.Value(src))
		if t.HardLineBreak() || t.SoftLineBreak() {
			buf.WriteByte('\n')
		}
		return
	}
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() == ast.TypeBlock && buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			buf.WriteByte('\n')
		}
		writeText(buf, c, src)
	}
}
