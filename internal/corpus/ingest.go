package corpus

import (
	"fmt"
	"strings"

	"github.com/dgallion1/lawgpt/internal/chunker"
	"github.com/dgallion1/lawgpt/internal/doctree"
	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/parser"
)

// Ingester turns act files into documents.
type Ingester struct {
	Chunking chunker.Config
}

// File parses one act file. The act name comes from the file name.
func (in Ingester) File(path string) ([]domain.Document, error) {
	tree, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Documents(parser.InferActName(path), tree, in.Chunking), nil
}

// Documents converts a parsed act into documents. A paged tree (PDF pages or
// a page table) yields one document per page titled "<act> - Page N". Any
// other tree is cut into passages titled by their heading path.
func Documents(act string, tree *doctree.DocTree, cfg chunker.Config) []domain.Document {
	slug := Slug(act)
	if slug == "" {
		slug = "act"
	}
	if paged(tree) {
		docs := make([]domain.Document, 0, len(tree.Children))
		for _, n := range tree.Children {
			text := strings.TrimSpace(n.Text)
			if text == "" {
				continue
			}
			docs = append(docs, domain.Document{
				ID:      fmt.Sprintf("%s-p%d", slug, n.Page),
				ActName: act,
				Title:   fmt.Sprintf("%s - Page %d", act, n.Page),
				PageNo:  n.Page,
				Content: text,
			})
		}
		return docs
	}

	chunks := chunker.ChunkTree(tree, cfg)
	docs := make([]domain.Document, 0, len(chunks))
	for _, c := range chunks {
		n := c.Index + 1
		title := fmt.Sprintf("%s - Part %d", act, n)
		if label := c.Label(); label != "" {
			title = act + " - " + label
		}
		page := c.PageStart
		if page <= 0 {
			page = n
		}
		docs = append(docs, domain.Document{
			ID:      fmt.Sprintf("%s-c%d", slug, n),
			ActName: act,
			Title:   title,
			PageNo:  page,
			Content: c.Text,
		})
	}
	return docs
}

// paged reports whether every top-level node is a flat, numbered page.
func paged(tree *doctree.DocTree) bool {
	if len(tree.Children) == 0 {
		return false
	}
	for _, n := range tree.Children {
		if n.Page <= 0 || len(n.Children) > 0 {
			return false
		}
	}
	return true
}
