// Package chunker cuts section text into passages small enough for keyword
// scoring to stay precise.
package chunker

import (
	"strings"

	"github.com/dgallion1/lawgpt/internal/doctree"
)

// Config controls passage sizes, in estimated tokens.
type Config struct {
	ChunkSize    int // Target passage size.
	ChunkOverlap int // Words carried from the end of one passage into the next.
	MinChunk     int // Passages below this size are dropped.
}

// DefaultConfig suits bare act sections, which are usually a few hundred words.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    400,
		ChunkOverlap: 40,
		MinChunk:     8,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = def.ChunkOverlap
	}
	if c.MinChunk <= 0 {
		c.MinChunk = def.MinChunk
	}
	return c
}

// ChunkTree walks a DocTree and produces passages in document order, each
// tagged with its heading path and page.
func ChunkTree(tree *doctree.DocTree, cfg Config) []doctree.Chunk {
	cfg = cfg.withDefaults()

	var chunks []doctree.Chunk
	var path []string
	tree.Walk(func(n *doctree.DocNode, depth int) bool {
		path = append(path[:depth], n.Title)
		if n.Text == "" {
			return true
		}
		bc := breadcrumb(path)
		for _, part := range Split(n.Text, cfg) {
			chunks = append(chunks, doctree.Chunk{
				Text:       part,
				Index:      len(chunks),
				Breadcrumb: bc,
				PageStart:  n.Page,
				PageEnd:    n.Page,
			})
		}
		return true
	})
	return chunks
}

// Split cuts text into passages of about cfg.ChunkSize tokens. It breaks at
// paragraphs first, then sentences, then clause separators, so a passage only
// ends mid-clause when a single clause exceeds the budget.
func Split(text string, cfg Config) []string {
	cfg = cfg.withDefaults()
	var out []string
	for _, part := range splitLevel(strings.TrimSpace(text), 0, cfg) {
		if EstimateTokens(part) >= cfg.MinChunk {
			out = append(out, part)
		}
	}
	return out
}

// levels are the boundaries tried in order, with the joiner used to rebuild text.
var levels = []struct {
	split func(string) []string
	join  string
}{
	{splitParagraphs, "\n\n"},
	{splitSentences, " "},
	{splitClauses, " "},
}

func splitLevel(text string, level int, cfg Config) []string {
	if text == "" {
		return nil
	}
	if EstimateTokens(text) <= cfg.ChunkSize {
		return []string{text}
	}
	if level >= len(levels) {
		return wordWindows(text, cfg)
	}
	units := levels[level].split(text)
	if len(units) <= 1 {
		return splitLevel(text, level+1, cfg)
	}

	var expanded []string
	for _, u := range units {
		if EstimateTokens(u) > cfg.ChunkSize {
			expanded = append(expanded, splitLevel(u, level+1, cfg)...)
		} else {
			expanded = append(expanded, u)
		}
	}
	return pack(expanded, levels[level].join, cfg)
}

// pack greedily fills passages with units, seeding each new passage with the
// tail of the previous one.
func pack(units []string, join string, cfg Config) []string {
	var out []string
	var cur []string
	curTokens := 0
	for _, u := range units {
		t := EstimateTokens(u)
		if curTokens+t > cfg.ChunkSize && curTokens > 0 {
			prev := strings.Join(cur, join)
			out = append(out, prev)
			cur, curTokens = nil, 0
			if tail := overlapTail(prev, cfg.ChunkOverlap); tail != "" {
				cur = append(cur, tail)
				curTokens = EstimateTokens(tail)
			}
		}
		cur = append(cur, u)
		curTokens += t
	}
	if curTokens > 0 {
		out = append(out, strings.Join(cur, join))
	}
	return out
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences splits after '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	return splitAfter(text, func(r rune) bool { return r == '.' || r == '!' || r == '?' })
}

// splitClauses splits after ';' and ':' which separate provisos and
// enumerated clauses in statutes.
func splitClauses(text string) []string {
	return splitAfter(text, func(r rune) bool { return r == ';' || r == ':' })
}

func splitAfter(text string, isEnd func(rune) bool) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		if isEnd(r) && i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n') {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// wordWindows is the last resort for a clause longer than a passage.
func wordWindows(text string, cfg Config) []string {
	words := strings.Fields(text)
	window := max(wordsFor(cfg.ChunkSize), 1)
	var out []string
	for i := 0; i < len(words); i += window {
		out = append(out, strings.Join(words[i:min(i+window, len(words))], " "))
	}
	return out
}

func overlapTail(text string, tokens int) string {
	words := strings.Fields(text)
	n := wordsFor(tokens)
	if n <= 0 || len(words) <= n {
		return ""
	}
	return strings.Join(words[len(words)-n:], " ")
}

func breadcrumb(path []string) []string {
	var bc []string
	for _, p := range path {
		if p != "" {
			bc = append(bc, p)
		}
	}
	return bc
}
