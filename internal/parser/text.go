package parser

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/lawgpt/internal/doctree"
)

// Statute divisions recognised on their own line in plain text, outermost first.
var legalHeadings = []struct {
	re    *regexp.Regexp
	level int
}{
	{regexp.MustCompile(`(?i)^part\s+[ivxlc0-9]+[a-z]?\b`), 1},
	{regexp.MustCompile(`(?i)^chapter\s+[ivxlc0-9]+[a-z]?\b`), 2},
	{regexp.MustCompile(`(?i)^(the\s+)?(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth)?\s*schedule\b`), 2},
	{regexp.MustCompile(`(?i)^(section|article)\s+\d+[a-z]*\b`), 3},
}

// maxHeadingLen keeps long body lines that happen to start with "Section 5"
// from being read as headings.
const maxHeadingLen = 120

func legalHeadingLevel(line string) int {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > maxHeadingLen {
		return 0
	}
	for _, h := range legalHeadings {
		if h.re.MatchString(line) {
			return h.level
		}
	}
	return 0
}

// TextParser handles plain text files. Paragraphs are split on blank lines.
// When the text carries statute headings (Part, Chapter, Schedule, Section,
// Article) the paragraphs nest under them.
type TextParser struct{}

type textBlock struct {
	level int // 0 for a paragraph
	text  string
}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var blocks []textBlock
	var current strings.Builder
	headings := 0

	flush := func() {
		if current.Len() > 0 {
			blocks = append(blocks, textBlock{text: current.String()})
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if level := legalHeadingLevel(line); level > 0 {
			flush()
			blocks = append(blocks, textBlock{level: level, text: strings.TrimSpace(line)})
			headings++
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	title := stripExt(filename, ".txt")
	if headings == 0 {
		tree := &doctree.DocTree{Title: title}
		for _, b := range blocks {
			tree.Children = append(tree.Children, &doctree.DocNode{Text: b.text})
		}
		return tree, nil
	}

	o := newOutline()
	for _, b := range blocks {
		if b.level > 0 {
			o.heading(b.level, b.text, 0)
		} else {
			o.text(b.text)
		}
	}
	return o.tree(title), nil
}
