package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/lawgpt/internal/doctree"
)

// PDFParser handles bare act PDFs. Each non-empty page becomes one child
// titled "Page N" so page numbers survive into the corpus. Text comes from
// ledongthuc/pdf, or from pdftotext when the library fails or finds nothing.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "lawgpt-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := extractPDFText(tmpPath)
	if p.FallbackPdftotext && (err != nil || blank(text)) {
		if alt, altErr := extractPdftotext(tmpPath); altErr == nil {
			text, err = alt, nil
		} else if err != nil {
			err = altErr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{Title: stripExt(filename, ".pdf")}

	for i, page := range strings.Split(text, "\f") {
		page = cleanPage(page)
		if page == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Page %d", i+1),
			Text:  page,
			Page:  i + 1,
		})
	}

	return tree, nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		// Separators are written for every page so page numbers stay aligned.
		if i > 1 {
			buf.WriteString("\f")
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

var (
	// Running page markers printed by most gazette and bare act PDFs.
	pageMarkerRe = regexp.MustCompile(`(?i)^(page\s+)?\d{1,4}(\s+of\s+\d{1,4})?$`)
	hyphenBreak  = regexp.MustCompile(`(\p{L})-\n\s*(\p{Ll})`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
)

// cleanPage drops page-number lines and trailing spaces, rejoins words split
// across lines, and collapses runs of blank lines.
func cleanPage(page string) string {
	lines := strings.Split(strings.ReplaceAll(page, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if pageMarkerRe.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	out = hyphenBreak.ReplaceAllString(out, "$1$2")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func blank(text string) bool {
	return strings.TrimSpace(strings.ReplaceAll(text, "\f", "")) == ""
}
