// Package parser turns act files into a DocTree.
package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dgallion1/lawgpt/internal/doctree"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ParseFile opens path and parses it with the parser for its extension.
func ParseFile(path string) (*doctree.DocTree, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	tree, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tree, nil
}

var (
	actNoiseRe  = regexp.MustCompile(`(?i)(bare act|copy|pdf)`)
	separatorRe = regexp.MustCompile(`[_\-]+`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// InferActName derives an act name from a file name. The extension and the
// words "bare act", "copy" and "pdf" are removed before underscores and dashes
// become spaces, so "IT_Act_2000 Bare Act.pdf" becomes "IT Act 2000". An
// empty result falls back to the bare file name.
func InferActName(filename string) string {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := actNoiseRe.ReplaceAllString(name, "")
	cleaned = separatorRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(spaceRe.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return name
	}
	return cleaned
}

func stripExt(filename string, exts ...string) string {
	for _, ext := range exts {
		if strings.HasSuffix(strings.ToLower(filename), ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}
