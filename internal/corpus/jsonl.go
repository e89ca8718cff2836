package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/lawgpt/internal/domain"
)

// ReadJSONL decodes one document per line. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]domain.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var docs []domain.Document
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var d domain.Document
		if err := json.Unmarshal([]byte(text), &d); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := validate(d); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return docs, nil
}

// WriteJSONL encodes one document per line.
func WriteJSONL(w io.Writer, docs []domain.Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode %s: %w", d.ID, err)
		}
	}
	return nil
}
