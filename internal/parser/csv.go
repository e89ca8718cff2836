package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/lawgpt/internal/doctree"
)

// Column names accepted for a page table export.
var (
	pageColumns  = []string{"page_no", "page", "page_number"}
	titleColumns = []string{"title", "heading", "section"}
	textColumns  = []string{"content", "text", "body"}
)

// CSVParser handles CSV files. A page table (a header with a content or text
// column) yields one node per row, carrying its page number and title. Any
// other CSV is rendered as labelled rows in batches.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: stripExt(filename, ".csv")}
	if len(records) == 0 {
		return tree, nil
	}

	headers := records[0]
	if textCol := columnIndex(headers, textColumns); textCol >= 0 {
		tree.Children = pageRows(records[1:], textCol, columnIndex(headers, pageColumns), columnIndex(headers, titleColumns))
		return tree, nil
	}
	tree.Children = rowBatches(headers, records[1:])
	return tree, nil
}

func pageRows(rows [][]string, textCol, pageCol, titleCol int) []*doctree.DocNode {
	var nodes []*doctree.DocNode
	for _, row := range rows {
		text := strings.TrimSpace(cell(row, textCol))
		if text == "" {
			continue
		}
		n := &doctree.DocNode{Title: strings.TrimSpace(cell(row, titleCol)), Text: text}
		if page, err := strconv.Atoi(strings.TrimSpace(cell(row, pageCol))); err == nil && page > 0 {
			n.Page = page
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func rowBatches(headers []string, dataRows [][]string) []*doctree.DocNode {
	const batchSize = 20

	var nodes []*doctree.DocNode
	for i := 0; i < len(dataRows); i += batchSize {
		end := min(i+batchSize, len(dataRows))

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range dataRows[i:end] {
			for j, c := range row {
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + c)
				} else {
					text.WriteString(c)
				}
				if j < len(row)-1 {
					text.WriteString(", ")
				}
			}
			text.WriteString("\n")
		}

		nodes = append(nodes, &doctree.DocNode{
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, skip header
			Text:  text.String(),
		})
	}
	return nodes
}

func columnIndex(headers []string, names []string) int {
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
