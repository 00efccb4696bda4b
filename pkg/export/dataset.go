// Package export renders tabular report datasets into downloadable documents.
package export

import (
	"fmt"
	"strings"
)

// Supported output formats.
const (
	FormatPDF         = "pdf"
	FormatSpreadsheet = "spreadsheet"
	FormatCSV         = "csv"
)

// ColumnKind tells typed renderers how to store a column's cells.
type ColumnKind int

const (
	// ColumnAuto stores plain decimal values as numbers and everything else as text.
	ColumnAuto ColumnKind = iota
	// ColumnText always stores the value verbatim.
	ColumnText
)

// SummaryLine is a label/value pair printed alongside the table.
type SummaryLine struct {
	Label string
	Value string
	Text  bool
}

// Dataset is the renderer input: one header row and positional rows. Kinds is
// optional; when set it holds one entry per header.
type Dataset struct {
	Title   string
	Summary []SummaryLine
	Headers []string
	Kinds   []ColumnKind
	Rows    [][]string
}

// Kind returns the kind of column i.
func (d Dataset) Kind(i int) ColumnKind {
	if i < 0 || i >= len(d.Kinds) {
		return ColumnAuto
	}
	return d.Kinds[i]
}

// Validate ensures every row lines up with the header row.
func (d Dataset) Validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	if len(d.Kinds) > 0 && len(d.Kinds) != len(d.Headers) {
		return fmt.Errorf("dataset has %d column kinds, want %d", len(d.Kinds), len(d.Headers))
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}

// Renderer turns a dataset into document bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
}

// RendererFor returns the renderer for a format name.
func RendererFor(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatPDF:
		return NewPDFExporter(), nil
	case FormatSpreadsheet, "xlsx", "excel":
		return NewXLSXExporter(), nil
	case FormatCSV:
		return NewCSVExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
