package export

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	reportSheet  = "Report"
	summarySheet = "Summary"
)

// XLSXExporter renders the table on a "Report" sheet and summary lines, when present,
// on a second "Summary" sheet. Plain decimal cells of auto columns are stored as
// numbers; text columns are stored verbatim.
type XLSXExporter struct{}

// NewXLSXExporter constructs a spreadsheet exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render builds the workbook.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(reportSheet, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, row := range data.Rows {
		cells := make([]interface{}, len(row))
		for j, value := range row {
			if data.Kind(j) == ColumnText {
				cells[j] = value
				continue
			}
			cells[j] = cellValue(value)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(reportSheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	for i, h := range data.Headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		width := float64(len(h) + 4)
		if width < 10 {
			width = 10
		}
		if err := f.SetColWidth(reportSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.SetPanes(reportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	if len(data.Summary) > 0 {
		if _, err := f.NewSheet(summarySheet); err != nil {
			return nil, fmt.Errorf("create summary sheet: %w", err)
		}
		if data.Title != "" {
			if err := f.SetCellValue(summarySheet, "A1", data.Title); err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(summarySheet, "A1", "A1", bold); err != nil {
				return nil, err
			}
		}
		for i, line := range data.Summary {
			var value interface{} = line.Value
			if !line.Text {
				value = cellValue(line.Value)
			}
			row := []interface{}{line.Label, value}
			cell, err := excelize.CoordinatesToCellName(1, i+3)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
				return nil, fmt.Errorf("write summary: %w", err)
			}
		}
		if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

var plainDecimal = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// maxExactDigits is the number of significant digits a float64 holds without loss.
const maxExactDigits = 15

// cellValue converts plain decimals that survive a float64 round trip. Exponents,
// leading zeros and long digit runs stay text.
func cellValue(raw string) interface{} {
	if !plainDecimal.MatchString(raw) || significantDigits(raw) > maxExactDigits {
		return raw
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return v
}

func significantDigits(raw string) int {
	count, leading := 0, true
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		if leading && r == '0' {
			continue
		}
		leading = false
		count++
	}
	return count
}
