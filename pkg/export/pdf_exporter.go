package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfLineHeight   = 5.0
	pdfHeaderHeight = 8.0
	pdfMinColWidth  = 12.0
	pdfMaxColWidth  = 70.0
)

// PDFExporter renders datasets into a paginated table. Wide tables switch to
// landscape and the header row repeats on every page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the document.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}

	orientation := "P"
	if len(data.Headers) > 6 {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(false, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(2)
	}
	if len(data.Summary) > 0 {
		pdf.SetFont("Arial", "", 10)
		for _, line := range data.Summary {
			pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s: %s", line.Label, line.Value)), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	pageWidth, pageHeight := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	widths := columnWidths(pdf, data, pageWidth-left-right)

	drawHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], pdfHeaderHeight, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	drawHeader()

	for _, row := range data.Rows {
		lines := make([][][]byte, len(row))
		maxLines := 1
		for i, cell := range row {
			lines[i] = pdf.SplitLines([]byte(tr(cell)), widths[i]-2)
			if len(lines[i]) > maxLines {
				maxLines = len(lines[i])
			}
		}
		rowHeight := float64(maxLines)*pdfLineHeight + 1

		if pdf.GetY()+rowHeight > pageHeight-bottom {
			pdf.AddPage()
			drawHeader()
		}

		x, y := pdf.GetXY()
		for i := range row {
			pdf.Rect(x, y, widths[i], rowHeight, "D")
			for n, line := range lines[i] {
				pdf.SetXY(x+1, y+0.5+float64(n)*pdfLineHeight)
				pdf.CellFormat(widths[i]-2, pdfLineHeight, string(line), "", 0, "L", false, 0, "")
			}
			x += widths[i]
		}
		pdf.SetXY(left, y+rowHeight)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths sizes columns by their widest content, clamped, then scales them to
// fill the printable width.
func columnWidths(pdf *gofpdf.Fpdf, data Dataset, available float64) []float64 {
	pdf.SetFont("Arial", "", 8)
	widths := make([]float64, len(data.Headers))
	total := 0.0
	for i, header := range data.Headers {
		w := pdf.GetStringWidth(header) + 4
		for _, row := range data.Rows {
			if cw := pdf.GetStringWidth(row[i]) + 4; cw > w {
				w = cw
			}
		}
		if w < pdfMinColWidth {
			w = pdfMinColWidth
		}
		if w > pdfMaxColWidth {
			w = pdfMaxColWidth
		}
		widths[i] = w
		total += w
	}
	scale := available / total
	for i := range widths {
		widths[i] *= scale
	}
	return widths
}
