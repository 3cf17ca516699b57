package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Document is a titled table rendered on landscape pages.
type Document struct {
	Title    string
	Subtitle []string
	Data     Dataset
	// Highlight, when set, marks rows to shade (for example failing rules).
	Highlight func(row map[string]string) bool
}

// PDFExporter renders documents into a tabular PDF.
type PDFExporter struct {
	// Weights sets relative column widths by header; missing headers weigh 1.
	Weights map[string]float64
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter(weights map[string]float64) *PDFExporter {
	return &PDFExporter{Weights: weights}
}

const (
	pageWidth  = 277.0
	lineHeight = 6.0
)

// Render creates a PDF document with a title block and table body.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	data := doc.Data
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, tr(doc.Title), "", 1, "L", false, 0, "")
	}
	if len(doc.Subtitle) > 0 {
		pdf.SetFont("Arial", "", 9)
		for _, line := range doc.Subtitle {
			pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(3)

	widths := e.columnWidths(data.Headers)
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(225, 225, 225)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], lineHeight+1, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range data.Rows {
		if pdf.GetY()+lineHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		fill := doc.Highlight != nil && doc.Highlight(row)
		if fill {
			pdf.SetFillColor(250, 220, 220)
		}
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], lineHeight, truncate(pdf, tr(row[h]), widths[i]), "1", 0, "", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) columnWidths(headers []string) []float64 {
	total := 0.0
	weights := make([]float64, len(headers))
	for i, h := range headers {
		w, ok := e.Weights[h]
		if !ok || w <= 0 {
			w = 1
		}
		weights[i] = w
		total += w
	}
	for i := range weights {
		weights[i] = pageWidth * weights[i] / total
	}
	return weights
}

func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
