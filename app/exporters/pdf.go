package exporters

import (
	"bytes"

	"github.com/go-pdf/fpdf"

	"github.com/darzi-app/darzi/app/models"
)

const (
	pdfLine  = 7.0
	pdfWidth = 180.0
)

// renderPDF lays the tables out on A4 with the core Helvetica font.
func renderPDF(r models.Report, shop string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(r.Title(), true)
	pdf.AddPage()

	if shop != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.CellFormat(pdfWidth, 10, tr(shop), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(pdfWidth, 8, tr(r.Title()), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, t := range tables(r) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(pdfWidth, pdfLine+1, tr(t.title), "", 1, "L", false, 0, "")

		colW := pdfWidth / float64(len(t.header))
		pdf.SetFillColor(230, 236, 245)
		pdf.SetFont("Helvetica", "B", 10)
		for _, h := range t.header {
			pdf.CellFormat(colW, pdfLine, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 10)
		if len(t.rows) == 0 {
			pdf.CellFormat(pdfWidth, pdfLine, "No orders", "1", 1, "C", false, 0, "")
		}
		for _, row := range t.rows {
			for _, cell := range row {
				pdf.CellFormat(colW, pdfLine, tr(cell), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
