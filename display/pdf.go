package display

import (
	"github.com/jung-kurt/gofpdf"
)

const pdfPageWidth = 277 // A4 landscape minus margins, in mm

// PDF renders tables one after another into a landscape A4 document.
type PDF struct {
	pdf *gofpdf.Fpdf
}

func NewPDF(title string) *PDF {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, title)
	pdf.Ln(10)
	return &PDF{pdf: pdf}
}

func (p *PDF) Table(title string, header []string, rows [][]string) error {
	width := pdfPageWidth / float64(len(header))

	p.pdf.SetFont("Arial", "B", 11)
	p.pdf.Cell(0, 7, title)
	p.pdf.Ln(8)

	p.pdf.SetFont("Arial", "B", 8)
	for _, h := range header {
		p.pdf.CellFormat(width, 6, h, "1", 0, "C", false, 0, "")
	}
	p.pdf.Ln(-1)

	p.pdf.SetFont("Arial", "", 8)
	for _, row := range rows {
		for _, cell := range row {
			p.pdf.CellFormat(width, 6, cell, "1", 0, "L", false, 0, "")
		}
		p.pdf.Ln(-1)
	}
	p.pdf.Ln(4)
	return p.pdf.Error()
}

func (p *PDF) Save(path string) error {
	return p.pdf.OutputFileAndClose(path)
}
