package main

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
)

// writeSynthSet generates a small synthetic drawing set with a cover
// sheet, a zoning analysis sheet, and a unit schedule sheet. The output
// carries a real text layer, so it exercises the full extraction path
// without OCR. Development aid only; the geometry is schematic, not a
// drawing.
func writeSynthSet(path string) error {
	const (
		pageW = 1224.0 // US Arch B landscape, points
		pageH = 792.0
	)

	pdf := fpdf.New("L", "pt", "", "")
	pdf.SetFont("Helvetica", "", 12)

	addSheet := func(number, title string, body func()) {
		pdf.AddPageFormat("L", fpdf.SizeType{Wd: pageW, Ht: pageH})
		body()
		// Title block strip along the bottom.
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Text(pageW-220, pageH-60, number)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(pageW-220, pageH-40, title)
		pdf.Text(60, pageH-40, "PROJECT: 123 EXAMPLE AVENUE")
	}

	line := func(x, y float64, s string) { pdf.Text(x, y, s) }

	addSheet("T-001", "TITLE SHEET", func() {
		pdf.SetFont("Helvetica", "B", 24)
		line(80, 120, "123 EXAMPLE AVENUE, BROOKLYN NY")
		pdf.SetFont("Helvetica", "", 14)
		line(80, 170, "BLOCK: 1234 LOT: 56")
		line(80, 195, "ZONING DISTRICT: R7A")
		line(80, 220, "PROPOSED 8 UNIT APARTMENT BUILDING")
		line(80, 245, "4-STORY RESIDENTIAL BUILDING")
	})

	addSheet("Z-001", "ZONING ANALYSIS", func() {
		pdf.SetFont("Helvetica", "B", 16)
		line(80, 110, "ZONING ANALYSIS")
		pdf.SetFont("Helvetica", "", 13)
		line(80, 150, "LOT AREA: 5,000 SF")
		line(80, 175, "ZONING FLOOR AREA: 16,000 SF")
		line(80, 200, "PROPOSED FAR: 3.20")
	})

	addSheet("A-101", "TYPICAL FLOOR PLAN", func() {
		pdf.SetFont("Helvetica", "B", 16)
		line(80, 110, "UNIT SCHEDULE")
		pdf.SetFont("Helvetica", "", 12)
		cols := []float64{80, 260, 440, 620}
		header := []string{"UNIT", "BR", "SF", "ALLOCATION"}
		rows := [][]string{
			{"1A", "STUDIO", "445", "MARKET"},
			{"1B", "1BR", "630", "AFFORDABLE 60% AMI"},
			{"2A", "2BR", "890", "MARKET"},
			{"2B", "1BR", "640", "MARKET"},
			{"3A", "2BR", "905", "AFFORDABLE 60% AMI"},
			{"3B", "1BR", "625", "MARKET"},
			{"4A", "3BR", "1,150", "MARKET"},
			{"4B", "STUDIO", "440", "MARKET"},
		}
		y := 150.0
		pdf.SetFont("Helvetica", "B", 12)
		for i, h := range header {
			line(cols[i], y, h)
		}
		pdf.SetFont("Helvetica", "", 12)
		for _, row := range rows {
			y += 22
			for i, cell := range row {
				line(cols[i], y, cell)
			}
		}
		y += 30
		line(80, y, "TOTAL: 8 UNITS")
	})

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
