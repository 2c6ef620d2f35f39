// Package pdftext ingests a PDF's native text layer.
//
// Drawing sets split into two populations: vector exports with a real
// text layer, and scan-and-stamp sets that are images all the way down.
// This package extracts positioned text runs from the former and
// detects the latter, so the pipeline knows when to pay for OCR.
package pdftext

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/plansift/plansift/pkg/layout"
)

// PageText is one page's native text layer.
type PageText struct {
	Page  int
	Text  string
	Items []layout.TextItem
}

// ExtractFile opens the PDF at path and extracts every page's text
// layer. Pages whose extraction fails individually are returned with
// empty content rather than failing the document.
func ExtractFile(path string) ([]PageText, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()
	return extractReader(r)
}

// ExtractBytes extracts from an in-memory PDF by way of a temp file;
// the underlying reader needs an io.ReaderAt with a known size.
func ExtractBytes(data []byte) ([]PageText, int, error) {
	tmp, err := os.CreateTemp("", "plansift-*.pdf")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stage PDF: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, 0, fmt.Errorf("failed to stage PDF: %w", err)
	}
	tmp.Close()
	return ExtractFile(tmp.Name())
}

func extractReader(r *pdf.Reader) ([]PageText, int, error) {
	total := r.NumPage()
	pages := make([]PageText, 0, total)
	for i := 1; i <= total; i++ {
		pt := PageText{Page: i}
		p := r.Page(i)
		if !p.V.IsNull() {
			pt.Items = pageItems(p, i)
			if text, err := p.GetPlainText(nil); err == nil {
				pt.Text = text
			}
		}
		pages = append(pages, pt)
	}
	return pages, total, nil
}

// pageItems converts the page's raw text runs into positioned items.
// ledongthuc reports per-glyph runs with a baseline origin already in
// PDF points (bottom-left, y-up), so only width/height bookkeeping is
// needed. Recovers to an empty item list if content decoding panics on
// a malformed page.
func pageItems(p pdf.Page, pageNo int) (items []layout.TextItem) {
	defer func() {
		if recover() != nil {
			items = nil
		}
	}()
	for _, t := range p.Content().Text {
		if t.S == "" {
			continue
		}
		items = append(items, layout.TextItem{
			Str:    t.S,
			Page:   pageNo,
			X:      t.X,
			Y:      t.Y,
			Width:  t.W,
			Height: t.FontSize,
		})
	}
	return items
}
