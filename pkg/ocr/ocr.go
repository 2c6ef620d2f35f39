// Package ocr recovers positioned text from scanned drawing pages.
//
// Architectural sets are frequently flattened to images, leaving no PDF
// text layer to extract. This package defines the provider capability
// interface the pipeline consumes and two implementations: a Google
// Document AI client for full-page recognition and an hOCR reader for
// output from local engines such as Tesseract. Both emit the same flat
// PageResult so downstream layout clustering is provider-agnostic.
//
// Key Features:
//   - Capability interface with whole-page and crop-level recognition
//   - Google Document AI provider (token geometry mapped to PDF points)
//   - hOCR parser for locally produced OCR output
//   - All coordinates normalized to a bottom-left, y-up origin
package ocr

import (
	"context"

	"github.com/plansift/plansift/pkg/layout"
)

// PageResult is one page's OCR output flattened for layout clustering.
// Confidence is the provider's mean word confidence on a 0-100 scale.
type PageResult struct {
	Page       int
	Text       string
	Confidence float64
	Items      []layout.TextItem
}

// Crop is a page sub-region in PDF points, bottom-left origin.
type Crop struct {
	Page           int
	X1, Y1, X2, Y2 float64
}

// Provider recognizes text on rasterized pages. OcrCrop is optional
// refinement for small regions (title blocks); providers that cannot
// crop return the enclosing page's items filtered to the crop bounds.
type Provider interface {
	// OcrPages recognizes the listed pages of the PDF. Page numbers are
	// 1-based; an empty list means every page.
	OcrPages(ctx context.Context, pdfBytes []byte, pages []int) ([]PageResult, error)

	// OcrCrop recognizes a single region at higher effective resolution.
	OcrCrop(ctx context.Context, pdfBytes []byte, crop Crop) (PageResult, error)

	// SupportsTables reports whether the provider emits table structure
	// natively. None of the current providers do; the geometric
	// reconstructor runs regardless.
	SupportsTables() bool
}

// FilterItemsToCrop keeps the items whose origin falls inside the crop
// bounds. Shared by providers that implement OcrCrop by filtering.
func FilterItemsToCrop(items []layout.TextItem, c Crop) []layout.TextItem {
	var out []layout.TextItem
	for _, it := range items {
		if it.X >= c.X1 && it.X <= c.X2 && it.Y >= c.Y1 && it.Y <= c.Y2 {
			out = append(out, it)
		}
	}
	return out
}
