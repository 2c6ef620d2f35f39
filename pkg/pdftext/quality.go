package pdftext

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Quality captures metrics about a PDF's text layer, used to decide
// whether a drawing set needs OCR.
type Quality struct {
	PageCount       int     `json:"page_count"`
	CharsPerPage    float64 `json:"chars_per_page"`
	PrintableRatio  float64 `json:"printable_ratio"`
	WordlikeRatio   float64 `json:"wordlike_ratio"`
	HasImageStreams bool    `json:"has_image_streams"`
}

// NeedsOCR reports whether the text layer is too thin or too garbled to
// extract from directly: a near-empty layer on an image-bearing PDF, or
// a layer dominated by unprintable glyphs.
func (q *Quality) NeedsOCR() bool {
	return (q.CharsPerPage < 50 && q.HasImageStreams) || q.PrintableRatio < 0.85
}

// AssessQuality inspects the PDF structure and the already-extracted
// text layer. The structural read goes through pdfcpu because the text
// extractor does not expose image XObjects.
func AssessQuality(pdfBytes []byte, pages []PageText) (*Quality, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdfBytes), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var sb strings.Builder
	totalChars := 0
	for _, p := range pages {
		totalChars += len([]rune(p.Text))
		sb.WriteString(p.Text)
		sb.WriteByte('\n')
	}
	fullText := sb.String()

	q := &Quality{
		PageCount:       ctx.PageCount,
		PrintableRatio:  printableRatio(fullText),
		WordlikeRatio:   wordlikeRatio(fullText),
		HasImageStreams: detectImageStreams(ctx),
	}
	if ctx.PageCount > 0 {
		q.CharsPerPage = float64(totalChars) / float64(ctx.PageCount)
	}
	return q, nil
}

// detectImageStreams checks if the PDF contains image XObjects.
func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	// Fallback: scan the xref table for image subtype stream objects.
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

// printableRatio is the share of printable characters in text.
// PUA glyphs (U+E000-U+F8FF), replacement characters, and non-blank
// control characters count against it; CAD exports that map symbols
// into the PUA read as garbage downstream.
func printableRatio(text string) float64 {
	if len(text) == 0 {
		return 1.0
	}
	total, printable := 0, 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// wordlikeRatio is the share of tokens between 2 and 15 runes long.
// Drawing annotations run short, but a layer of single glyphs means the
// extractor split every word.
func wordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}
