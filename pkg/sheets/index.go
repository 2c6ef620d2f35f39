package sheets

import (
	"regexp"
	"sort"
	"strings"

	"github.com/plansift/plansift/pkg/layout"
)

// Extraction methods recorded on SheetInfo.
const (
	MethodTitleBlock = "title-block"
	// MethodOCRCrop marks pages whose title block carried too little
	// extractable text to classify; an OCR crop of the region is the
	// suggested recovery path.
	MethodOCRCrop = "ocr-crop"
)

// Title-block region occupies the bottom slice of the page's Y-range.
const titleBlockFraction = 0.2

// A title block with fewer non-whitespace characters than this is
// treated as unreadable.
const minTitleBlockChars = 5

// SheetInfo is the per-page classification extracted from the title block.
type SheetInfo struct {
	Page          int
	DrawingNumber string // e.g. "A-101", "Z-001"; empty if not found
	DrawingTitle  string
	ProjectTitle  string
	Confidence    float64
	Method        string
}

// SheetIndex holds every page's SheetInfo plus reverse lookups.
// Built once per document and read-only thereafter.
type SheetIndex struct {
	Sheets          map[int]SheetInfo
	ByDrawingNumber map[string]int   // exact drawing number -> page
	ByTitleToken    map[string][]int // normalized title word (>= 3 chars) -> pages
}

// Sheet returns the classification for a page, or a zero-confidence
// placeholder when the page was never indexed.
func (idx SheetIndex) Sheet(page int) SheetInfo {
	if s, ok := idx.Sheets[page]; ok {
		return s
	}
	return SheetInfo{Page: page, Method: MethodOCRCrop, Confidence: 0}
}

var (
	// Drawing numbers: 1-3 letters, optional dash or dot, 1-3 digits,
	// optional sub-numbering ("A-101", "Z001", "A-101.02", "T1.1").
	// A space separator is not accepted: title-block phrases like
	// "LOT 56" or "APT 4" would otherwise classify as drawing numbers.
	drawingNumberRe = regexp.MustCompile(`(?i)\b([A-Z]{1,3})[-.]?(\d{1,3})((?:\.\d{1,2})?)\b`)

	numericLineRe = regexp.MustCompile(`^[\d\s.,/-]+$`)

	addressRe      = regexp.MustCompile(`(?i)\b\d+[\s-]+\w+.*\b(STREET|ST|AVENUE|AVE|ROAD|RD|BOULEVARD|BLVD|PLACE|PL|DRIVE|DR|PARKWAY|PKWY)\b`)
	projectLabelRe = regexp.MustCompile(`(?i)^PROJECT\s*[:#]?\s*(.+)$`)

	titleTokenStripRe = regexp.MustCompile(`[^A-Z0-9]`)
)

// IndexSheets classifies every page of the document by its bottom
// title-block region and builds the reverse lookups. Pages with no
// items are classified at zero signal.
func IndexSheets(itemsByPage map[int][]layout.TextItem, pageCount int) SheetIndex {
	idx := SheetIndex{
		Sheets:          make(map[int]SheetInfo, pageCount),
		ByDrawingNumber: make(map[string]int),
		ByTitleToken:    make(map[string][]int),
	}

	for page := 1; page <= pageCount; page++ {
		info := classifyPage(page, itemsByPage[page])
		idx.Sheets[page] = info

		if info.DrawingNumber != "" {
			if _, taken := idx.ByDrawingNumber[info.DrawingNumber]; !taken {
				idx.ByDrawingNumber[info.DrawingNumber] = page
			}
		}
		for _, tok := range TitleTokens(info.DrawingTitle) {
			idx.ByTitleToken[tok] = append(idx.ByTitleToken[tok], page)
		}
	}

	for tok := range idx.ByTitleToken {
		sort.Ints(idx.ByTitleToken[tok])
	}
	return idx
}

// Replace swaps in an upgraded classification for its page, rebuilding
// the reverse lookups that pointed at the old entry.
func (idx *SheetIndex) Replace(info SheetInfo) {
	old, had := idx.Sheets[info.Page]
	idx.Sheets[info.Page] = info

	if had && old.DrawingNumber != "" && idx.ByDrawingNumber[old.DrawingNumber] == info.Page {
		delete(idx.ByDrawingNumber, old.DrawingNumber)
	}
	if info.DrawingNumber != "" {
		if _, taken := idx.ByDrawingNumber[info.DrawingNumber]; !taken {
			idx.ByDrawingNumber[info.DrawingNumber] = info.Page
		}
	}

	if had {
		for _, tok := range TitleTokens(old.DrawingTitle) {
			pages := idx.ByTitleToken[tok]
			for i, p := range pages {
				if p == info.Page {
					idx.ByTitleToken[tok] = append(pages[:i], pages[i+1:]...)
					break
				}
			}
			if len(idx.ByTitleToken[tok]) == 0 {
				delete(idx.ByTitleToken, tok)
			}
		}
	}
	for _, tok := range TitleTokens(info.DrawingTitle) {
		idx.ByTitleToken[tok] = append(idx.ByTitleToken[tok], info.Page)
		sort.Ints(idx.ByTitleToken[tok])
	}
}

// classifyPage inspects one page's title-block region.
func classifyPage(page int, items []layout.TextItem) SheetInfo {
	info := SheetInfo{Page: page, Method: MethodOCRCrop, Confidence: 0.3}

	region := FilterBottomRegion(items)
	if countNonSpace(region) < minTitleBlockChars {
		// Too little text to classify; leave as a low-confidence page
		// that an OCR crop of the title block could still recover.
		return info
	}
	return ClassifyItems(page, region)
}

// ClassifyItems classifies items already known to be title-block
// content, such as an OCR crop of the bottom strip. No region filtering
// is applied.
func ClassifyItems(page int, items []layout.TextItem) SheetInfo {
	info := SheetInfo{Page: page, Method: MethodOCRCrop, Confidence: 0.3}
	if len(items) == 0 {
		return info
	}

	lines := layout.ClusterLines(items, page, 0)
	info.Method = MethodTitleBlock
	info.Confidence = 0

	var remaining []string
	for _, ln := range lines {
		text := ln.Text
		if info.DrawingNumber == "" {
			if dn := matchDrawingNumber(text); dn != "" {
				info.DrawingNumber = dn
				continue
			}
		}
		remaining = append(remaining, text)
	}

	// Longest remaining non-numeric line is the drawing title.
	for _, text := range remaining {
		if len(text) < 3 || numericLineRe.MatchString(text) {
			continue
		}
		if m := projectLabelRe.FindStringSubmatch(text); m != nil {
			if info.ProjectTitle == "" {
				info.ProjectTitle = strings.TrimSpace(m[1])
			}
			continue
		}
		if addressRe.MatchString(text) {
			if info.ProjectTitle == "" {
				info.ProjectTitle = text
			}
			continue
		}
		if len(text) > len(info.DrawingTitle) {
			info.DrawingTitle = text
		}
	}

	switch {
	case info.DrawingNumber != "":
		info.Confidence = 0.9
	case info.DrawingTitle != "":
		info.Confidence = 0.5
	default:
		info.Method = MethodOCRCrop
		info.Confidence = 0.3
	}
	return info
}

// FilterBottomRegion isolates items whose Y falls in the bottom 20% of
// the page's occupied Y-range.
func FilterBottomRegion(items []layout.TextItem) []layout.TextItem {
	if len(items) == 0 {
		return nil
	}
	minY, maxY := items[0].Y, items[0].Y
	for _, it := range items[1:] {
		if it.Y < minY {
			minY = it.Y
		}
		if it.Y > maxY {
			maxY = it.Y
		}
	}
	cutoff := minY + (maxY-minY)*titleBlockFraction
	var region []layout.TextItem
	for _, it := range items {
		if it.Y <= cutoff {
			region = append(region, it)
		}
	}
	return region
}

// matchDrawingNumber extracts and normalizes a drawing number from a
// title-block line ("A101", "a-101.02" -> "A-101", "A-101.02").
func matchDrawingNumber(text string) string {
	m := drawingNumberRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + "-" + m[2] + m[3]
}

// TitleTokens normalizes a drawing title into uppercase tokens of at
// least 3 characters with punctuation stripped.
func TitleTokens(title string) []string {
	var tokens []string
	seen := map[string]bool{}
	for _, w := range strings.Fields(strings.ToUpper(title)) {
		tok := titleTokenStripRe.ReplaceAllString(w, "")
		if len(tok) < 3 || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}

func countNonSpace(items []layout.TextItem) int {
	n := 0
	for _, it := range items {
		for _, r := range it.Str {
			if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
				n++
			}
		}
	}
	return n
}
