// Package tables locates table structure on a page without a fixed
// schema.
//
// Architectural schedules are drawn, not tagged: there is no table
// markup in the PDF, only text runs that happen to line up. This
// package finds contiguous row runs that open with a header-like row
// (two or more cells matching domain vocabulary) and grows each run
// downward until the layout breaks: another header appears or the
// vertical gap between rows exceeds the established row spacing.
package tables

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/plansift/plansift/pkg/layout"
)

// headerTokens is the domain vocabulary that marks a schedule header
// cell. A row qualifies as a header when at least two of its cells
// match any of these as whole words.
var headerTokens = []string{
	"UNIT", "UNITS", "APT", "APARTMENT", "NO",
	"BR", "BED", "BEDS", "BEDROOM", "BEDROOMS", "TYPE",
	"SF", "NSF", "GSF", "AREA", "SQFT",
	"AFFORDABLE", "MIH", "AMI", "ALLOCATION", "INCOME",
	"FLOOR", "STORY", "OCCUPANT", "LOAD",
}

var headerTokenRe = regexp.MustCompile(`\b(` + strings.Join(headerTokens, "|") + `)\b`)

const (
	minHeaderCells    = 2
	minHeaderMatches  = 2
	minDataRowChars   = 2
	spacingMultiplier = 2.5
	toleranceMultiple = 4.0
)

// Row is one line of a table with its cell decomposition.
type Row struct {
	Line  layout.Line
	Cells []layout.Cell
}

// Text returns the row's full line text.
func (r Row) Text() string { return r.Line.Text }

// CellTexts returns the row's cell strings in left-to-right order.
func (r Row) CellTexts() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Text
	}
	return out
}

// Region is a header row plus the contiguous data rows beneath it.
type Region struct {
	Page   int
	Header Row
	Rows   []Row
	BBox   layout.BBox
}

// IsHeaderRow reports whether a cell decomposition looks like a
// schedule header: at least two cells, at least two of which carry a
// domain vocabulary token.
func IsHeaderRow(cells []layout.Cell) bool {
	if len(cells) < minHeaderCells {
		return false
	}
	matches := 0
	for _, c := range cells {
		if headerTokenRe.MatchString(strings.ToUpper(c.Text)) {
			matches++
			if matches >= minHeaderMatches {
				return true
			}
		}
	}
	return false
}

// Reconstruct finds the table regions on one page.
//
// Lines are walked top to bottom. A header row opens a region; data
// rows accumulate until another header row appears or the Y-gap to the
// next row exceeds max(2.5 x established spacing, 4 x Y-tolerance),
// where the established spacing is the header-to-first-row gap (or
// 2 x Y-tolerance while the region is still empty). Regions with zero
// qualifying data rows are discarded. A page may yield zero, one, or
// several disjoint regions.
func Reconstruct(items []layout.TextItem, page int) []Region {
	if len(items) == 0 {
		return nil
	}
	yTol := layout.YTolerance(items)
	xTol := layout.XGapTolerance(items)
	lines := layout.ClusterLines(items, page, yTol)

	rows := make([]Row, len(lines))
	for i, ln := range lines {
		rows[i] = Row{Line: ln, Cells: layout.ClusterCells(ln.Items, xTol)}
	}

	var regions []Region
	var current *Region
	var spacing float64
	var lastY float64

	closeRegion := func() {
		if current != nil && len(current.Rows) > 0 {
			regions = append(regions, *current)
		}
		current = nil
	}

	for _, row := range rows {
		if current != nil {
			gap := lastY - row.Line.Y
			limit := spacingMultiplier * spacing
			if m := toleranceMultiple * yTol; m > limit {
				limit = m
			}
			if gap > limit || IsHeaderRow(row.Cells) {
				closeRegion()
			}
		}

		if current == nil {
			if IsHeaderRow(row.Cells) {
				current = &Region{
					Page:   page,
					Header: row,
					BBox:   layout.ItemsBBox(row.Line.Items),
				}
				spacing = 2 * yTol
				lastY = row.Line.Y
			}
			continue
		}

		if !isDataRow(row) {
			lastY = row.Line.Y
			continue
		}
		if len(current.Rows) == 0 {
			// First data row establishes the table's row spacing.
			if s := current.Header.Line.Y - row.Line.Y; s > 0 {
				spacing = s
			}
		}
		current.Rows = append(current.Rows, row)
		current.BBox = current.BBox.Union(layout.ItemsBBox(row.Line.Items))
		lastY = row.Line.Y
	}
	closeRegion()

	return regions
}

var (
	totalsRowRe = regexp.MustCompile(`(?i)\bTOTALS?\b`)

	// Count stated next to UNITS ("TOTAL 8 UNITS") is preferred over a
	// bare number after TOTAL ("TOTAL: 24"), since totals rows often
	// also carry area figures.
	totalsUnitsCountRe = regexp.MustCompile(`(?i)\b(\d{1,4})\s+(?:DWELLING\s+)?UNITS?\b`)
	totalsBareCountRe  = regexp.MustCompile(`(?i)\bTOTALS?\s*[:#=]?\s*(\d{1,4})(?:\s|$)`)
)

// IsTotalsRow reports whether a row is a summary line rather than a
// unit row. Summary rows still count as structural evidence that a
// schedule is complete.
func IsTotalsRow(text string) bool { return totalsRowRe.MatchString(text) }

// TotalsCount extracts the unit count a totals row states, when one is
// readable. Rows stating only areas yield no count.
func TotalsCount(text string) (int, bool) {
	if !totalsRowRe.MatchString(text) {
		return 0, false
	}
	m := totalsUnitsCountRe.FindStringSubmatch(text)
	if m == nil {
		m = totalsBareCountRe.FindStringSubmatch(text)
	}
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// isDataRow filters out rows too sparse to carry data.
func isDataRow(row Row) bool {
	if len(row.Cells) < 1 {
		return false
	}
	n := 0
	for _, r := range row.Text() {
		if r != ' ' {
			n++
		}
	}
	return n >= minDataRowChars
}
