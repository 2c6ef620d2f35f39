// Package layout reconstructs the visual layout of a page from raw
// positioned text runs.
//
// PDF text extraction (and OCR) yields unordered text runs with bounding
// geometry but no notion of lines, columns, or tables. This package
// rebuilds that structure with pure geometry: items are clustered into
// lines by Y-coordinate tolerance and lines are split into cells by
// X-gap tolerance. Both tolerances adapt to the page's typography
// (median glyph height and median character width) so dense schedules
// and sparse cover sheets cluster equally well.
//
// All functions here are deterministic, allocation-only transforms with
// no domain knowledge and no I/O.
package layout

import (
	"math"
	"sort"
	"strings"
)

const (
	minYTolerance    = 2.0
	minXGapTolerance = 10.0

	// Adjacent items on a line closer than this are concatenated
	// without an intervening space.
	wordJoinGap = 4.0
)

// YTolerance derives the line-banding tolerance from the items'
// typography: max(2, median(height) * 0.6).
func YTolerance(items []TextItem) float64 {
	heights := make([]float64, 0, len(items))
	for _, it := range items {
		if it.Height > 0 {
			heights = append(heights, it.Height)
		}
	}
	return math.Max(minYTolerance, median(heights)*0.6)
}

// XGapTolerance derives the cell-splitting tolerance from the items'
// typography: max(10, median(charWidth) * 2.2), where charWidth is each
// item's width divided by its rune count.
func XGapTolerance(items []TextItem) float64 {
	widths := make([]float64, 0, len(items))
	for _, it := range items {
		n := len([]rune(it.Str))
		if n > 0 && it.Width > 0 {
			widths = append(widths, it.Width/float64(n))
		}
	}
	return math.Max(minXGapTolerance, median(widths)*2.2)
}

// ClusterLines partitions a page's items into lines.
//
// Items are sorted by descending Y then ascending X and walked
// sequentially; a new line starts whenever the Y delta from the current
// line's reference Y exceeds the tolerance. Passing tolerance <= 0 uses
// YTolerance(items). Every input item lands in exactly one output line,
// and each line's items are sorted ascending by X. Lines are returned
// top of page first.
func ClusterLines(items []TextItem, page int, tolerance float64) []Line {
	if len(items) == 0 {
		return nil
	}
	if tolerance <= 0 {
		tolerance = YTolerance(items)
	}

	sorted := make([]TextItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []Line
	var current []TextItem
	refY := sorted[0].Y

	flush := func() {
		if len(current) == 0 {
			return
		}
		sort.SliceStable(current, func(i, j int) bool { return current[i].X < current[j].X })
		lines = append(lines, Line{
			Page:  page,
			Y:     refY,
			Text:  JoinItems(current),
			Items: current,
		})
	}

	for _, it := range sorted {
		if len(current) > 0 && math.Abs(it.Y-refY) > tolerance {
			flush()
			current = nil
			refY = it.Y
		}
		current = append(current, it)
	}
	flush()

	return lines
}

// ClusterCells splits one line's items into cells on X-gaps larger than
// the tolerance. Passing tolerance <= 0 uses XGapTolerance(lineItems).
func ClusterCells(lineItems []TextItem, tolerance float64) []Cell {
	if len(lineItems) == 0 {
		return nil
	}
	if tolerance <= 0 {
		tolerance = XGapTolerance(lineItems)
	}

	sorted := make([]TextItem, len(lineItems))
	copy(sorted, lineItems)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []Cell
	var current []TextItem

	flush := func() {
		if len(current) == 0 {
			return
		}
		cells = append(cells, Cell{
			Text:  JoinItems(current),
			X:     current[0].X,
			EndX:  current[len(current)-1].EndX(),
			Items: current,
		})
	}

	for _, it := range sorted {
		if len(current) > 0 {
			gap := it.X - current[len(current)-1].EndX()
			if gap > tolerance {
				flush()
				current = nil
			}
		}
		current = append(current, it)
	}
	flush()

	return cells
}

// JoinItems concatenates item strings left to right, inserting a single
// space where the horizontal gap between consecutive items exceeds the
// word-join threshold, then collapses whitespace runs.
func JoinItems(items []TextItem) string {
	var sb strings.Builder
	for i, it := range items {
		if i > 0 {
			gap := it.X - items[i-1].EndX()
			if gap > wordJoinGap {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(it.Str)
	}
	return CollapseWhitespace(sb.String())
}

// CollapseWhitespace trims the string and squeezes internal whitespace
// runs down to single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// median returns the middle value of vals (mean of the middle pair for
// even counts), or 0 for an empty slice.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
