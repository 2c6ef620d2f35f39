package tables

import (
	"testing"

	"github.com/plansift/plansift/pkg/layout"
)

// row lays out cell texts at fixed column positions on one Y band.
func row(page int, y float64, cells ...string) []layout.TextItem {
	var items []layout.TextItem
	x := 50.0
	for _, c := range cells {
		items = append(items, layout.TextItem{
			Str: c, Page: page, X: x, Y: y, Width: float64(7 * len(c)), Height: 10,
		})
		x += 120
	}
	return items
}

func TestIsHeaderRow(t *testing.T) {
	// WHAT: Two domain-token cells qualify a header; one does not.
	yes := layout.ClusterCells(row(1, 700, "UNIT", "BR", "SF"), 30)
	if !IsHeaderRow(yes) {
		t.Error("UNIT/BR/SF should be a header row")
	}
	no := layout.ClusterCells(row(1, 700, "UNIT", "NOTES"), 30)
	if IsHeaderRow(no) {
		t.Error("single domain token should not be a header row")
	}
}

func TestReconstruct_GapClosesRegion(t *testing.T) {
	// WHAT: A header + 2 data rows followed by a large Y-gap and an
	// unrelated notes line yields one region with exactly 2 rows.
	// WHY: Footnotes below a schedule must not be absorbed as data.
	var items []layout.TextItem
	items = append(items, row(1, 700, "UNIT", "BR", "SF")...)
	items = append(items, row(1, 685, "2A", "1BR", "650")...)
	items = append(items, row(1, 670, "2B", "2BR", "890")...)
	items = append(items, row(1, 400, "Notes: see sheet A-900")...)

	regions := Reconstruct(items, 1)
	if len(regions) != 1 {
		t.Fatalf("regions = %d, want 1", len(regions))
	}
	if len(regions[0].Rows) != 2 {
		t.Fatalf("data rows = %d, want 2", len(regions[0].Rows))
	}
	if regions[0].Rows[1].Text() != "2B 2BR 890" {
		t.Errorf("row text = %q", regions[0].Rows[1].Text())
	}
}

func TestReconstruct_NewHeaderSplitsRegions(t *testing.T) {
	// WHAT: A second header row closes the first region and opens another.
	var items []layout.TextItem
	items = append(items, row(1, 700, "UNIT", "BR", "SF")...)
	items = append(items, row(1, 685, "2A", "1BR", "650")...)
	items = append(items, row(1, 670, "FLOOR", "OCCUPANT", "LOAD")...)
	items = append(items, row(1, 655, "2", "CELLAR", "45")...)

	regions := Reconstruct(items, 1)
	if len(regions) != 2 {
		t.Fatalf("regions = %d, want 2", len(regions))
	}
	if regions[0].Header.Text() != "UNIT BR SF" {
		t.Errorf("first header = %q", regions[0].Header.Text())
	}
	if regions[1].Header.Text() != "FLOOR OCCUPANT LOAD" {
		t.Errorf("second header = %q", regions[1].Header.Text())
	}
}

func TestTotalsCount(t *testing.T) {
	// WHAT: The unit count is read off a totals row whether it sits next
	// to UNITS or right after TOTAL; area-only totals yield nothing.
	cases := []struct {
		text string
		want int
		ok   bool
	}{
		{"TOTAL 8 UNITS", 8, true},
		{"TOTAL: 24", 24, true},
		{"12 DWELLING UNITS TOTAL", 12, true},
		{"TOTAL 5,200 SF", 0, false},
		{"2A 1BR 640", 0, false},
	}
	for _, c := range cases {
		got, ok := TotalsCount(c.text)
		if got != c.want || ok != c.ok {
			t.Errorf("TotalsCount(%q) = %d, %v; want %d, %v", c.text, got, ok, c.want, c.ok)
		}
	}
}

func TestReconstruct_HeaderWithoutDataDiscarded(t *testing.T) {
	// WHAT: A header with no qualifying data rows yields no region.
	items := row(1, 700, "UNIT", "BR", "SF")
	if regions := Reconstruct(items, 1); len(regions) != 0 {
		t.Errorf("regions = %v, want none", regions)
	}
}
