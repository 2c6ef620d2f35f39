package layout

import (
	"math"
	"testing"
)

func item(s string, x, y, w, h float64) TextItem {
	return TextItem{Str: s, Page: 1, X: x, Y: y, Width: w, Height: h}
}

func TestClusterLines_Partition(t *testing.T) {
	// WHAT: Every item lands in exactly one line, X-sorted within it.
	// WHY: Downstream table parsing assumes a full partition of the page.
	items := []TextItem{
		item("UNIT", 50, 700, 30, 10),
		item("BR", 150, 701, 15, 10),
		item("SF", 250, 699, 15, 10),
		item("2A", 50, 680, 15, 10),
		item("1BR", 150, 680, 20, 10),
		item("650", 250, 680, 20, 10),
	}
	lines := ClusterLines(items, 1, 0)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	total := 0
	for _, ln := range lines {
		total += len(ln.Items)
		for i := 1; i < len(ln.Items); i++ {
			if ln.Items[i].X < ln.Items[i-1].X {
				t.Errorf("line %q items not X-sorted", ln.Text)
			}
		}
	}
	if total != len(items) {
		t.Errorf("partitioned %d items, want %d", total, len(items))
	}
	if lines[0].Text != "UNIT BR SF" {
		t.Errorf("top line text = %q, want %q", lines[0].Text, "UNIT BR SF")
	}
}

func TestClusterLines_Idempotent(t *testing.T) {
	// WHAT: Re-clustering a single clustered line yields the same line.
	// WHY: Stability under repeated layout passes (e.g. OCR re-runs).
	items := []TextItem{
		item("LOT", 50, 500, 25, 9),
		item("AREA:", 80, 500, 35, 9),
		item("12,000", 130, 500, 40, 9),
	}
	first := ClusterLines(items, 1, 0)
	if len(first) != 1 {
		t.Fatalf("first pass lines = %d, want 1", len(first))
	}
	second := ClusterLines(first[0].Items, 1, 0)
	if len(second) != 1 {
		t.Fatalf("second pass lines = %d, want 1", len(second))
	}
	if second[0].Text != first[0].Text {
		t.Errorf("text changed across passes: %q vs %q", first[0].Text, second[0].Text)
	}
}

func TestClusterLines_WordJoin(t *testing.T) {
	// WHAT: Small gaps concatenate directly, larger gaps insert a space.
	// WHY: PDF text runs often split mid-word at sub-glyph gaps.
	items := []TextItem{
		item("ZON", 50, 300, 21, 9),
		item("ING", 72, 300, 21, 9),       // 1pt gap: same word
		item("ANALYSIS", 110, 300, 56, 9), // 17pt gap: space
	}
	lines := ClusterLines(items, 1, 0)
	if len(lines) != 1 || lines[0].Text != "ZONING ANALYSIS" {
		t.Fatalf("text = %q, want %q", lines[0].Text, "ZONING ANALYSIS")
	}
}

func TestClusterCells_GapSplit(t *testing.T) {
	// WHAT: Cells split only on gaps above the tolerance.
	// WHY: Column boundaries in schedules are wide; word gaps are not.
	items := []TextItem{
		item("2A", 50, 680, 14, 10),
		item("1BR", 150, 680, 21, 10),
		item("650", 300, 680, 21, 10),
		item("SF", 326, 680, 14, 10),
	}
	cells := ClusterCells(items, 30)
	if len(cells) != 3 {
		t.Fatalf("cells = %d, want 3", len(cells))
	}
	if cells[2].Text != "650 SF" {
		t.Errorf("last cell = %q, want %q", cells[2].Text, "650 SF")
	}
	if cells[0].X != 50 || cells[0].EndX != 64 {
		t.Errorf("cell span = (%v, %v), want (50, 64)", cells[0].X, cells[0].EndX)
	}
}

func TestYTolerance_Floor(t *testing.T) {
	// WHAT: Tolerance never drops below the 2pt floor.
	// WHY: Degenerate heights (OCR artifacts) must not fragment lines.
	items := []TextItem{item("a", 0, 0, 5, 1), item("b", 10, 0, 5, 1)}
	if got := YTolerance(items); got != 2 {
		t.Errorf("YTolerance = %v, want 2", got)
	}
	tall := []TextItem{item("a", 0, 0, 5, 20), item("b", 10, 0, 5, 20)}
	if got := YTolerance(tall); math.Abs(got-12) > 1e-9 {
		t.Errorf("YTolerance = %v, want 12", got)
	}
}

func TestXGapTolerance_Derived(t *testing.T) {
	// WHAT: Tolerance follows median char width with a 10pt floor.
	items := []TextItem{
		item("ABCD", 0, 0, 40, 10), // 10pt per char
		item("EF", 60, 0, 20, 10),  // 10pt per char
	}
	if got := XGapTolerance(items); math.Abs(got-22) > 1e-9 {
		t.Errorf("XGapTolerance = %v, want 22", got)
	}
}
