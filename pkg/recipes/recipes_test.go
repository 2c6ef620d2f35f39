package recipes

import (
	"testing"

	"github.com/plansift/plansift/pkg/layout"
	"github.com/plansift/plansift/pkg/sheets"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		number, title string
		want          Type
	}{
		{"T-001", "", CoverSheet},
		{"A-100", "COVER SHEET", CoverSheet},
		{"Z-100", "", ZoningSchedule},
		{"A-004", "", ZoningSchedule},
		{"A-200", "ZONING ANALYSIS", ZoningSchedule},
		{"A-101", "TYPICAL FLOOR PLAN", FloorPlanLabel},
		{"A-102", "FOUNDATION PLAN", Generic},
		{"A-103", "SITE PLAN", Generic},
		{"G-001", "", OccupantLoad},
		{"A-300", "OCCUPANT LOAD ANALYSIS", OccupantLoad},
		{"A-401", "ELEVATIONS", Generic},
	}
	for _, c := range cases {
		got := Classify(sheets.SheetInfo{DrawingNumber: c.number, DrawingTitle: c.title})
		if got != c.want {
			t.Errorf("Classify(%q, %q) = %s, want %s", c.number, c.title, got, c.want)
		}
	}
}

func TestClassify_CoverBeatsZoning(t *testing.T) {
	// WHAT: A sheet matching both cover and zoning patterns is a cover
	// sheet. WHY: Matching order is fixed; first match wins.
	got := Classify(sheets.SheetInfo{DrawingNumber: "T-001", DrawingTitle: "ZONING ANALYSIS"})
	if got != CoverSheet {
		t.Errorf("Classify = %s, want COVER_SHEET", got)
	}
}

func TestDispatch_SkipAndOverride(t *testing.T) {
	index := sheets.SheetIndex{}
	overrides := map[int]Override{
		2: {Recipe: Skip},
		3: {Recipe: ZoningSchedule},
	}
	groups := Dispatch(3, index, overrides)

	for _, pages := range groups {
		for _, p := range pages {
			if p == 2 {
				t.Error("skipped page 2 still dispatched")
			}
		}
	}
	zoning := groups[ZoningSchedule]
	if len(zoning) != 1 || zoning[0] != 3 {
		t.Errorf("zoning group = %v, want [3]", zoning)
	}
}

func TestExtractFarFromLines_Explicit(t *testing.T) {
	fig := ExtractFarFromLines([]string{
		"LOT AREA: 12,000 SF",
		"ZONING FLOOR AREA: 54,000 SF",
		"PROPOSED FAR: 4.5",
	})
	if fig.LotAreaSF != 12000 || fig.ZFASF != 54000 || fig.FAR != 4.5 || fig.FARDerived {
		t.Errorf("figures = %+v", fig)
	}
}

func TestExtractFarFromLines_DerivedAndBounds(t *testing.T) {
	// WHAT: An out-of-range explicit FAR is rejected and FAR falls back
	// to ZFA / lot area rounded to two decimals.
	fig := ExtractFarFromLines([]string{
		"FAR: 95.0",
		"LOT AREA: 12,000 SF",
		"ZFA: 95,000 SF",
	})
	if fig.FAR != 7.92 {
		t.Errorf("derived FAR = %v, want 7.92", fig.FAR)
	}
	if !fig.FARDerived {
		t.Error("FARDerived not set")
	}
}

func TestDeclaredUnits(t *testing.T) {
	cases := []struct {
		line string
		want int
		ok   bool
	}{
		{"# OF UNITS: 24", 24, true},
		{"PROPOSED 18 UNIT APARTMENT BUILDING", 18, true},
		{"TOTAL DWELLING UNITS: 40", 40, true},
		{"64 DWELLING UNITS", 64, true},
		{"# OF UNITS: 900", 0, false}, // above the plausible ceiling
		{"GENERAL NOTES", 0, false},
	}
	for _, c := range cases {
		got, _, ok := DeclaredUnits([]string{c.line})
		if got != c.want || ok != c.ok {
			t.Errorf("DeclaredUnits(%q) = %d, %v; want %d, %v", c.line, got, ok, c.want, c.ok)
		}
	}
}

func TestRunCoverSheet_FieldsFirstPageWins(t *testing.T) {
	// WHAT: Each field binds to its first occurrence in page order.
	pages := []Page{
		{Number: 2, RawText: "BLOCK: 999\nZONE: R7A"},
		{Number: 1, RawText: "BLOCK: 1234 LOT: 56\nPROPOSED 24 UNIT APARTMENT BUILDING"},
	}
	res := Run(CoverSheet, pages)
	if res.Fields["block"] != "1234" {
		t.Errorf("block = %v, want 1234 (page 1 scanned before page 2)", res.Fields["block"])
	}
	if res.Fields["declared_units"] != float64(24) {
		t.Errorf("declared_units = %v, want 24", res.Fields["declared_units"])
	}
	if res.Fields["zoning_district"] != "R7A" {
		t.Errorf("zoning_district = %v", res.Fields["zoning_district"])
	}
	// 4 fields bound: block, lot, declared_units, zoning_district.
	want := 0.3 + 0.09*4
	if diff := res.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want %v", res.Confidence, want)
	}
}

func TestRunZoningSchedule_Confidence(t *testing.T) {
	pages := []Page{{Number: 4, RawText: "LOT AREA: 10,000 SF\nZFA: 45,000 SF\nFAR: 4.5"}}
	res := Run(ZoningSchedule, pages)
	want := 0.4 + 0.15 + 0.15 + 0.1 // no tables on a raw-text page
	if diff := res.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want %v", res.Confidence, want)
	}
	if res.Fields["far"] != 4.5 {
		t.Errorf("far = %v", res.Fields["far"])
	}
}

func TestRunFloorPlanLabel(t *testing.T) {
	pages := []Page{{Number: 6, RawText: "UNIT 2A - 1BR - 640 SF\nUNIT 2B - STUDIO - 455 SF\nKEY PLAN"}}
	res := Run(FloorPlanLabel, pages)
	if len(res.Units) != 2 {
		t.Fatalf("units = %d, want 2", len(res.Units))
	}
	want := 0.5 + 0.05*2
	if diff := res.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want %v", res.Confidence, want)
	}
}

func TestRunFloorPlanLabel_EmptyScoresLow(t *testing.T) {
	res := Run(FloorPlanLabel, []Page{{Number: 6, RawText: "KEY PLAN\nNORTH ARROW"}})
	if res.Confidence != 0.2 {
		t.Errorf("confidence = %v, want 0.2", res.Confidence)
	}
	if len(res.Units) != 0 {
		t.Errorf("units = %d, want 0", len(res.Units))
	}
}

func TestRunNeverErrors(t *testing.T) {
	// WHAT: Every recipe handles an empty page group and item-free pages.
	for _, r := range []Type{CoverSheet, ZoningSchedule, FloorPlanLabel, OccupantLoad, Generic} {
		res := Run(r, nil)
		if res.Recipe != r {
			t.Errorf("Run(%s, nil).Recipe = %s", r, res.Recipe)
		}
		Run(r, []Page{{Number: 1}})
	}
}

func TestRunOccupantLoad_Table(t *testing.T) {
	items := scheduleItems()
	res := Run(OccupantLoad, []Page{{Number: 9, Items: items}})
	if len(res.Units) != 2 {
		t.Fatalf("units = %d, want 2", len(res.Units))
	}
	want := 0.5 + 0.025*2
	if diff := res.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want %v", res.Confidence, want)
	}
}

// scheduleItems lays out a small unit schedule: header plus two rows.
func scheduleItems() []layout.TextItem {
	mk := func(s string, x, y float64) layout.TextItem {
		return layout.TextItem{Str: s, Page: 9, X: x, Y: y, Width: 7 * float64(len(s)), Height: 8}
	}
	return []layout.TextItem{
		mk("UNIT", 50, 700), mk("BR", 170, 700), mk("SF", 290, 700),
		mk("2A", 50, 688), mk("1BR", 170, 688), mk("640", 290, 688),
		mk("2B", 50, 676), mk("STUDIO", 170, 676), mk("455", 290, 676),
	}
}
