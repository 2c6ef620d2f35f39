package reconcile

import (
	"fmt"
	"strings"
	"testing"

	"github.com/plansift/plansift/pkg/units"
)

func TestInferBedroomFromArea_Boundaries(t *testing.T) {
	// WHAT: Breakpoints are inclusive on the low side: 450 SF is still a
	// studio, 451 SF is a one-bedroom.
	cases := []struct {
		area float64
		want units.BedroomType
		conf float64
	}{
		{450, units.Studio, 0.65},
		{451, units.OneBR, 0.60},
		{650, units.OneBR, 0.60},
		{651, units.TwoBR, 0.55},
		{950, units.TwoBR, 0.55},
		{1300, units.ThreeBR, 0.50},
		{1301, units.FourPlusBR, 0.45},
	}
	for _, c := range cases {
		bt, _, conf := InferBedroomFromArea(c.area, DefaultThresholds)
		if bt != c.want || conf != c.conf {
			t.Errorf("InferBedroomFromArea(%v) = %s, %v; want %s, %v", c.area, bt, conf, c.want, c.conf)
		}
	}
}

func TestThresholdsForZone(t *testing.T) {
	for _, d := range []string{"R7A", "R6-B", "C4-4D", "R10", "", "M1-5"} {
		if got := ThresholdsForZone(d); got != DefaultThresholds {
			t.Errorf("ThresholdsForZone(%q) = %+v", d, got)
		}
	}
}

func TestApplyBedroomInference(t *testing.T) {
	recs := []units.UnitRecord{
		{UnitID: "2A", Bedrooms: units.BedroomUnknown, AreaSF: 430},
		{UnitID: "2B", Bedrooms: units.ThreeBR, BedroomCount: 3, AreaSF: 430}, // explicit wins
		{UnitID: "2C", Bedrooms: units.BedroomUnknown},                        // no area, untouched
	}
	out := ApplyBedroomInference(recs, "R7A")
	if out[0].Bedrooms != units.Studio {
		t.Errorf("inferred = %s, want STUDIO", out[0].Bedrooms)
	}
	if !strings.Contains(out[0].Notes, "inferred") {
		t.Error("inference left no audit note")
	}
	if out[1].Bedrooms != units.ThreeBR {
		t.Error("explicit bedroom type was overridden")
	}
	if out[2].Bedrooms != units.BedroomUnknown || out[2].Notes != "" {
		t.Errorf("area-free record changed: %+v", out[2])
	}
	if recs[0].Bedrooms != units.BedroomUnknown {
		t.Error("input slice mutated")
	}
}

func TestInferFloor(t *testing.T) {
	cases := []struct{ id, want string }{
		{"PH-A", "PH"},
		{"PH2", "PH"},
		{"12A", "12"},
		{"3B", "3"},
		{"0X", ""},
		{"A101", ""},
	}
	for _, c := range cases {
		if got := InferFloor(c.id); got != c.want {
			t.Errorf("InferFloor(%q) = %q, want %q", c.id, got, c.want)
		}
	}
}

func TestSanitize_NoiseAndAreaFilter(t *testing.T) {
	recs := []units.UnitRecord{
		{UnitID: "2A", AreaSF: 640},
		{UnitID: "STAIR"},
		{UnitID: "CORRIDOR"},
		{UnitID: "2B", AreaSF: 80},    // below plausible floor
		{UnitID: "2C", AreaSF: 90000}, // above plausible ceiling
		{UnitID: "2D"},                // no area, kept
	}
	out := Sanitize(recs, 0)
	if len(out.Records) != 2 || out.Dropped != 4 {
		t.Errorf("kept %d / dropped %d, want 2 / 4", len(out.Records), out.Dropped)
	}
}

func TestSanitize_DedupeKeepsRicher(t *testing.T) {
	recs := []units.UnitRecord{
		{UnitID: "2A", Bedrooms: units.BedroomUnknown},
		{UnitID: "Unit 2-A", Bedrooms: units.OneBR, BedroomCount: 1, AreaSF: 640},
	}
	out := Sanitize(recs, 0)
	if len(out.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(out.Records))
	}
	if out.Records[0].AreaSF != 640 {
		t.Error("dedupe kept the poorer record")
	}
}

func TestSanitize_CapAndRecompute(t *testing.T) {
	// WHAT: 30 extracted records against 10 declared units trips the cap:
	// truncate to 10, recompute totals, warn, and mark Capped.
	var recs []units.UnitRecord
	for i := 0; i < 30; i++ {
		recs = append(recs, units.UnitRecord{
			UnitID:   fmt.Sprintf("%d%c", i/3+1, 'A'+i%3),
			Floor:    fmt.Sprintf("%d", i/3+1),
			Bedrooms: units.OneBR,
		})
	}
	out := Sanitize(recs, 10)
	if !out.Capped {
		t.Fatal("Capped not set")
	}
	if len(out.Records) != 10 || out.Totals.TotalUnits != 10 {
		t.Errorf("records = %d, totals = %d; want 10, 10", len(out.Records), out.Totals.TotalUnits)
	}
	if out.Totals.ByBedroom[units.OneBR] != 10 {
		t.Errorf("totals not recomputed from truncated list: %+v", out.Totals)
	}
	found := false
	for _, w := range out.Warnings {
		if strings.Contains(w, "exceeded cover-sheet units (10)") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want cover-sheet cap warning", out.Warnings)
	}
	// Lower floors survive.
	if out.Records[0].Floor != "1" {
		t.Errorf("first kept record floor = %s, want 1", out.Records[0].Floor)
	}
}

func TestSanitize_CapBoundary(t *testing.T) {
	// WHAT: The cap fires only beyond 1.5x declared: 14 records against
	// 10 declared pass untouched, 16 are truncated.
	mk := func(n int) []units.UnitRecord {
		recs := make([]units.UnitRecord, n)
		for i := range recs {
			recs[i] = units.UnitRecord{UnitID: fmt.Sprintf("U%02d", i)}
		}
		return recs
	}
	if out := Sanitize(mk(14), 10); out.Capped || len(out.Records) != 14 {
		t.Errorf("14 records capped: %d kept", len(out.Records))
	}
	if out := Sanitize(mk(16), 10); !out.Capped || len(out.Records) != 10 {
		t.Errorf("16 records not capped to 10: %d kept", len(out.Records))
	}
}
