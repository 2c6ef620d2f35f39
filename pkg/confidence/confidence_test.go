package confidence

import (
	"math"
	"testing"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScorePageConfidence_Weights(t *testing.T) {
	// WHAT: Header weight keys on mapped-column count, totals weight on
	// whether the stated figure agreed with the parsed rows.
	s := PageSignals{MappedColumns: 3, TotalsFound: true, TotalsConsistent: true, RowCount: 12}
	if got := ScorePageConfidence(s); !almost(got, 0.30+0.25+0.20) {
		t.Errorf("rich schedule score = %v", got)
	}
	s = PageSignals{MappedColumns: 2, TotalsFound: true, RowCount: 5}
	if got := ScorePageConfidence(s); !almost(got, 0.15+0.10+0.10) {
		t.Errorf("partial header score = %v", got)
	}
	s = PageSignals{MappedColumns: 1, RowCount: 1}
	if got := ScorePageConfidence(s); !almost(got, 0.05) {
		t.Errorf("single mapped column earned header weight: %v", got)
	}
}

func TestScorePageConfidence_OCRScaled(t *testing.T) {
	s := PageSignals{RowCount: 1, OCRUsed: true, OCRConfidence: 80}
	if got := ScorePageConfidence(s); !almost(got, 0.05+0.15*0.8) {
		t.Errorf("score = %v", got)
	}
}

func TestScorePageConfidence_ConflictAndClamp(t *testing.T) {
	s := PageSignals{RowCount: 1, Conflict: true}
	if got := ScorePageConfidence(s); got != 0 {
		t.Errorf("conflicted sparse page = %v, want clamp to 0", got)
	}
}

func TestScorePageConfidence_Monotone(t *testing.T) {
	// WHAT: Adding a positive signal never lowers the score.
	base := PageSignals{RowCount: 3}
	s0 := ScorePageConfidence(base)
	withHeader := base
	withHeader.MappedColumns = 4
	if ScorePageConfidence(withHeader) < s0 {
		t.Error("header signal lowered score")
	}
	moreRows := base
	moreRows.RowCount = 20
	if ScorePageConfidence(moreRows) < s0 {
		t.Error("more rows lowered score")
	}
}

func TestOverall_RowWeighted(t *testing.T) {
	pages := []PageSignals{
		{MappedColumns: 3, RowCount: 10}, // 0.50, weight 10
		{RowCount: 0},                    // 0.0, weight 1
	}
	want := (0.5*10 + 0) / 11
	if got := Overall(pages); !almost(got, want) {
		t.Errorf("overall = %v, want %v", got, want)
	}
	if Overall(nil) != 0 {
		t.Error("empty page list must score 0")
	}
}

func TestValidate_Penalties(t *testing.T) {
	fig := Figures{
		LotAreaSF:     10000,
		ZFASF:         60000, // computed FAR 6.0
		FAR:           4.0,   // disagrees by far more than 2%
		TotalUnits:    30,
		DeclaredUnits: 24, // off by 25%
	}
	pluto := &PlutoRecord{LotArea: 12500, ResidFAR: 3.44} // lot off 20%, FAR over ceiling
	adjusted, findings := Validate(0.9, fig, pluto)
	if len(findings) != 4 {
		t.Fatalf("findings = %d, want 4: %+v", len(findings), findings)
	}
	want := 0.9 - 0.10 - 0.08 - 0.05 - 0.05
	if !almost(adjusted, want) {
		t.Errorf("adjusted = %v, want %v", adjusted, want)
	}
}

func TestValidate_SizeRangeWarnsWithoutPenalty(t *testing.T) {
	// WHAT: A bedroom-type average outside the typical NYC range yields a
	// finding but no deduction.
	// WHY: Odd averages flag suspect parses for review; they are not
	// evidence the extraction is wrong.
	fig := Figures{AvgUnitSF: map[string]float64{
		"STUDIO": 1200, // far above typical
		"1BR":    700,  // within range
	}}
	adjusted, findings := Validate(0.8, fig, nil)
	if adjusted != 0.8 {
		t.Errorf("adjusted = %v, want unchanged 0.8", adjusted)
	}
	if len(findings) != 1 {
		t.Fatalf("findings = %+v, want only the studio range flag", findings)
	}
	if findings[0].Check != "unit-size-range" || findings[0].Penalty != 0 {
		t.Errorf("finding = %+v", findings[0])
	}
}

func TestValidate_SkipsAbsentInputs(t *testing.T) {
	adjusted, findings := Validate(0.8, Figures{TotalUnits: 12}, nil)
	if len(findings) != 0 || adjusted != 0.8 {
		t.Errorf("adjusted = %v, findings = %v; want no-op", adjusted, findings)
	}
}

func TestValidate_Floor(t *testing.T) {
	// WHAT: Penalties never drive confidence below 0.1.
	fig := Figures{LotAreaSF: 10000, ZFASF: 60000, FAR: 4.0, TotalUnits: 30, DeclaredUnits: 24}
	adjusted, _ := Validate(0.15, fig, &PlutoRecord{LotArea: 12500, ResidFAR: 3.0})
	if adjusted != 0.1 {
		t.Errorf("adjusted = %v, want floor 0.1", adjusted)
	}
}
