// Package confidence scores extraction quality.
//
// Two layers: per-page scores built additively from structural signals
// (headers found, totals rows seen, row counts, OCR quality), and an
// extract-level validation pass that compares headline figures against
// city tax-lot data (PLUTO) and deducts a penalty per disagreement.
// Scores are advisory, never gating output, and are clamped below
// 1.0 so downstream consumers can distinguish extracted data from
// ground truth.
package confidence

import "fmt"

// PageSignals are the structural facts one page's extraction produced.
type PageSignals struct {
	MappedColumns    int     // header columns resolved to parsing roles
	TotalsFound      bool    // a totals row was recognized
	TotalsConsistent bool    // stated totals figure matched the parsed row count
	RowCount         int     // unit rows parsed from the page
	OCRUsed          bool    // positioned text came from OCR, not the text layer
	OCRConfidence    float64 // provider confidence, 0-100
	Conflict         bool    // page totals contradicted another page's
}

// Signal weights. Header quality keys on how many columns the mapper
// resolved; totals earn full weight only when the stated figure agrees
// with the rows actually parsed.
const (
	headerWeightFull       = 0.30 // >= 3 mapped columns
	headerWeightPartial    = 0.15 // >= 2 mapped columns
	totalsWeightConsistent = 0.25
	totalsWeightPresent    = 0.10
	rowsWeightHigh         = 0.20 // >= 10 rows
	rowsWeightMid          = 0.10 // >= 5 rows
	rowsWeightLow          = 0.05 // >= 1 row
	ocrWeight              = 0.15 // scaled by OCRConfidence/100
	conflictPenalty        = 0.30

	maxScore = 0.99
)

// ScorePageConfidence combines a page's signals into a [0, 0.99] score.
func ScorePageConfidence(s PageSignals) float64 {
	score := 0.0
	switch {
	case s.MappedColumns >= 3:
		score += headerWeightFull
	case s.MappedColumns >= 2:
		score += headerWeightPartial
	}
	if s.TotalsFound {
		if s.TotalsConsistent {
			score += totalsWeightConsistent
		} else {
			score += totalsWeightPresent
		}
	}
	switch {
	case s.RowCount >= 10:
		score += rowsWeightHigh
	case s.RowCount >= 5:
		score += rowsWeightMid
	case s.RowCount >= 1:
		score += rowsWeightLow
	}
	if s.OCRUsed {
		score += ocrWeight * clamp(s.OCRConfidence/100, 0, 1)
	}
	if s.Conflict {
		score -= conflictPenalty
	}
	return clamp(score, 0, maxScore)
}

// Overall averages page scores weighted by row count (pages with more
// parsed rows dominate), with rowless pages weighted as one row. Zero
// pages scores zero.
func Overall(pages []PageSignals) float64 {
	if len(pages) == 0 {
		return 0
	}
	var sum, weight float64
	for _, p := range pages {
		w := float64(p.RowCount)
		if w < 1 {
			w = 1
		}
		sum += ScorePageConfidence(p) * w
		weight += w
	}
	return clamp(sum/weight, 0, maxScore)
}

// PlutoRecord is the slice of a NYC PLUTO tax-lot row the validator
// compares against: lot area, maximum residential FAR, and built floor
// area.
type PlutoRecord struct {
	LotArea  float64 `json:"lot_area"`
	ResidFAR float64 `json:"resid_far"`
	BldgArea float64 `json:"bldg_area"`
}

// Figures are the extract-level headline numbers under validation.
type Figures struct {
	LotAreaSF     float64
	ZFASF         float64
	FAR           float64
	TotalUnits    int
	DeclaredUnits int
	AvgUnitSF     map[string]float64 // average area per bedroom type
}

// Validation penalties. Each check that fails deducts its penalty from
// the base confidence; checks whose inputs are absent are skipped.
const (
	penaltyFARMismatch   = 0.10 // computed FAR differs from stated FAR by > 2%
	penaltyUnitsMismatch = 0.08 // extracted units differ from declared by > 5%
	penaltyLotMismatch   = 0.05 // lot area differs from PLUTO by > 10%
	penaltyFARExceeds    = 0.05 // stated FAR exceeds PLUTO max by > 5%

	minAdjusted = 0.1
)

// typicalSizeRanges are NYC typical average unit areas by bedroom type.
// An average outside its range produces a warning-only finding with a
// zero penalty.
var typicalSizeRanges = []struct {
	Bedrooms string
	MinSF    float64
	MaxSF    float64
}{
	{"STUDIO", 300, 650},
	{"1BR", 450, 950},
	{"2BR", 650, 1300},
	{"3BR", 850, 1800},
	{"4BR_PLUS", 1000, 2500},
}

// Finding is one failed validation check.
type Finding struct {
	Check   string  `json:"check"`
	Penalty float64 `json:"penalty"`
	Detail  string  `json:"detail"`
}

// Validate cross-checks the extract's figures internally and against an
// optional PLUTO record, returning the adjusted confidence
// max(0.1, min(0.99, base - sum of penalties)) and the findings behind
// each deduction. Size-range findings carry a zero penalty; they warn
// without moving the score.
func Validate(base float64, fig Figures, pluto *PlutoRecord) (float64, []Finding) {
	var findings []Finding

	if fig.FAR > 0 && fig.ZFASF > 0 && fig.LotAreaSF > 0 {
		computed := fig.ZFASF / fig.LotAreaSF
		if relDiff(computed, fig.FAR) > 0.02 {
			findings = append(findings, Finding{
				Check:   "far-consistency",
				Penalty: penaltyFARMismatch,
				Detail:  fmt.Sprintf("stated FAR %.2f vs ZFA/lot %.2f", fig.FAR, computed),
			})
		}
	}
	if fig.DeclaredUnits > 0 && fig.TotalUnits > 0 {
		if relDiff(float64(fig.TotalUnits), float64(fig.DeclaredUnits)) > 0.05 {
			findings = append(findings, Finding{
				Check:   "unit-count",
				Penalty: penaltyUnitsMismatch,
				Detail:  fmt.Sprintf("extracted %d units vs declared %d", fig.TotalUnits, fig.DeclaredUnits),
			})
		}
	}
	for _, r := range typicalSizeRanges {
		avg, ok := fig.AvgUnitSF[r.Bedrooms]
		if !ok || avg <= 0 {
			continue
		}
		if avg < r.MinSF || avg > r.MaxSF {
			findings = append(findings, Finding{
				Check:   "unit-size-range",
				Penalty: 0,
				Detail: fmt.Sprintf("average %s area %.0f SF outside typical %.0f-%.0f SF",
					r.Bedrooms, avg, r.MinSF, r.MaxSF),
			})
		}
	}
	if pluto != nil {
		if fig.LotAreaSF > 0 && pluto.LotArea > 0 {
			if relDiff(fig.LotAreaSF, pluto.LotArea) > 0.10 {
				findings = append(findings, Finding{
					Check:   "pluto-lot-area",
					Penalty: penaltyLotMismatch,
					Detail:  fmt.Sprintf("extracted lot %.0f SF vs PLUTO %.0f SF", fig.LotAreaSF, pluto.LotArea),
				})
			}
		}
		if fig.FAR > 0 && pluto.ResidFAR > 0 && fig.FAR > pluto.ResidFAR*1.05 {
			findings = append(findings, Finding{
				Check:   "pluto-far-ceiling",
				Penalty: penaltyFARExceeds,
				Detail:  fmt.Sprintf("stated FAR %.2f exceeds PLUTO max %.2f", fig.FAR, pluto.ResidFAR),
			})
		}
	}

	adjusted := base
	for _, f := range findings {
		adjusted -= f.Penalty
	}
	return clamp(adjusted, minAdjusted, maxScore), findings
}

func relDiff(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	d := (a - b) / b
	if d < 0 {
		return -d
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
