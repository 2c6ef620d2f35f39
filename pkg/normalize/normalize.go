// Package normalize merges per-recipe results into one coherent plan
// extract.
//
// Recipes run independently and may disagree; normalization settles the
// disagreements with fixed precedence (a zoning schedule's figures beat
// a cover sheet's, which beat a generic page's), applies the figure
// sanity guards, and aggregates unit records and evidence into a single
// NormalizedPlanExtract.
//
// Normalization can also be delegated to a remote service; WithFallback
// guarantees the local deterministic merge still answers when the
// remote fails.
package normalize

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/plansift/plansift/pkg/recipes"
	"github.com/plansift/plansift/pkg/units"
)

// AreaStats summarizes unit areas for one bedroom type.
type AreaStats struct {
	Count int     `json:"count"`
	MinSF float64 `json:"min_sf"`
	MaxSF float64 `json:"max_sf"`
	AvgSF float64 `json:"avg_sf"`
}

// NormalizedPlanExtract is the pipeline's final product: everything the
// drawing set said about the project, in one structure.
type NormalizedPlanExtract struct {
	ProjectFields  map[string]any        `json:"project_fields,omitempty"`
	ZoningDistrict string                `json:"zoning_district,omitempty"`
	Figures        recipes.ZoningFigures `json:"figures"`
	DeclaredUnits  int                   `json:"declared_units,omitempty"`
	Units          []units.UnitRecord    `json:"units"`
	Totals         units.MixTotals       `json:"totals"`
	SizeStats      map[string]AreaStats  `json:"size_stats,omitempty"`
	Evidence       []recipes.Evidence    `json:"evidence,omitempty"`
	Confidence     float64               `json:"confidence"`
	Warnings       []string              `json:"warnings,omitempty"`
	Source         string                `json:"source"`
	FallbackReason string                `json:"fallback_reason,omitempty"`
}

// Normalizer merges recipe results into a plan extract. Implementations
// must not fail on empty or partial input; errors are reserved for
// transport-level problems (a remote normalizer losing its connection),
// which WithFallback converts into a local answer.
type Normalizer interface {
	Normalize(ctx context.Context, results []recipes.Result) (*NormalizedPlanExtract, error)
}

// FAR values outside this range are discarded as misreads.
const (
	minPlausibleFAR = 0.1
	maxPlausibleFAR = 15.0
)

// figurePrecedence orders recipes by how authoritative their zoning
// figures are. Lower is stronger.
var figurePrecedence = map[recipes.Type]int{
	recipes.ZoningSchedule: 0,
	recipes.CoverSheet:     1,
	recipes.Generic:        2,
}

// LocalNormalizer is the deterministic in-process merge. The zero value
// is ready to use.
type LocalNormalizer struct{}

// Normalize merges results into one extract. It never returns an error;
// the error slot exists to satisfy Normalizer.
func (LocalNormalizer) Normalize(_ context.Context, results []recipes.Result) (*NormalizedPlanExtract, error) {
	ex := &NormalizedPlanExtract{
		ProjectFields: make(map[string]any),
		Source:        "local",
	}

	// Stable figure precedence regardless of result ordering.
	ordered := make([]recipes.Result, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return precedenceOf(ordered[i].Recipe) < precedenceOf(ordered[j].Recipe)
	})

	for _, res := range ordered {
		mergeFigures(ex, res)
		for k, v := range res.Fields {
			if _, ok := ex.ProjectFields[k]; !ok {
				ex.ProjectFields[k] = v
			}
		}
		ex.Evidence = append(ex.Evidence, res.Evidence...)
	}

	// Units keep document order: recipe results sorted by first page.
	byPage := make([]recipes.Result, len(results))
	copy(byPage, results)
	sort.SliceStable(byPage, func(i, j int) bool {
		return firstPage(byPage[i]) < firstPage(byPage[j])
	})
	for _, res := range byPage {
		ex.Units = append(ex.Units, res.Units...)
	}

	if v, ok := ex.ProjectFields["zoning_district"].(string); ok {
		ex.ZoningDistrict = v
	}
	if v, ok := ex.ProjectFields["declared_units"].(float64); ok {
		ex.DeclaredUnits = int(v)
	}

	applyFigureGuards(ex)
	ex.Totals = units.ComputeTotals(ex.Units)
	ex.SizeStats = ComputeSizeStats(ex.Units)
	return ex, nil
}

func precedenceOf(r recipes.Type) int {
	if p, ok := figurePrecedence[r]; ok {
		return p
	}
	return 3
}

func firstPage(r recipes.Result) int {
	if len(r.Pages) == 0 {
		return math.MaxInt32
	}
	return r.Pages[0]
}

// mergeFigures copies a result's zoning figures into the extract,
// first-bound-wins. Results arrive in precedence order, so a zoning
// schedule's lot area blocks a cover sheet's.
func mergeFigures(ex *NormalizedPlanExtract, res recipes.Result) {
	if ex.Figures.LotAreaSF == 0 {
		if v, ok := res.Fields["lot_area_sf"].(float64); ok {
			ex.Figures.LotAreaSF = v
		}
	}
	if ex.Figures.ZFASF == 0 {
		if v, ok := res.Fields["zfa_sf"].(float64); ok {
			ex.Figures.ZFASF = v
		}
	}
	if ex.Figures.FAR == 0 {
		if v, ok := res.Fields["far"].(float64); ok {
			ex.Figures.FAR = v
			if d, ok := res.Fields["far_derived"].(bool); ok && d {
				ex.Figures.FARDerived = true
			}
		}
	}
}

// applyFigureGuards enforces figure sanity after the merge: an FAR
// outside the plausible range is dropped, and a lot-area / floor-area
// pair that contradicts a stated FAR >= 1 is treated as transposed and
// swapped back. Both guards warn.
func applyFigureGuards(ex *NormalizedPlanExtract) {
	f := &ex.Figures
	if f.FAR != 0 && (f.FAR < minPlausibleFAR || f.FAR > maxPlausibleFAR) {
		ex.Warnings = append(ex.Warnings,
			fmt.Sprintf("discarded implausible FAR %.2f", f.FAR))
		f.FAR = 0
		f.FARDerived = false
	}
	if f.LotAreaSF > 0 && f.ZFASF > 0 && f.ZFASF < f.LotAreaSF && f.FAR >= 1 {
		ex.Warnings = append(ex.Warnings,
			"lot area and zoning floor area appear transposed; swapped")
		f.LotAreaSF, f.ZFASF = f.ZFASF, f.LotAreaSF
	}
}

// ComputeSizeStats aggregates unit areas by bedroom type, skipping
// records with no area.
func ComputeSizeStats(records []units.UnitRecord) map[string]AreaStats {
	stats := make(map[string]AreaStats)
	for _, r := range records {
		if r.AreaSF <= 0 {
			continue
		}
		key := string(r.Bedrooms)
		if key == "" {
			key = string(units.BedroomUnknown)
		}
		s := stats[key]
		if s.Count == 0 || r.AreaSF < s.MinSF {
			s.MinSF = r.AreaSF
		}
		if r.AreaSF > s.MaxSF {
			s.MaxSF = r.AreaSF
		}
		s.AvgSF = (s.AvgSF*float64(s.Count) + r.AreaSF) / float64(s.Count+1)
		s.Count++
		stats[key] = s
	}
	return stats
}
