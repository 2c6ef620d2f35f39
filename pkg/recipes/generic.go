package recipes

import (
	"github.com/plansift/plansift/pkg/tables"
	"github.com/plansift/plansift/pkg/units"
)

// runGeneric is the fallback for unclassified pages: reconstruct any
// tables, parse their rows, and run the strict positional parser over
// the remaining lines. It also opportunistically picks up zoning
// figures, at lower confidence than a dedicated zoning sheet would.
//
// Confidence is min(0.85, 0.3 + 0.02 per record); no records scores
// 0.1.
func runGeneric(pages []Page) Result {
	bag := newFieldBag()
	var recs []units.UnitRecord

	for _, p := range pages {
		// Track table-row text so the positional pass does not
		// re-extract the same lines.
		inTable := make(map[string]bool)
		for _, region := range tables.Reconstruct(p.Items, p.Number) {
			mapping := units.InferColumnMapping(region.Header.CellTexts())
			for _, row := range region.Rows {
				inTable[row.Text()] = true
				if rec := units.ParseUnitRow(row.CellTexts(), mapping, p.Number, "generic-table"); rec != nil {
					recs = append(recs, *rec)
				}
			}
		}

		lines := p.Lines()
		for _, line := range lines {
			if inTable[line] {
				continue
			}
			if rec := units.ParseUnitRowPositional(line, p.Number, "generic-positional"); rec != nil {
				recs = append(recs, *rec)
			}
		}

		fig := ExtractFarFromLines(lines)
		if fig.LotAreaSF > 0 {
			bag.setNumber("lot_area_sf", fig.LotAreaSF, p.Number, "generic-scan", firstMatching(lines, lotAreaRe))
		}
		if fig.ZFASF > 0 {
			bag.setNumber("zfa_sf", fig.ZFASF, p.Number, "generic-scan", firstMatching(lines, zfaRe))
		}
		if fig.FAR > 0 && !fig.FARDerived {
			bag.setNumber("far", fig.FAR, p.Number, "generic-scan", firstMatching(lines, farRe))
		}
	}

	conf := 0.1
	if len(recs) > 0 {
		conf = clamp(0.3+0.02*float64(len(recs)), 0, 0.85)
	}
	return Result{
		Recipe:     Generic,
		Pages:      pageNumbers(pages),
		Fields:     bag.fields,
		Units:      recs,
		Evidence:   bag.evidence,
		Confidence: conf,
	}
}
