package recipes

import (
	"github.com/plansift/plansift/pkg/tables"
	"github.com/plansift/plansift/pkg/units"
)

// runOccupantLoad extracts unit rows from occupant-load and code-notes
// tables. These sheets enumerate spaces rather than dwellings, so rows
// lean on the permissive table parser and the noise filtering happens
// downstream during reconciliation.
//
// Confidence is min(0.95, 0.5 + 0.025 per record); no records scores
// 0.1.
func runOccupantLoad(pages []Page) Result {
	var recs []units.UnitRecord
	for _, p := range pages {
		for _, region := range tables.Reconstruct(p.Items, p.Number) {
			mapping := units.InferColumnMapping(region.Header.CellTexts())
			for _, row := range region.Rows {
				if rec := units.ParseUnitRow(row.CellTexts(), mapping, p.Number, "occupant-table"); rec != nil {
					recs = append(recs, *rec)
				}
			}
		}
	}

	conf := 0.1
	if len(recs) > 0 {
		conf = clamp(0.5+0.025*float64(len(recs)), 0, 0.95)
	}
	return Result{
		Recipe:     OccupantLoad,
		Pages:      pageNumbers(pages),
		Units:      recs,
		Confidence: conf,
	}
}
