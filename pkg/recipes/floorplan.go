package recipes

import (
	"github.com/plansift/plansift/pkg/units"
)

// runFloorPlanLabel harvests unit labels scattered across floor plan
// sheets. Plans rarely carry tables, so every clustered line goes
// through the strict positional parser, which demands an explicit
// unit-id or bedroom token before emitting a record.
//
// Confidence is min(0.95, 0.5 + 0.05 per record); a plan group that
// yields nothing scores 0.2.
func runFloorPlanLabel(pages []Page) Result {
	var recs []units.UnitRecord
	for _, p := range pages {
		for _, line := range p.Lines() {
			if rec := units.ParseUnitRowPositional(line, p.Number, "plan-label"); rec != nil {
				recs = append(recs, *rec)
			}
		}
	}

	conf := 0.2
	if len(recs) > 0 {
		conf = clamp(0.5+0.05*float64(len(recs)), 0, 0.95)
	}
	return Result{
		Recipe:     FloorPlanLabel,
		Pages:      pageNumbers(pages),
		Units:      recs,
		Confidence: conf,
	}
}
