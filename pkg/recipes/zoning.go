package recipes

import (
	"github.com/plansift/plansift/pkg/tables"
	"github.com/plansift/plansift/pkg/units"
)

// runZoningSchedule extracts the lot-area / ZFA / FAR triple from
// zoning analysis sheets, plus any unit schedule tables the sheet
// carries (zoning compliance sheets often embed the authoritative unit
// mix).
//
// Confidence starts at 0.4 and earns +0.15 for lot area, +0.15 for
// ZFA, +0.10 for a FAR figure, and +0.10 when at least one table was
// reconstructed, capping at 0.9.
func runZoningSchedule(pages []Page) Result {
	bag := newFieldBag()
	const method = "zoning-scan"
	var recs []units.UnitRecord
	sawTable := false

	for _, p := range pages {
		lines := p.Lines()
		fig := ExtractFarFromLines(lines)
		if fig.LotAreaSF > 0 {
			bag.setNumber("lot_area_sf", fig.LotAreaSF, p.Number, method, firstMatching(lines, lotAreaRe))
		}
		if fig.ZFASF > 0 {
			bag.setNumber("zfa_sf", fig.ZFASF, p.Number, method, firstMatching(lines, zfaRe))
		}
		if fig.FAR > 0 && !bag.has("far") {
			if fig.FARDerived {
				bag.setNumber("far", fig.FAR, p.Number, "zoning-derived", "ZFA / LOT AREA")
				bag.fields["far_derived"] = true
			} else {
				bag.setNumber("far", fig.FAR, p.Number, method, firstMatching(lines, farRe))
			}
		}
		for _, line := range lines {
			if m := zoneRe.FindStringSubmatch(line); m != nil {
				bag.setString("zoning_district", m[1], p.Number, method, line)
			} else if m := bareZoneRe.FindStringSubmatch(line); m != nil {
				bag.setString("zoning_district", m[1], p.Number, method, line)
			}
		}

		regions := tables.Reconstruct(p.Items, p.Number)
		for _, region := range regions {
			sawTable = true
			mapping := units.InferColumnMapping(region.Header.CellTexts())
			for _, row := range region.Rows {
				if rec := units.ParseUnitRow(row.CellTexts(), mapping, p.Number, "zoning-table"); rec != nil {
					recs = append(recs, *rec)
				}
			}
		}
	}

	conf := 0.4
	if bag.has("lot_area_sf") {
		conf += 0.15
	}
	if bag.has("zfa_sf") {
		conf += 0.15
	}
	if bag.has("far") {
		conf += 0.1
	}
	if sawTable {
		conf += 0.1
	}
	return Result{
		Recipe:     ZoningSchedule,
		Pages:      pageNumbers(pages),
		Fields:     bag.fields,
		Units:      recs,
		Evidence:   bag.evidence,
		Confidence: clamp(conf, 0, 0.9),
	}
}
