package recipes

// coverFieldCount is the number of scalar fields the cover-sheet scan
// can bind: address, block, lot, zoning district, declared units,
// stories, building height.
const coverFieldCount = 7

// runCoverSheet scans cover pages for project-level facts. Cover sheets
// carry no unit tables, so the recipe never emits unit records; its
// value is the declared unit count and siting fields the downstream
// reconciliation checks schedules against.
//
// Confidence is min(0.95, 0.3 + 0.09 per bound field).
func runCoverSheet(pages []Page) Result {
	bag := newFieldBag()
	const method = "cover-scan"

	for _, p := range pages {
		for _, line := range p.Lines() {
			if m := addressRe.FindStringSubmatch(line); m != nil {
				bag.setString("address", m[1], p.Number, method, line)
			}
			if m := blockRe.FindStringSubmatch(line); m != nil {
				bag.setString("block", m[1], p.Number, method, line)
			}
			if m := lotRe.FindStringSubmatch(line); m != nil {
				bag.setString("lot", m[1], p.Number, method, line)
			}
			if m := zoneRe.FindStringSubmatch(line); m != nil {
				bag.setString("zoning_district", m[1], p.Number, method, line)
			} else if m := bareZoneRe.FindStringSubmatch(line); m != nil {
				bag.setString("zoning_district", m[1], p.Number, method, line)
			}
			if m := storiesRe.FindStringSubmatch(line); m != nil {
				bag.setNumber("stories", parseNumber(m[1]), p.Number, method, line)
			}
			if m := heightRe.FindStringSubmatch(line); m != nil {
				bag.setNumber("building_height_ft", parseNumber(m[1]), p.Number, method, line)
			}
		}
		if !bag.has("declared_units") {
			if n, line, ok := DeclaredUnits(p.Lines()); ok {
				bag.setNumber("declared_units", float64(n), p.Number, method, line)
			}
		}
	}

	conf := clamp(0.3+0.09*float64(bag.count()), 0, 0.95)
	if bag.count() == 0 {
		conf = 0.3
	}
	return Result{
		Recipe:     CoverSheet,
		Pages:      pageNumbers(pages),
		Fields:     bag.fields,
		Evidence:   bag.evidence,
		Confidence: conf,
	}
}
