package reconcile

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/plansift/plansift/pkg/units"
)

// noiseTokens name non-dwelling rows that leak in from occupant-load
// and generic scans. A record whose unit id is exactly one of these is
// dropped.
var noiseTokens = map[string]bool{
	"BLOCK": true, "LOT": true, "TOTAL": true, "ZONE": true,
	"STAIRS": true, "STAIR": true, "ELEV": true, "ELEVATOR": true,
	"CORRIDOR": true, "LOBBY": true, "ROOF": true,
	"CELLAR": true, "BSMT": true, "MECH": true,
}

// Area bounds for a plausible dwelling unit. Records carrying an area
// outside this range are treated as misreads and dropped; records with
// no area pass through.
const (
	minPlausibleAreaSF = 150
	maxPlausibleAreaSF = 5000
)

// capRatio is how far the record count may exceed the cover sheet's
// declared total before the list is capped back down to it.
const capRatio = 1.5

// MaxCappedConfidence bounds overall confidence whenever capping fired.
const MaxCappedConfidence = 0.6

// Outcome is the sanitized record list plus what was done to it.
type Outcome struct {
	Records  []units.UnitRecord
	Totals   units.MixTotals
	Capped   bool
	Warnings []string
	Dropped  int
}

var (
	idNormRe   = regexp.MustCompile(`[^A-Z0-9]`)
	idPrefixRe = regexp.MustCompile(`^(?:UNIT|APT|APARTMENT)`)
)

// normalizeID canonicalizes a unit id for dedupe: uppercased, with
// punctuation, whitespace, and a leading UNIT/APT label stripped, so
// "Unit 2-A", "2A", and "APT 2.A" collide.
func normalizeID(id string) string {
	id = idNormRe.ReplaceAllString(strings.ToUpper(id), "")
	return idPrefixRe.ReplaceAllString(id, "")
}

// Sanitize settles the merged record list against the declared unit
// count.
//
// In order: noise-token and implausible-area records are dropped;
// records sharing a normalized unit id are deduplicated, keeping the
// richer record (more populated fields; the earlier one on ties); and
// when the surviving count exceeds capRatio times a positive declared
// count, the list is sorted by floor then id and truncated to the
// declared count, with a warning recorded and Capped set so the caller
// can bound confidence. Totals are recomputed from the final list.
func Sanitize(records []units.UnitRecord, declaredUnits int) Outcome {
	var out Outcome

	kept := make([]units.UnitRecord, 0, len(records))
	for _, r := range records {
		if noiseTokens[strings.ToUpper(strings.TrimSpace(r.UnitID))] {
			out.Dropped++
			continue
		}
		if r.AreaSF > 0 && (r.AreaSF < minPlausibleAreaSF || r.AreaSF > maxPlausibleAreaSF) {
			out.Dropped++
			continue
		}
		kept = append(kept, r)
	}

	kept = dedupe(kept, &out.Dropped)

	if declaredUnits > 0 && float64(len(kept)) > capRatio*float64(declaredUnits) {
		sortForCap(kept)
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"extracted %d unit records exceeded cover-sheet units (%d); truncated",
			len(kept), declaredUnits))
		out.Dropped += len(kept) - declaredUnits
		kept = kept[:declaredUnits]
		out.Capped = true
	}

	out.Records = kept
	out.Totals = units.ComputeTotals(kept)
	return out
}

// dedupe collapses records with the same normalized unit id, keeping
// the record with more populated fields (the first seen on ties).
// Records with no unit id are never merged.
func dedupe(records []units.UnitRecord, dropped *int) []units.UnitRecord {
	byID := make(map[string]int)
	out := make([]units.UnitRecord, 0, len(records))
	for _, r := range records {
		key := normalizeID(r.UnitID)
		if key == "" {
			out = append(out, r)
			continue
		}
		if at, ok := byID[key]; ok {
			*dropped++
			if r.PopulatedFields() > out[at].PopulatedFields() {
				out[at] = r
			}
			continue
		}
		byID[key] = len(out)
		out = append(out, r)
	}
	return out
}

// sortForCap orders records for truncation: numbered floors ascending,
// then records with no resolved floor, then penthouse records, with
// unit id breaking ties. Lower floors survive a cap because schedules
// enumerate bottom-up and over-extraction concentrates in upper-sheet
// noise.
func sortForCap(records []units.UnitRecord) {
	rank := func(r units.UnitRecord) (int, int) {
		switch {
		case r.Floor == "PH":
			return 2, 0
		case r.Floor == "":
			return 1, 0
		default:
			n, err := strconv.Atoi(r.Floor)
			if err != nil {
				return 1, 0
			}
			return 0, n
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		gi, ni := rank(records[i])
		gj, nj := rank(records[j])
		if gi != gj {
			return gi < gj
		}
		if ni != nj {
			return ni < nj
		}
		return records[i].UnitID < records[j].UnitID
	})
}
