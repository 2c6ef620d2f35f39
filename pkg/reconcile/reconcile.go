// Package reconcile cross-checks and cleans the merged unit list.
//
// Recipes over-collect on purpose: table rows, plan labels, and
// positional lines all become candidate records, and schedules repeated
// across sheets produce duplicates. This package applies the document's
// own cross-references to settle the list: the cover sheet's declared
// unit count bounds the record count, zoning-district area conventions
// fill in unresolved bedroom types, and non-dwelling rows (stairs,
// corridors, lot lines) are filtered out.
//
// Every inference appends an audit note to the record it touched;
// nothing is silently rewritten.
package reconcile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/plansift/plansift/pkg/units"
)

// ZoneThresholds are the unit-area breakpoints (square feet) used to
// infer a bedroom type from floor area, by zoning district family.
// A unit at or under Studio reads as a studio; at or under OneBR as a
// one-bedroom; and so on, with anything above ThreeBR inferred as
// 4BR_PLUS.
type ZoneThresholds struct {
	Studio  float64
	OneBR   float64
	TwoBR   float64
	ThreeBR float64
}

// DefaultThresholds apply when the zoning district is absent or
// unlisted.
var DefaultThresholds = ZoneThresholds{Studio: 450, OneBR: 650, TwoBR: 950, ThreeBR: 1300}

// thresholdsByZone keys on the district family prefix (the district
// string up to its first hyphen, uppercased). All listed families use
// the default breakpoints today; the table exists so district-specific
// tuning lands in one place.
var thresholdsByZone = map[string]ZoneThresholds{
	"R6":  DefaultThresholds,
	"R7":  DefaultThresholds,
	"R8":  DefaultThresholds,
	"R9":  DefaultThresholds,
	"R10": DefaultThresholds,
	"C4":  DefaultThresholds,
	"C6":  DefaultThresholds,
}

// ThresholdsForZone resolves the breakpoints for a zoning district
// string such as "R7A", "R6-B", or "C4-4D".
func ThresholdsForZone(district string) ZoneThresholds {
	d := strings.ToUpper(strings.TrimSpace(district))
	if i := strings.IndexByte(d, '-'); i >= 0 {
		d = d[:i]
	}
	// Trim a trailing letter suffix ("R7A" -> "R7").
	for len(d) > 0 && d[len(d)-1] >= 'A' && d[len(d)-1] <= 'Z' {
		if len(d) >= 2 && d[len(d)-2] >= '0' && d[len(d)-2] <= '9' {
			d = d[:len(d)-1]
			continue
		}
		break
	}
	if t, ok := thresholdsByZone[d]; ok {
		return t
	}
	return DefaultThresholds
}

// Bedroom-inference confidence by inferred type. Larger units are less
// reliably sized by convention, so confidence falls as the type rises.
const (
	confStudioInference  = 0.65
	confOneBRInference   = 0.60
	confTwoBRInference   = 0.55
	confThreeBRInference = 0.50
	confFourBRInference  = 0.45
)

// InferBedroomFromArea maps a floor area to a bedroom type using the
// district thresholds, with a per-type confidence.
func InferBedroomFromArea(areaSF float64, t ZoneThresholds) (units.BedroomType, int, float64) {
	switch {
	case areaSF <= t.Studio:
		return units.Studio, 0, confStudioInference
	case areaSF <= t.OneBR:
		return units.OneBR, 1, confOneBRInference
	case areaSF <= t.TwoBR:
		return units.TwoBR, 2, confTwoBRInference
	case areaSF <= t.ThreeBR:
		return units.ThreeBR, 3, confThreeBRInference
	default:
		return units.FourPlusBR, 4, confFourBRInference
	}
}

// ApplyBedroomInference fills in bedroom types for records that have an
// area but no recognized bedroom token. Records with an explicit type
// are never overridden. Each inference appends an audit note naming the
// inferred type and its confidence.
func ApplyBedroomInference(records []units.UnitRecord, district string) []units.UnitRecord {
	t := ThresholdsForZone(district)
	out := make([]units.UnitRecord, len(records))
	copy(out, records)
	for i := range out {
		r := &out[i]
		if (r.Bedrooms != units.BedroomUnknown && r.Bedrooms != "") || r.AreaSF <= 0 {
			continue
		}
		bt, count, conf := InferBedroomFromArea(r.AreaSF, t)
		r.Bedrooms = bt
		r.BedroomCount = count
		note := fmt.Sprintf("bedrooms inferred from %.0f SF as %s (conf %.2f)", r.AreaSF, bt, conf)
		if r.Notes == "" {
			r.Notes = note
		} else {
			r.Notes += "; " + note
		}
	}
	return out
}

var (
	phFloorRe      = regexp.MustCompile(`(?i)^PH`)
	leadingDigitRe = regexp.MustCompile(`^(\d{1,2})`)
)

// InferFloor derives a floor label from a unit id: a PH prefix means
// the penthouse floor, leading digits name the floor number. Empty when
// neither convention applies.
func InferFloor(unitID string) string {
	id := strings.TrimSpace(unitID)
	if phFloorRe.MatchString(id) {
		return "PH"
	}
	if m := leadingDigitRe.FindStringSubmatch(id); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 {
			return strconv.Itoa(n)
		}
	}
	return ""
}

// ApplyFloorInference fills empty Floor fields from unit ids.
func ApplyFloorInference(records []units.UnitRecord) []units.UnitRecord {
	out := make([]units.UnitRecord, len(records))
	copy(out, records)
	for i := range out {
		if out[i].Floor == "" {
			out[i].Floor = InferFloor(out[i].UnitID)
		}
	}
	return out
}
