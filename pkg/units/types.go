// Package units defines the canonical extracted unit record and parses
// schedule rows into it.
//
// Rows arrive either as cell decompositions of a reconstructed table or
// as free-text lines with no detected table. Both parsers normalize raw
// values into closed enumerations (bedroom type and allocation are
// never arbitrary strings; anything unrecognized becomes UNKNOWN) and
// carry the original row text verbatim as evidence.
package units

// BedroomType classifies a unit by bedroom count.
type BedroomType string

const (
	Studio         BedroomType = "STUDIO"
	OneBR          BedroomType = "1BR"
	TwoBR          BedroomType = "2BR"
	ThreeBR        BedroomType = "3BR"
	FourPlusBR     BedroomType = "4BR_PLUS"
	BedroomUnknown BedroomType = "UNKNOWN"
)

// Allocation classifies a unit's affordability status.
type Allocation string

const (
	Market            Allocation = "MARKET"
	Affordable        Allocation = "AFFORDABLE"
	MIHRestricted     Allocation = "MIH_RESTRICTED"
	AllocationUnknown Allocation = "UNKNOWN"
)

// Source records where a unit record came from. Evidence is the
// verbatim row or line text the record was parsed from, truncated to
// EvidenceLimit characters; it is the audit trail and is never
// paraphrased.
type Source struct {
	Page     int    `json:"page"`
	Method   string `json:"method"`
	Evidence string `json:"evidence"`
}

// EvidenceLimit caps the stored evidence snippet length.
const EvidenceLimit = 200

// UnitRecord is one extracted dwelling unit.
//
// Records are created by recipe extraction or the row parsers, mutated
// only by the reconciliation stage (filling UNKNOWN fields, recomputing
// floor), and replaced wholesale on deduplication or capping.
type UnitRecord struct {
	UnitID       string      `json:"unit_id,omitempty"`
	Floor        string      `json:"floor,omitempty"` // "1".."N" or "PH"
	Bedrooms     BedroomType `json:"bedrooms"`
	BedroomCount int         `json:"bedroom_count,omitempty"` // 0 when unresolved (studios carry Bedrooms=STUDIO)
	Allocation   Allocation  `json:"allocation"`
	AMIBand      int         `json:"ami_band,omitempty"` // 40..100, multiple of 10; 0 when absent
	AreaSF       float64     `json:"area_sf,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	Source       Source      `json:"source"`
}

// PopulatedFields counts how many optional fields a record carries;
// used to pick the richer record on dedupe collisions.
func (u UnitRecord) PopulatedFields() int {
	n := 0
	if u.UnitID != "" {
		n++
	}
	if u.Floor != "" {
		n++
	}
	if u.Bedrooms != BedroomUnknown && u.Bedrooms != "" {
		n++
	}
	if u.BedroomCount > 0 {
		n++
	}
	if u.Allocation != AllocationUnknown && u.Allocation != "" {
		n++
	}
	if u.AMIBand > 0 {
		n++
	}
	if u.AreaSF > 0 {
		n++
	}
	if u.Notes != "" {
		n++
	}
	return n
}

// Truncate clips evidence text to the audit-trail limit, counting
// characters rather than bytes so OCR'd multi-byte text never splits
// mid-rune.
func Truncate(s string) string {
	if len(s) <= EvidenceLimit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= EvidenceLimit {
		return s
	}
	return string(runes[:EvidenceLimit])
}

// MixTotals is the aggregate view over a record list. Always
// recomputable from the records; never hand-edited independently.
type MixTotals struct {
	TotalUnits   int                                `json:"total_units"`
	ByBedroom    map[BedroomType]int                `json:"by_bedroom"`
	ByAllocation map[Allocation]int                 `json:"by_allocation"`
	Cross        map[Allocation]map[BedroomType]int `json:"cross,omitempty"`
	ByAMIBand    map[int]int                        `json:"by_ami_band,omitempty"`
}

// ComputeTotals derives MixTotals from a record list.
func ComputeTotals(records []UnitRecord) MixTotals {
	t := MixTotals{
		TotalUnits:   len(records),
		ByBedroom:    make(map[BedroomType]int),
		ByAllocation: make(map[Allocation]int),
		Cross:        make(map[Allocation]map[BedroomType]int),
		ByAMIBand:    make(map[int]int),
	}
	for _, r := range records {
		bt := r.Bedrooms
		if bt == "" {
			bt = BedroomUnknown
		}
		al := r.Allocation
		if al == "" {
			al = AllocationUnknown
		}
		t.ByBedroom[bt]++
		t.ByAllocation[al]++
		if t.Cross[al] == nil {
			t.Cross[al] = make(map[BedroomType]int)
		}
		t.Cross[al][bt]++
		if r.AMIBand > 0 {
			t.ByAMIBand[r.AMIBand]++
		}
	}
	return t
}
