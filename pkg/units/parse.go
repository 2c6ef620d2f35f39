package units

import (
	"regexp"
	"strconv"
	"strings"
)

// totalRowRe rejects summary rows: the standalone word TOTAL anywhere
// in the row.
var totalRowRe = regexp.MustCompile(`(?i)\bTOTALS?\b`)

// bedroomPatterns is the ordered detection ladder. First match wins.
var bedroomPatterns = []struct {
	re *regexp.Regexp
	bt BedroomType
}{
	{regexp.MustCompile(`(?i)\b(STUDIO|EFF(?:ICIENCY)?|0\s*[-.]?\s*B(?:ED)?R(?:OOM)?S?)\b`), Studio},
	{regexp.MustCompile(`(?i)\b(?:1|ONE)\s*[-.]?\s*B(?:ED)?R(?:OOM)?S?\b`), OneBR},
	{regexp.MustCompile(`(?i)\b(?:2|TWO)\s*[-.]?\s*B(?:ED)?R(?:OOM)?S?\b`), TwoBR},
	{regexp.MustCompile(`(?i)\b(?:3|THREE)\s*[-.]?\s*B(?:ED)?R(?:OOM)?S?\b`), ThreeBR},
	{regexp.MustCompile(`(?i)\b[4-6]\s*[-.]?\s*B(?:ED)?R(?:OOM)?S?\b`), FourPlusBR},
}

var (
	mihAllocRe    = regexp.MustCompile(`(?i)\b(MIH|INCLUSIONARY|RESTRICTED|AFFORDABLE|UAP)\b`)
	marketAllocRe = regexp.MustCompile(`(?i)\b(FREE\s+MARKET|MARKET|MR)\b`)

	amiBandRe = regexp.MustCompile(`(?i)\b(40|50|60|70|80|90|100)\s*%?\s*AMI\b`)

	// Area anchored to a square-feet suffix within the mapped column.
	areaSFRe = regexp.MustCompile(`(?i)(\d[\d,]*)\s*(?:SF|S\.?F\.?|SQ\.?\s*FT\.?)`)
	// Fallback: a standalone 3-5 digit number plausible as square feet.
	areaLooseRe = regexp.MustCompile(`\b(\d{3,5})\b`)

	digitRe = regexp.MustCompile(`\d`)

	// Positional lines must carry an explicit unit-id token to be
	// trusted without table structure.
	positionalUnitIDRe = regexp.MustCompile(`(?i)\b(?:UNIT|APT\.?)\s*[-#:]?\s*([0-9]+[A-Z]?|[A-Z][0-9]+[A-Z]?|PH[0-9]*[A-Z]?)\b`)
	bareUnitIDRe       = regexp.MustCompile(`^\s*([0-9]{1,2}[A-Z]|PH[0-9]*[A-Z]?)\b`)
)

const (
	minLooseAreaSF = 200
	maxLooseAreaSF = 5000
)

// DetectBedrooms runs the ordered pattern ladder over text, returning
// the matched type and its bedroom count (0 for studios, 4 for the
// 4BR_PLUS bucket). Returns BedroomUnknown when nothing matches.
func DetectBedrooms(text string) (BedroomType, int) {
	for _, p := range bedroomPatterns {
		if p.re.MatchString(text) {
			switch p.bt {
			case Studio:
				return Studio, 0
			case OneBR:
				return OneBR, 1
			case TwoBR:
				return TwoBR, 2
			case ThreeBR:
				return ThreeBR, 3
			case FourPlusBR:
				return FourPlusBR, 4
			}
		}
	}
	return BedroomUnknown, 0
}

// DetectAllocation normalizes affordability wording into the closed
// Allocation enum. MIH, inclusionary, restricted, affordable, and UAP
// wording all land in MIH_RESTRICTED; unrecognized wording is UNKNOWN.
func DetectAllocation(text string) Allocation {
	if mihAllocRe.MatchString(text) {
		return MIHRestricted
	}
	if marketAllocRe.MatchString(text) {
		return Market
	}
	return AllocationUnknown
}

// DetectAMIBand extracts an AMI percentage band (40-100 in tens), or 0.
func DetectAMIBand(text string) int {
	m := amiBandRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	band, _ := strconv.Atoi(m[1])
	return band
}

// detectArea prefers an SF-suffixed figure in the mapped column text,
// falling back to any standalone 3-5 digit number in [200, 5000] in the
// full row.
func detectArea(columnText, rowText string) float64 {
	if m := areaSFRe.FindStringSubmatch(columnText); m != nil {
		if v := parseNumber(m[1]); v > 0 {
			return v
		}
	}
	// The mapped column may hold a bare number.
	if columnText != "" {
		if v := parseNumber(strings.TrimSpace(columnText)); v >= minLooseAreaSF && v <= maxLooseAreaSF {
			return v
		}
	}
	if m := areaSFRe.FindStringSubmatch(rowText); m != nil {
		if v := parseNumber(m[1]); v > 0 {
			return v
		}
	}
	for _, m := range areaLooseRe.FindAllStringSubmatch(rowText, -1) {
		if v := parseNumber(m[1]); v >= minLooseAreaSF && v <= maxLooseAreaSF {
			return v
		}
	}
	return 0
}

// ParseUnitRow parses one table data row into a UnitRecord using the
// header's column mapping. Returns nil for summary rows, near-empty
// rows, and rows with neither a bedroom signal nor any digit. The
// record's evidence is the verbatim joined row text.
func ParseUnitRow(cells []string, mapping ColumnMapping, page int, method string) *UnitRecord {
	joined := strings.TrimSpace(strings.Join(cells, " "))
	if len(joined) < 2 || totalRowRe.MatchString(joined) {
		return nil
	}

	cellAt := func(idx int) string {
		if idx >= 0 && idx < len(cells) {
			return cells[idx]
		}
		return ""
	}

	bedSource := cellAt(mapping.BedCount)
	if bedSource == "" {
		bedSource = joined
	}
	bt, count := DetectBedrooms(bedSource)
	if bt == BedroomUnknown && bedSource != joined {
		bt, count = DetectBedrooms(joined)
	}

	// The table-row variant is permissive: a row with no recognized
	// bedroom pattern survives as UNKNOWN as long as it carries a digit.
	if bt == BedroomUnknown && !digitRe.MatchString(joined) {
		return nil
	}

	allocSource := cellAt(mapping.Allocation)
	if allocSource == "" {
		allocSource = joined
	}
	alloc := DetectAllocation(allocSource)
	if alloc == AllocationUnknown && allocSource != joined {
		alloc = DetectAllocation(joined)
	}

	rec := &UnitRecord{
		UnitID:       strings.TrimSpace(cellAt(mapping.UnitID)),
		Bedrooms:     bt,
		BedroomCount: count,
		Allocation:   alloc,
		AMIBand:      DetectAMIBand(joined),
		AreaSF:       detectArea(cellAt(mapping.Area), joined),
		Source: Source{
			Page:     page,
			Method:   method,
			Evidence: Truncate(joined),
		},
	}
	return rec
}

// ParseUnitRowPositional parses a free-text line with no detected table
// structure. Stricter than the table variant: the line must carry
// either a recognized unit-id token or a recognized bedroom token.
func ParseUnitRowPositional(text string, page int, method string) *UnitRecord {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 || totalRowRe.MatchString(trimmed) {
		return nil
	}

	unitID := ""
	if m := positionalUnitIDRe.FindStringSubmatch(trimmed); m != nil {
		unitID = strings.ToUpper(m[1])
	} else if m := bareUnitIDRe.FindStringSubmatch(trimmed); m != nil {
		unitID = strings.ToUpper(m[1])
	}

	bt, count := DetectBedrooms(trimmed)
	if unitID == "" && bt == BedroomUnknown {
		return nil
	}

	return &UnitRecord{
		UnitID:       unitID,
		Bedrooms:     bt,
		BedroomCount: count,
		Allocation:   DetectAllocation(trimmed),
		AMIBand:      DetectAMIBand(trimmed),
		AreaSF:       detectArea("", trimmed),
		Source: Source{
			Page:     page,
			Method:   method,
			Evidence: Truncate(trimmed),
		},
	}
}

// parseNumber parses a comma-grouped number; 0 on failure.
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
