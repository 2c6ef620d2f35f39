package recipes

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/plansift/plansift/pkg/units"
)

// fieldBag collects scalar fields across a recipe's page scan. Each
// field binds at most once (the first non-empty value wins), so when
// pages are scanned in ascending order the lowest page's value takes
// precedence.
type fieldBag struct {
	fields   map[string]any
	evidence []Evidence
}

func newFieldBag() *fieldBag {
	return &fieldBag{fields: make(map[string]any)}
}

func (b *fieldBag) has(field string) bool {
	_, ok := b.fields[field]
	return ok
}

// setString binds field to value unless already bound or value is empty.
func (b *fieldBag) setString(field, value string, page int, method, snippet string) {
	value = strings.TrimSpace(value)
	if value == "" || b.has(field) {
		return
	}
	b.fields[field] = value
	b.addEvidence(field, page, method, snippet)
}

// setNumber binds field to value unless already bound or value is zero.
func (b *fieldBag) setNumber(field string, value float64, page int, method, snippet string) {
	if value == 0 || b.has(field) {
		return
	}
	b.fields[field] = value
	b.addEvidence(field, page, method, snippet)
}

func (b *fieldBag) addEvidence(field string, page int, method, snippet string) {
	b.evidence = append(b.evidence, Evidence{
		Field:   field,
		Page:    page,
		Method:  method,
		Snippet: units.Truncate(snippet),
	})
}

func (b *fieldBag) count() int { return len(b.fields) }

// Field scanning patterns shared across recipes. All scans run line by
// line in page order so the first occurrence in the document wins.
var (
	addressRe  = regexp.MustCompile(`(?i)\b(\d{1,5}(?:-\d{1,4})?\s+[A-Z0-9 .']{3,40}\s(?:STREET|ST\.?|AVENUE|AVE\.?|BOULEVARD|BLVD\.?|ROAD|RD\.?|PLACE|PL\.?|DRIVE|DR\.?|LANE|LN\.?|PARKWAY|PKWY\.?|COURT|CT\.?))\b`)
	blockRe    = regexp.MustCompile(`(?i)\bBLOCK\s*[:#]?\s*(\d{1,5})\b`)
	lotRe      = regexp.MustCompile(`(?i)\bLOTS?\s*[:#]?\s*(\d{1,4})\b`)
	zoneRe     = regexp.MustCompile(`(?i)\b(?:ZONING\s+DISTRICT|ZONE|DISTRICT)\s*[:#]?\s*((?:R|C|M)\d{1,2}(?:-\d[A-Z]?)?(?:[A-Z])?(?:\s*/\s*(?:R|C|M)\d{1,2}(?:-\d[A-Z]?)?(?:[A-Z])?)?)\b`)
	bareZoneRe = regexp.MustCompile(`\b(R\d{1,2}(?:-\d)?[ABDX]?|C[1-8]-\d[A-Z]?|M1-\d(?:/R\d{1,2})?)\b`)
	storiesRe  = regexp.MustCompile(`(?i)\b(\d{1,3})\s*[-\s]?STOR(?:Y|IES)\b`)
	heightRe   = regexp.MustCompile(`(?i)\b(?:BUILDING\s+)?HEIGHT\s*[:#]?\s*(\d[\d,]*(?:\.\d+)?)\s*(?:FT|FEET|')`)

	lotAreaRe = regexp.MustCompile(`(?i)\bLOT\s+AREA\s*[:#=]?\s*(\d[\d,]*(?:\.\d+)?)\s*(?:SF|S\.?F\.?|SQ\.?\s*FT\.?)?`)
	zfaRe     = regexp.MustCompile(`(?i)\b(?:ZFA|ZONING\s+FLOOR\s+AREA)\s*[:#=]?\s*(\d[\d,]*(?:\.\d+)?)\s*(?:SF|S\.?F\.?|SQ\.?\s*FT\.?)?`)
	farRe     = regexp.MustCompile(`(?i)\b(?:PROPOSED\s+|MAX\.?\s+|MAXIMUM\s+)?F\.?A\.?R\.?\s*[:#=]?\s*(\d{1,2}(?:\.\d{1,3})?)\b`)

	declaredUnitsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)#\s*OF\s+UNITS\s*[:#=]?\s*(\d{1,3})\b`),
		regexp.MustCompile(`(?i)\bPROPOSED\s+(\d{1,3})\s+UNIT`),
		regexp.MustCompile(`(?i)\b(\d{1,3})\s+UNIT\s+(?:APARTMENT|RESIDENTIAL)\s+BUILDING\b`),
		regexp.MustCompile(`(?i)\bTOTAL\s+DWELLING\s+UNITS\s*[:#=]?\s*(\d{1,3})\b`),
		regexp.MustCompile(`(?i)\b(\d{1,3})\s+DWELLING\s+UNITS\b`),
	}
)

// FAR values outside this range are treated as misreads and skipped.
const (
	minValidFAR = 0.1
	maxValidFAR = 15.0
)

// ZoningFigures is the lot-area / floor-area / FAR triple a zoning
// sheet yields. FARDerived marks a FAR computed from ZFA and lot area
// rather than read off the sheet.
type ZoningFigures struct {
	LotAreaSF  float64 `json:"lot_area_sf,omitempty"`
	ZFASF      float64 `json:"zfa_sf,omitempty"`
	FAR        float64 `json:"far,omitempty"`
	FARDerived bool    `json:"far_derived,omitempty"`
}

// ExtractFarFromLines scans lines in order for lot area, zoning floor
// area, and FAR, binding each once. An explicit FAR outside
// [0.1, 15] is rejected and the scan continues. When no valid explicit
// FAR is found but both ZFA and a positive lot area are, FAR is derived
// as ZFA/lot rounded to two decimals.
func ExtractFarFromLines(lines []string) ZoningFigures {
	var fig ZoningFigures
	for _, line := range lines {
		if fig.LotAreaSF == 0 {
			if m := lotAreaRe.FindStringSubmatch(line); m != nil {
				fig.LotAreaSF = parseNumber(m[1])
			}
		}
		if fig.ZFASF == 0 {
			if m := zfaRe.FindStringSubmatch(line); m != nil {
				fig.ZFASF = parseNumber(m[1])
			}
		}
		if fig.FAR == 0 {
			if m := farRe.FindStringSubmatch(line); m != nil {
				if v := parseNumber(m[1]); v >= minValidFAR && v <= maxValidFAR {
					fig.FAR = v
				}
			}
		}
		if fig.LotAreaSF > 0 && fig.ZFASF > 0 && fig.FAR > 0 {
			break
		}
	}
	if fig.FAR == 0 && fig.ZFASF > 0 && fig.LotAreaSF > 0 {
		fig.FAR = math.Round(fig.ZFASF/fig.LotAreaSF*100) / 100
		fig.FARDerived = true
	}
	return fig
}

// DeclaredUnits scans lines in order for a declared total unit count,
// trying each phrasing pattern per line. Counts outside [1, 500] are
// rejected. Returns the count, the matched line, and whether anything
// matched.
func DeclaredUnits(lines []string) (int, string, bool) {
	for _, line := range lines {
		for _, re := range declaredUnitsPatterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 || n > 500 {
				continue
			}
			return n, line, true
		}
	}
	return 0, "", false
}

// firstMatching returns the first line matching re, for evidence
// snippets; empty when no line matches.
func firstMatching(lines []string, re *regexp.Regexp) string {
	for _, line := range lines {
		if re.MatchString(line) {
			return line
		}
	}
	return ""
}

func parseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
