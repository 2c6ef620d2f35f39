// Package recipes maps classified sheets to extraction strategies and
// runs them.
//
// Each page of a drawing set is assigned to exactly one recipe based on
// its title-block classification: cover sheets, zoning schedules, floor
// plans, occupant-load tables, or the generic fallback. Recipes combine
// the layout, table, and unit-parsing primitives with sheet-specific
// heuristics and always return a result: absence of data is expressed
// through low confidence and empty evidence, never through errors.
//
// Every recipe scans its page list in ascending page order and binds
// each scalar field at most once (first non-empty value wins), so field
// precedence is a property of document order, not call order.
package recipes

import (
	"regexp"
	"sort"
	"strings"

	"github.com/plansift/plansift/pkg/layout"
	"github.com/plansift/plansift/pkg/sheets"
	"github.com/plansift/plansift/pkg/units"
)

// Type names an extraction strategy.
type Type string

const (
	CoverSheet     Type = "COVER_SHEET"
	ZoningSchedule Type = "ZONING_SCHEDULE"
	FloorPlanLabel Type = "FLOOR_PLAN_LABEL"
	OccupantLoad   Type = "OCCUPANT_LOAD"
	Generic        Type = "GENERIC"

	// Skip excludes a page from every recipe. Only valid as an override.
	Skip Type = "skip"
)

// Override is a caller-supplied forced assignment for one page,
// bypassing sheet classification entirely.
type Override struct {
	Recipe Type
}

// Page is one page's extraction input: positioned items plus the raw
// text fallback, and the OCR contribution flags the confidence scorer
// needs.
type Page struct {
	Number        int
	Items         []layout.TextItem
	RawText       string
	OCRUsed       bool
	OCRConfidence float64 // provider confidence, 0-100
}

// Lines clusters the page's items into layout lines, falling back to
// splitting the raw text when no positioned items exist.
func (p Page) Lines() []string {
	if len(p.Items) > 0 {
		lines := layout.ClusterLines(p.Items, p.Number, 0)
		out := make([]string, len(lines))
		for i, ln := range lines {
			out[i] = ln.Text
		}
		return out
	}
	var out []string
	for _, ln := range strings.Split(p.RawText, "\n") {
		if t := layout.CollapseWhitespace(ln); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Evidence ties an extracted field to the page and verbatim snippet it
// came from.
type Evidence struct {
	Field   string `json:"field"`
	Page    int    `json:"page"`
	Method  string `json:"method"`
	Snippet string `json:"snippet"`
}

// Result is one recipe's output over its page group.
type Result struct {
	Recipe     Type               `json:"recipe"`
	Pages      []int              `json:"pages"`
	Fields     map[string]any     `json:"fields,omitempty"`
	Units      []units.UnitRecord `json:"units,omitempty"`
	Evidence   []Evidence         `json:"evidence,omitempty"`
	Confidence float64            `json:"confidence"`
}

var (
	coverTitleRe   = regexp.MustCompile(`(?i)\b(COVER|TITLE\s+SHEET)\b`)
	coverNumberRe  = regexp.MustCompile(`(?i)^T[-.]?\d`)
	zoningTitleRe  = regexp.MustCompile(`(?i)\bZONING\s+(COMPLIANCE|ANALYSIS|SCHEDULE|DATA)\b`)
	zoningNumberRe = regexp.MustCompile(`(?i)^(Z-|A[-.]?004)`)
	floorTitleRe   = regexp.MustCompile(`(?i)\b(FLOOR\s+PLAN|TYPICAL\s+FLOOR|UNIT\s+PLAN)\b`)
	notFloorRe     = regexp.MustCompile(`(?i)\b(SITE\s+PLAN|FOUNDATION\s+PLAN|SUSTAINABLE\s+ROOF)\b`)
	occupantReT    = regexp.MustCompile(`(?i)\b(OCCUPANT\s+LOAD|CODE\s+NOTES)\b`)
	occupantReN    = regexp.MustCompile(`(?i)^G-`)
)

// Classify picks the recipe for a sheet. Matching order is fixed and
// first match wins; pages matching nothing fall through to GENERIC.
func Classify(sheet sheets.SheetInfo) Type {
	title := strings.ToUpper(sheet.DrawingTitle)
	number := strings.ToUpper(sheet.DrawingNumber)

	switch {
	case coverTitleRe.MatchString(title) || coverNumberRe.MatchString(number):
		return CoverSheet
	case zoningTitleRe.MatchString(title) || zoningNumberRe.MatchString(number):
		return ZoningSchedule
	case floorTitleRe.MatchString(title) && !notFloorRe.MatchString(title):
		return FloorPlanLabel
	case occupantReT.MatchString(title) || occupantReN.MatchString(number):
		return OccupantLoad
	default:
		return Generic
	}
}

// Dispatch assigns every page to exactly one recipe. Overrides bypass
// classification; a Skip override removes the page from all groups.
// Each group's page list is sorted ascending so recipe scans preserve
// lowest-page-first precedence.
func Dispatch(pageCount int, index sheets.SheetIndex, overrides map[int]Override) map[Type][]int {
	groups := make(map[Type][]int)
	for page := 1; page <= pageCount; page++ {
		recipe := Classify(index.Sheet(page))
		if ov, ok := overrides[page]; ok {
			if ov.Recipe == Skip {
				continue
			}
			if ov.Recipe != "" {
				recipe = ov.Recipe
			}
		}
		groups[recipe] = append(groups[recipe], page)
	}
	for r := range groups {
		sort.Ints(groups[r])
	}
	return groups
}

// Run executes the recipe for its page group. Pages are scanned in
// ascending page-number order regardless of input ordering. Run never
// fails: an empty or unreadable group produces a valid low-confidence
// Result.
func Run(recipe Type, pages []Page) Result {
	sorted := make([]Page, len(pages))
	copy(sorted, pages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	switch recipe {
	case CoverSheet:
		return runCoverSheet(sorted)
	case ZoningSchedule:
		return runZoningSchedule(sorted)
	case FloorPlanLabel:
		return runFloorPlanLabel(sorted)
	case OccupantLoad:
		return runOccupantLoad(sorted)
	default:
		return runGeneric(sorted)
	}
}

func pageNumbers(pages []Page) []int {
	nums := make([]int, len(pages))
	for i, p := range pages {
		nums[i] = p.Number
	}
	return nums
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
