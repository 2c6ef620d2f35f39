// Package sheets classifies the pages of an architectural drawing set.
//
// It provides two independent views of a document:
//
//   - Candidate scoring: a declarative rule table of weighted keyword
//     patterns finds the pages most likely to carry unit schedules,
//     zoning figures, or occupant-load tables, and selects a bounded
//     top-N set with guaranteed representation for the schedule and
//     FAR categories.
//
//   - Sheet indexing: every page's bottom title block is inspected for
//     a drawing number and drawing title, building reverse lookups by
//     drawing number and by normalized title token.
//
// Both views are pure functions over page text; neither performs I/O.
package sheets

import (
	"regexp"
	"sort"
)

// Tags attached by scoring rules. Candidate selection guarantees at
// least one page per tag when any page in the document carries it.
const (
	TagSchedule = "schedule"
	TagFAR      = "far"
)

// DefaultMaxCandidates bounds the candidate set when the caller does
// not override it.
const DefaultMaxCandidates = 6

// ScoreRule is one entry of the declarative scoring table: a pattern,
// the weight it contributes, and the category tag it attaches.
type ScoreRule struct {
	Pattern *regexp.Regexp
	Weight  int
	Tag     string
}

// scoreRules is evaluated in order against every line of every page.
// Each match adds its weight; a single line can trigger several rules
// and a rule can fire on several lines of the same page.
var scoreRules = []ScoreRule{
	{regexp.MustCompile(`(?i)\bUNIT\s+SCHEDULE\b`), 10, TagSchedule},
	{regexp.MustCompile(`(?i)\bSCHEDULE\s+OF\s+(DWELLING\s+)?UNITS\b`), 10, TagSchedule},
	{regexp.MustCompile(`(?i)\bUNIT\s+MIX\b`), 8, TagSchedule},
	{regexp.MustCompile(`(?i)\bOCCUPANT\s+LOAD\b`), 6, TagSchedule},
	{regexp.MustCompile(`(?i)\bDWELLING\s+UNITS?\b`), 4, TagSchedule},
	{regexp.MustCompile(`(?i)\bAPT\.?\s*(NO|#)`), 4, TagSchedule},
	{regexp.MustCompile(`(?i)\b(AFFORDABLE|INCLUSIONARY)\b|\bMIH\b|\bAMI\b`), 5, TagSchedule},
	{regexp.MustCompile(`(?i)\b(STUDIO|BEDROOMS?)\b|\b\d\s*BR\b`), 2, TagSchedule},
	{regexp.MustCompile(`(?i)\bFLOOR\s+AREA\s+RATIO\b|\bF\.?A\.?R\.?\b`), 8, TagFAR},
	{regexp.MustCompile(`(?i)\bZONING\s+FLOOR\s+AREA\b|\bZFA\b`), 8, TagFAR},
	{regexp.MustCompile(`(?i)\bZONING\s+(ANALYSIS|CALCULATIONS?|COMPLIANCE|DATA|SCHEDULE)\b`), 7, TagFAR},
	{regexp.MustCompile(`(?i)\bLOT\s+AREA\b`), 5, TagFAR},
}

// PageLines is one page's clustered line text, the scorer's input.
type PageLines struct {
	Page  int
	Lines []string
}

// CandidatePage is a selected page with its score and category tags.
type CandidatePage struct {
	Page  int
	Score int
	Tags  []string
}

func (c CandidatePage) hasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ScorePage evaluates the rule table against a page's lines and returns
// the accumulated score with the set of tags that fired.
func ScorePage(lines []string) (int, []string) {
	score := 0
	tagSet := map[string]bool{}
	for _, line := range lines {
		for _, rule := range scoreRules {
			if rule.Pattern.MatchString(line) {
				score += rule.Weight
				tagSet[rule.Tag] = true
			}
		}
	}
	tags := make([]string, 0, len(tagSet))
	for _, t := range []string{TagSchedule, TagFAR} {
		if tagSet[t] {
			tags = append(tags, t)
		}
	}
	return score, tags
}

// DetectCandidatePages scores every page and selects up to maxCandidates
// of the highest-scoring ones. If the selection lacks a page tagged
// schedule (or far) while some unselected page carries that tag, the
// highest-scoring such page is forced in, evicting the lowest-scored
// selection when at capacity. The returned list is sorted ascending by
// page number; selection order does not imply document order.
// maxCandidates <= 0 uses DefaultMaxCandidates.
func DetectCandidatePages(pages []PageLines, maxCandidates int) []CandidatePage {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}

	var scored []CandidatePage
	for _, p := range pages {
		score, tags := ScorePage(p.Lines)
		if score > 0 {
			scored = append(scored, CandidatePage{Page: p.Page, Score: score, Tags: tags})
		}
	}
	if len(scored) == 0 {
		return nil
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	n := maxCandidates
	if n > len(scored) {
		n = len(scored)
	}
	selected := append([]CandidatePage(nil), scored[:n]...)
	rest := scored[n:]

	for _, tag := range []string{TagSchedule, TagFAR} {
		selected, rest = ensureTag(selected, rest, tag, maxCandidates)
	}

	sort.Slice(selected, func(i, j int) bool { return selected[i].Page < selected[j].Page })
	return selected
}

// ensureTag forces the best unselected page carrying tag into the
// selection when no selected page has it.
func ensureTag(selected, rest []CandidatePage, tag string, capacity int) ([]CandidatePage, []CandidatePage) {
	for _, c := range selected {
		if c.hasTag(tag) {
			return selected, rest
		}
	}
	for i, c := range rest {
		if !c.hasTag(tag) {
			continue
		}
		rest = append(rest[:i:i], rest[i+1:]...)
		if len(selected) >= capacity {
			low := 0
			for j := 1; j < len(selected); j++ {
				if selected[j].Score < selected[low].Score {
					low = j
				}
			}
			evicted := selected[low]
			selected = append(selected[:low], selected[low+1:]...)
			rest = append(rest, evicted)
		}
		selected = append(selected, c)
		return selected, rest
	}
	return selected, rest
}
