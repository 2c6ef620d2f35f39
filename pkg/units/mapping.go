package units

import (
	"regexp"
	"strings"
)

// ColumnMapping assigns header columns to parsing roles. A value of -1
// means the role has no column.
type ColumnMapping struct {
	UnitID     int
	BedCount   int
	Area       int
	Allocation int
	AMIBand    int
}

// Mapped reports how many roles found a column.
func (m ColumnMapping) Mapped() int {
	n := 0
	for _, idx := range []int{m.UnitID, m.BedCount, m.Area, m.Allocation, m.AMIBand} {
		if idx >= 0 {
			n++
		}
	}
	return n
}

// columnRole pairs a role setter with its header synonyms. Roles are
// evaluated in this order; the first role matching a column wins the
// column, and the first column matching a role wins the role.
type columnRole struct {
	name     string
	synonyms *regexp.Regexp
}

var columnRoles = []columnRole{
	{"unitId", regexp.MustCompile(`^(UNIT|UNITS|UNIT\s*(NO|#|ID)|APT\.?\s*(NO|#)?|APARTMENT|DWELLING|NO\.?|#)$`)},
	{"bedCount", regexp.MustCompile(`^(BR|BRS|BED|BEDS|BEDROOM|BEDROOMS|UNIT\s+TYPE|BR\s+TYPE|TYPE|SIZE\s+TYPE)$`)},
	{"area", regexp.MustCompile(`^(SF|NSF|GSF|SQ\.?\s*FT\.?|SQFT|AREA|NET\s+SF|GROSS\s+SF|NET\s+AREA|SQUARE\s+FEET|AREA\s*\(SF\))$`)},
	{"allocation", regexp.MustCompile(`^(ALLOCATION|AFFORDABILITY|AFFORDABLE|MIH|TENURE|PROGRAM|DESIGNATION|MARKET\s*/\s*AFFORDABLE)$`)},
	{"amiBand", regexp.MustCompile(`^(AMI|%\s*AMI|AMI\s*%|AMI\s+BAND|INCOME|INCOME\s+BAND)$`)},
}

// InferColumnMapping maps header cells to roles via synonym matching.
// Deterministic: for ["UNIT","BEDROOM","SF","ALLOCATION"] it always
// yields {UnitID:0, BedCount:1, Area:2, Allocation:3, AMIBand:-1}.
func InferColumnMapping(headerCells []string) ColumnMapping {
	m := ColumnMapping{UnitID: -1, BedCount: -1, Area: -1, Allocation: -1, AMIBand: -1}
	taken := make([]bool, len(headerCells))

	assign := func(role string, col int) {
		switch role {
		case "unitId":
			m.UnitID = col
		case "bedCount":
			m.BedCount = col
		case "area":
			m.Area = col
		case "allocation":
			m.Allocation = col
		case "amiBand":
			m.AMIBand = col
		}
	}

	roleOf := func(col int) (string, bool) {
		norm := normalizeHeader(headerCells[col])
		if norm == "" {
			return "", false
		}
		for _, role := range columnRoles {
			if role.synonyms.MatchString(norm) {
				return role.name, true
			}
		}
		return "", false
	}

	for _, role := range columnRoles {
		if roleAssigned(m, role.name) {
			continue
		}
		for col := range headerCells {
			if taken[col] {
				continue
			}
			got, ok := roleOf(col)
			if !ok || got != role.name {
				continue
			}
			assign(role.name, col)
			taken[col] = true
			break
		}
	}
	return m
}

func roleAssigned(m ColumnMapping, role string) bool {
	switch role {
	case "unitId":
		return m.UnitID >= 0
	case "bedCount":
		return m.BedCount >= 0
	case "area":
		return m.Area >= 0
	case "allocation":
		return m.Allocation >= 0
	case "amiBand":
		return m.AMIBand >= 0
	}
	return false
}

// normalizeHeader uppercases a header cell and collapses whitespace so
// synonym patterns can anchor on the whole cell.
func normalizeHeader(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
