package pgcol

import (
	"regexp"
	"strings"
)

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

var vacuumQueryPattern = regexp.MustCompile(`(?im)vacuum .*[^;]`)

// anonymizeVacuumQuery keeps only the autovacuum/vacuum-relevant portion of
// a pg_stat_activity query string in place; statement text that is neither
// is dropped outright so arbitrary application SQL is never forwarded.
func anonymizeVacuumQuery(row map[string]any) {
	raw, _ := row["query"].(string)
	if raw == "" {
		return
	}
	if strings.Contains(raw, "autovacuum: ") {
		return
	}
	match := vacuumQueryPattern.FindString(raw)
	if match == "" {
		row["query"] = ""
		return
	}
	row["query"] = strings.ToLower(strings.TrimSpace(match))
}
