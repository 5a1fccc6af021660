package app

import (
	"fmt"
	"regexp"
	"strings"
)

const maxTracedStatement = 512

var (
	sqlWhitespace = regexp.MustCompile(`\s+`)
	// Matches every row group after the first in a multi-row VALUES list.
	extraValueRows = regexp.MustCompile(`\)(?:, \([^()]*\))+`)
)

// formatDBQueryForTrace flattens a statement for span attributes. Child-row
// inserts for a match carry one VALUES group per goal, card or lineup entry,
// so only the first group is kept along with a row count.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(sqlWhitespace.ReplaceAllString(query, " "))
	if query == "" {
		return query
	}

	query = extraValueRows.ReplaceAllStringFunc(query, func(groups string) string {
		return fmt.Sprintf(") /* +%d rows */", strings.Count(groups, "("))
	})
	if len(query) > maxTracedStatement {
		return query[:maxTracedStatement] + "..."
	}
	return query
}
