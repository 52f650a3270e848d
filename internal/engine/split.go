package engine

import "strings"

// Separator is the line that divides a rendered file into independent groups.
const Separator = "---"

// Group is one independently executable slice of rendered SQL.
type Group struct {
	// Index is the position in the split sequence, starting at 0.
	Index int
	// Line is the line of the rendered text the group starts on.
	Line int
	SQL  string
}

// Split cuts rendered SQL on lines that are exactly the separator, ignoring
// a CRLF line ending. Groups keep their original order; groups containing
// only whitespace are dropped.
func Split(text string) []Group {
	var groups []Group
	var cur []string
	start := 1

	flush := func(next int) {
		body := strings.Join(cur, "\n")
		if strings.TrimSpace(body) != "" {
			groups = append(groups, Group{Index: len(groups), Line: start, SQL: body})
		}
		cur = nil
		start = next
	}

	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSuffix(line, "\r") == Separator {
			flush(i + 2)
			continue
		}
		if len(cur) == 0 && strings.TrimSpace(line) == "" {
			// Leading blank lines belong to no statement.
			start = i + 2
			continue
		}
		cur = append(cur, line)
	}
	flush(0)
	return groups
}
