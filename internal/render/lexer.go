package render

import (
	"strings"

	"sqlprep/internal/apperr"
)

type tokenKind int

const (
	tokText tokenKind = iota
	tokOutput
	tokTag
)

type token struct {
	kind tokenKind
	body string
	line int
}

var delimiters = []struct {
	open, close string
	kind        tokenKind
	comment     bool
}{
	{"{{", "}}", tokOutput, false},
	{"{%", "%}", tokTag, false},
	{"{#", "#}", tokText, true},
}

// scan cuts a template into text, output and tag tokens. Comments are
// dropped. A newline directly after a tag or comment is removed, so block
// tags on their own line leave no blank line behind.
func scan(name, src string) ([]token, error) {
	var out []token
	line := 1
	trimNewline := false

	for len(src) > 0 {
		start, which := nextDelimiter(src)
		text := src
		if start >= 0 {
			text = src[:start]
		}
		if trimNewline {
			text = strings.TrimPrefix(text, "\n")
			trimNewline = false
		}
		if text != "" {
			out = append(out, token{kind: tokText, body: text, line: line})
		}
		if start < 0 {
			break
		}
		line += strings.Count(src[:start], "\n")

		d := delimiters[which]
		rest := src[start+len(d.open):]
		end := strings.Index(rest, d.close)
		if end < 0 {
			return nil, &apperr.SyntaxError{Template: name, Line: line, Msg: "unclosed " + d.open}
		}
		body := rest[:end]
		if !d.comment {
			out = append(out, token{kind: d.kind, body: strings.TrimSpace(body), line: line})
		}
		trimNewline = d.kind == tokTag || d.comment

		line += strings.Count(body, "\n")
		src = rest[end+len(d.close):]
	}
	return out, nil
}

func nextDelimiter(src string) (int, int) {
	best, which := -1, -1
	for i, d := range delimiters {
		if idx := strings.Index(src, d.open); idx >= 0 && (best < 0 || idx < best) {
			best, which = idx, i
		}
	}
	return best, which
}
