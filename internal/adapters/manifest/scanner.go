package manifest

import (
	"strings"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/zerr"
)

// scanner consumes one manifest line token by token.
type scanner struct {
	rest string
}

func newScanner(line string) *scanner {
	return &scanner{rest: line}
}

// word consumes the next run of non-space characters.
func (s *scanner) word() string {
	s.skipSpace()
	end := strings.IndexFunc(s.rest, isSpace)
	if end < 0 {
		end = len(s.rest)
	}
	word := s.rest[:end]
	s.rest = s.rest[end:]
	return word
}

// quoted consumes a double-quoted string. A missing opening quote is an
// ErrExpectedString; an empty or unclosed string is ErrUnterminatedString.
func (s *scanner) quoted() (string, error) {
	s.skipSpace()
	if !strings.HasPrefix(s.rest, `"`) {
		return "", domain.ErrExpectedString
	}
	body := s.rest[1:]
	end := strings.Index(body, `"`)
	if end <= 0 {
		return "", domain.ErrUnterminatedString
	}
	s.rest = body[end+1:]
	return body[:end], nil
}

// remainder returns everything not yet consumed, trimmed.
func (s *scanner) remainder() string {
	return strings.TrimSpace(s.rest)
}

func (s *scanner) skipSpace() {
	s.rest = strings.TrimLeftFunc(s.rest, isSpace)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// stripComment removes a trailing comment: a '#' outside a double-quoted
// span starts a comment extending to the end of the line.
func stripComment(line string) string {
	inQuotes := false
	for i, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case '#':
			if !inQuotes {
				return line[:i]
			}
		}
	}
	return line
}

// parseError tags err with the offending line verbatim.
func parseError(err error, line string) error {
	return zerr.With(err, "line", line)
}
