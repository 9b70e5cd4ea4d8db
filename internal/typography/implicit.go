package typography

import (
	"fmt"
	"strings"
)

// CurlyPolicy controls what the implicit converter does with quotes that
// are already curly in the input
type CurlyPolicy int

const (
	// CurlyKeep copies curly quotes to the output unchanged
	CurlyKeep CurlyPolicy = iota
	// CurlyDrop removes curly quotes from the output
	CurlyDrop
)

func (p CurlyPolicy) String() string {
	switch p {
	case CurlyKeep:
		return "keep"
	case CurlyDrop:
		return "drop"
	default:
		return fmt.Sprintf("CurlyPolicy(%d)", int(p))
	}
}

// ParseCurlyPolicy parses "keep" or "drop" (case-insensitive, empty means keep)
func ParseCurlyPolicy(s string) (CurlyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return CurlyKeep, nil
	case "drop":
		return CurlyDrop, nil
	default:
		return CurlyKeep, fmt.Errorf("invalid curly quote policy %q: must be 'keep' or 'drop'", s)
	}
}

const escapeMarker = '\\'

// ConvertImplicit turns straight quotes into curly quotes, inferring each
// direction from the raw rune that precedes it.
//
// With escapes enabled, a straight quote directly after a backslash stays
// straight and the backslash is removed.
func ConvertImplicit(input string, escapes bool, policy CurlyPolicy) string {
	out := make([]rune, 0, len(input))

	var prev rune
	hasPrev := false
	for _, c := range input {
		if q, ok := Classify(c); !ok {
			out = append(out, c)
		} else if !q.IsStraight() {
			if policy == CurlyKeep {
				out = append(out, c)
			}
		} else if escapes && len(out) > 0 && out[len(out)-1] == escapeMarker {
			out[len(out)-1] = c
		} else {
			out = append(out, q.WithDirection(ResolveDirection(prev, hasPrev)).Rune())
		}
		prev, hasPrev = c, true
	}

	return string(out)
}
