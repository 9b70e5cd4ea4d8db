package typography

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Mode selects how quotes are converted
type Mode int

const (
	// Implicit infers quote direction from the preceding character
	Implicit Mode = iota
	// Explicit maps LaTeX-style `` '' ` ' markers to curly quotes
	Explicit
)

func (m Mode) String() string {
	switch m {
	case Implicit:
		return "implicit"
	case Explicit:
		return "explicit"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "implicit" or "explicit" (case-insensitive, empty means implicit)
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "implicit":
		return Implicit, nil
	case "explicit":
		return Explicit, nil
	default:
		return Implicit, fmt.Errorf("invalid mode %q: must be 'implicit' or 'explicit'", s)
	}
}

// Options configures a Transform call. The zero value is implicit mode,
// escapes off, curly quotes kept.
type Options struct {
	Mode Mode
	// Escapes keeps a straight quote preceded by a backslash (implicit mode only)
	Escapes bool
	// Curly decides what happens to quotes that are already curly (implicit mode only)
	Curly CurlyPolicy
	// Normalise applies Unicode NFC normalisation before converting
	Normalise bool
}

// Transform runs the full pipeline: quote conversion followed by dash and
// ellipsis collapsing. It is safe for concurrent use.
func Transform(input string, opts Options) string {
	if opts.Normalise {
		input = norm.NFC.String(input)
	}

	var converted string
	switch opts.Mode {
	case Explicit:
		converted = ConvertExplicit(input)
	default:
		converted = ConvertImplicit(input, opts.Escapes, opts.Curly)
	}

	return CollapsePunctuation(converted)
}
