// Package typography rewrites plain ASCII punctuation into its typeset form:
// straight quotes become directional curly quotes, runs of hyphens become
// en/em dashes and three periods become an ellipsis.
package typography

// QuoteKind distinguishes single from double quotation marks
type QuoteKind int

const (
	Single QuoteKind = iota
	Double
)

func (k QuoteKind) String() string {
	switch k {
	case Single:
		return "single"
	case Double:
		return "double"
	default:
		return "unknown"
	}
}

// QuoteDirection is the orientation of a curly quote.
// The zero value, Straight, means the quote carries no direction.
type QuoteDirection int

const (
	Straight QuoteDirection = iota
	Open
	Closed
)

func (d QuoteDirection) String() string {
	switch d {
	case Straight:
		return "straight"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Characters recognised and produced by the converters
const (
	StraightSingle = '\''
	StraightDouble = '"'
	OpenSingle     = '‘'
	CloseSingle    = '’'
	OpenDouble     = '“'
	CloseDouble    = '”'

	EnDash   = '–'
	EmDash   = '—'
	Ellipsis = '…'
)

// Quote is a quotation mark split into its kind and direction
type Quote struct {
	Kind      QuoteKind
	Direction QuoteDirection
}

// Classify returns the Quote for r, or false when r is ordinary text
func Classify(r rune) (Quote, bool) {
	switch r {
	case StraightSingle:
		return Quote{Kind: Single}, true
	case StraightDouble:
		return Quote{Kind: Double}, true
	case OpenSingle:
		return Quote{Kind: Single, Direction: Open}, true
	case CloseSingle:
		return Quote{Kind: Single, Direction: Closed}, true
	case OpenDouble:
		return Quote{Kind: Double, Direction: Open}, true
	case CloseDouble:
		return Quote{Kind: Double, Direction: Closed}, true
	default:
		return Quote{}, false
	}
}

// IsStraight reports whether the quote has no direction
func (q Quote) IsStraight() bool {
	return q.Direction == Straight
}

// WithDirection returns a copy of q pointing in direction d
func (q Quote) WithDirection(d QuoteDirection) Quote {
	q.Direction = d
	return q
}

// Rune renders the quote back to its character.
// Out of range kinds or directions are treated as Double and Straight.
func (q Quote) Rune() rune {
	if q.Kind == Single {
		switch q.Direction {
		case Open:
			return OpenSingle
		case Closed:
			return CloseSingle
		default:
			return StraightSingle
		}
	}
	switch q.Direction {
	case Open:
		return OpenDouble
	case Closed:
		return CloseDouble
	default:
		return StraightDouble
	}
}

func (q Quote) String() string {
	return string(q.Rune())
}
