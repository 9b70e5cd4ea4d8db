package typography

// ResolveDirection decides whether a straight quote opens or closes a
// quotation, looking only at the rune before it. hasPrev is false when the
// quote starts the text.
func ResolveDirection(prev rune, hasPrev bool) QuoteDirection {
	if !hasPrev {
		return Open
	}
	switch prev {
	case ' ', '\t', '\n', '(', '[', '{', '⟨':
		return Open
	default:
		return Closed
	}
}
