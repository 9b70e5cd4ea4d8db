package typography

import "strings"

// CollapsePunctuation replaces "---" with an em dash, "--" with an en dash
// and "..." with an ellipsis. Runs are matched longest first and a consumed
// character is never matched again.
func CollapsePunctuation(input string) string {
	runes := []rune(input)
	var b strings.Builder
	b.Grow(len(input))

	skip := 0
	for i, c := range runes {
		if skip > 0 {
			skip--
			continue
		}

		next1 := i+1 < len(runes)
		next2 := i+2 < len(runes)

		switch c {
		case '-':
			switch {
			case next2 && runes[i+1] == '-' && runes[i+2] == '-':
				b.WriteRune(EmDash)
				skip = 2
			case next1 && runes[i+1] == '-':
				b.WriteRune(EnDash)
				skip = 1
			default:
				b.WriteRune(c)
			}
		case '.':
			if next2 && runes[i+1] == '.' && runes[i+2] == '.' {
				b.WriteRune(Ellipsis)
				skip = 2
			} else {
				b.WriteRune(c)
			}
		default:
			b.WriteRune(c)
		}
	}

	return b.String()
}
