package typeset

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// countChanges counts words that differ between original and converted.
// A removed or inserted word counts once; surrounding words stay aligned.
func countChanges(original, converted string) int {
	if original == converted {
		return 0
	}

	matcher := difflib.NewMatcher(strings.Fields(original), strings.Fields(converted))

	changes := 0
	for _, op := range matcher.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		// a replaced block counts each word pair once
		changes += max(op.I2-op.I1, op.J2-op.J1)
	}
	return changes
}
