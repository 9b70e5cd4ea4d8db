package typography

import "strings"

// explicitPasses is applied in order. Doubled markers must come before the
// single markers they are made of.
var explicitPasses = []struct {
	from, to string
}{
	{`"`, string(CloseDouble)},
	{"``", string(OpenDouble)},
	{"''", string(CloseDouble)},
	{"`", string(OpenSingle)},
	{"'", string(CloseSingle)},
}

// ConvertExplicit translates LaTeX-style quote markers (`` '' ` ') into curly
// quotes. Plain double quotes have no direction marker and always close.
func ConvertExplicit(input string) string {
	for _, p := range explicitPasses {
		input = strings.ReplaceAll(input, p.from, p.to)
	}
	return input
}
