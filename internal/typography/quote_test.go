package typography

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		r    rune
		want Quote
	}{
		{'\'', Quote{Kind: Single}},
		{'"', Quote{Kind: Double}},
		{'‘', Quote{Kind: Single, Direction: Open}},
		{'’', Quote{Kind: Single, Direction: Closed}},
		{'“', Quote{Kind: Double, Direction: Open}},
		{'”', Quote{Kind: Double, Direction: Closed}},
	}

	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			got, ok := Classify(tt.r)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.r, got.Rune(), "render should invert classify")
		})
	}
}

func TestClassify_OrdinaryText(t *testing.T) {
	for _, r := range []rune{'a', ' ', '`', '«', '»', '„', 0, utf8.RuneError} {
		_, ok := Classify(r)
		assert.False(t, ok, "rune %q", r)
	}
}

func TestClassify_Total(t *testing.T) {
	quotes := 0
	for r := rune(0); r <= utf8.MaxRune; r++ {
		q, ok := Classify(r)
		if !ok {
			continue
		}
		quotes++
		assert.Equal(t, r, q.Rune())
	}
	assert.Equal(t, 6, quotes)
}

func TestQuote_RenderKeepsKind(t *testing.T) {
	for _, r := range []rune{'\'', '"', '‘', '’', '“', '”'} {
		q, _ := Classify(r)
		for _, d := range []QuoteDirection{Straight, Open, Closed} {
			got, ok := Classify(q.WithDirection(d).Rune())
			require.True(t, ok)
			assert.Equal(t, q.Kind, got.Kind)
			assert.Equal(t, d, got.Direction)
		}
	}
}

func TestResolveDirection(t *testing.T) {
	assert.Equal(t, Open, ResolveDirection(0, false))
	assert.Equal(t, Closed, ResolveDirection(0, true))

	for _, r := range []rune{' ', '\t', '\n', '(', '[', '{', '⟨'} {
		assert.Equal(t, Open, ResolveDirection(r, true), "after %q", r)
	}
	for _, r := range []rune{'a', 'Z', '9', '.', ')', ']', '}', '⟩', '"', '\'', '\r', '-'} {
		assert.Equal(t, Closed, ResolveDirection(r, true), "after %q", r)
	}
}
