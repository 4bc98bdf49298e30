package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The Eiffel Tower's height, in 1889, was 300m!")

	assert.Equal(t, []string{"the", "eiffel", "tower's", "height", "in", "1889", "was", "300m"}, tokens)
}

func TestTokenize_Unicode(t *testing.T) {
	assert.Equal(t, []string{"café", "zürich"}, Tokenize("Café — Zürich"))
	assert.Empty(t, Tokenize("  ... !!! "))
}

func TestKeywords(t *testing.T) {
	kw := Keywords("When was the Eiffel Tower completed?")

	assert.Equal(t, NewSet("eiffel", "tower", "completed"), kw)
}

func TestKeywords_DropsShortTokens(t *testing.T) {
	kw := Keywords("AI is ok in UK")
	assert.Zero(t, kw.Len())
}

func TestJaccard(t *testing.T) {
	a := NewSet("eiffel", "tower", "paris")
	b := NewSet("eiffel", "tower", "height")

	assert.InDelta(t, 0.5, Jaccard(a, b), 1e-9)
	assert.InDelta(t, 1.0, Jaccard(a, a), 1e-9)
	assert.InDelta(t, 0.0, Jaccard(a, NewSet("moon")), 1e-9)
	assert.InDelta(t, 1.0, Jaccard(NewSet(), NewSet()), 1e-9)
}

func TestCoverage(t *testing.T) {
	query := NewSet("eiffel", "tower", "completed")
	chunk := NewSet("completed", "1889")

	assert.InDelta(t, 1.0/3.0, Coverage(query, chunk), 1e-9)
	assert.InDelta(t, 1.0, Coverage(NewSet(), chunk), 1e-9)
	assert.InDelta(t, 0.0, Coverage(query, NewSet()), 1e-9)
}

func TestMissing(t *testing.T) {
	missing := Missing(NewSet("color", "eiffel"), NewSet("eiffel", "tower"))
	assert.Equal(t, []string{"color"}, missing)
}

func TestAlphaRatio(t *testing.T) {
	assert.InDelta(t, 1.0, AlphaRatio("abc"), 1e-9)
	assert.InDelta(t, 0.5, AlphaRatio("ab12"), 1e-9)
	assert.InDelta(t, 0.0, AlphaRatio("12345 678"), 1e-9)
	assert.InDelta(t, 0.0, AlphaRatio(""), 1e-9)
}

func TestUniqueRatio(t *testing.T) {
	assert.InDelta(t, 0.5, UniqueRatio("go go run run"), 1e-9)
	assert.InDelta(t, 1.0, UniqueRatio("all distinct words"), 1e-9)
	assert.Zero(t, UniqueRatio(""))
}

func TestEndsSentence(t *testing.T) {
	assert.True(t, EndsSentence("It was completed in 1889."))
	assert.True(t, EndsSentence(`He said "yes!" `))
	assert.True(t, EndsSentence("Really?"))
	assert.False(t, EndsSentence("It was completed in"))
}

func TestNumbers(t *testing.T) {
	assert.Equal(t, []string{"1889", "330", "1000000", "3.5"}, Numbers("In 1889, 330 m, 1,000,000 visitors, 3.5 stars."))
	assert.Empty(t, Numbers("no digits here"))
}

func TestSmallHelpers(t *testing.T) {
	assert.Equal(t, 5, WordCount(" The  Eiffel Tower is\nold "))
	assert.True(t, HasDigit("built 1889"))
	assert.False(t, HasDigit("built long ago"))
	assert.True(t, HasSentencePunctuation("a; b"))
	assert.False(t, HasSentencePunctuation("a b"))
	assert.True(t, IsStopword("what"))
	assert.False(t, IsStopword("tower"))
}
