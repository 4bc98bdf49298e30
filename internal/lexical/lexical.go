// Package lexical provides the word-level text measures shared by the
// chunker, the relevance gate and the hallucination guard: tokenization,
// stopword removal, keyword sets and set similarity.
package lexical

import (
	"regexp"
	"strings"
	"unicode"
)

// MinMeaningfulLength is the shortest token considered meaningful.
const MinMeaningfulLength = 3

var (
	tokenPattern  = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)
	numberPattern = regexp.MustCompile(`\p{N}+(?:[.,]\p{N}+)*`)
)

// Set is a set of tokens.
type Set map[string]struct{}

// NewSet returns a set containing tokens.
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Has returns true if t is in the set.
func (s Set) Has(t string) bool {
	_, ok := s[t]
	return ok
}

// Len returns the number of tokens in the set.
func (s Set) Len() int {
	return len(s)
}

// Tokenize lowercases text and splits it into word tokens.
// Letters and digits form tokens; apostrophes inside a word are kept.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// MeaningfulTokens returns the tokens of text at least MinMeaningfulLength long.
func MeaningfulTokens(text string) []string {
	raw := Tokenize(text)
	out := raw[:0]
	for _, t := range raw {
		if len([]rune(t)) >= MinMeaningfulLength {
			out = append(out, t)
		}
	}
	return out
}

// Keywords returns the meaningful, non-stopword tokens of text as a set.
func Keywords(text string) Set {
	s := make(Set)
	for _, t := range MeaningfulTokens(text) {
		if !IsStopword(t) {
			s[t] = struct{}{}
		}
	}
	return s
}

// TokenSet returns all tokens of text as a set.
func TokenSet(text string) Set {
	return NewSet(Tokenize(text)...)
}

// Jaccard returns |a∩b| / |a∪b|. Two empty sets are identical.
func Jaccard(a, b Set) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := intersection(a, b)
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Coverage returns the share of want found in have, |want∩have| / |want|.
// An empty want is fully covered.
func Coverage(want, have Set) float64 {
	if len(want) == 0 {
		return 1
	}
	return float64(intersection(want, have)) / float64(len(want))
}

// Missing returns the members of want absent from have, in no particular order.
func Missing(want, have Set) []string {
	var out []string
	for t := range want {
		if !have.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func intersection(a, b Set) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if b.Has(t) {
			n++
		}
	}
	return n
}

// AlphaRatio returns the share of letters among all characters of text.
func AlphaRatio(text string) float64 {
	total, letters := 0, 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

// UniqueRatio returns unique tokens over total tokens, the lexical diversity of text.
func UniqueRatio(text string) float64 {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return 0
	}
	return float64(len(NewSet(tokens...))) / float64(len(tokens))
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// HasDigit returns true if text contains a digit.
func HasDigit(text string) bool {
	return strings.IndexFunc(text, unicode.IsDigit) >= 0
}

// HasSentencePunctuation returns true if text contains sentence punctuation.
func HasSentencePunctuation(text string) bool {
	return strings.ContainsAny(text, ".!?;:")
}

// EndsSentence returns true if text ends in terminal punctuation,
// ignoring trailing quotes and brackets.
func EndsSentence(text string) bool {
	trimmed := strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(`"'”’)]`, r)
	})
	return strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "!") || strings.HasSuffix(trimmed, "?")
}

// Numbers returns the numeric literals in text, with thousands separators removed.
func Numbers(text string) []string {
	raw := numberPattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, n := range raw {
		n = strings.TrimRight(n, ".,")
		out = append(out, strings.ReplaceAll(n, ",", ""))
	}
	return out
}
