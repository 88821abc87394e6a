package agent

import (
	"math"
	"strings"
	"unicode"
)

// Similarity computes the cosine similarity of two texts over token
// frequency vectors, in [0,1]. It is a cheap lexical signal: high enough
// to detect near-duplicate candidates, with no model dependency. Either
// text being empty yields 0.
func Similarity(a, b string) float64 {
	va := tokenFrequencies(a)
	vb := tokenFrequencies(b)
	if len(va) == 0 || len(vb) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for tok, ca := range va {
		normA += float64(ca * ca)
		if cb, ok := vb[tok]; ok {
			dot += float64(ca * cb)
		}
	}
	for _, cb := range vb {
		normB += float64(cb * cb)
	}

	if dot == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// tokenFrequencies lowercases the text and counts alphanumeric word runs.
func tokenFrequencies(text string) map[string]int {
	freq := make(map[string]int)
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			freq[b.String()]++
			b.Reset()
		}
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return freq
}
