package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{name: "identical", a: "That sounds really hard.", b: "That sounds really hard.", min: 0.999, max: 1.0},
		{name: "case and punctuation ignored", a: "that sounds REALLY hard", b: "That sounds really hard!", min: 0.999, max: 1.0},
		{name: "disjoint", a: "completely different words entirely", b: "nothing shared whatsoever here", min: 0.0, max: 0.0},
		{name: "partial overlap", a: "work stress keeps me awake", b: "stress at work is exhausting", min: 0.2, max: 0.8},
		{name: "left empty", a: "", b: "anything", min: 0.0, max: 0.0},
		{name: "right empty", a: "anything", b: "", min: 0.0, max: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := Similarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, sim, tt.min)
			assert.LessOrEqual(t, sim, tt.max)
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a := "I keep worrying about everything at once"
	b := "everything worries me all the time"
	assert.InDelta(t, Similarity(a, b), Similarity(b, a), 1e-12)
}

func TestTokenFrequencies(t *testing.T) {
	freq := tokenFrequencies("Can't stop, can't sleep.")
	assert.Equal(t, 2, freq["can't"])
	assert.Equal(t, 1, freq["stop"])
	assert.Equal(t, 1, freq["sleep"])
}
