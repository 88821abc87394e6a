package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionWithTurns(n int) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:             "sess-1",
		CreatedAt:      now,
		LastActiveAt:   now,
		EmotionalState: StateNeutral,
	}
	for i := 0; i < n; i++ {
		s.Turns = append(s.Turns, Turn{
			UserText:       "u",
			AssistantText:  "a",
			Timestamp:      now,
			EmotionalState: StateNeutral,
		})
	}
	return s
}

func TestSessionClone_Independent(t *testing.T) {
	s := sessionWithTurns(2)
	c := s.Clone()

	require.NotNil(t, c)
	require.Len(t, c.Turns, 2)

	c.Turns[0].UserText = "mutated"
	c.EmotionalState = StateAnxious

	assert.Equal(t, "u", s.Turns[0].UserText)
	assert.Equal(t, StateNeutral, s.EmotionalState)
}

func TestSessionClone_Nil(t *testing.T) {
	var s *Session
	assert.Nil(t, s.Clone())
}

func TestWindow_Bounds(t *testing.T) {
	tests := []struct {
		name  string
		turns int
		n     int
		want  int
	}{
		{name: "fewer turns than window", turns: 2, n: 5, want: 2},
		{name: "exactly window", turns: 5, n: 5, want: 5},
		{name: "more turns than window", turns: 9, n: 5, want: 5},
		{name: "zero window", turns: 3, n: 0, want: 0},
		{name: "empty history", turns: 0, n: 5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sessionWithTurns(tt.turns)
			assert.Len(t, s.Window(tt.n), tt.want)
		})
	}
}

func TestWindow_KeepsMostRecent(t *testing.T) {
	s := sessionWithTurns(0)
	for i, text := range []string{"first", "second", "third"} {
		s.Turns = append(s.Turns, Turn{UserText: text, Timestamp: time.Now().Add(time.Duration(i) * time.Second)})
	}

	w := s.Window(2)
	require.Len(t, w, 2)
	assert.Equal(t, "second", w[0].UserText)
	assert.Equal(t, "third", w[1].UserText)
}

func TestWindow_IsACopy(t *testing.T) {
	s := sessionWithTurns(3)
	w := s.Window(2)
	w[0].UserText = "mutated"
	assert.Equal(t, "u", s.Turns[1].UserText)
}

func TestSummarize(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := sessionWithTurns(4)
	s.CreatedAt = created
	s.LastActiveAt = created.Add(23 * time.Minute)
	s.EmotionalState = StateStressed

	sum := s.Summarize()
	assert.Equal(t, "sess-1", sum.SessionID)
	assert.Equal(t, 4, sum.TurnCount)
	assert.Equal(t, StateStressed, sum.EmotionalState)
	assert.Equal(t, 23, sum.DurationMinutes)
}

func TestResponsePackageJSON_OmitsAbsentScores(t *testing.T) {
	pkg := ResponsePackage{
		Text:           "hello",
		EmotionalState: StateNeutral,
		Metadata:       ResponseMetadata{PrimarySource: SourceRemote},
	}

	data, err := json.Marshal(pkg)
	require.NoError(t, err)

	raw := string(data)
	assert.NotContains(t, raw, "customConfidence")
	assert.NotContains(t, raw, "similarityScore")
	assert.Contains(t, raw, `"primarySource":"remote"`)
}

func TestResponsePackageJSON_Scores(t *testing.T) {
	conf := 0.82
	sim := 0.91
	pkg := ResponsePackage{
		Text:           "hello",
		EmotionalState: StateCalm,
		Metadata: ResponseMetadata{
			PrimarySource:    SourceHybrid,
			CustomConfidence: &conf,
			SimilarityScore:  &sim,
		},
	}

	data, err := json.Marshal(pkg)
	require.NoError(t, err)

	var decoded ResponsePackage
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Metadata.CustomConfidence)
	require.NotNil(t, decoded.Metadata.SimilarityScore)
	assert.Equal(t, 0.82, *decoded.Metadata.CustomConfidence)
	assert.Equal(t, 0.91, *decoded.Metadata.SimilarityScore)
}
