package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmallory/solace/internal/config"
	"github.com/jmallory/solace/internal/domain"
	"github.com/jmallory/solace/internal/logging"
)

func silentLog() *logging.Logger {
	return logging.New(io.Discard, "silent")
}

func localServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func localClientFor(url string) *LocalClient {
	return NewLocalClient(config.LocalModelConfig{
		BaseURL:   url,
		Model:     "cbt-dialogpt",
		MaxTokens: 150,
	}, silentLog())
}

func TestLocalGenerate_Success(t *testing.T) {
	srv := localServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/completion", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cbt-dialogpt", req["model"])
		assert.Contains(t, req["prompt"], "User: I feel anxious\nAssistant:")
		assert.Equal(t, float64(150), req["n_predict"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": "That sounds really difficult. What do you think triggered it?",
			"completion_probabilities": []map[string]interface{}{
				{"probs": []map[string]interface{}{{"prob": 0.9}}},
				{"probs": []map[string]interface{}{{"prob": 0.7}}},
			},
		})
	})

	c := localClientFor(srv.URL)
	text, conf := c.Generate(context.Background(), nil, "I feel anxious")

	assert.Equal(t, "That sounds really difficult. What do you think triggered it?", text)
	assert.InDelta(t, 0.8, conf, 1e-9)
}

func TestLocalGenerate_IncludesHistory(t *testing.T) {
	var gotPrompt string
	srv := localServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		gotPrompt, _ = req["prompt"].(string)
		json.NewEncoder(w).Encode(map[string]interface{}{"content": "Tell me more about that."})
	})

	c := localClientFor(srv.URL)
	history := []domain.Turn{
		{UserText: "hi", AssistantText: "Hello, how are you feeling today?"},
	}
	c.Generate(context.Background(), history, "not great")

	assert.Equal(t,
		"User: hi\nAssistant: Hello, how are you feeling today?\nUser: not great\nAssistant:",
		gotPrompt)
}

func TestLocalGenerate_NoProbabilities(t *testing.T) {
	srv := localServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": "I hear you, that sounds hard.",
		})
	})

	c := localClientFor(srv.URL)
	text, conf := c.Generate(context.Background(), nil, "hello there")

	assert.Equal(t, "I hear you, that sounds hard.", text)
	assert.Equal(t, 0.0, conf)
}

func TestLocalGenerate_ServerError(t *testing.T) {
	srv := localServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	c := localClientFor(srv.URL)
	text, conf := c.Generate(context.Background(), nil, "hello there")

	assert.Empty(t, text)
	assert.Equal(t, 0.0, conf)
}

func TestLocalGenerate_Unreachable(t *testing.T) {
	c := localClientFor("http://127.0.0.1:1")
	text, conf := c.Generate(context.Background(), nil, "hello there")

	assert.Empty(t, text)
	assert.Equal(t, 0.0, conf)
}

func TestNewLocalClient_FallbackModel(t *testing.T) {
	c := NewLocalClient(config.LocalModelConfig{
		BaseURL:       "http://localhost:8080",
		FallbackModel: "dialogpt-medium",
	}, silentLog())
	assert.Equal(t, "dialogpt-medium", c.Model())
}

func TestCleanLocalOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "passthrough",
			raw:  "That sounds exhausting. Have you been sleeping?",
			want: "That sounds exhausting. Have you been sleeping?",
		},
		{
			name: "truncates at next turn",
			raw:  "Let's work through it together. User: ok Assistant: great",
			want: "Let's work through it together.",
		},
		{
			name: "strips echoed speaker tag",
			raw:  "Assistant: It makes sense to feel that way.",
			want: "It makes sense to feel that way.",
		},
		{
			name: "collapses whitespace",
			raw:  "That  is\n\n understandable.",
			want: "That is understandable.",
		},
		{
			name: "drops trailing incomplete sentence",
			raw:  "You are doing your best. Maybe you could also try to",
			want: "You are doing your best.",
		},
		{
			name: "too short becomes empty",
			raw:  "ok sure.",
			want: "",
		},
		{
			name: "empty stays empty",
			raw:  "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanLocalOutput(tt.raw))
		})
	}
}

func TestTokenConfidence_Clamped(t *testing.T) {
	steps := []localTokenProbs{
		{Probs: []localTokenProb{{Prob: 1.4}}},
		{Probs: []localTokenProb{{Prob: 1.2}}},
	}
	assert.Equal(t, 1.0, tokenConfidence(steps))
	assert.Equal(t, 0.0, tokenConfidence(nil))
}
