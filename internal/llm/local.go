package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jmallory/solace/internal/config"
	"github.com/jmallory/solace/internal/domain"
	"github.com/jmallory/solace/internal/logging"
)

// LocalClient talks to a llama.cpp-style local inference server hosting the
// fine-tuned model. When no fine-tuned artifact is configured it targets the
// generic fallback model, which still works but reports lower confidence.
type LocalClient struct {
	baseURL     string
	model       string
	maxTokens   int
	temperature *float64
	client      *http.Client
	log         *logging.Logger
}

// NewLocalClient creates a client for the local inference server.
func NewLocalClient(cfg config.LocalModelConfig, log *logging.Logger) *LocalClient {
	model := cfg.Model
	if model == "" {
		model = cfg.FallbackModel
		log.Warn().
			Str("fallback", model).
			Msg("no fine-tuned model configured, using generic pretrained fallback")
	}

	return &LocalClient{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: 120 * time.Second},
		log:         log.Sub("llm.local"),
	}
}

// Model returns the model id the client targets.
func (l *LocalClient) Model() string { return l.model }

// Generate builds a speaker-tagged prompt from the history window and the
// new message, runs the local model, and returns the cleaned reply with a
// confidence derived from per-token probabilities. Errors never propagate;
// they collapse to ("", 0.0) and the merger routes around them.
func (l *LocalClient) Generate(ctx context.Context, history []domain.Turn, message string) (string, float64) {
	prompt := BuildLocalPrompt(history, message)

	body := map[string]interface{}{
		"model":     l.model,
		"prompt":    prompt,
		"n_predict": l.maxTokens,
		"n_probs":   1,
		"stop":      []string{"\nUser:"},
	}
	if l.temperature != nil {
		body["temperature"] = *l.temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		l.log.Error().Err(err).Msg("failed to marshal request")
		return "", 0.0
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/completion", l.baseURL), strings.NewReader(string(payload)))
	if err != nil {
		l.log.Error().Err(err).Msg("failed to create request")
		return "", 0.0
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(httpReq)
	if err != nil {
		l.log.Warn().Err(err).Msg("local generation failed")
		return "", 0.0
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		l.log.Warn().Err(err).Msg("failed to read response")
		return "", 0.0
	}

	if resp.StatusCode != http.StatusOK {
		perr := &ProviderError{Provider: "local", Code: resp.StatusCode, Message: string(respBody)}
		l.log.Warn().Err(perr).Msg("local generation failed")
		return "", 0.0
	}

	var result localCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		l.log.Warn().Err(err).Msg("failed to parse response")
		return "", 0.0
	}

	text := CleanLocalOutput(result.Content)
	confidence := tokenConfidence(result.CompletionProbabilities)

	l.log.Debug().
		Float64("confidence", confidence).
		Int("chars", len(text)).
		Msg("local candidate generated")

	return text, confidence
}

// BuildLocalPrompt concatenates prior turns and the new message in the fixed
// speaker-tagged format the model was fine-tuned on. The caller supplies a
// pre-truncated window; turns arrive oldest first.
func BuildLocalPrompt(history []domain.Turn, message string) string {
	var b strings.Builder
	for _, turn := range history {
		b.WriteString("User: ")
		b.WriteString(turn.UserText)
		b.WriteString("\n")
		b.WriteString("Assistant: ")
		b.WriteString(turn.AssistantText)
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(message)
	b.WriteString("\nAssistant:")
	return b.String()
}

// speakerTagRe matches leading speaker tags the model sometimes echoes back.
var speakerTagRe = regexp.MustCompile(`(?m)^\s*(User|Assistant|Therapist):\s*`)

// multiSpaceRe collapses runs of whitespace into a single space.
var multiSpaceRe = regexp.MustCompile(`\s+`)

// CleanLocalOutput post-processes raw model output: truncate at the first
// turn-boundary tag, strip any speaker tags, collapse whitespace, and drop a
// trailing incomplete sentence. Output shorter than 10 characters is treated
// as unusable and becomes empty.
func CleanLocalOutput(raw string) string {
	text := raw
	if idx := strings.Index(text, "User:"); idx >= 0 {
		text = text[:idx]
	}
	text = speakerTagRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(multiSpaceRe.ReplaceAllString(text, " "))

	if text != "" && !strings.ContainsRune(".!?", rune(text[len(text)-1])) {
		// Drop the trailing incomplete sentence when a complete one precedes it.
		if last := strings.LastIndexAny(text, ".!?"); last >= 0 {
			text = strings.TrimSpace(text[:last+1])
		}
	}

	if len(text) < 10 {
		return ""
	}
	return text
}

// tokenConfidence averages the top token probability at each generation
// step, clamped to [0,1]. A backend that reports no probabilities yields the
// conservative 0.0, which deterministically routes the merger to the remote
// candidate.
func tokenConfidence(steps []localTokenProbs) float64 {
	if len(steps) == 0 {
		return 0.0
	}

	var sum float64
	var count int
	for _, step := range steps {
		if len(step.Probs) == 0 {
			continue
		}
		top := step.Probs[0].Prob
		for _, p := range step.Probs[1:] {
			if p.Prob > top {
				top = p.Prob
			}
		}
		sum += top
		count++
	}
	if count == 0 {
		return 0.0
	}

	confidence := sum / float64(count)
	if confidence < 0 {
		return 0.0
	}
	if confidence > 1 {
		return 1.0
	}
	return confidence
}

// API response structures (llama.cpp server /completion)

type localCompletionResponse struct {
	Content                 string            `json:"content"`
	Model                   string            `json:"model"`
	Stop                    bool              `json:"stop"`
	TokensPredicted         int               `json:"tokens_predicted"`
	CompletionProbabilities []localTokenProbs `json:"completion_probabilities"`
}

type localTokenProbs struct {
	Content string           `json:"content"`
	Probs   []localTokenProb `json:"probs"`
}

type localTokenProb struct {
	TokStr string  `json:"tok_str"`
	Prob   float64 `json:"prob"`
}
