package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmallory/solace/internal/config"
	"github.com/jmallory/solace/internal/domain"
	"github.com/jmallory/solace/internal/logging"
)

// RemoteClient talks to an OpenAI-compatible chat completion service.
type RemoteClient struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature *float64
	client      *http.Client
	log         *logging.Logger
}

// NewRemoteClient creates a client for the hosted completion service.
func NewRemoteClient(cfg config.RemoteModelConfig, log *logging.Logger) *RemoteClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &RemoteClient{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
		log:         log.Sub("llm.remote"),
	}
}

// Model returns the model id the client targets.
func (r *RemoteClient) Model() string { return r.model }

// Generate sends the persona prompt, history window, and new message as a
// chat completion request. Any failure mode (no key, network, timeout,
// non-200, malformed body, empty choices) collapses to "" so the merger can
// fall back to the local candidate.
func (r *RemoteClient) Generate(ctx context.Context, systemPrompt string, history []domain.Turn, message string) string {
	if r.apiKey == "" {
		r.log.Debug().Msg("no API key configured, skipping remote generation")
		return ""
	}

	messages := []chatMessage{{Role: "system", Content: systemPrompt}}
	for _, turn := range history {
		messages = append(messages,
			chatMessage{Role: "user", Content: turn.UserText},
			chatMessage{Role: "assistant", Content: turn.AssistantText},
		)
	}
	messages = append(messages, chatMessage{Role: "user", Content: message})

	req := chatCompletionRequest{
		Model:       r.model,
		Messages:    messages,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	}

	payload, err := json.Marshal(req)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to marshal request")
		return ""
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/chat/completions", r.baseURL), strings.NewReader(string(payload)))
	if err != nil {
		r.log.Error().Err(err).Msg("failed to create request")
		return ""
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		r.log.Warn().Err(err).Msg("remote generation failed")
		return ""
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to read response")
		return ""
	}

	if resp.StatusCode != http.StatusOK {
		perr := &ProviderError{Provider: "remote", Code: resp.StatusCode, Message: apiErrorMessage(respBody)}
		r.log.Warn().Err(perr).Msg("remote generation failed")
		return ""
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		r.log.Warn().Err(err).Msg("failed to parse response")
		return ""
	}
	if len(result.Choices) == 0 {
		r.log.Warn().Msg("response contained no choices")
		return ""
	}

	text := strings.TrimSpace(result.Choices[0].Message.Content)

	r.log.Debug().
		Int("chars", len(text)).
		Int("promptTokens", result.Usage.PromptTokens).
		Int("completionTokens", result.Usage.CompletionTokens).
		Msg("remote candidate generated")

	return text
}

// apiErrorMessage extracts the error message from an OpenAI-style error
// body, falling back to the raw body.
func apiErrorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return string(body)
}

// API request/response structures (OpenAI chat completions)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}
