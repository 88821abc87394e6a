// Package llm wraps the two response generators: a locally hosted
// fine-tuned model behind an inference server, and a remote hosted
// chat-completion service.
//
// Both adapters degrade instead of failing: the orchestrator must always
// receive a pair of candidates, even if one is empty. The merge policy owns
// all fallback decisions, so neither Generate method returns an error.
package llm

import (
	"context"
	"fmt"

	"github.com/jmallory/solace/internal/domain"
)

// LocalGenerator produces a candidate reply plus a confidence in [0,1]
// derived from the model's own token probabilities. A failed generation or
// a backend without a probability signal yields ("", 0.0).
type LocalGenerator interface {
	Generate(ctx context.Context, history []domain.Turn, message string) (string, float64)
}

// RemoteGenerator produces a candidate reply from the hosted completion
// service. It has no confidence signal; any failure yields the empty-text
// sentinel so the merger can detect "no usable remote candidate".
type RemoteGenerator interface {
	Generate(ctx context.Context, systemPrompt string, history []domain.Turn, message string) string
}

// ProviderError describes a generation backend failure. It is logged by the
// adapters and never propagated past them.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP-like status code (429, 500, ...), 0 when not applicable
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
