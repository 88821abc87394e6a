package llm

import (
	"context"

	"github.com/jmallory/solace/internal/domain"
)

// MockLocal is a test double for LocalGenerator.
type MockLocal struct {
	GenerateFunc func(ctx context.Context, history []domain.Turn, message string) (string, float64)
	Calls        int
}

func (m *MockLocal) Generate(ctx context.Context, history []domain.Turn, message string) (string, float64) {
	m.Calls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, history, message)
	}
	return "", 0.0
}

// MockRemote is a test double for RemoteGenerator.
type MockRemote struct {
	GenerateFunc func(ctx context.Context, systemPrompt string, history []domain.Turn, message string) string
	Calls        int
}

func (m *MockRemote) Generate(ctx context.Context, systemPrompt string, history []domain.Turn, message string) string {
	m.Calls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemPrompt, history, message)
	}
	return ""
}
