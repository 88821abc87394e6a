package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	cfg := Config{
		Server: ServerConfig{
			Port: 8787,
			Bind: "loopback",
		},
		Local: LocalModelConfig{
			BaseURL:       "http://localhost:8080",
			FallbackModel: "dialogpt-medium",
			MaxTokens:     150,
		},
		Remote: RemoteModelConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4-turbo-preview",
			TimeoutSeconds: 30,
			MaxTokens:      500,
		},
		Hybrid: HybridConfig{
			CustomWeight:        0.4,
			RemoteWeight:        0.6,
			ConfidenceThreshold: 0.7,
			SimilarityCutoff:    0.85,
			WindowTurns:         5,
		},
		Session: SessionConfig{
			Store:       "memory",
			IdleMinutes: 30,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleLevel: "info",
			ConsoleStyle: "pretty",
		},
	}
	applyDefaults(&cfg)
	return cfg
}
