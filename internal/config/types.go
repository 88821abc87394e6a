package config

// Config is the root configuration for Solace. It is built once at startup
// and passed by reference; nothing reads configuration ad hoc afterwards.
type Config struct {
	Server  ServerConfig      `yaml:"server,omitempty"`
	Local   LocalModelConfig  `yaml:"local,omitempty"`
	Remote  RemoteModelConfig `yaml:"remote,omitempty"`
	Hybrid  HybridConfig      `yaml:"hybrid,omitempty"`
	Session SessionConfig     `yaml:"session,omitempty"`
	Logging LoggingConfig     `yaml:"logging,omitempty"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// LocalModelConfig points the local generative adapter at its inference
// server and model artifact. Model names the fine-tuned artifact; when it is
// empty the adapter targets FallbackModel, a generic pretrained model that
// produces noticeably lower confidence scores.
type LocalModelConfig struct {
	BaseURL       string   `yaml:"baseUrl,omitempty"`
	Model         string   `yaml:"model,omitempty"`
	FallbackModel string   `yaml:"fallbackModel,omitempty"`
	MaxTokens     int      `yaml:"maxTokens,omitempty"`
	Temperature   *float64 `yaml:"temperature,omitempty"`
}

// RemoteModelConfig configures the hosted chat-completion service.
// APIKey supports ${ENV_VAR} references.
type RemoteModelConfig struct {
	BaseURL        string   `yaml:"baseUrl,omitempty"`
	APIKey         string   `yaml:"apiKey,omitempty"`
	Model          string   `yaml:"model,omitempty"`
	TimeoutSeconds int      `yaml:"timeoutSeconds,omitempty"`
	MaxTokens      int      `yaml:"maxTokens,omitempty"`
	Temperature    *float64 `yaml:"temperature,omitempty"`
}

// HybridConfig tunes the response merge policy and context window.
// CustomWeight and RemoteWeight only influence the near-duplicate pick;
// ConfidenceThreshold is the merger's high threshold.
type HybridConfig struct {
	CustomWeight        float64 `yaml:"customWeight,omitempty"`
	RemoteWeight        float64 `yaml:"remoteWeight,omitempty"`
	ConfidenceThreshold float64 `yaml:"confidenceThreshold,omitempty"`
	SimilarityCutoff    float64 `yaml:"similarityCutoff,omitempty"`
	WindowTurns         int     `yaml:"windowTurns,omitempty"`
}

// SessionConfig selects the session store backend.
type SessionConfig struct {
	Store       string `yaml:"store,omitempty"` // "memory" | "sqlite" | "redis"
	AutoCreate  *bool  `yaml:"autoCreate,omitempty"`
	RedisAddr   string `yaml:"redisAddr,omitempty"`
	IdleMinutes int    `yaml:"idleMinutes,omitempty"` // parsed for forward compatibility; nothing evicts yet
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleLevel string `yaml:"consoleLevel,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// AutoCreateEnabled reports whether the orchestrator may create a session
// when handed an unknown id. Defaults to true.
func (s SessionConfig) AutoCreateEnabled() bool {
	return s.AutoCreate == nil || *s.AutoCreate
}
