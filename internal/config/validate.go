package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}
	if cfg.Server.Bind == "custom" && cfg.Server.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "server.customBindHost",
			Message: "required when bind is custom",
		})
	}

	if cfg.Local.BaseURL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "local.baseUrl",
			Message: "base URL is required",
		})
	}
	if cfg.Local.MaxTokens < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "local.maxTokens",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Local.MaxTokens),
		})
	}

	if cfg.Remote.TimeoutSeconds < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "remote.timeoutSeconds",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Remote.TimeoutSeconds),
		})
	}

	for _, th := range []struct {
		path  string
		value float64
	}{
		{"hybrid.confidenceThreshold", cfg.Hybrid.ConfidenceThreshold},
		{"hybrid.similarityCutoff", cfg.Hybrid.SimilarityCutoff},
	} {
		if th.value < 0 || th.value > 1 {
			issues = append(issues, ValidationIssue{
				Path:    th.path,
				Message: fmt.Sprintf("must be in [0,1], got %g", th.value),
			})
		}
	}

	if cfg.Hybrid.CustomWeight < 0 || cfg.Hybrid.RemoteWeight < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "hybrid",
			Message: "weights must be non-negative",
		})
	}
	if cfg.Hybrid.WindowTurns < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "hybrid.windowTurns",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Hybrid.WindowTurns),
		})
	}

	validStores := []string{"memory", "sqlite", "redis"}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "session.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Session.Store),
		})
	}
	if cfg.Session.Store == "redis" && cfg.Session.RedisAddr == "" {
		issues = append(issues, ValidationIssue{
			Path:    "session.redisAddr",
			Message: "required when store is redis",
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}
	if cfg.Logging.ConsoleLevel != "" && !slices.Contains(validLogLevels, cfg.Logging.ConsoleLevel) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleLevel",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.ConsoleLevel),
		})
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
