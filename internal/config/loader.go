package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so API keys can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Remote.APIKey = expandEnvVars(cfg.Remote.APIKey)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8787
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = "loopback"
	}
	if cfg.Local.BaseURL == "" {
		cfg.Local.BaseURL = "http://localhost:8080"
	}
	if cfg.Local.FallbackModel == "" {
		cfg.Local.FallbackModel = "dialogpt-medium"
	}
	if cfg.Local.MaxTokens == 0 {
		cfg.Local.MaxTokens = 150
	}
	if cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Remote.Model == "" {
		cfg.Remote.Model = "gpt-4-turbo-preview"
	}
	if cfg.Remote.TimeoutSeconds == 0 {
		cfg.Remote.TimeoutSeconds = 30
	}
	if cfg.Remote.MaxTokens == 0 {
		cfg.Remote.MaxTokens = 500
	}
	if cfg.Hybrid.CustomWeight == 0 {
		cfg.Hybrid.CustomWeight = 0.4
	}
	if cfg.Hybrid.RemoteWeight == 0 {
		cfg.Hybrid.RemoteWeight = 0.6
	}
	if cfg.Hybrid.ConfidenceThreshold == 0 {
		cfg.Hybrid.ConfidenceThreshold = 0.7
	}
	if cfg.Hybrid.SimilarityCutoff == 0 {
		cfg.Hybrid.SimilarityCutoff = 0.85
	}
	if cfg.Hybrid.WindowTurns == 0 {
		cfg.Hybrid.WindowTurns = 5
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "memory"
	}
	if cfg.Session.IdleMinutes == 0 {
		cfg.Session.IdleMinutes = 30
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleLevel == "" {
		cfg.Logging.ConsoleLevel = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads SOLACE_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SOLACE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SOLACE_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("SOLACE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SOLACE_LOCAL_URL"); v != "" {
		cfg.Local.BaseURL = v
	}
	if v := os.Getenv("SOLACE_LOCAL_MODEL"); v != "" {
		cfg.Local.Model = v
	}
	if v := os.Getenv("SOLACE_REMOTE_API_KEY"); v != "" {
		cfg.Remote.APIKey = v
	}
	if v := os.Getenv("SOLACE_SESSION_STORE"); v != "" {
		cfg.Session.Store = v
	}
	if v := os.Getenv("SOLACE_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Hybrid.ConfidenceThreshold = f
		}
	}
}
