package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" mapstructure:"embeddings"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Matching   MatchingConfig   `yaml:"matching" mapstructure:"matching"`
	Learning   LearningConfig   `yaml:"learning" mapstructure:"learning"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// EmbeddingsConfig holds embedding gateway settings.
type EmbeddingsConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// MatchingConfig configures the match cascade.
type MatchingConfig struct {
	SemanticThreshold      float64 `yaml:"semantic_threshold" mapstructure:"semantic_threshold"`
	SemanticTopK           int     `yaml:"semantic_top_k" mapstructure:"semantic_top_k"`
	SemanticMaxElapsedDays int     `yaml:"semantic_max_elapsed_days" mapstructure:"semantic_max_elapsed_days"`
	ContextualThreshold    float64 `yaml:"contextual_threshold" mapstructure:"contextual_threshold"`
	ContextualMaxChecks    int     `yaml:"contextual_max_checks" mapstructure:"contextual_max_checks"`
}

// LearningConfig configures outcome-driven reinforcement.
type LearningConfig struct {
	WaypointMinScore float64 `yaml:"waypoint_min_score" mapstructure:"waypoint_min_score"`
	WaypointLimit    int     `yaml:"waypoint_limit" mapstructure:"waypoint_limit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ATTRIBUTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("embeddings.base_url", "https://api.openai.com/v1")
	v.SetDefault("embeddings.model", "text-embedding-3-small")
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("matching.semantic_threshold", 0.75)
	v.SetDefault("matching.semantic_top_k", 3)
	v.SetDefault("matching.semantic_max_elapsed_days", 30)
	v.SetDefault("matching.contextual_threshold", 0.65)
	v.SetDefault("matching.contextual_max_checks", 5)
	v.SetDefault("learning.waypoint_min_score", 3.5)
	v.SetDefault("learning.waypoint_limit", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given run mode. Modes: "check"
// (attribution checks against live gateways), "serve" (HTTP server, implies
// check), "migrate" (schema setup only).
func (c *Config) Validate(mode string) error {
	var problems []string

	needStore := func() {
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	}
	needGateways := func() {
		if c.Embeddings.Key == "" {
			problems = append(problems, "embeddings.key is required")
		}
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	}

	switch mode {
	case "check":
		needStore()
		needGateways()
	case "serve":
		needStore()
		needGateways()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "migrate":
		needStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Matching.SemanticThreshold < 0 || c.Matching.SemanticThreshold > 1 {
		problems = append(problems, "matching.semantic_threshold must be between 0 and 1")
	}
	if c.Matching.ContextualThreshold < 0 || c.Matching.ContextualThreshold > 1 {
		problems = append(problems, "matching.contextual_threshold must be between 0 and 1")
	}
	if c.Matching.SemanticTopK < 1 || c.Matching.SemanticTopK > 20 {
		problems = append(problems, "matching.semantic_top_k must be between 1 and 20")
	}
	if c.Matching.ContextualMaxChecks < 1 || c.Matching.ContextualMaxChecks > 20 {
		problems = append(problems, "matching.contextual_max_checks must be between 1 and 20")
	}
	if c.Learning.WaypointLimit < 1 || c.Learning.WaypointLimit > 50 {
		problems = append(problems, "learning.waypoint_limit must be between 1 and 50")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
