package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Supported completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

const (
	defaultOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	defaultOpenAIModel   = "gemini-2.0-flash"
	defaultArkBaseURL    = "https://ark.cn-beijing.volces.com/api/v3"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Session SessionConfig
	Metrics MetricsConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	var metrics MetricsConfig
	if err := env.Parse(&metrics); err != nil {
		return nil, fmt.Errorf("parse metrics config: %w", err)
	}
	if metrics.Namespace == "" {
		metrics.Namespace = "bugfixer"
	}

	return &Config{Server: server, AI: ai, Session: session, Metrics: metrics}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr          string
	AllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	var raw struct {
		Port string `env:"PORT" envDefault:"8080"`
	}
	if err := env.Parse(&raw); err != nil {
		return ServerConfig{}, fmt.Errorf("parse server config: %w", err)
	}

	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parse server config: %w", err)
	}

	port := strings.TrimSpace(raw.Port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		cfg.Addr = port
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider  string        `env:"AI_PROVIDER" envDefault:"openai"`
	APIKey    string        `env:"AI_API_KEY"`
	AccessKey string        `env:"ARK_ACCESS_KEY"`
	SecretKey string        `env:"ARK_SECRET_KEY"`
	Model     string        `env:"AI_MODEL"`
	BaseURL   string        `env:"AI_BASE_URL"`
	Region    string        `env:"ARK_REGION" envDefault:"cn-beijing"`
	Timeout   time.Duration `env:"AI_TIMEOUT" envDefault:"120s"`

	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	if c.APIKey != "" {
		return true
	}
	return c.Provider == ProviderArk && c.AccessKey != "" && c.SecretKey != ""
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 AI_API_KEY + AI_MODEL 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}
	if c.Timeout > 0 {
		timeout := c.Timeout
		cfg.Timeout = &timeout
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	var cfg AIConfig
	if err := env.Parse(&cfg); err != nil {
		return AIConfig{}, fmt.Errorf("parse ai config: %w", err)
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	cfg.Temperature = temperature
	cfg.TopP = topP
	cfg.MaxTokens = maxTokens
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)

	// 兼容各家 SDK 的常用变量名。
	if cfg.APIKey == "" {
		switch cfg.Provider {
		case ProviderArk:
			cfg.APIKey = firstEnv("ARK_API_KEY")
		default:
			cfg.APIKey = firstEnv("GEMINI_API_KEY", "OPENAI_API_KEY")
		}
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultOpenAIBaseURL
		}
		if cfg.Model == "" {
			cfg.Model = defaultOpenAIModel
		}
	case ProviderArk:
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultArkBaseURL
		}
	}

	return cfg, nil
}

// SessionConfig controls the in-memory session registry.
type SessionConfig struct {
	IdleTTL         time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	JanitorSchedule string        `env:"SESSION_JANITOR_SCHEDULE" envDefault:"@every 1m"`
}

func loadSessionConfig() (SessionConfig, error) {
	var cfg SessionConfig
	if err := env.Parse(&cfg); err != nil {
		return SessionConfig{}, fmt.Errorf("parse session config: %w", err)
	}
	if cfg.JanitorSchedule == "" {
		cfg.JanitorSchedule = "@every 1m"
	}
	if cfg.IdleTTL <= 0 {
		return SessionConfig{}, fmt.Errorf("invalid SESSION_IDLE_TTL value %s: must be positive", cfg.IdleTTL)
	}
	return cfg, nil
}

// MetricsConfig names the Prometheus namespace.
type MetricsConfig struct {
	Namespace string `env:"METRICS_NAMESPACE" envDefault:"bugfixer"`
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
