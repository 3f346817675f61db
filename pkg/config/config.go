package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	API     APIConfig     `json:"api" toml:"api"`
	Widget  WidgetConfig  `json:"widget" toml:"widget"`
	Storage StorageConfig `json:"storage" toml:"storage"`
	Web     WebConfig     `json:"web" toml:"web"`
	Logging LoggingConfig `json:"logging" toml:"logging"`
	mu      sync.RWMutex
}

// APIConfig describes the remote chat endpoint. The endpoint itself is
// opaque: one POST per user turn, authenticated by a static key header.
type APIConfig struct {
	BaseURL        string `json:"base_url" toml:"base_url" env:"TOURCHAT_API_BASE_URL"`
	Key            string `json:"key" toml:"key" env:"TOURCHAT_API_KEY"`
	TimeoutSeconds int    `json:"timeout_seconds" toml:"timeout_seconds" env:"TOURCHAT_API_TIMEOUT_SECONDS"`
}

type WidgetConfig struct {
	Title             string `json:"title" toml:"title" env:"TOURCHAT_WIDGET_TITLE"`
	WelcomeMessage    string `json:"welcome_message" toml:"welcome_message" env:"TOURCHAT_WIDGET_WELCOME_MESSAGE"`
	ApologyMessage    string `json:"apology_message" toml:"apology_message" env:"TOURCHAT_WIDGET_APOLOGY_MESSAGE"`
	WideThreshold     int    `json:"wide_threshold" toml:"wide_threshold" env:"TOURCHAT_WIDGET_WIDE_THRESHOLD"`
	ChunkDelayMs      int    `json:"chunk_delay_ms" toml:"chunk_delay_ms" env:"TOURCHAT_WIDGET_CHUNK_DELAY_MS"`
	PreDelayMs        int    `json:"pre_delay_ms" toml:"pre_delay_ms" env:"TOURCHAT_WIDGET_PRE_DELAY_MS"`
	ScrollDelayMs     int    `json:"scroll_delay_ms" toml:"scroll_delay_ms" env:"TOURCHAT_WIDGET_SCROLL_DELAY_MS"`
	MinFeedbackLength int    `json:"min_feedback_length" toml:"min_feedback_length" env:"TOURCHAT_WIDGET_MIN_FEEDBACK_LENGTH"`
}

type StorageConfig struct {
	Path string `json:"path" toml:"path" env:"TOURCHAT_STORAGE_PATH"`
}

type WebConfig struct {
	Enabled bool   `json:"enabled" toml:"enabled" env:"TOURCHAT_WEB_ENABLED"`
	Host    string `json:"host" toml:"host" env:"TOURCHAT_WEB_HOST"`
	Port    int    `json:"port" toml:"port" env:"TOURCHAT_WEB_PORT"`
	LogoURL string `json:"logo_url" toml:"logo_url" env:"TOURCHAT_WEB_LOGO_URL"`
}

type LoggingConfig struct {
	Level  string `json:"level" toml:"level" env:"TOURCHAT_LOG_LEVEL"`
	Pretty bool   `json:"pretty" toml:"pretty" env:"TOURCHAT_LOG_PRETTY"`
}

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8787",
			Key:            "",
			TimeoutSeconds: 30,
		},
		Widget: WidgetConfig{
			Title:             "Tourvia",
			WelcomeMessage:    "Hi there! I'm the Tourvia travel assistant. Ask me about tours, destinations, or group bookings.",
			ApologyMessage:    "Sorry, I'm having trouble connecting right now. Please try again in a moment.",
			WideThreshold:     768,
			ChunkDelayMs:      250,
			PreDelayMs:        100,
			ScrollDelayMs:     50,
			MinFeedbackLength: 50,
		},
		Storage: StorageConfig{
			Path: "~/.tourchat/state.json",
		},
		Web: WebConfig{
			Enabled: false,
			Host:    "0.0.0.0",
			Port:    18820,
			LogoURL: "/assets/logo.png",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// LoadConfig reads the config file at path, overlaying defaults. A missing
// file is not an error. TOURCHAT_CONFIG_JSON replaces the file entirely (for
// containers), and TOURCHAT_* env vars override individual fields last.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if cfgJSON := os.Getenv("TOURCHAT_CONFIG_JSON"); cfgJSON != "" {
		if err := json.Unmarshal([]byte(cfgJSON), cfg); err != nil {
			return nil, fmt.Errorf("parsing TOURCHAT_CONFIG_JSON: %w", err)
		}
		if err := env.Parse(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if strings.HasSuffix(path, ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// StoragePath returns the KV store path with ~ expanded.
func (c *Config) StoragePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Storage.Path)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
