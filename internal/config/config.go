// Package config loads server settings from defaults, an optional TOML
// file, and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends accepted by Config.StoreBackend.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Defaults.
const (
	DefaultPort           = 8080
	DefaultStoreBackend   = BackendJSON
	DefaultDataPath       = "data.json"
	DefaultDBPath         = "./data/taskboard.db"
	DefaultTokenTTL       = 24 * time.Hour
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultChatTimeout    = 60 * time.Second
	DefaultChatMaxRetries = 2
)

// Duration wraps time.Duration so it can be written as "30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds all server settings.
type Config struct {
	Port         int    `toml:"port"`
	StoreBackend string `toml:"store_backend"`
	DataPath     string `toml:"data_path"`
	DBPath       string `toml:"db_path"`
	StaticPath   string `toml:"static_path"`

	JWTSecret string   `toml:"jwt_secret"`
	TokenTTL  Duration `toml:"token_ttl"`

	GeminiAPIKey   string   `toml:"gemini_api_key"`
	GeminiModel    string   `toml:"gemini_model"`
	GeminiEndpoint string   `toml:"gemini_endpoint"`
	ChatTimeout    Duration `toml:"chat_timeout"`
	ChatMaxRetries int      `toml:"chat_max_retries"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Port:           DefaultPort,
		StoreBackend:   DefaultStoreBackend,
		DataPath:       DefaultDataPath,
		DBPath:         DefaultDBPath,
		TokenTTL:       Duration{DefaultTokenTTL},
		GeminiModel:    DefaultGeminiModel,
		ChatTimeout:    Duration{DefaultChatTimeout},
		ChatMaxRetries: DefaultChatMaxRetries,
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty or the file does not exist), and environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile loads TOML config from the given file.
func loadConfigFile(cfg *Config, path string) error {
	_, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.StoreBackend = v
	}
	if v := os.Getenv("DATA_PATH"); v != "" {
		cfg.DataPath = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("STATIC_PATH"); v != "" {
		cfg.StaticPath = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		cfg.TokenTTL = Duration{d}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = v
	}
	if v := os.Getenv("GEMINI_ENDPOINT"); v != "" {
		cfg.GeminiEndpoint = v
	}
	if v := os.Getenv("CHAT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CHAT_TIMEOUT %q: %w", v, err)
		}
		cfg.ChatTimeout = Duration{d}
	}
	if v := os.Getenv("CHAT_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CHAT_MAX_RETRIES %q: %w", v, err)
		}
		cfg.ChatMaxRetries = n
	}
	return nil
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	switch c.StoreBackend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q (want %q or %q)", c.StoreBackend, BackendJSON, BackendSQLite)
	}
	if c.ChatMaxRetries < 0 {
		return fmt.Errorf("chat_max_retries must not be negative: %d", c.ChatMaxRetries)
	}
	return nil
}
