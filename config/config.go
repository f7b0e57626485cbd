package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete session configuration.
type Config struct {
	User      UserConfig      `json:"user" yaml:"user"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Oracle    OracleConfig    `json:"oracle" yaml:"oracle"`
	Telegram  TelegramConfig  `json:"telegram,omitempty" yaml:"telegram,omitempty"`
	Retention RetentionConfig `json:"retention" yaml:"retention"`
	LogLevel  string          `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// UserConfig identifies whose guard and ledger state this session owns.
type UserConfig struct {
	ID string `json:"id" yaml:"id"`
}

// StoreConfig selects the persistence substrate.
type StoreConfig struct {
	Type string `json:"type" yaml:"type"` // "sqlite" or "memory"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// OracleConfig points at the balance endpoint.
type OracleConfig struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
	Timeout  string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "10s"
}

// ParseTimeout converts the timeout string to a duration; zero when unset.
func (o OracleConfig) ParseTimeout() (time.Duration, error) {
	if o.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(o.Timeout)
}

// TelegramConfig wires the optional Telegram notification channel.
type TelegramConfig struct {
	Token  string `json:"token,omitempty" yaml:"token,omitempty"`
	ChatID int64  `json:"chat_id,omitempty" yaml:"chat_id,omitempty"`
}

func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// RetentionConfig bounds how much history cleanup keeps. Schedule is an
// optional cron expression; when empty, cleanup only runs from the CLI.
type RetentionConfig struct {
	Cap      uint64 `json:"cap,omitempty" yaml:"cap,omitempty"`
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on
// content; YAML is tried first).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.User.ID == "" {
		return fmt.Errorf("user.id is required")
	}
	if c.Store.Type != "sqlite" && c.Store.Type != "memory" {
		return fmt.Errorf("store.type must be 'sqlite' or 'memory'")
	}
	if c.Store.Type == "sqlite" && c.Store.Path == "" {
		return fmt.Errorf("store.path required for sqlite store")
	}
	if c.Oracle.Endpoint == "" {
		return fmt.Errorf("oracle.endpoint is required")
	}
	if _, err := c.Oracle.ParseTimeout(); err != nil {
		return fmt.Errorf("oracle.timeout: %w", err)
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id required when telegram.token is set")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		User: UserConfig{
			ID: "default",
		},
		Store: StoreConfig{
			Type: "sqlite",
			Path: "./tradeguard.sqlite",
		},
		Oracle: OracleConfig{
			Endpoint: "http://localhost:8571",
			Timeout:  "10s",
		},
		Retention: RetentionConfig{
			Cap: 100,
		},
		LogLevel: "info",
	}
}
