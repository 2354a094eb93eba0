// Package config defines the service configuration and its validation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the service.
type Config struct {
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog"`
	Render   RenderConfig   `json:"render" yaml:"render"`
	Health   HealthConfig   `json:"health" yaml:"health"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// TelegramConfig configures the chat transport.
type TelegramConfig struct {
	// Token is the bot token. The PLUBOT_TELEGRAM_TOKEN environment
	// variable overrides it so the token can stay out of the config file.
	Token              string `json:"token,omitempty" yaml:"token,omitempty"`
	PollTimeoutSeconds int    `json:"poll_timeout_seconds,omitempty" yaml:"poll_timeout_seconds,omitempty"`
}

// CatalogConfig configures the product catalog source.
type CatalogConfig struct {
	// Path points at the tabular source file (.csv, .xlsx or .xlsm).
	Path            string `json:"path" yaml:"path"`
	ValiditySeconds int    `json:"validity_seconds,omitempty" yaml:"validity_seconds,omitempty"`
}

// RenderConfig configures barcode rendering and the artifact store.
type RenderConfig struct {
	Dir             string `json:"dir" yaml:"dir"`
	MemoryCacheSize int    `json:"memory_cache_size,omitempty" yaml:"memory_cache_size,omitempty"`
	BarWidth        int    `json:"bar_width,omitempty" yaml:"bar_width,omitempty"`
	BarHeight       int    `json:"bar_height,omitempty" yaml:"bar_height,omitempty"`
}

// HealthConfig configures the liveness/metrics HTTP listener.
type HealthConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `json:"level,omitempty" yaml:"level,omitempty"` // debug/info/warn/error
	Development bool   `json:"development,omitempty" yaml:"development,omitempty"`
}

// Default returns the configuration defaults applied before a file is read.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{PollTimeoutSeconds: 30},
		Catalog:  CatalogConfig{Path: "produk.xlsx", ValiditySeconds: 30},
		Render:   RenderConfig{Dir: "barcodes", MemoryCacheSize: 128},
		Health:   HealthConfig{Addr: ":10000"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// CatalogValidity returns the snapshot reuse window.
func (c *Config) CatalogValidity() time.Duration {
	return time.Duration(c.Catalog.ValiditySeconds) * time.Second
}

// PollTimeout returns the long-poll timeout for the transport.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Telegram.PollTimeoutSeconds) * time.Second
}
