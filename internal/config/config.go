// Package config loads the application configuration from a YAML file
// with environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port        int `yaml:"port"`
		MetricsPort int `yaml:"metrics_port"`
	} `yaml:"server"`

	Database struct {
		Dialect string `yaml:"dialect"`
		DSN     string `yaml:"dsn"`
	} `yaml:"database"`

	JWTSecret string `yaml:"jwt_secret"`

	OpenAI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Payment struct {
		KeyID     string `yaml:"key_id"`
		KeySecret string `yaml:"key_secret"`
	} `yaml:"payment"`

	Delivery struct {
		// FeePerDelivery is the fixed amount credited to a partner per delivery.
		FeePerDelivery float64 `yaml:"fee_per_delivery"`
		// MaxActiveOrders caps concurrently served orders per partner.
		MaxActiveOrders int `yaml:"max_active_orders"`
		// DefaultETAMinutes is stamped on new orders.
		DefaultETAMinutes int `yaml:"default_eta_minutes"`
		// PartnerIdleMinutes is how long a partner may be silent before
		// the sweep marks them offline.
		PartnerIdleMinutes int `yaml:"partner_idle_minutes"`
	} `yaml:"delivery"`
}

// Load reads the YAML file at path and applies env overrides and defaults.
// A missing file is not an error; env and defaults still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("DATABASE_DIALECT"); v != "" {
		cfg.Database.Dialect = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("PAYMENT_KEY_ID"); v != "" {
		cfg.Payment.KeyID = v
	}
	if v := os.Getenv("PAYMENT_KEY_SECRET"); v != "" {
		cfg.Payment.KeySecret = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9090
	}
	if cfg.Database.Dialect == "" {
		cfg.Database.Dialect = "sqlite3"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "quickbite.db"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.Delivery.FeePerDelivery == 0 {
		cfg.Delivery.FeePerDelivery = 40
	}
	if cfg.Delivery.MaxActiveOrders == 0 {
		cfg.Delivery.MaxActiveOrders = 1
	}
	if cfg.Delivery.DefaultETAMinutes == 0 {
		cfg.Delivery.DefaultETAMinutes = 30
	}
	if cfg.Delivery.PartnerIdleMinutes == 0 {
		cfg.Delivery.PartnerIdleMinutes = 30
	}
}
