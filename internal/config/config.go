// Package config loads service configuration from a YAML file with
// environment variable overrides. Secrets (database DSN, JWT secret, Steam
// API key) are expected from the environment, typically via the systemd
// EnvironmentFile.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/potential-games/mmo-services/pkg/logger"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout"`  // seconds
	WriteTimeout int    `yaml:"write_timeout"` // seconds
}

// DatabaseConfig holds connection pool settings for Postgres.
type DatabaseConfig struct {
	Driver          string `yaml:"driver"`
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// AuthConfig holds token issuance and Steam verification settings.
type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	JWTIssuer       string `yaml:"jwt_issuer"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	SteamAppID      string `yaml:"steam_app_id"`
	SteamWebAPIKey  string `yaml:"steam_web_api_key"`
	// AllowUnverified skips the Steam Web API call and accepts every ticket.
	// Intended for local wiring only.
	AllowUnverified bool `yaml:"allow_unverified"`
}

// ChatConfig holds websocket hub settings.
type ChatConfig struct {
	PingPeriodSeconds int  `yaml:"ping_period_seconds"`
	SendBuffer        int  `yaml:"send_buffer"`
	RequireAuth       bool `yaml:"require_auth"`
}

// MasterConfig holds game server directory settings.
type MasterConfig struct {
	EntryTTLSeconds      int `yaml:"entry_ttl_seconds"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

// Config is the root configuration shared by all services.
type Config struct {
	Server   ServerConfig         `yaml:"server"`
	Logging  logger.LoggingConfig `yaml:"logging"`
	Database DatabaseConfig       `yaml:"database"`
	Auth     AuthConfig           `yaml:"auth"`
	Chat     ChatConfig           `yaml:"chat"`
	Master   MasterConfig         `yaml:"master"`
}

// Load reads configuration from the path in CONFIG_PATH (default
// config/config.yaml), then applies environment overrides. A missing file is
// not an error; the defaults plus environment are enough to run.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	return LoadFromPath(path)
}

// LoadFromPath reads configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Logging: logger.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Auth: AuthConfig{
			JWTIssuer:       "potential",
			TokenTTLMinutes: 30,
		},
		Chat: ChatConfig{
			PingPeriodSeconds: 30,
			SendBuffer:        64,
		},
		Master: MasterConfig{
			EntryTTLSeconds:      120,
			SweepIntervalSeconds: 30,
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("JWT_ISS"); v != "" {
		cfg.Auth.JWTIssuer = v
	}
	if v := os.Getenv("STEAM_APP_ID"); v != "" {
		cfg.Auth.SteamAppID = v
	}
	if v := os.Getenv("STEAM_WEB_API_KEY"); v != "" {
		cfg.Auth.SteamWebAPIKey = v
	}
	if v := os.Getenv("STEAM_ALLOW_UNVERIFIED"); v != "" {
		cfg.Auth.AllowUnverified = v == "1" || v == "true"
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Chat.SendBuffer <= 0 {
		return fmt.Errorf("chat send_buffer must be positive")
	}
	if c.Master.EntryTTLSeconds <= 0 {
		return fmt.Errorf("master entry_ttl_seconds must be positive")
	}
	return nil
}

// PingPeriod returns the chat keepalive period as a duration.
func (c ChatConfig) PingPeriod() time.Duration {
	return time.Duration(c.PingPeriodSeconds) * time.Second
}

// EntryTTL returns the directory entry lifetime as a duration.
func (c MasterConfig) EntryTTL() time.Duration {
	return time.Duration(c.EntryTTLSeconds) * time.Second
}

// SweepInterval returns the sweep cadence as a duration.
func (c MasterConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// TokenTTL returns the JWT lifetime as a duration.
func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}
