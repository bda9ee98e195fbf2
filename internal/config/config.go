// Package config loads service settings (viper: file + environment) and the
// static aircraft model catalog, and owns database-handle initialization.
package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	_ "modernc.org/sqlite"
)

// GatewayConfig holds the connection settings for one external fleet service.
type GatewayConfig struct {
	URL        string
	Timeout    int // seconds
	MaxRetries int // 0 means retry until cancelled
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Config holds all configuration for the aircraft service.
type Config struct {
	ListenAddr         string
	DBPath             string
	AircraftConfigPath string
	GroundControl      GatewayConfig
	Orchestrator       GatewayConfig
	Log                LogConfig
}

// Load reads configuration from an optional config file and AIRCRAFT_*
// environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("db_path", "aircraft.db")
	v.SetDefault("aircraft_config_path", "config/aircraft_config.json")
	v.SetDefault("ground_control.url", "http://ground-control-service-api.com")
	v.SetDefault("ground_control.timeout", 30)
	v.SetDefault("ground_control.max_retries", 5)
	v.SetDefault("orchestrator.url", "http://orchestrator-service-api.com")
	v.SetDefault("orchestrator.timeout", 30)
	v.SetDefault("orchestrator.max_retries", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/aircraft")
	v.AddConfigPath(".")

	if configPath := os.Getenv("AIRCRAFT_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults + env vars apply
	}

	v.SetEnvPrefix("AIRCRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		ListenAddr:         v.GetString("listen_addr"),
		DBPath:             v.GetString("db_path"),
		AircraftConfigPath: v.GetString("aircraft_config_path"),
		GroundControl: GatewayConfig{
			URL:        v.GetString("ground_control.url"),
			Timeout:    v.GetInt("ground_control.timeout"),
			MaxRetries: v.GetInt("ground_control.max_retries"),
		},
		Orchestrator: GatewayConfig{
			URL:        v.GetString("orchestrator.url"),
			Timeout:    v.GetInt("orchestrator.timeout"),
			MaxRetries: v.GetInt("orchestrator.max_retries"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if cfg.AircraftConfigPath == "" {
		return fmt.Errorf("aircraft_config_path is required")
	}
	for name, gw := range map[string]GatewayConfig{
		"ground_control": cfg.GroundControl,
		"orchestrator":   cfg.Orchestrator,
	} {
		if gw.URL == "" {
			return fmt.Errorf("%s.url is required", name)
		}
		if gw.Timeout <= 0 {
			return fmt.Errorf("%s.timeout must be greater than 0", name)
		}
		if gw.MaxRetries < 0 {
			return fmt.Errorf("%s.max_retries must not be negative", name)
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}
	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be console or json)", cfg.Log.Format)
	}
	return nil
}

// InitializeDatabase opens and tunes the backend database connection. Schema
// migrations are run by the kvstore when it takes ownership of the handle.
func (c *Config) InitializeDatabase() (*sql.DB, error) {
	dbPath := expandPath(c.DBPath)

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	OptimizeDatabaseConnection(db)
	if err := ApplyPragmaOptimizations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply performance optimizations: %w", err)
	}
	return db, nil
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}
