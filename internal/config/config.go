package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Scan    ScanConfig    `yaml:"scan" envconfig:"SCAN"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ScanConfig contains the default classification parameters. Callers may
// override thresholds per request; these are the values used when they
// don't.
type ScanConfig struct {
	DangerThreshold float64 `yaml:"danger_threshold" envconfig:"DANGER_THRESHOLD"`
	RocketThreshold float64 `yaml:"rocket_threshold" envconfig:"ROCKET_THRESHOLD"`
	CouponSensitive bool    `yaml:"coupon_sensitive" envconfig:"COUPON_SENSITIVE"`
	WindowStart     string  `yaml:"window_start" envconfig:"WINDOW_START"`
	WindowEnd       string  `yaml:"window_end" envconfig:"WINDOW_END"`
}

// Window parses the configured maturity window bounds.
func (s ScanConfig) Window() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", s.WindowStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid window_start %q: %w", s.WindowStart, err)
	}
	end, err := time.Parse("2006-01-02", s.WindowEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid window_end %q: %w", s.WindowEnd, err)
	}
	return start, end, nil
}

// Load builds the configuration from defaults, an optional YAML file, and
// SNIPER_-prefixed environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := findConfigFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("SNIPER", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// validate checks the configuration for values the server cannot run with.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if c.Scan.DangerThreshold <= 0 {
		return fmt.Errorf("danger threshold must be positive")
	}
	if c.Scan.RocketThreshold <= c.Scan.DangerThreshold {
		return fmt.Errorf("rocket threshold %.1f must exceed danger threshold %.1f",
			c.Scan.RocketThreshold, c.Scan.DangerThreshold)
	}

	start, end, err := c.Scan.Window()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("maturity window end %s precedes start %s",
			c.Scan.WindowEnd, c.Scan.WindowStart)
	}
	return nil
}

// findConfigFile checks the common locations for a config file.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  16 << 20, // holdings exports run ~1MB; leave headroom
			RateLimitRPS:    10,
			RateLimitBurst:  20,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/app.log",
		},
		Scan: ScanConfig{
			DangerThreshold: 95.0,
			RocketThreshold: 130.0,
			CouponSensitive: true,
			WindowStart:     "2026-01-01",
			WindowEnd:       "2027-12-31",
		},
	}
}
