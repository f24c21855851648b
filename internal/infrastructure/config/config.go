package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Node   NodeConfig   `yaml:"node"`
	Stream StreamConfig `yaml:"stream"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	CORSAllowOrigin string `yaml:"cors_allow_origin"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Optional rotating log file in addition to the console output
	File string `yaml:"file"`
}

// NodeConfig says where the node's base address comes from. Dir wins over
// URL: <dir>/node.url is re-read on every attempt.
type NodeConfig struct {
	URL string `yaml:"url"`
	Dir string `yaml:"dir"`
}

type StreamConfig struct {
	Path             string        `yaml:"path"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	RetryMaxDelay    time.Duration `yaml:"retry_max_delay"`
	RetryMultiplier  float64       `yaml:"retry_multiplier"`
	MaxRecords       int           `yaml:"max_records"` // <=0 keeps everything
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"` // 0 disables keepalive pings
	Autostart        bool          `yaml:"autostart"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Addr: "127.0.0.1:9092", CORSAllowOrigin: "*"},
		Log:    LogConfig{Level: "info"},
		Stream: StreamConfig{
			Path:             "/private/logs/v1",
			RetryDelay:       2 * time.Second,
			RetryMaxDelay:    30 * time.Second,
			RetryMultiplier:  1,
			MaxRecords:       100000,
			HandshakeTimeout: 10 * time.Second,
			Autostart:        true,
		},
	}
}

// Load layers defaults, the optional YAML file at path and the environment,
// in that order, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Stream.RetryDelay <= 0 {
		errs = append(errs, fmt.Errorf("stream.retry_delay must be positive, got %s", c.Stream.RetryDelay))
	}
	if c.Stream.RetryMaxDelay < c.Stream.RetryDelay {
		errs = append(errs, fmt.Errorf("stream.retry_max_delay %s is below retry_delay %s", c.Stream.RetryMaxDelay, c.Stream.RetryDelay))
	}
	if c.Stream.RetryMultiplier < 1 {
		errs = append(errs, fmt.Errorf("stream.retry_multiplier must be >= 1, got %v", c.Stream.RetryMultiplier))
	}
	if c.Stream.HandshakeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stream.handshake_timeout must be positive, got %s", c.Stream.HandshakeTimeout))
	}
	if c.Stream.PingInterval < 0 {
		errs = append(errs, fmt.Errorf("stream.ping_interval must not be negative, got %s", c.Stream.PingInterval))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = getEnv("ADDR", cfg.Server.Addr)
	cfg.Server.CORSAllowOrigin = getEnv("CORS_ALLOW_ORIGIN", cfg.Server.CORSAllowOrigin)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Node.URL = getEnv("NODE_URL", cfg.Node.URL)
	cfg.Node.Dir = getEnv("NODE_DIR", cfg.Node.Dir)
	cfg.Stream.Path = getEnv("STREAM_PATH", cfg.Stream.Path)
	cfg.Stream.RetryDelay = getEnvMs("RETRY_DELAY_MS", cfg.Stream.RetryDelay)
	cfg.Stream.RetryMaxDelay = getEnvMs("RETRY_MAX_DELAY_MS", cfg.Stream.RetryMaxDelay)
	cfg.Stream.RetryMultiplier = getEnvFloat("RETRY_MULTIPLIER", cfg.Stream.RetryMultiplier)
	cfg.Stream.MaxRecords = getEnvInt("MAX_RECORDS", cfg.Stream.MaxRecords)
	cfg.Stream.HandshakeTimeout = getEnvMs("HANDSHAKE_TIMEOUT_MS", cfg.Stream.HandshakeTimeout)
	cfg.Stream.PingInterval = getEnvMs("PING_INTERVAL_MS", cfg.Stream.PingInterval)
	cfg.Stream.Autostart = getEnvBool("AUTOSTART", cfg.Stream.Autostart)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvMs(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// getEnvBool accepts 1/true and 0/false like the rest of the env switches.
func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true":
		return true
	case "0", "false":
		return false
	}
	return def
}
