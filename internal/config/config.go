// Package config loads server settings: compiled-in defaults, then an
// optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Python PythonConfig `yaml:"python"`
	HTTP   HTTPConfig   `yaml:"http"`
	Log    LogConfig    `yaml:"log"`
}

// PythonConfig locates the bridge script and bounds its invocations.
type PythonConfig struct {
	Bin            string `yaml:"bin"`
	Script         string `yaml:"script"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CacheDir       string `yaml:"cache_dir"`
}

// HTTPConfig configures the optional network transport.
type HTTPConfig struct {
	Addr    string `yaml:"addr"`
	Token   string `yaml:"token"`
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
}

// LogConfig controls log level and destination. Logs go to stderr when no
// file is set; stdout stays reserved for the stdio transport.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		Python: PythonConfig{
			Bin:            "python3",
			Script:         "python/f1_data.py",
			TimeoutSeconds: 120,
		},
		HTTP: HTTPConfig{Addr: ":3000"},
		Log:  LogConfig{Level: "info"},
	}
}

// Load builds the configuration from an optional YAML file plus environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
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

// applyEnv layers the environment on top. PORT and MCP_TOKEN keep their
// bare names for hosting-platform compatibility; the rest are F1_-prefixed.
func applyEnv(cfg *Config) {
	cfg.Python.Bin = getEnv("PYTHON_PATH", cfg.Python.Bin)
	cfg.Python.Script = getEnv("F1_SCRIPT_PATH", cfg.Python.Script)
	cfg.Python.TimeoutSeconds = getEnvInt("F1_TIMEOUT_SECONDS", cfg.Python.TimeoutSeconds)
	cfg.Python.CacheDir = getEnv("F1_CACHE_DIR", cfg.Python.CacheDir)
	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.HTTP.Token = getEnv("MCP_TOKEN", cfg.HTTP.Token)
	cfg.HTTP.TLSCert = getEnv("TLS_CERT_FILE", cfg.HTTP.TLSCert)
	cfg.HTTP.TLSKey = getEnv("TLS_KEY_FILE", cfg.HTTP.TLSKey)
	cfg.Log.Level = getEnv("F1_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("F1_LOG_FILE", cfg.Log.File)
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Python.Bin == "" {
		return fmt.Errorf("config error: python.bin cannot be empty")
	}
	if c.Python.Script == "" {
		return fmt.Errorf("config error: python.script cannot be empty")
	}
	if c.Python.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: python.timeout_seconds cannot be negative")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("config error: http.addr cannot be empty")
	}
	if (c.HTTP.TLSCert == "") != (c.HTTP.TLSKey == "") {
		return fmt.Errorf("config error: http.tls_cert and http.tls_key must be set together")
	}
	return nil
}

// BridgeTimeout is the per-invocation bound as a duration; zero disables it.
func (c Config) BridgeTimeout() time.Duration {
	return time.Duration(c.Python.TimeoutSeconds) * time.Second
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
