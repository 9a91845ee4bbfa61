package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv pins every config variable so host values cannot leak into
// assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PYTHON_PATH", "F1_SCRIPT_PATH", "F1_TIMEOUT_SECONDS", "F1_CACHE_DIR",
		"PORT", "MCP_TOKEN", "TLS_CERT_FILE", "TLS_KEY_FILE",
		"F1_LOG_LEVEL", "F1_LOG_FILE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Python.Bin != "python3" {
		t.Errorf("python.bin = %q", cfg.Python.Bin)
	}
	if cfg.BridgeTimeout() != 120*time.Second {
		t.Errorf("bridge timeout = %s", cfg.BridgeTimeout())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
python:
  bin: /usr/local/bin/python3.11
  script: /opt/f1/f1_data.py
  timeout_seconds: 30
  cache_dir: /var/cache/fastf1
http:
  addr: ":8080"
  token: secret
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Python.Bin != "/usr/local/bin/python3.11" {
		t.Errorf("python.bin = %q", cfg.Python.Bin)
	}
	if cfg.Python.TimeoutSeconds != 30 {
		t.Errorf("timeout_seconds = %d", cfg.Python.TimeoutSeconds)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("http.addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
	// Unset fields keep their defaults.
	if cfg.Log.File != "" {
		t.Errorf("log.file = %q, want empty", cfg.Log.File)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("python: [not a mapping"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("err = %v, want a parse error", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PYTHON_PATH", "/custom/python")
	t.Setenv("F1_TIMEOUT_SECONDS", "15")
	t.Setenv("PORT", "9000")
	t.Setenv("MCP_TOKEN", "hunter2")
	t.Setenv("F1_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Python.Bin != "/custom/python" {
		t.Errorf("python.bin = %q", cfg.Python.Bin)
	}
	if cfg.Python.TimeoutSeconds != 15 {
		t.Errorf("timeout_seconds = %d", cfg.Python.TimeoutSeconds)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Errorf("http.addr = %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.Token != "hunter2" {
		t.Errorf("http.token = %q", cfg.HTTP.Token)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("python:\n  timeout_seconds: 30\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("F1_TIMEOUT_SECONDS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Python.TimeoutSeconds != 5 {
		t.Fatalf("timeout_seconds = %d, want the env value 5", cfg.Python.TimeoutSeconds)
	}
}

func TestBadEnvIntIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("F1_TIMEOUT_SECONDS", "soon")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Python.TimeoutSeconds != Default().Python.TimeoutSeconds {
		t.Fatalf("timeout_seconds = %d, want default", cfg.Python.TimeoutSeconds)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty script", func(c *Config) { c.Python.Script = "" }},
		{"empty bin", func(c *Config) { c.Python.Bin = "" }},
		{"negative timeout", func(c *Config) { c.Python.TimeoutSeconds = -1 }},
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }},
		{"tls cert without key", func(c *Config) { c.HTTP.TLSCert = "cert.pem" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestZeroTimeoutDisables(t *testing.T) {
	cfg := Default()
	cfg.Python.TimeoutSeconds = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero timeout should validate: %v", err)
	}
	if cfg.BridgeTimeout() != 0 {
		t.Fatalf("bridge timeout = %s, want 0", cfg.BridgeTimeout())
	}
}
