package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Stream.RetryDelay != 2*time.Second || cfg.Stream.RetryMultiplier != 1 {
		t.Fatalf("unexpected retry defaults: %+v", cfg.Stream)
	}
	if cfg.Stream.Path != "/private/logs/v1" {
		t.Fatalf("stream path = %q", cfg.Stream.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NODE_URL", "http://127.0.0.1:3456")
	t.Setenv("RETRY_DELAY_MS", "500")
	t.Setenv("RETRY_MAX_DELAY_MS", "4000")
	t.Setenv("RETRY_MULTIPLIER", "2")
	t.Setenv("MAX_RECORDS", "10")
	t.Setenv("AUTOSTART", "false")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Node.URL != "http://127.0.0.1:3456" {
		t.Errorf("node url = %q", cfg.Node.URL)
	}
	if cfg.Stream.RetryDelay != 500*time.Millisecond || cfg.Stream.RetryMaxDelay != 4*time.Second {
		t.Errorf("retry = %s..%s", cfg.Stream.RetryDelay, cfg.Stream.RetryMaxDelay)
	}
	if cfg.Stream.RetryMultiplier != 2 || cfg.Stream.MaxRecords != 10 || cfg.Stream.Autostart {
		t.Errorf("stream = %+v", cfg.Stream)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logstream.yaml")
	yml := `
server:
  addr: "127.0.0.1:7000"
node:
  dir: /var/lib/tahoe
stream:
  retry_delay: 3s
  retry_max_delay: 1m
  max_records: 50
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAX_RECORDS", "75")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" || cfg.Node.Dir != "/var/lib/tahoe" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Stream.RetryDelay != 3*time.Second || cfg.Stream.RetryMaxDelay != time.Minute {
		t.Errorf("durations = %s %s", cfg.Stream.RetryDelay, cfg.Stream.RetryMaxDelay)
	}
	if cfg.Stream.MaxRecords != 75 {
		t.Errorf("env should win over file, max_records = %d", cfg.Stream.MaxRecords)
	}
	if cfg.Stream.HandshakeTimeout != 10*time.Second {
		t.Errorf("unset keys keep defaults, handshake = %s", cfg.Stream.HandshakeTimeout)
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("RETRY_MULTIPLIER", "0.5")
	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "retry_multiplier") {
		t.Fatalf("expected retry_multiplier error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Stream.RetryDelay = 0
	cfg.Stream.RetryMultiplier = 0.5
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"retry_delay", "retry_multiplier"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
