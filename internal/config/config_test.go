package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, envPrefix+"_") || name == "AWS_ACCESS_KEY_ID" || name == "AWS_SECRET_ACCESS_KEY" {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Source defaults
	if cfg.Source.Kind != "http" {
		t.Errorf("Source.Kind: got %q, want %q", cfg.Source.Kind, "http")
	}
	if cfg.Source.BaseURL != DefaultBaseURL {
		t.Errorf("Source.BaseURL: got %q", cfg.Source.BaseURL)
	}
	if cfg.Source.Format != "xlsx" {
		t.Errorf("Source.Format: got %q, want %q", cfg.Source.Format, "xlsx")
	}
	if cfg.Source.BuildTag != "11042025" {
		t.Errorf("Source.BuildTag: got %q, want %q", cfg.Source.BuildTag, "11042025")
	}
	if cfg.Source.Timeout() != 30*time.Second {
		t.Errorf("Source.Timeout: got %v, want 30s", cfg.Source.Timeout())
	}
	if cfg.Source.RateLimit != 10 {
		t.Errorf("Source.RateLimit: got %d, want 10", cfg.Source.RateLimit)
	}
	if cfg.Source.S3.Region != "auto" {
		t.Errorf("Source.S3.Region: got %q, want %q", cfg.Source.S3.Region, "auto")
	}

	// Aggregator defaults
	if cfg.Aggregator.Concurrency != 4 {
		t.Errorf("Aggregator.Concurrency: got %d, want 4", cfg.Aggregator.Concurrency)
	}

	// API defaults
	if cfg.API.Addr() != "0.0.0.0:8080" {
		t.Errorf("API.Addr: got %q", cfg.API.Addr())
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "*" {
		t.Errorf("API.CORSOrigins: got %v", cfg.API.CORSOrigins)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("SOVWATCH_SOURCE_BUILD_TAG", "01012026")
	t.Setenv("SOVWATCH_SOURCE_FORMAT", "CSV")
	t.Setenv("SOVWATCH_API_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.BuildTag != "01012026" {
		t.Errorf("BuildTag: got %q", cfg.Source.BuildTag)
	}
	if cfg.Source.Format != "csv" {
		t.Errorf("Format: got %q, want csv", cfg.Source.Format)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("Port: got %d, want 9090", cfg.API.Port)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
source:
  kind: file
  dir: /srv/ratings
  format: sqlite
aggregator:
  concurrency: 8
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Source.Kind != "file" || cfg.Source.Dir != "/srv/ratings" {
		t.Errorf("Source: got %+v", cfg.Source)
	}
	if cfg.Source.Format != "sqlite" {
		t.Errorf("Format: got %q", cfg.Source.Format)
	}
	if cfg.Aggregator.Concurrency != 8 {
		t.Errorf("Concurrency: got %d", cfg.Aggregator.Concurrency)
	}
	// Unset keys keep their defaults.
	if cfg.Source.BuildTag != "11042025" {
		t.Errorf("BuildTag: got %q", cfg.Source.BuildTag)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// ── Validate ──

func validConfig() Config {
	return Config{
		Source: SourceConfig{
			Kind: "http", BaseURL: DefaultBaseURL, Dir: "./data", Format: "xlsx",
			BuildTag: "11042025", TimeoutSec: 30, RateLimit: 10,
		},
		Aggregator: AggregatorConfig{Concurrency: 4},
		API:        APIConfig{Host: "0.0.0.0", Port: 8080},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad kind", func(c *Config) { c.Source.Kind = "ftp" }, "Kind"},
		{"bad format", func(c *Config) { c.Source.Format = "pdf" }, "Format"},
		{"empty build tag", func(c *Config) { c.Source.BuildTag = "" }, "BuildTag"},
		{"http without base url", func(c *Config) { c.Source.BaseURL = "" }, "BaseURL"},
		{"file without dir", func(c *Config) { c.Source.Kind = "file"; c.Source.Dir = "" }, "Dir"},
		{"s3 without bucket", func(c *Config) { c.Source.Kind = "s3" }, "bucket"},
		{"s3 with bucket", func(c *Config) { c.Source.Kind = "s3"; c.Source.S3.Bucket = "ratings" }, ""},
		{"zero concurrency", func(c *Config) { c.Aggregator.Concurrency = 0 }, "Concurrency"},
		{"bad port", func(c *Config) { c.API.Port = 70000 }, "Port"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

// ── Secrets ──

func TestCheckSecrets(t *testing.T) {
	clearEnv(t)
	cfg := validConfig()
	cfg.Source.S3.AccessKeyID = "AKIAEXAMPLEKEY123"

	statuses := CheckSecrets(&cfg)
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}
	if !statuses[0].IsSet || statuses[0].Source != SecretSourceConfig {
		t.Errorf("access key: got %+v", statuses[0])
	}
	if statuses[0].Masked != "AKI...123" {
		t.Errorf("masked: got %q", statuses[0].Masked)
	}
	if statuses[1].IsSet || statuses[1].Source != SecretSourceNone {
		t.Errorf("secret: got %+v", statuses[1])
	}

	t.Setenv("AWS_SECRET_ACCESS_KEY", "short")
	overrideFromEnv(&cfg)
	statuses = CheckSecrets(&cfg)
	if statuses[1].Source != SecretSourceEnv || statuses[1].Masked != "***" {
		t.Errorf("secret from env: got %+v", statuses[1])
	}
}
