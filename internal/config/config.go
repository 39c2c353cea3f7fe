// Package config handles configuration loading for sovwatch.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the raw-file folder the dashboard reads from when no
// other source is configured.
const DefaultBaseURL = "https://raw.githubusercontent.com/TU_USUARIO_DE_GITHUB/NOMBRE_DE_TU_REPOSITORIO/main/data/"

// Config represents the complete application configuration.
type Config struct {
	Source     SourceConfig     `mapstructure:"source"     yaml:"source"`
	Aggregator AggregatorConfig `mapstructure:"aggregator" yaml:"aggregator"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// SourceConfig selects and configures the store holding the rating tables.
type SourceConfig struct {
	Kind       string   `mapstructure:"kind"        yaml:"kind"        validate:"oneof=http file s3"`
	BaseURL    string   `mapstructure:"base_url"    yaml:"base_url"    validate:"required_if=Kind http,omitempty,url"`
	Dir        string   `mapstructure:"dir"         yaml:"dir"         validate:"required_if=Kind file"`
	Format     string   `mapstructure:"format"      yaml:"format"      validate:"oneof=xlsx csv html sqlite"`
	BuildTag   string   `mapstructure:"build_tag"   yaml:"build_tag"   validate:"required,alphanum"`
	TimeoutSec int      `mapstructure:"timeout_sec" yaml:"timeout_sec" validate:"min=0"`
	RateLimit  int      `mapstructure:"rate_limit"  yaml:"rate_limit"  validate:"min=0"` // requests per second
	S3         S3Config `mapstructure:"s3"          yaml:"s3"`
}

// Timeout returns the per-load timeout.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// S3Config holds S3-compatible bucket settings (AWS S3, Cloudflare R2, MinIO).
type S3Config struct {
	Bucket          string `mapstructure:"bucket"            yaml:"bucket"`
	Prefix          string `mapstructure:"prefix"            yaml:"prefix"`
	Region          string `mapstructure:"region"            yaml:"region"`
	Endpoint        string `mapstructure:"endpoint"          yaml:"endpoint"          validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id"     yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
}

// AggregatorConfig holds regional matrix settings.
type AggregatorConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency" json:"concurrency" validate:"min=1,max=64"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         validate:"min=1,max=65535"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" json:"format" validate:"oneof=text json"`
}

const envPrefix = "SOVWATCH"

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.sovwatch/config.yaml (home directory)
//  3. /etc/sovwatch/config.yaml (system)
//
// Environment variables override config file values.
// Format: SOVWATCH_<SECTION>_<KEY>, e.g., SOVWATCH_SOURCE_BUILD_TAG
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".sovwatch"))
	v.AddConfigPath("/etc/sovwatch")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("source.kind", "http")
	v.SetDefault("source.base_url", DefaultBaseURL)
	v.SetDefault("source.dir", "./data")
	v.SetDefault("source.format", "xlsx")
	v.SetDefault("source.build_tag", "11042025")
	v.SetDefault("source.timeout_sec", 30)
	v.SetDefault("source.rate_limit", 10)
	v.SetDefault("source.s3.bucket", "")
	v.SetDefault("source.s3.prefix", "")
	v.SetDefault("source.s3.region", "auto")
	v.SetDefault("source.s3.endpoint", "")
	v.SetDefault("source.s3.access_key_id", "")
	v.SetDefault("source.s3.secret_access_key", "")

	v.SetDefault("aggregator.concurrency", 4)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads the S3 credentials, also accepting the
// standard AWS variable names.
func overrideFromEnv(cfg *Config) {
	for _, name := range []string{envPrefix + "_SOURCE_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"} {
		if key := os.Getenv(name); key != "" {
			cfg.Source.S3.AccessKeyID = key
			break
		}
	}
	for _, name := range []string{envPrefix + "_SOURCE_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"} {
		if key := os.Getenv(name); key != "" {
			cfg.Source.S3.SecretAccessKey = key
			break
		}
	}
}

func (c *Config) normalize() {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	c.Source.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Source.Format), "."))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

var validate = validator.New()

// Validate checks field constraints and the cross-field rule that an s3
// source names a bucket.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Source.Kind == "s3" && c.Source.S3.Bucket == "" {
		return fmt.Errorf("invalid config: source.s3.bucket is required when source.kind is s3")
	}
	return nil
}

// Addr returns the listen address of the API server.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
