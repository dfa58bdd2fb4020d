// Package config loads vetclinic server settings from an optional YAML file
// and VETCLINIC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"vetclinic/internal/blob"
	"vetclinic/internal/core"
	"vetclinic/pkg/examination"
)

const envPrefix = "VETCLINIC_"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Validation ValidationConfig `yaml:"validation"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StorageConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Core converts the settings for core.OpenPersistentStore.
func (s StorageConfig) Core() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(s.Driver),
		SQLitePath:  s.SQLitePath,
		PostgresDSN: s.PostgresDSN,
	}
}

// ArchiveConfig selects the blob backend revisions are archived to. An
// empty driver disables the archive.
type ArchiveConfig struct {
	Driver string   `yaml:"driver"`
	Root   string   `yaml:"root"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// Enabled reports whether an archive backend is configured.
func (a ArchiveConfig) Enabled() bool { return a.Driver != "" }

// Blob converts the settings for blob.Open.
func (a ArchiveConfig) Blob() blob.Config {
	return blob.Config{
		Driver: blob.Driver(a.Driver),
		Root:   a.Root,
		S3: blob.S3Config{
			Region:          a.S3.Region,
			Bucket:          a.S3.Bucket,
			Prefix:          a.S3.Prefix,
			Endpoint:        a.S3.Endpoint,
			AccessKeyID:     a.S3.AccessKeyID,
			SecretAccessKey: a.S3.SecretAccessKey,
			PathStyle:       a.S3.PathStyle,
		},
	}
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"output"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ValidationConfig holds the server-side field rules and the message locale.
type ValidationConfig struct {
	Locale string              `yaml:"locale"`
	Rules  examination.RuleSet `yaml:"rules"`
}

// RuleOptions converts the settings for core.NewDefaultRulesEngine.
func (v ValidationConfig) RuleOptions() core.RuleOptions {
	return core.RuleOptions{
		FormRules: v.Rules,
		Messages:  examination.NewMessages(examination.ParseLocale(v.Locale)),
	}
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{Driver: string(core.StorageSQLite), SQLitePath: "vetclinic.db"},
		Log:     LogConfig{Level: "info", Format: "json", OutputPath: "stdout"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Validation: ValidationConfig{
			Locale: "ar",
		},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.SQLitePath = getEnv("SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.PostgresDSN = getEnv("POSTGRES_DSN", cfg.Storage.PostgresDSN)

	cfg.Archive.Driver = getEnv("ARCHIVE_DRIVER", cfg.Archive.Driver)
	cfg.Archive.Root = getEnv("ARCHIVE_ROOT", cfg.Archive.Root)
	cfg.Archive.S3.Region = getEnv("ARCHIVE_S3_REGION", cfg.Archive.S3.Region)
	cfg.Archive.S3.Bucket = getEnv("ARCHIVE_S3_BUCKET", cfg.Archive.S3.Bucket)
	cfg.Archive.S3.Prefix = getEnv("ARCHIVE_S3_PREFIX", cfg.Archive.S3.Prefix)
	cfg.Archive.S3.Endpoint = getEnv("ARCHIVE_S3_ENDPOINT", cfg.Archive.S3.Endpoint)
	cfg.Archive.S3.AccessKeyID = getEnv("ARCHIVE_S3_ACCESS_KEY_ID", cfg.Archive.S3.AccessKeyID)
	cfg.Archive.S3.SecretAccessKey = getEnv("ARCHIVE_S3_SECRET_ACCESS_KEY", cfg.Archive.S3.SecretAccessKey)
	cfg.Archive.S3.PathStyle = getEnvBool("ARCHIVE_S3_PATH_STYLE", cfg.Archive.S3.PathStyle)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.OutputPath = getEnv("LOG_OUTPUT", cfg.Log.OutputPath)

	cfg.Metrics.Enabled = getEnvBool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Path = getEnv("METRICS_PATH", cfg.Metrics.Path)

	cfg.Validation.Locale = getEnv("LOCALE", cfg.Validation.Locale)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch core.StorageDriver(c.Storage.Driver) {
	case "", core.StorageMemory, core.StorageSQLite:
	case core.StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver))
	}
	switch blob.Driver(c.Archive.Driver) {
	case "", blob.DriverMemory:
	case blob.DriverFilesystem:
		if c.Archive.Root == "" {
			errs = append(errs, errors.New("archive.root is required for the filesystem driver"))
		}
	case blob.DriverS3:
		if c.Archive.S3.Bucket == "" {
			errs = append(errs, errors.New("archive.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("archive.driver %q is not supported", c.Archive.Driver))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
	}
	if err := c.Validation.Rules.Compile(); err != nil {
		errs = append(errs, fmt.Errorf("validation.rules: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
