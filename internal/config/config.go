package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "IMPORT_CONFIG"

type Config struct {
	Env      string         `yaml:"env"`
	Port     string         `yaml:"port"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Import   ImportConfig   `yaml:"import"`
	Upload   UploadConfig   `yaml:"upload"`
	Notify   NotifyConfig   `yaml:"notify"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	AutoMigrate bool   `yaml:"autoMigrate"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type ImportConfig struct {
	Workers           int     `yaml:"workers"`
	LeaseSeconds      int     `yaml:"leaseSeconds"`
	JobTimeoutSeconds int     `yaml:"jobTimeoutSeconds"`
	MaxAttempts       int     `yaml:"maxAttempts"`
	StatusTTLHours    int     `yaml:"statusTtlHours"`
	LargeFileRows     int     `yaml:"largeFileRows"`
	ErrorTolerance    float64 `yaml:"errorTolerance"`
	PenaltyPerError   float64 `yaml:"penaltyPerError"`
	MaxPenalty        float64 `yaml:"maxPenalty"`
}

func (c ImportConfig) Lease() time.Duration {
	return time.Duration(c.LeaseSeconds) * time.Second
}

func (c ImportConfig) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

func (c ImportConfig) StatusTTL() time.Duration {
	return time.Duration(c.StatusTTLHours) * time.Hour
}

type UploadConfig struct {
	Backend  string `yaml:"backend"`
	Dir      string `yaml:"dir"`
	S3Bucket string `yaml:"s3Bucket"`
	S3Prefix string `yaml:"s3Prefix"`
	MaxBytes int64  `yaml:"maxBytes"`
}

type NotifyConfig struct {
	Backend     string     `yaml:"backend"`
	SNSTopicARN string     `yaml:"snsTopicArn"`
	SMTP        SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

func Default() Config {
	return Config{
		Env:  "development",
		Port: "8080",
		Import: ImportConfig{
			Workers:           4,
			LeaseSeconds:      60,
			JobTimeoutSeconds: 600,
			MaxAttempts:       3,
			StatusTTLHours:    24,
			LargeFileRows:     5000,
			ErrorTolerance:    0.10,
			PenaltyPerError:   5,
			MaxPenalty:        30,
		},
		Upload: UploadConfig{
			Backend:  "local",
			Dir:      "uploads",
			S3Prefix: "inventory-imports",
			MaxBytes: 50 << 20,
		},
		Notify: NotifyConfig{
			Backend: "log",
			SMTP:    SMTPConfig{Port: "587"},
		},
	}
}

// Load reads .env (if present), then the YAML file named by IMPORT_CONFIG,
// then applies environment overrides.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.Env, "APP_ENV")
	setString(&c.Port, "PORT")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Upload.Backend, "UPLOAD_BACKEND")
	setString(&c.Upload.Dir, "UPLOAD_DIR")
	setString(&c.Upload.S3Bucket, "UPLOAD_S3_BUCKET")
	setString(&c.Upload.S3Prefix, "UPLOAD_S3_PREFIX")
	setString(&c.Notify.Backend, "NOTIFIER")
	setString(&c.Notify.SNSTopicARN, "NOTIFY_SNS_TOPIC_ARN")
	setString(&c.Notify.SMTP.Host, "SMTP_HOST")
	setString(&c.Notify.SMTP.Port, "SMTP_PORT")
	setString(&c.Notify.SMTP.Username, "SMTP_USER")
	setString(&c.Notify.SMTP.Password, "SMTP_PASS")
	setString(&c.Notify.SMTP.From, "SMTP_FROM")

	ints := []struct {
		dst *int
		key string
	}{
		{&c.Import.Workers, "IMPORT_WORKERS"},
		{&c.Import.LeaseSeconds, "IMPORT_JOB_LEASE_SECONDS"},
		{&c.Import.JobTimeoutSeconds, "IMPORT_JOB_TIMEOUT_SECONDS"},
		{&c.Import.MaxAttempts, "IMPORT_MAX_ATTEMPTS"},
		{&c.Import.StatusTTLHours, "IMPORT_STATUS_TTL_HOURS"},
		{&c.Import.LargeFileRows, "IMPORT_LARGE_FILE_ROWS"},
	}
	for _, v := range ints {
		if err := setInt(v.dst, v.key); err != nil {
			return err
		}
	}

	if raw := os.Getenv("DB_AUTO_MIGRATE"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("DB_AUTO_MIGRATE: %w", err)
		}
		c.Database.AutoMigrate = value
	}
	return nil
}

func (c Config) Validate() error {
	var problems []string

	if c.Database.URL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.Redis.URL == "" {
		problems = append(problems, "REDIS_URL is required")
	}
	if c.Import.Workers < 1 || c.Import.Workers > 10 {
		problems = append(problems, "IMPORT_WORKERS must be between 1 and 10")
	}
	if c.Import.LeaseSeconds <= 0 || c.Import.JobTimeoutSeconds <= 0 || c.Import.StatusTTLHours <= 0 {
		problems = append(problems, "import lease, timeout and status ttl must be positive")
	}
	if c.Import.MaxAttempts < 1 {
		problems = append(problems, "IMPORT_MAX_ATTEMPTS must be at least 1")
	}
	if c.Import.LargeFileRows < 1 {
		problems = append(problems, "IMPORT_LARGE_FILE_ROWS must be at least 1")
	}
	if c.Import.ErrorTolerance < 0 || c.Import.ErrorTolerance > 1 {
		problems = append(problems, "import errorTolerance must be between 0 and 1")
	}
	if c.Import.PenaltyPerError < 0 || c.Import.MaxPenalty < 0 {
		problems = append(problems, "import penaltyPerError and maxPenalty must not be negative")
	}

	switch c.Upload.Backend {
	case "local":
	case "s3":
		if c.Upload.S3Bucket == "" {
			problems = append(problems, "UPLOAD_S3_BUCKET is required for the s3 upload backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown upload backend %q", c.Upload.Backend))
	}

	switch c.Notify.Backend {
	case "log":
	case "smtp":
		if c.Notify.SMTP.Host == "" {
			problems = append(problems, "SMTP_HOST is required for the smtp notifier")
		}
	case "sns":
		if c.Notify.SNSTopicARN == "" {
			problems = append(problems, "NOTIFY_SNS_TOPIC_ARN is required for the sns notifier")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown notifier %q", c.Notify.Backend))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = value
	return nil
}
