package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"gopkg.in/yaml.v3"
)

type RateLimitBucketConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	OTLPInsecure bool    `yaml:"otlpInsecure"`
	SampleRatio  float64 `yaml:"sampleRatio"`
}

type Config struct {
	ListenAddr string `yaml:"listenAddr"`
	LocalToken string `yaml:"localToken"`
	LogLevel   string `yaml:"logLevel"`
	LogFormat  string `yaml:"logFormat"`
	Env        string `yaml:"env"`

	APIToken                string         `yaml:"apiToken"`
	BackendBaseURL          string         `yaml:"backendBaseUrl"`
	BackendPollPolicy       string         `yaml:"backendPollPolicy"`
	BackendPollBaseMillis   int            `yaml:"backendPollBaseMillis"`
	BackendPollMaxMillis    int            `yaml:"backendPollMaxMillis"`
	EnhancerModel           string         `yaml:"enhancerModel"`
	Models                  []domain.Model `yaml:"models"`
	MaxConcurrency          int            `yaml:"maxConcurrency"`
	DefaultTaskTimeoutSecs  int            `yaml:"defaultTaskTimeoutSeconds"`
	MinTaskTimeoutSecs      int            `yaml:"minTaskTimeoutSeconds"`
	DownloadTimeoutSecs     int            `yaml:"downloadTimeoutSeconds"`
	StatusPollIntervalMilli int            `yaml:"statusPollIntervalMillis"`
	EventBufferSize         int            `yaml:"eventBufferSize"`

	OutputDir   string `yaml:"outputDir"`
	SettingsDir string `yaml:"settingsDir"`
	DBDriver    string `yaml:"dbDriver"`
	DBDSN       string `yaml:"dbDsn"`

	RedisAddr     string                `yaml:"redisAddr"`
	RedisPassword string                `yaml:"redisPassword"`
	RelayChannel  string                `yaml:"relayChannel"`
	BackendLimit  RateLimitBucketConfig `yaml:"backendRateLimit"`
	APILimit      RateLimitBucketConfig `yaml:"apiRateLimit"`

	Tracing TracingConfig `yaml:"tracing"`
}

// LoadConfig reads a YAML file that must exist.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

// LoadConfigOptional is LoadConfig but tolerates an empty path or a missing file.
func LoadConfigOptional(filePath string) (*Config, error) {
	var c Config
	filePath = strings.TrimSpace(filePath)
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &c); err != nil {
				return nil, fmt.Errorf("parse %s: %w", filePath, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("IMAGEGENIE_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("IMAGEGENIE_LOCAL_TOKEN"); v != "" {
		c.LocalToken = v
	}
	if v := os.Getenv("IMAGEGENIE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("IMAGEGENIE_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("IMAGEGENIE_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("REPLICATE_API_TOKEN"); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv("IMAGEGENIE_BACKEND_BASE_URL"); v != "" {
		c.BackendBaseURL = v
	}
	if v := os.Getenv("IMAGEGENIE_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrency = n
		}
	}
	if v := os.Getenv("IMAGEGENIE_TASK_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultTaskTimeoutSecs = n
		}
	}
	if v := os.Getenv("IMAGEGENIE_DOWNLOAD_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DownloadTimeoutSecs = n
		}
	}
	if v := os.Getenv("IMAGEGENIE_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("IMAGEGENIE_SETTINGS_DIR"); v != "" {
		c.SettingsDir = v
	}
	if v := os.Getenv("IMAGEGENIE_DB_DRIVER"); v != "" {
		c.DBDriver = v
	}
	if v := os.Getenv("IMAGEGENIE_DB_DSN"); v != "" {
		c.DBDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("IMAGEGENIE_TRACING_ENABLED"); v != "" {
		c.Tracing.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:7860"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.BackendBaseURL == "" {
		c.BackendBaseURL = "https://api.replicate.com/v1"
	}
	if c.BackendPollPolicy == "" {
		c.BackendPollPolicy = "exponential"
	}
	if c.BackendPollBaseMillis <= 0 {
		c.BackendPollBaseMillis = 500
	}
	if c.BackendPollMaxMillis <= 0 {
		c.BackendPollMaxMillis = 5000
	}
	if c.EnhancerModel == "" {
		c.EnhancerModel = "anthropic/claude-3.7-sonnet"
	}
	if len(c.Models) == 0 {
		c.Models = domain.DefaultModels()
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 10
	}
	if c.MinTaskTimeoutSecs <= 0 {
		c.MinTaskTimeoutSecs = 10
	}
	if c.DefaultTaskTimeoutSecs <= 0 {
		c.DefaultTaskTimeoutSecs = 180
	}
	if c.DownloadTimeoutSecs <= 0 {
		c.DownloadTimeoutSecs = 10
	}
	if c.StatusPollIntervalMilli <= 0 {
		c.StatusPollIntervalMilli = 1000
	}
	if c.EventBufferSize <= 0 {
		c.EventBufferSize = 256
	}
	if c.SettingsDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.SettingsDir = filepath.Join(home, ".imagegenie")
		} else {
			log.Println("Warning: home directory unavailable, using ./.imagegenie")
			c.SettingsDir = ".imagegenie"
		}
	}
	if c.OutputDir == "" {
		c.OutputDir = "generated_images"
	}
	if c.DBDriver == "" {
		c.DBDriver = "sqlite"
	}
	if c.DBDSN == "" && c.DBDriver == "sqlite" {
		c.DBDSN = filepath.Join(c.SettingsDir, "rankings.db")
	}
	if c.RelayChannel == "" {
		c.RelayChannel = "imagegenie:carousel"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "imagegenie"
	}
}

func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.DefaultTaskTimeoutSecs) * time.Second
}

func (c *Config) MinTaskTimeout() time.Duration {
	return time.Duration(c.MinTaskTimeoutSecs) * time.Second
}

func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSecs) * time.Second
}

func (c *Config) StatusPollInterval() time.Duration {
	return time.Duration(c.StatusPollIntervalMilli) * time.Millisecond
}

func (c *Config) SettingsFile() string {
	return filepath.Join(c.SettingsDir, "settings.json")
}

func (c *Config) Validate() error {
	var errs []string
	dev := strings.EqualFold(strings.TrimSpace(c.Env), "dev")

	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, "backendBaseUrl must be a valid http(s) URL")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "dbDriver must be sqlite or postgres")
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		errs = append(errs, "dbDsn is required")
	}
	if c.DefaultTaskTimeoutSecs < c.MinTaskTimeoutSecs {
		errs = append(errs, fmt.Sprintf("defaultTaskTimeoutSeconds must be >= %d", c.MinTaskTimeoutSecs))
	}
	for i, m := range c.Models {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.ID) == "" {
			errs = append(errs, fmt.Sprintf("models[%d] needs name and id", i))
		}
	}
	if !dev && strings.TrimSpace(c.LocalToken) == "" {
		errs = append(errs, "localToken is required in non-dev")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
