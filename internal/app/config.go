package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/phishsentry/phishsentry/internal/assessor"
	"github.com/phishsentry/phishsentry/internal/batch"
	"github.com/phishsentry/phishsentry/internal/scanner"
	"github.com/phishsentry/phishsentry/internal/webclient"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PHISHSENTRY_"

// Config aggregates the per-package configurations.
type Config struct {
	LogLevel   string `yaml:"log_level"`
	ListenAddr string `yaml:"listen_addr"`

	// BlocklistPath enables the SQLite blocklist reputation provider.
	BlocklistPath string `yaml:"blocklist"`

	// HeuristicsPath overlays heuristic tables from a YAML file.
	HeuristicsPath string `yaml:"heuristics"`

	// JobRetention is how long finished jobs stay queryable.
	JobRetention time.Duration `yaml:"job_retention"`

	Scanner   scanner.Config   `yaml:"scanner"`
	WebClient webclient.Config `yaml:"webclient"`
	Assessor  assessor.Config  `yaml:"assessor"`
	Batch     batch.Config     `yaml:"batch"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		ListenAddr:   ":8080",
		JobRetention: 15 * time.Minute,
		Scanner:      scanner.DefaultConfig(),
		WebClient:    webclient.DefaultConfig(),
		Assessor:     *assessor.DefaultConfig(),
		Batch:        batch.DefaultConfig(),
	}
}

// LoadConfig starts from DefaultConfig, overlays the YAML file at path (if
// path is not empty), loads a .env file from the working directory when
// present, then applies PHISHSENTRY_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// applyEnv applies overrides from lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("TIMEOUT"); ok {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Scanner.Timeout = d
	}
	if v, ok := get("MAX_REDIRECTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_REDIRECTS: %w", EnvPrefix, err)
		}
		c.Scanner.MaxRedirects = n
	}
	if v, ok := get("USER_AGENT"); ok {
		c.Scanner.UserAgent = v
	}
	if v, ok := get("CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCONCURRENCY: %w", EnvPrefix, err)
		}
		c.Batch.MaxConcurrency = n
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("BLOCKLIST"); ok {
		c.BlocklistPath = v
	}
	if v, ok := get("HEURISTICS"); ok {
		c.HeuristicsPath = v
	}
	if v, ok := get("LISTEN_ADDR"); ok {
		c.ListenAddr = v
	}
	return nil
}

// parseDuration accepts Go durations ("15s") and bare seconds ("15", "2.5").
func parseDuration(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Scanner.Timeout <= 0 {
		return fmt.Errorf("scanner timeout must be positive, got %s", c.Scanner.Timeout)
	}
	if c.Scanner.MaxRedirects < 1 {
		return fmt.Errorf("max redirects must be at least 1, got %d", c.Scanner.MaxRedirects)
	}
	if c.Batch.MaxConcurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Batch.MaxConcurrency)
	}
	if c.Batch.RatePerSecond < 0 {
		return fmt.Errorf("rate must not be negative")
	}
	return nil
}
