package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/iobis/edna-sample-app/internal/logging"
)

const (
	DefaultAPIBaseURL          = "https://platform.ednaexpeditions.org/api"
	DefaultOnlineCheckInterval = 3 * time.Second
	DefaultStatsInterval       = 2 * time.Second
	DefaultRequestTimeout      = 30 * time.Second
	DefaultLogLevel            = "info"

	dbFileName = "edna.db"
)

// Config holds runtime settings for the edna CLI.
type Config struct {
	// APIBaseURL is the collection endpoint; /samples and /images are
	// appended to it.
	APIBaseURL string `koanf:"api_base_url"`
	// DataDir holds the local database.
	DataDir string `koanf:"data_dir"`

	OnlineCheckInterval time.Duration `koanf:"online_check_interval"`
	StatsInterval       time.Duration `koanf:"stats_interval"`
	RequestTimeout      time.Duration `koanf:"request_timeout"`

	LogLevel string `koanf:"log_level"`
	LogFile  string `koanf:"log_file"`

	// MetricsAddr, when set, makes `edna run` serve /metrics on it.
	MetricsAddr string `koanf:"metrics_addr"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = DefaultAPIBaseURL
	c.DataDir = defaultDataDir()
	c.OnlineCheckInterval = DefaultOnlineCheckInterval
	c.StatsInterval = DefaultStatsInterval
	c.RequestTimeout = DefaultRequestTimeout
	c.LogLevel = DefaultLogLevel
	c.LogFile = ""
	c.MetricsAddr = ""
}

// Load applies defaults, then the file at path (if not empty), then the
// environment. Flags are applied separately with ApplyFlags.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DBPath is the SQLite file inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, dbFileName)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIBaseURL)
	switch {
	case c.APIBaseURL == "":
		errs = append(errs, errors.New("api_base_url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("api_base_url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		errs = append(errs, fmt.Errorf("api_base_url %q must be an absolute http(s) URL", c.APIBaseURL))
	}

	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	for name, d := range map[string]time.Duration{
		"online_check_interval": c.OnlineCheckInterval,
		"stats_interval":        c.StatsInterval,
		"request_timeout":       c.RequestTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}

	return errors.Join(errs...)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "edna")
	}
	return ".edna"
}
