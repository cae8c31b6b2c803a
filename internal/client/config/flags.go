package config

import (
	"github.com/spf13/pflag"
)

// Flag names registered by RegisterFlags.
const (
	FlagConfig              = "config"
	FlagAPIBaseURL          = "api-url"
	FlagDataDir             = "data-dir"
	FlagOnlineCheckInterval = "online-check-interval"
	FlagStatsInterval       = "stats-interval"
	FlagRequestTimeout      = "request-timeout"
	FlagLogLevel            = "log-level"
	FlagLogFile             = "log-file"
	FlagMetricsAddr         = "metrics-addr"
)

// RegisterFlags adds the configuration flags to fs. Defaults shown in help
// come from LoadDefaults; only flags the user sets override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a YAML or JSON config file")
	fs.String(FlagAPIBaseURL, d.APIBaseURL, "base URL of the collection endpoint")
	fs.String(FlagDataDir, d.DataDir, "directory holding the local database")
	fs.Duration(FlagOnlineCheckInterval, d.OnlineCheckInterval, "how often reachability is probed")
	fs.Duration(FlagStatsInterval, d.StatsInterval, "how often queue stats are refreshed")
	fs.Duration(FlagRequestTimeout, d.RequestTimeout, "timeout of a single request to the endpoint")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(FlagLogFile, d.LogFile, "write logs to this rotated file instead of stderr")
	fs.String(FlagMetricsAddr, d.MetricsAddr, "serve Prometheus metrics on this address (edna run)")
}

// ApplyFlags copies the flags changed on the command line into cfg.
func ApplyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagAPIBaseURL:
			cfg.APIBaseURL, err = fs.GetString(f.Name)
		case FlagDataDir:
			cfg.DataDir, err = fs.GetString(f.Name)
		case FlagOnlineCheckInterval:
			cfg.OnlineCheckInterval, err = fs.GetDuration(f.Name)
		case FlagStatsInterval:
			cfg.StatsInterval, err = fs.GetDuration(f.Name)
		case FlagRequestTimeout:
			cfg.RequestTimeout, err = fs.GetDuration(f.Name)
		case FlagLogLevel:
			cfg.LogLevel, err = fs.GetString(f.Name)
		case FlagLogFile:
			cfg.LogFile, err = fs.GetString(f.Name)
		case FlagMetricsAddr:
			cfg.MetricsAddr, err = fs.GetString(f.Name)
		}
	})
	return err
}
