package config

import (
	"fmt"
	"os"
	"time"
)

// Environment variables read by Load.
const (
	EnvAPIBaseURL          = "EDNA_API_BASE_URL"
	EnvDataDir             = "EDNA_DATA_DIR"
	EnvOnlineCheckInterval = "EDNA_ONLINE_CHECK_INTERVAL"
	EnvStatsInterval       = "EDNA_STATS_INTERVAL"
	EnvRequestTimeout      = "EDNA_REQUEST_TIMEOUT"
	EnvLogLevel            = "EDNA_LOG_LEVEL"
	EnvLogFile             = "EDNA_LOG_FILE"
	EnvMetricsAddr         = "EDNA_METRICS_ADDR"
)

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		EnvAPIBaseURL:  &cfg.APIBaseURL,
		EnvDataDir:     &cfg.DataDir,
		EnvLogLevel:    &cfg.LogLevel,
		EnvLogFile:     &cfg.LogFile,
		EnvMetricsAddr: &cfg.MetricsAddr,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		EnvOnlineCheckInterval: &cfg.OnlineCheckInterval,
		EnvStatsInterval:       &cfg.StatsInterval,
		EnvRequestTimeout:      &cfg.RequestTimeout,
	}
	for key, dst := range durations {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}
	return nil
}
