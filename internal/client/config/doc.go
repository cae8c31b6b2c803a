// Package config loads runtime configuration for the edna CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional YAML or JSON file passed with --config.
//  3. EDNA_* environment variables.
//  4. Command-line flags that were set explicitly.
//
// # File format
//
// Durations are written as strings such as "3s":
//
//	api_base_url: https://platform.ednaexpeditions.org/api
//	data_dir: /var/lib/edna
//	online_check_interval: 3s
//	stats_interval: 2s
//	request_timeout: 30s
//	log_level: info
//	log_file: /var/log/edna/edna.log
//	metrics_addr: 127.0.0.1:9464
package config
