// Package config provides configuration management for the caching proxy.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in three ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
//  3. Like 2, but falling back to built-in defaults when the file is missing:
//     cfg, err := config.LoadConfigOrDefaults("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CACHEPROXY_SECTION_FIELD.
// For example:
//
//   - CACHEPROXY_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - CACHEPROXY_CACHE_MAX_TOTAL_SIZE overrides cache.max_total_size
//   - CACHEPROXY_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
//	cfg, err := config.ReloadConfig("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	current := config.GetConfig() // same as cfg until the next reload
//
// For testing, prefer explicit Config instances over the singleton.
//
// # Hot Reload
//
// Watcher observes the configuration file with fsnotify and invokes a
// callback with the newly loaded Config after each change settles. Only
// settings that are safe to change at runtime (the log level) are applied by
// the server; the rest take effect on restart.
package config
