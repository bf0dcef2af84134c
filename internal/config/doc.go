// Package config provides environment-based configuration for the
// session lifecycle service.
//
// All settings load from environment variables via envconfig with
// sensible defaults: HTTP bind address, registry sweep thresholds,
// launcher root paths, kill-escalation timing, logging, and rate limits.
package config
