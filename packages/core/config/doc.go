// Package config handles configuration loading and management for hitreq.
//
// It provides functionality for:
//   - Loading configuration from .hitreq.yaml, .hitreq.yml or .hitreq.json files
//   - Default configuration values
//   - Merging command-line overrides over file settings
//   - Turning settings into http client options
package config
