// Package config loads the client configuration from a YAML file with
// environment variable expansion. A missing config file yields the
// defaults, so the client runs unconfigured.
package config
