// Package config holds runtime settings for the PackVault operator CLI.
package config

import "time"

// Config holds runtime settings for the operator console.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP endpoint.
//   - Account: account name operator calls act as.
//   - TokenValidity: lifetime of locally minted tokens.
type Config struct {
	ServerEndpointAddr string
	Account            string
	TokenValidity      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.Account = "packvault"
	c.TokenValidity = 15 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
