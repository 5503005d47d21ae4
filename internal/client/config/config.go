package config

import "time"

// Config holds runtime settings for the taskkeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the REST API, e.g. http://127.0.0.1:8000.
//   - RequestTimeout: upper bound for a single API call.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - StateDir: directory that holds the local session database; "~/" is
//     expanded, other relative paths resolve against the working directory.
type Config struct {
	ServerURL           string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	StateDir            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 5 * time.Second
	c.StateDir = ".taskkeeper"
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
