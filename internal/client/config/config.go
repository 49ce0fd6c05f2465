package config

import "time"

// Config holds runtime settings for the pinsync client.
//
// Fields:
//   - ServerURL: base URL of the remote sync service.
//   - DBPath: location of the local SQLite store.
//   - Owner: fixed client id; empty means generate once and persist.
//   - OnlineCheckInterval: how often the client checks server reachability.
//   - PullInterval: periodic pull trigger; zero disables it.
//   - RequestTimeout: bound on every request to the server.
//   - LogFile: optional rotated log file in addition to stdout.
type Config struct {
	ServerURL           string
	DBPath              string
	Owner               string
	OnlineCheckInterval time.Duration
	PullInterval        time.Duration
	RequestTimeout      time.Duration
	LogFile             string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DBPath = "pins.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.PullInterval = time.Minute
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
