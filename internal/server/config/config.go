// Package config handles configuration for the remote sync service,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the pinsync server.
//
// Storage selection: DatabaseDSN set selects postgres, else S3Bucket set
// selects S3, else the JSON document at FilePath is used.
//
// Fields:
//   - EndpointAddr: bind address of the HTTP API.
//   - FilePath: JSON document for the file backend.
//   - DatabaseDSN: PostgreSQL DSN (pgx).
//   - S3RootUser / S3RootPassword: static credentials for the S3-compatible backend.
//   - S3Bucket / S3Key / S3Region / S3BaseEndpoint: object storage settings.
//   - LogFile: optional rotated log file in addition to stdout.
//   - BroadcastBuffer: capacity of the websocket broadcast queue.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
type Config struct {
	EndpointAddr    string
	FilePath        string
	DatabaseDSN     string
	S3RootUser      string
	S3RootPassword  string
	S3Bucket        string
	S3Key           string
	S3Region        string
	S3BaseEndpoint  string
	LogFile         string
	BroadcastBuffer int
	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with development defaults: file storage
// next to the binary.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.FilePath = "pins.json"
	c.S3Key = "pins.json"
	c.S3Region = "us-east-1"
	c.BroadcastBuffer = 256
	c.ShutdownTimeout = 5 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
