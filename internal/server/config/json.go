package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/pinsync/internal/flagx"
	"github.com/dmitrijs2005/pinsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	FilePath        string         `json:"file_path"`
	DatabaseDSN     string         `json:"database_dsn"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Key           string         `json:"s3_key"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
	LogFile         string         `json:"log_file"`
	BroadcastBuffer int            `json:"broadcast_buffer"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays config with the non-empty values of the file named by
// -c/-config. Panics on read or unmarshal errors.
func parseJson(config *Config) {
	path := flagx.ConfigPath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	for dst, v := range map[*string]string{
		&config.EndpointAddr:   c.EndpointAddr,
		&config.FilePath:       c.FilePath,
		&config.DatabaseDSN:    c.DatabaseDSN,
		&config.S3RootUser:     c.S3RootUser,
		&config.S3RootPassword: c.S3RootPassword,
		&config.S3Bucket:       c.S3Bucket,
		&config.S3Key:          c.S3Key,
		&config.S3Region:       c.S3Region,
		&config.S3BaseEndpoint: c.S3BaseEndpoint,
		&config.LogFile:        c.LogFile,
	} {
		if v != "" {
			*dst = v
		}
	}
	if c.BroadcastBuffer > 0 {
		config.BroadcastBuffer = c.BroadcastBuffer
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}
