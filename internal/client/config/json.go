package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/pinsync/internal/flagx"
	"github.com/dmitrijs2005/pinsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals
// accept "3s" style strings or integer nanoseconds.
type JsonConfig struct {
	ServerURL           string         `json:"server_url"`
	DBPath              string         `json:"db_path"`
	Owner               string         `json:"owner"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	PullInterval        timex.Duration `json:"pull_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	LogFile             string         `json:"log_file"`
}

// parseJson overlays Config with the non-empty values of the file named by
// -c/-config. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.Owner, jc.Owner)
	setString(&cfg.LogFile, jc.LogFile)
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.PullInterval.Duration > 0 {
		cfg.PullInterval = jc.PullInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
