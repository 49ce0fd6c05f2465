package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/pinsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   server base URL
//	-s string   path of the local SQLite database
//	-o string   fixed client id (owner)
//	-i int      online check interval in seconds
//	-r int      periodic pull interval in seconds, 0 disables it
//	-t int      request timeout in seconds
//	-l string   log file
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-o", "-i", "-r", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "server base URL")
	fs.StringVar(&cfg.DBPath, "s", cfg.DBPath, "local database path")
	fs.StringVar(&cfg.Owner, "o", cfg.Owner, "client id")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	pullInterval := fs.Int("r", int(cfg.PullInterval.Seconds()), "pull interval (in seconds)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.PullInterval = time.Duration(*pullInterval) * time.Second
	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
