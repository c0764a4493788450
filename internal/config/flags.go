package config

import (
	"flag"
	"os"
	"time"

	"github.com/dkarlovs/voucherd/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-r string   device API address (e.g., "192.168.88.1:8728")
//	-u string   device API username
//	-p string   device API password
//	-m string   metrics bind address (empty disables the endpoint)
//	-n int      connection pool size
//	-q int      query executor retry count
//	-s int      sync worker interval, seconds
//	-a int      active-monitor worker interval, seconds
//	-e int      expiry-check worker interval, seconds
//	-t int      usage-throttle minimum delta, bytes
//	-g int      usage-throttle maximum write age, seconds
//	-l int      profile cache TTL, seconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes
//     using flagx.FilterArgs, avoiding collisions with other components.
//   - Interval flags are accepted as integers in seconds and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-r", "-u", "-p", "-m", "-n", "-q", "-s", "-a", "-e", "-t", "-g", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DeviceAddr, "r", config.DeviceAddr, "device API address")
	fs.StringVar(&config.DeviceUser, "u", config.DeviceUser, "device API username")
	fs.StringVar(&config.DevicePassword, "p", config.DevicePassword, "device API password")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics bind address")

	fs.IntVar(&config.PoolMaxConns, "n", config.PoolMaxConns, "connection pool size")
	fs.IntVar(&config.QueryRetries, "q", config.QueryRetries, "query retry count")
	fs.Int64Var(&config.ThrottleMinDeltaBytes, "t", config.ThrottleMinDeltaBytes, "usage throttle min delta (bytes)")

	syncInterval := fs.Int("s", int(config.SyncInterval.Seconds()), "sync interval (in seconds)")
	activeInterval := fs.Int("a", int(config.ActiveInterval.Seconds()), "active-monitor interval (in seconds)")
	expiryInterval := fs.Int("e", int(config.ExpiryInterval.Seconds()), "expiry-check interval (in seconds)")
	throttleMaxAge := fs.Int("g", int(config.ThrottleMaxAge.Seconds()), "usage throttle max age (in seconds)")
	profileCacheTTL := fs.Int("l", int(config.ProfileCacheTTL.Seconds()), "profile cache TTL (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SyncInterval = time.Duration(*syncInterval) * time.Second
	config.ActiveInterval = time.Duration(*activeInterval) * time.Second
	config.ExpiryInterval = time.Duration(*expiryInterval) * time.Second
	config.ThrottleMaxAge = time.Duration(*throttleMaxAge) * time.Second
	config.ProfileCacheTTL = time.Duration(*profileCacheTTL) * time.Second
}
