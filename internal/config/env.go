package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envConfig mirrors Config for envconfig processing. All variables share the
// VOUCHERD_ prefix, e.g. VOUCHERD_DATABASE_DSN, VOUCHERD_SYNC_INTERVAL.
type envConfig struct {
	DatabaseDSN           string        `envconfig:"DATABASE_DSN"`
	DeviceAddr            string        `envconfig:"DEVICE_ADDR"`
	DeviceUser            string        `envconfig:"DEVICE_USER"`
	DevicePassword        string        `envconfig:"DEVICE_PASSWORD"`
	MetricsAddr           string        `envconfig:"METRICS_ADDR"`
	PoolMaxConns          int           `envconfig:"POOL_MAX_CONNS"`
	QueryRetries          int           `envconfig:"QUERY_RETRIES" default:"-1"`
	SyncInterval          time.Duration `envconfig:"SYNC_INTERVAL"`
	ActiveInterval        time.Duration `envconfig:"ACTIVE_INTERVAL"`
	ExpiryInterval        time.Duration `envconfig:"EXPIRY_INTERVAL"`
	ThrottleMinDeltaBytes int64         `envconfig:"THROTTLE_MIN_DELTA_BYTES"`
	ThrottleMaxAge        time.Duration `envconfig:"THROTTLE_MAX_AGE"`
	ProfileCacheTTL       time.Duration `envconfig:"PROFILE_CACHE_TTL"`
}

// parseEnv overlays values from VOUCHERD_* environment variables onto the
// provided Config. Unset variables leave the existing values untouched.
func parseEnv(config *Config) {
	e := &envConfig{}
	if err := envconfig.Process("voucherd", e); err != nil {
		panic(err)
	}

	if e.DatabaseDSN != "" {
		config.DatabaseDSN = e.DatabaseDSN
	}
	if e.DeviceAddr != "" {
		config.DeviceAddr = e.DeviceAddr
	}
	if e.DeviceUser != "" {
		config.DeviceUser = e.DeviceUser
	}
	if e.DevicePassword != "" {
		config.DevicePassword = e.DevicePassword
	}
	if e.MetricsAddr != "" {
		config.MetricsAddr = e.MetricsAddr
	}
	if e.PoolMaxConns > 0 {
		config.PoolMaxConns = e.PoolMaxConns
	}
	if e.QueryRetries >= 0 {
		config.QueryRetries = e.QueryRetries
	}
	if e.SyncInterval > 0 {
		config.SyncInterval = e.SyncInterval
	}
	if e.ActiveInterval > 0 {
		config.ActiveInterval = e.ActiveInterval
	}
	if e.ExpiryInterval > 0 {
		config.ExpiryInterval = e.ExpiryInterval
	}
	if e.ThrottleMinDeltaBytes > 0 {
		config.ThrottleMinDeltaBytes = e.ThrottleMinDeltaBytes
	}
	if e.ThrottleMaxAge > 0 {
		config.ThrottleMaxAge = e.ThrottleMaxAge
	}
	if e.ProfileCacheTTL > 0 {
		config.ProfileCacheTTL = e.ProfileCacheTTL
	}
}
