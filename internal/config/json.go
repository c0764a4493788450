package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dkarlovs/voucherd/internal/flagx"
	"github.com/dkarlovs/voucherd/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDSN           string         `json:"database_dsn"`
	DeviceAddr            string         `json:"device_addr"`
	DeviceUser            string         `json:"device_user"`
	DevicePassword        string         `json:"device_password"`
	MetricsAddr           string         `json:"metrics_addr"`
	PoolMaxConns          int            `json:"pool_max_conns"`
	QueryRetries          *int           `json:"query_retries"`
	SyncInterval          timex.Duration `json:"sync_interval"`
	ActiveInterval        timex.Duration `json:"active_interval"`
	ExpiryInterval        timex.Duration `json:"expiry_interval"`
	ThrottleMinDeltaBytes int64          `json:"throttle_min_delta_bytes"`
	ThrottleMaxAge        timex.Duration `json:"throttle_max_age"`
	ProfileCacheTTL       timex.Duration `json:"profile_cache_ttl"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics. Zero-valued fields leave the
// existing values untouched, so a partial file is valid.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.DeviceAddr != "" {
		config.DeviceAddr = c.DeviceAddr
	}
	if c.DeviceUser != "" {
		config.DeviceUser = c.DeviceUser
	}
	if c.DevicePassword != "" {
		config.DevicePassword = c.DevicePassword
	}
	if c.MetricsAddr != "" {
		config.MetricsAddr = c.MetricsAddr
	}
	if c.PoolMaxConns > 0 {
		config.PoolMaxConns = c.PoolMaxConns
	}
	if c.QueryRetries != nil && *c.QueryRetries >= 0 {
		config.QueryRetries = *c.QueryRetries
	}
	if c.SyncInterval.Duration > 0 {
		config.SyncInterval = time.Duration(c.SyncInterval.Duration)
	}
	if c.ActiveInterval.Duration > 0 {
		config.ActiveInterval = time.Duration(c.ActiveInterval.Duration)
	}
	if c.ExpiryInterval.Duration > 0 {
		config.ExpiryInterval = time.Duration(c.ExpiryInterval.Duration)
	}
	if c.ThrottleMinDeltaBytes > 0 {
		config.ThrottleMinDeltaBytes = c.ThrottleMinDeltaBytes
	}
	if c.ThrottleMaxAge.Duration > 0 {
		config.ThrottleMaxAge = time.Duration(c.ThrottleMaxAge.Duration)
	}
	if c.ProfileCacheTTL.Duration > 0 {
		config.ProfileCacheTTL = time.Duration(c.ProfileCacheTTL.Duration)
	}
}
