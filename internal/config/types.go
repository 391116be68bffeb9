package config

// Config is the on-disk configuration for glowd.
//
// The file may be JSON or YAML; either way it is decoded strictly
// (unknown keys are rejected) so typos surface at load time instead of
// silently falling back to defaults.
type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Storage points at the device-side replica of the remote data store
	// (routines, shelf items, notification settings).
	Storage StorageConfig `json:"storage"`

	// Alerts controls the local alert engine and its delivery adapter.
	Alerts AlertsConfig `json:"alerts"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the read-model database.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./glowd.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// AlertsConfig controls the alert engine.
//
// Defaults (when fields are omitted/zero):
//   - quota: 64 (the platform-wide cap on concurrently scheduled alerts)
//   - expiry_budget: 16 (cap on the expiry producer's share of the quota)
//   - timezone: process-local
type AlertsConfig struct {
	Quota        int    `json:"quota,omitempty"`
	ExpiryBudget int    `json:"expiry_budget,omitempty"`
	Timezone     string `json:"timezone,omitempty"` // IANA TZ, e.g. "Europe/Berlin"

	Delivery DeliveryConfig `json:"delivery"`
}

// DeliveryConfig controls the desktop delivery adapter.
//
// RatePerSec bounds how many notifications may be posted to the
// notification daemon per second; posts beyond the bound are dropped.
type DeliveryConfig struct {
	AppName    string `json:"app_name,omitempty"`     // default: "glowd"
	RatePerSec int    `json:"rate_per_sec,omitempty"` // default: 4
	ProbeTTL   string `json:"probe_ttl,omitempty"`    // authorization probe cache, Go duration string (default "30s")
}
