package app

import (
	"strings"
	"time"

	"glowd/internal/adapters/desktop"
	"glowd/internal/alerts"
	"glowd/internal/config"
	"glowd/internal/sched"
	"glowd/internal/storage"

	logx "glowd/pkg/logx"
)

// Config mapping between the on-disk shape and per-component configs. All
// validation that should reject a hot reload lives in these mappers so the
// config validator and the apply path cannot drift apart.

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	sc := cfg.Storage
	path := strings.TrimSpace(sc.Path)
	if path == "" {
		path = "./glowd.db"
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      sc.Driver,
		Path:        path,
		BusyTimeout: busy,
	}, nil
}

func mapEngineConfig(cfg *config.Config) alerts.Config {
	return alerts.Config{
		Quota:    cfg.Alerts.Quota,
		Timezone: cfg.Alerts.Timezone,
	}
}

func mapReconcilerConfig(cfg *config.Config) sched.ReconcilerConfig {
	return sched.ReconcilerConfig{
		Quota:        cfg.Alerts.Quota,
		ExpiryBudget: cfg.Alerts.ExpiryBudget,
	}
}

func mapDeliveryConfig(cfg *config.Config) (desktop.Config, error) {
	d := cfg.Alerts.Delivery
	ttl, err := config.ParseDurationOrDefault("alerts.delivery.probe_ttl", d.ProbeTTL, 0)
	if err != nil {
		return desktop.Config{}, err
	}
	return desktop.Config{
		AppName:    d.AppName,
		RatePerSec: float64(d.RatePerSec),
		ProbeTTL:   ttl,
	}, nil
}
