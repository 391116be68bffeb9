package config

import (
	"sort"
	"strings"

	logx "glowd/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections plus safe
// structured attrs for logging the reload.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 3)
	attrs := make([]logx.Field, 0, 12)

	// Logging
	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	// Storage
	if oldCfg.Storage != newCfg.Storage {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", strings.TrimSpace(newCfg.Storage.Driver)),
			logx.Bool("storage.path_set", strings.TrimSpace(newCfg.Storage.Path) != ""),
			logx.String("storage.busy_timeout", strings.TrimSpace(newCfg.Storage.BusyTimeout)),
		)
	}

	// Delivery is reported apart from the rest of alerts; the adapter cannot
	// hot-apply it, so the caller warns differently.
	if oldCfg.Alerts.Delivery != newCfg.Alerts.Delivery {
		changed = append(changed, "alerts.delivery")
		attrs = append(attrs,
			logx.String("alerts.delivery.app_name", strings.TrimSpace(newCfg.Alerts.Delivery.AppName)),
			logx.Int("alerts.delivery.rate_per_sec", newCfg.Alerts.Delivery.RatePerSec),
		)
	}

	// Alerts
	oa, na := oldCfg.Alerts, newCfg.Alerts
	oa.Delivery, na.Delivery = DeliveryConfig{}, DeliveryConfig{}
	if oa != na {
		changed = append(changed, "alerts")
		attrs = append(attrs,
			logx.Int("alerts.quota", newCfg.Alerts.Quota),
			logx.Int("alerts.expiry_budget", newCfg.Alerts.ExpiryBudget),
			logx.String("alerts.timezone", strings.TrimSpace(newCfg.Alerts.Timezone)),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
