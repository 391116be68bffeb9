package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
		"logging": {"level": "debug", "console": true},
		"storage": {"driver": "sqlite", "path": "./glowd.db"},
		"alerts": {"quota": 32, "expiry_budget": 8, "timezone": "Europe/Berlin",
			"delivery": {"app_name": "glowd", "rate_per_sec": 2}}
	}`)

	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Alerts.Quota != 32 || cfg.Alerts.ExpiryBudget != 8 {
		t.Fatalf("alerts = %+v", cfg.Alerts)
	}
	if cfg.Alerts.Delivery.RatePerSec != 2 {
		t.Fatalf("delivery = %+v", cfg.Alerts.Delivery)
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
logging:
  level: info
storage:
  driver: sqlite
  path: ./glowd.db
alerts:
  quota: 16
  timezone: UTC
  delivery:
    rate_per_sec: 4
`)

	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Alerts.Quota != 16 || cfg.Alerts.Timezone != "UTC" {
		t.Fatalf("alerts = %+v", cfg.Alerts)
	}
	if cfg.Storage.Path != "./glowd.db" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"alerts": {"quotta": 5}}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"alerts": {"quota": 5}}{"x": 1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{name: "empty", raw: "", want: 0},
		{name: "seconds", raw: "30s", want: 30 * time.Second},
		{name: "padded", raw: "  1m  ", want: time.Minute},
		{name: "negative", raw: "-5s", wantErr: true},
		{name: "garbage", raw: "soon", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDurationField("test.field", tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDurationField error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	got, err := ParseDurationOrDefault("test.field", "", 5*time.Second)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got != 5*time.Second {
		t.Fatalf("got %v, want default 5s", got)
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{}
	newCfg := &Config{}
	newCfg.Alerts.Quota = 32
	newCfg.Alerts.Delivery.RatePerSec = 2
	newCfg.Logging.Level = "debug"

	sections, _ := SummarizeChange(oldCfg, newCfg)
	want := []string{"alerts", "alerts.delivery", "logging"}
	if len(sections) != len(want) {
		t.Fatalf("sections = %v, want %v", sections, want)
	}
	for i := range want {
		if sections[i] != want[i] {
			t.Fatalf("sections = %v, want %v", sections, want)
		}
	}

	if sections, _ := SummarizeChange(newCfg, newCfg); len(sections) != 0 {
		t.Fatalf("no-op diff produced sections: %v", sections)
	}
}
