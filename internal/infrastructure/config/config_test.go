package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
deck:
  id: "desk"
  layout: "decks/main.yaml"
  model: "xl"
  brightness: 40
database:
  path: "/tmp/graydeck-test.db"
mqtt:
  enabled: true
  broker:
    host: "broker.local"
    port: 8883
    tls: true
  qos: 2
api:
  port: 9000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Deck.ID != "desk" {
		t.Errorf("Deck.ID = %q, want %q", cfg.Deck.ID, "desk")
	}
	if want := filepath.Join(filepath.Dir(path), "decks/main.yaml"); cfg.Deck.Layout != want {
		t.Errorf("Deck.Layout = %q, want %q", cfg.Deck.Layout, want)
	}
	if cfg.Deck.Model != "xl" || cfg.Deck.Brightness != 40 {
		t.Errorf("Deck = %+v", cfg.Deck)
	}
	if cfg.MQTT.Broker.Host != "broker.local" || !cfg.MQTT.Broker.TLS || cfg.MQTT.QoS != 2 {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	// Untouched sections keep defaults.
	if cfg.Deck.QueueSize != 1024 || cfg.Logging.Format != "json" || !cfg.Window.Enabled {
		t.Errorf("defaults lost: queue=%d format=%q window=%v", cfg.Deck.QueueSize, cfg.Logging.Format, cfg.Window.Enabled)
	}
}

func TestLoad_AbsoluteLayoutKept(t *testing.T) {
	path := writeConfig(t, "deck:\n  layout: /etc/graydeck/layout.yaml\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Deck.Layout != "/etc/graydeck/layout.yaml" {
		t.Errorf("Deck.Layout = %q", cfg.Deck.Layout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "invalid: [yaml: content")); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
deck:
  id: ""
  brightness: 150
mqtt:
  qos: 5
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	for _, want := range []string{"deck.id is required", "deck.brightness", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GRAYDECK_DECK_MODEL", "mini")
	t.Setenv("GRAYDECK_DECK_VIRTUAL", "true")
	t.Setenv("GRAYDECK_DATABASE_PATH", "/var/lib/graydeck/audit.db")
	t.Setenv("GRAYDECK_MQTT_PASSWORD", "s3cret")
	t.Setenv("GRAYDECK_API_PORT", "9123")
	t.Setenv("GRAYDECK_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "deck:\n  model: xl\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Deck.Model != "mini" {
		t.Errorf("Deck.Model = %q, want env override", cfg.Deck.Model)
	}
	if !cfg.Deck.Virtual {
		t.Error("Deck.Virtual = false, want true")
	}
	if cfg.Database.Path != "/var/lib/graydeck/audit.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.MQTT.Auth.Password != "s3cret" {
		t.Errorf("MQTT.Auth.Password = %q", cfg.MQTT.Auth.Password)
	}
	if cfg.API.Port != 9123 {
		t.Errorf("API.Port = %d", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"topic characters in id", func(c *Config) { c.Deck.ID = "a/b" }, "deck.id must not contain"},
		{"empty layout", func(c *Config) { c.Deck.Layout = "" }, "deck.layout"},
		{"empty model", func(c *Config) { c.Deck.Model = "" }, "deck.model"},
		{"zero queue", func(c *Config) { c.Deck.QueueSize = 0 }, "deck.queue_size"},
		{"database without path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"disabled database without path", func(c *Config) { c.Database.Enabled = false; c.Database.Path = "" }, ""},
		{"mqtt without host", func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Broker.Host = "" }, "mqtt.broker.host"},
		{"bad api port", func(c *Config) { c.API.Port = 70000 }, "api.port"},
		{"disabled api ignores port", func(c *Config) { c.API.Enabled = false; c.API.Port = 0 }, ""},
		{"influx without url", func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.Org = "o"; c.InfluxDB.Bucket = "b" }, "influxdb.url"},
		{"influx without bucket", func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.URL = "http://x" }, "influxdb.org"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestTimeouts(t *testing.T) {
	cfg := Default()
	if cfg.GetReadTimeout().Seconds() != 10 || cfg.GetWriteTimeout().Seconds() != 10 || cfg.GetIdleTimeout().Seconds() != 60 {
		t.Errorf("timeouts = %v/%v/%v", cfg.GetReadTimeout(), cfg.GetWriteTimeout(), cfg.GetIdleTimeout())
	}
}

func TestAPIBaseURL(t *testing.T) {
	cfg := Default()
	if got := cfg.APIBaseURL(); got != "http://127.0.0.1:8090/api/v1" {
		t.Errorf("APIBaseURL() = %q", got)
	}

	cfg.API.Host = "0.0.0.0"
	if got := cfg.APIBaseURL(); got != "http://127.0.0.1:8090/api/v1" {
		t.Errorf("wildcard APIBaseURL() = %q", got)
	}

	cfg.API.Host = "::1"
	if got := cfg.APIBaseURL(); got != "http://[::1]:8090/api/v1" {
		t.Errorf("ipv6 APIBaseURL() = %q", got)
	}

	cfg.API.Enabled = false
	if got := cfg.APIBaseURL(); got != "" {
		t.Errorf("disabled APIBaseURL() = %q, want empty", got)
	}
}
