package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the daemon configuration.
type Config struct {
	Deck      DeckConfig      `yaml:"deck"`
	Window    WindowConfig    `yaml:"window"`
	Script    ScriptConfig    `yaml:"script"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeckConfig selects the hardware and the layout file.
type DeckConfig struct {
	// ID names this deck in MQTT topics and telemetry tags.
	ID string `yaml:"id"`

	// Layout is the path to the buttons and pages file.
	Layout string `yaml:"layout"`

	// Model is a device model name: original, original-v2, mk2, mini or xl.
	Model string `yaml:"model"`

	// Serial picks one deck when several are connected. Empty means any.
	Serial string `yaml:"serial"`

	// Brightness is the backlight level in percent.
	Brightness int `yaml:"brightness"`

	// Virtual runs without hardware, keeping faces in memory.
	Virtual bool `yaml:"virtual"`

	// QueueSize is the capacity of the event queue.
	QueueSize int `yaml:"queue_size"`
}

// WindowConfig controls the foreground window watcher.
type WindowConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ScriptConfig controls how handlers are executed.
type ScriptConfig struct {
	Interpreter string   `yaml:"interpreter"`
	Args        []string `yaml:"args"`
	WorkDir     string   `yaml:"workdir"`
	Env         []string `yaml:"env"`
}

// DatabaseConfig contains SQLite settings for the audit log.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains reconnection delays in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP control API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`

	// PanelDir serves the browser panel from disk instead of the embedded copy.
	PanelDir string `yaml:"panel_dir"`
}

// APITimeoutConfig contains HTTP timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains live event stream settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.Deck.Layout != "" && !filepath.IsAbs(cfg.Deck.Layout) {
		cfg.Deck.Layout = filepath.Join(filepath.Dir(path), cfg.Deck.Layout)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Deck: DeckConfig{
			ID:         "deck-001",
			Layout:     "layout.yaml",
			Model:      "original",
			Brightness: 80,
			QueueSize:  1024,
		},
		Window: WindowConfig{Enabled: true},
		Script: ScriptConfig{
			Interpreter: "sh",
			Args:        []string{"-c"},
		},
		Database: DatabaseConfig{
			Enabled:     true,
			Path:        "./data/graydeck.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graydeck",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies GRAYDECK_SECTION_KEY variables.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("GRAYDECK_DECK_ID", &cfg.Deck.ID)
	setString("GRAYDECK_DECK_LAYOUT", &cfg.Deck.Layout)
	setString("GRAYDECK_DECK_MODEL", &cfg.Deck.Model)
	setString("GRAYDECK_DECK_SERIAL", &cfg.Deck.Serial)
	if v, err := strconv.ParseBool(os.Getenv("GRAYDECK_DECK_VIRTUAL")); err == nil {
		cfg.Deck.Virtual = v
	}

	setString("GRAYDECK_DATABASE_PATH", &cfg.Database.Path)

	setString("GRAYDECK_MQTT_HOST", &cfg.MQTT.Broker.Host)
	setString("GRAYDECK_MQTT_USERNAME", &cfg.MQTT.Auth.Username)
	setString("GRAYDECK_MQTT_PASSWORD", &cfg.MQTT.Auth.Password)

	setString("GRAYDECK_API_HOST", &cfg.API.Host)
	if v, err := strconv.Atoi(os.Getenv("GRAYDECK_API_PORT")); err == nil {
		cfg.API.Port = v
	}

	setString("GRAYDECK_INFLUXDB_TOKEN", &cfg.InfluxDB.Token)

	setString("GRAYDECK_LOG_LEVEL", &cfg.Logging.Level)
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Deck.ID == "" {
		errs = append(errs, "deck.id is required")
	} else if strings.ContainsAny(c.Deck.ID, "/+#") {
		errs = append(errs, "deck.id must not contain MQTT topic characters (/ + #)")
	}
	if c.Deck.Layout == "" {
		errs = append(errs, "deck.layout is required")
	}
	if c.Deck.Model == "" {
		errs = append(errs, "deck.model is required")
	}
	if c.Deck.Brightness < 0 || c.Deck.Brightness > 100 {
		errs = append(errs, "deck.brightness must be between 0 and 100")
	}
	if c.Deck.QueueSize < 1 {
		errs = append(errs, "deck.queue_size must be positive")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be debug, info, warn or error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// APIBaseURL returns the URL handlers use to reach the control API, or ""
// when the API is disabled. Wildcard hosts are reached via loopback.
func (c *Config) APIBaseURL() string {
	if !c.API.Enabled {
		return ""
	}
	host := c.API.Host
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.API.Port)) + "/api/v1"
}
