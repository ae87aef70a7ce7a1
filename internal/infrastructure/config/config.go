package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds daemon tuning that does not belong in the bindings file:
// logging behaviour and MQTT client options. All of it has working defaults,
// so the settings file is optional.
type Settings struct {
	Logging LoggingConfig `yaml:"logging"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings, used when
// Output is "file". Rotation limits follow lumberjack's conventions
// (sizes in megabytes, age in days).
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// MQTTConfig contains MQTT client settings. The broker host and port are
// not read from YAML: they come from the bindings file and are filled in
// at startup.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	KeepAlive int                 `yaml:"keepalive"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains broker connection details beyond the address.
type MQTTBrokerConfig struct {
	Host     string `yaml:"-"`
	Port     int    `yaml:"-"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains connect retry delays in seconds. The initial
// broker connection is retried indefinitely, doubling the delay from
// InitialDelay up to MaxDelay.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// LoadSettings reads daemon settings from a YAML file and applies environment
// variable overrides. An empty path yields the defaults (still subject to
// overrides and validation).
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
func LoadSettings(path string) (*Settings, error) {
	cfg := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading settings file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing settings file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating settings: %w", err)
	}
	return cfg, nil
}

// DefaultSettings returns a Settings with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				ClientID: "gpiobridge",
			},
			QoS:       1,
			KeepAlive: 10,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the settings.
// Environment variables follow the pattern: GPIOBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Settings) {
	if v := os.Getenv("GPIOBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GPIOBRIDGE_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}
	if v := os.Getenv("GPIOBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GPIOBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
}

// Validate checks the settings for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (s *Settings) Validate() error {
	var errs []string

	if s.MQTT.QoS < 0 || s.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if s.MQTT.KeepAlive < 1 {
		errs = append(errs, "mqtt.keepalive must be at least 1 second")
	}
	if s.MQTT.Reconnect.InitialDelay < 1 {
		errs = append(errs, "mqtt.reconnect.initial_delay must be at least 1 second")
	}
	if s.MQTT.Reconnect.MaxDelay < s.MQTT.Reconnect.InitialDelay {
		errs = append(errs, "mqtt.reconnect.max_delay must be >= initial_delay")
	}
	if s.Logging.Output == "file" && s.Logging.File.Path == "" {
		errs = append(errs, "logging.file.path is required when logging.output is \"file\"")
	}

	if len(errs) > 0 {
		return fmt.Errorf("settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
