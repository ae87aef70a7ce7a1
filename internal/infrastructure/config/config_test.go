package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettings_Defaults(t *testing.T) {
	cfg, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings(\"\") error = %v", err)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.MQTT.Broker.ClientID != "gpiobridge" {
		t.Errorf("MQTT.Broker.ClientID = %q, want %q", cfg.MQTT.Broker.ClientID, "gpiobridge")
	}
	if cfg.MQTT.KeepAlive != 10 {
		t.Errorf("MQTT.KeepAlive = %d, want 10", cfg.MQTT.KeepAlive)
	}
	if cfg.MQTT.Reconnect.InitialDelay != 1 || cfg.MQTT.Reconnect.MaxDelay != 60 {
		t.Errorf("MQTT.Reconnect = %+v, want {1 60}", cfg.MQTT.Reconnect)
	}
}

func TestLoadSettings_ValidFile(t *testing.T) {
	content := `
logging:
  level: "debug"
  format: "text"
  output: "stderr"
mqtt:
  client_id: "bridge-01"
  qos: 2
  keepalive: 30
  auth:
    username: "bridge"
`
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write settings file: %v", err)
	}

	cfg, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "text")
	}
	if cfg.MQTT.Broker.ClientID != "bridge-01" {
		t.Errorf("MQTT.Broker.ClientID = %q, want %q", cfg.MQTT.Broker.ClientID, "bridge-01")
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("MQTT.QoS = %d, want 2", cfg.MQTT.QoS)
	}
	if cfg.MQTT.Auth.Username != "bridge" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "bridge")
	}
	// Unset sections keep their defaults.
	if cfg.MQTT.Reconnect.MaxDelay != 60 {
		t.Errorf("MQTT.Reconnect.MaxDelay = %d, want 60", cfg.MQTT.Reconnect.MaxDelay)
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	_, err := LoadSettings("/nonexistent/settings.yaml")
	if err == nil {
		t.Error("LoadSettings() expected error for missing file, got nil")
	}
}

func TestLoadSettings_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("logging: [not: valid"), 0600); err != nil {
		t.Fatalf("failed to write settings file: %v", err)
	}

	_, err := LoadSettings(path)
	if err == nil {
		t.Error("LoadSettings() expected error for invalid YAML, got nil")
	}
}

func TestLoadSettings_EnvOverrides(t *testing.T) {
	t.Setenv("GPIOBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("GPIOBRIDGE_MQTT_USERNAME", "env-user")
	t.Setenv("GPIOBRIDGE_MQTT_PASSWORD", "env-pass")

	cfg, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want env override %q", cfg.Logging.Level, "debug")
	}
	if cfg.MQTT.Auth.Username != "env-user" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "env-user")
	}
	if cfg.MQTT.Auth.Password != "env-pass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "env-pass")
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults are valid", func(*Settings) {}, false},
		{"qos too high", func(s *Settings) { s.MQTT.QoS = 3 }, true},
		{"qos negative", func(s *Settings) { s.MQTT.QoS = -1 }, true},
		{"zero keepalive", func(s *Settings) { s.MQTT.KeepAlive = 0 }, true},
		{"zero initial delay", func(s *Settings) { s.MQTT.Reconnect.InitialDelay = 0 }, true},
		{"max delay below initial", func(s *Settings) {
			s.MQTT.Reconnect.InitialDelay = 30
			s.MQTT.Reconnect.MaxDelay = 5
		}, true},
		{"file output without path", func(s *Settings) { s.Logging.Output = "file" }, true},
		{"file output with path", func(s *Settings) {
			s.Logging.Output = "file"
			s.Logging.File.Path = "/var/log/gpiobridge.log"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSettings()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
