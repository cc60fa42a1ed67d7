package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
device:
  id: 2001
  name: "Bench VAV"
points:
  csv_path: "./points.csv"
simulation:
  step_seconds: 0.25
  priority_aware: false
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Name != "Bench VAV" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "Bench VAV")
	}

	if cfg.Points.CSVPath != "./points.csv" {
		t.Errorf("Points.CSVPath = %q, want %q", cfg.Points.CSVPath, "./points.csv")
	}

	if cfg.Simulation.StepSeconds != 0.25 {
		t.Errorf("Simulation.StepSeconds = %v, want 0.25", cfg.Simulation.StepSeconds)
	}

	if cfg.Simulation.PriorityAware {
		t.Error("Simulation.PriorityAware = true, want false from file")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v, want defaults", err)
	}

	if cfg.Simulation.StepSeconds != 0.5 {
		t.Errorf("default StepSeconds = %v, want 0.5", cfg.Simulation.StepSeconds)
	}
	if !cfg.Simulation.PriorityAware {
		t.Error("default PriorityAware = false, want true")
	}
	if cfg.Simulation.Loop.Band != 0.5 || cfg.Simulation.Loop.Gain != 4.0 {
		t.Errorf("default loop tuning = %+v", cfg.Simulation.Loop)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
simulation:
  step_seconds: -1
database:
  path: "/tmp/test.db"
api:
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for negative step, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(*Config) {}, false},
		{"zero step", func(c *Config) { c.Simulation.StepSeconds = 0 }, true},
		{"inverted humidity bounds", func(c *Config) {
			c.Simulation.Humidity.Lower = 80
			c.Simulation.Humidity.Upper = 20
		}, true},
		{"zero fault mean", func(c *Config) { c.Simulation.Fault.MeanSeconds = 0 }, true},
		{"negative band", func(c *Config) { c.Simulation.Loop.Band = -1 }, true},
		{"zero reference flow", func(c *Config) { c.Simulation.Loop.ReferenceFlow = 0 }, true},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, true},
		{"invalid QoS", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"invalid port low", func(c *Config) { c.API.Port = 0 }, true},
		{"invalid port high", func(c *Config) { c.API.Port = 70000 }, true},
		{"device id out of range", func(c *Config) { c.Device.ID = 5000000 }, true},
		{"empty JWT secret allowed", func(c *Config) { c.Security.JWT.Secret = "" }, false},
		{"short JWT secret rejected", func(c *Config) { c.Security.JWT.Secret = "short" }, true},
		{"long JWT secret allowed", func(c *Config) {
			c.Security.JWT.Secret = "test-secret-key-at-least-32-chars!"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := defaultConfig()
	cfg.Simulation.StepSeconds = 0.5
	cfg.Simulation.Outdoor.CycleSeconds = 1200
	cfg.Simulation.Fault.MeanSeconds = 120
	cfg.Simulation.Fault.HoldSeconds = 5
	cfg.Simulation.Refresh.IntervalSeconds = 3600

	if got := cfg.Step().Seconds(); got != 0.5 {
		t.Errorf("Step() = %v, want 0.5s", got)
	}
	if got := cfg.OutdoorCycle().Minutes(); got != 20 {
		t.Errorf("OutdoorCycle() = %v, want 20m", got)
	}
	if got := cfg.FaultMean().Seconds(); got != 120 {
		t.Errorf("FaultMean() = %v, want 120s", got)
	}
	if got := cfg.FaultHold().Seconds(); got != 5 {
		t.Errorf("FaultHold() = %v, want 5s", got)
	}
	if got := cfg.RefreshInterval().Hours(); got != 1 {
		t.Errorf("RefreshInterval() = %v, want 1h", got)
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("VAVSIM_POINTS_CSV", "/custom/points.csv")
	t.Setenv("VAVSIM_SIMULATION_STEP", "0.1")
	t.Setenv("VAVSIM_DATABASE_PATH", "/custom/path.db")
	t.Setenv("VAVSIM_MQTT_HOST", "mqtt.example.com")
	t.Setenv("VAVSIM_MQTT_USERNAME", "testuser")
	t.Setenv("VAVSIM_MQTT_PASSWORD", "testpass")
	t.Setenv("VAVSIM_API_HOST", "192.168.1.1")
	t.Setenv("VAVSIM_API_PORT", "9090")
	t.Setenv("VAVSIM_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	if cfg.Points.CSVPath != "/custom/points.csv" {
		t.Errorf("Points.CSVPath = %q, want %q", cfg.Points.CSVPath, "/custom/points.csv")
	}

	if cfg.Simulation.StepSeconds != 0.1 {
		t.Errorf("Simulation.StepSeconds = %v, want 0.1", cfg.Simulation.StepSeconds)
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if !cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled should be set by VAVSIM_MQTT_HOST override")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}

	if cfg.Security.JWT.Secret != "jwt-secret" {
		t.Errorf("Security.JWT.Secret = %q, want %q", cfg.Security.JWT.Secret, "jwt-secret")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Device.ID == 0 {
		t.Error("defaultConfig should have a non-zero Device.ID")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}

	if cfg.Simulation.Fault.MeanSeconds != 120 {
		t.Errorf("defaultConfig Fault.MeanSeconds = %d, want 120", cfg.Simulation.Fault.MeanSeconds)
	}
}
