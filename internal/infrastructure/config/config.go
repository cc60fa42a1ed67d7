package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the VAV simulator.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device     DeviceConfig     `yaml:"device"`
	Points     PointsConfig     `yaml:"points"`
	Simulation SimulationConfig `yaml:"simulation"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	Logging    LoggingConfig    `yaml:"logging"`
	Security   SecurityConfig   `yaml:"security"`
}

// DeviceConfig identifies the simulated field device.
type DeviceConfig struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// PointsConfig controls how the point set is built.
type PointsConfig struct {
	// CSVPath is the point definition file. Empty means the built-in
	// 20-point VAV device is used instead.
	CSVPath string `yaml:"csv_path"`

	// Placeholders enables synthesis of one point per missing category.
	Placeholders bool `yaml:"placeholders"`

	// Persist stores ingested definitions in the database so a restart
	// reproduces the same object set.
	Persist bool `yaml:"persist"`
}

// SimulationConfig contains the tick loop and behaviour tuning.
type SimulationConfig struct {
	// StepSeconds is the tick period.
	StepSeconds float64 `yaml:"step_seconds"`

	// PriorityAware gates simulated writes behind occupied priority
	// slots 1-15. false reproduces the legacy always-drift behaviour.
	PriorityAware bool `yaml:"priority_aware"`

	Outdoor   OutdoorConfig   `yaml:"outdoor"`
	Humidity  HumidityConfig  `yaml:"humidity"`
	Pressure  PressureConfig  `yaml:"pressure"`
	Binary    BinaryConfig    `yaml:"binary"`
	Rotation  RotationConfig  `yaml:"rotation"`
	Fault     FaultConfig     `yaml:"fault"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Occupancy OccupancyConfig `yaml:"occupancy"`
	Loop      LoopConfig      `yaml:"loop"`
}

// OutdoorConfig tunes the outdoor temperature sine cycle.
type OutdoorConfig struct {
	Base         float64 `yaml:"base"`
	Amplitude    float64 `yaml:"amplitude"`
	Noise        float64 `yaml:"noise"`
	CycleSeconds int     `yaml:"cycle_seconds"`
}

// HumidityConfig tunes the bounded humidity random walk.
type HumidityConfig struct {
	Step  float64 `yaml:"step"`
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// PressureConfig tunes the pressure random walk.
type PressureConfig struct {
	Step float64 `yaml:"step"`
}

// BinaryConfig tunes random binary input toggling.
type BinaryConfig struct {
	// FlipProbability is the per-tick chance of a state change.
	FlipProbability float64 `yaml:"flip_probability"`
}

// RotationConfig tunes multistate input rotation.
type RotationConfig struct {
	// IntervalSeconds is the coarse clock between state advances,
	// independent of the tick period.
	IntervalSeconds int `yaml:"interval_seconds"`
}

// FaultConfig tunes transient fault injection on the status point.
type FaultConfig struct {
	// MeanSeconds is the mean of the exponential inter-arrival time.
	MeanSeconds int `yaml:"mean_seconds"`
	// HoldSeconds is how long the fault state is held before restore.
	HoldSeconds int `yaml:"hold_seconds"`
}

// RefreshConfig tunes the periodic redraw of slowly-changing maxima.
type RefreshConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	Lower           float64 `yaml:"lower"`
	Upper           float64 `yaml:"upper"`
}

// OccupancyConfig tunes the setpoint shift on occupancy transitions.
type OccupancyConfig struct {
	SetpointShift float64 `yaml:"setpoint_shift"`
}

// LoopConfig contains the thermal control loop constants.
type LoopConfig struct {
	Band              float64 `yaml:"band"`
	Gain              float64 `yaml:"gain"`
	RoomGain          float64 `yaml:"room_gain"`
	CoolSupply        float64 `yaml:"cool_supply"`
	HeatSupply        float64 `yaml:"heat_supply"`
	NeutralDamper     float64 `yaml:"neutral_damper"`
	RelaxFactor       float64 `yaml:"relax_factor"`
	AirflowPerPercent float64 `yaml:"airflow_per_percent"`
	ReferenceFlow     float64 `yaml:"reference_flow"`
	InletLag          float64 `yaml:"inlet_lag"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
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

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings. An empty secret disables bearer
// authentication on the API, which is the expected mode on a lab bench.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// An empty path skips the file step entirely: the simulator runs on
// defaults plus environment overrides, so no configuration file is required.
//
// Environment variables follow the pattern: VAVSIM_SECTION_KEY
// For example: VAVSIM_DATABASE_PATH, VAVSIM_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults. The behaviour
// numbers are the stock VAV tuning; the simulator is fully functional with
// nothing but these.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:   2001,
			Name: "Virtual VAV",
		},
		Points: PointsConfig{
			Placeholders: true,
		},
		Simulation: SimulationConfig{
			StepSeconds:   0.5,
			PriorityAware: true,
			Outdoor: OutdoorConfig{
				Base:         21,
				Amplitude:    6,
				Noise:        0,
				CycleSeconds: 20 * 60,
			},
			Humidity: HumidityConfig{
				Step:  0.2,
				Lower: 20,
				Upper: 80,
			},
			Pressure: PressureConfig{
				Step: 0.5,
			},
			Binary: BinaryConfig{
				FlipProbability: 0.01,
			},
			Rotation: RotationConfig{
				IntervalSeconds: 30,
			},
			Fault: FaultConfig{
				MeanSeconds: 120,
				HoldSeconds: 5,
			},
			Refresh: RefreshConfig{
				IntervalSeconds: 3600,
				Lower:           350,
				Upper:           450,
			},
			Occupancy: OccupancyConfig{
				SetpointShift: 0.1,
			},
			Loop: LoopConfig{
				Band:              0.5,
				Gain:              4.0,
				RoomGain:          0.04,
				CoolSupply:        12.0,
				HeatSupply:        30.0,
				NeutralDamper:     30.0,
				RelaxFactor:       0.1,
				AirflowPerPercent: 1.2,
				ReferenceFlow:     120.0,
				InletLag:          0.05,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/vavsim.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "vavsim",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: VAVSIM_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Points
	if v := os.Getenv("VAVSIM_POINTS_CSV"); v != "" {
		cfg.Points.CSVPath = v
	}

	// Simulation
	if v := os.Getenv("VAVSIM_SIMULATION_STEP"); v != "" {
		if step, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Simulation.StepSeconds = step
		}
	}

	// Database
	if v := os.Getenv("VAVSIM_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("VAVSIM_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
		cfg.MQTT.Enabled = true
	}
	if v := os.Getenv("VAVSIM_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("VAVSIM_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("VAVSIM_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("VAVSIM_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Security
	if v := os.Getenv("VAVSIM_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID < 0 || c.Device.ID > 4194302 {
		errs = append(errs, "device.id must be between 0 and 4194302")
	}

	if c.Simulation.StepSeconds <= 0 {
		errs = append(errs, "simulation.step_seconds must be positive")
	}
	if c.Simulation.Humidity.Lower >= c.Simulation.Humidity.Upper {
		errs = append(errs, "simulation.humidity.lower must be below simulation.humidity.upper")
	}
	if c.Simulation.Fault.MeanSeconds <= 0 {
		errs = append(errs, "simulation.fault.mean_seconds must be positive")
	}
	if c.Simulation.Loop.Band < 0 {
		errs = append(errs, "simulation.loop.band must not be negative")
	}
	if c.Simulation.Loop.ReferenceFlow <= 0 {
		errs = append(errs, "simulation.loop.reference_flow must be positive")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// An empty JWT secret disables API auth; a short one is a footgun.
	const minJWTSecretLength = 32
	if s := c.Security.JWT.Secret; s != "" && len(s) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Step returns the tick period as a Duration.
func (c *Config) Step() time.Duration {
	return time.Duration(c.Simulation.StepSeconds * float64(time.Second))
}

// OutdoorCycle returns the outdoor temperature cycle period as a Duration.
func (c *Config) OutdoorCycle() time.Duration {
	return time.Duration(c.Simulation.Outdoor.CycleSeconds) * time.Second
}

// RotationInterval returns the multistate rotation clock as a Duration.
func (c *Config) RotationInterval() time.Duration {
	return time.Duration(c.Simulation.Rotation.IntervalSeconds) * time.Second
}

// FaultMean returns the mean fault inter-arrival time as a Duration.
func (c *Config) FaultMean() time.Duration {
	return time.Duration(c.Simulation.Fault.MeanSeconds) * time.Second
}

// FaultHold returns the fault hold duration as a Duration.
func (c *Config) FaultHold() time.Duration {
	return time.Duration(c.Simulation.Fault.HoldSeconds) * time.Second
}

// RefreshInterval returns the environmental refresh period as a Duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Simulation.Refresh.IntervalSeconds) * time.Second
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
