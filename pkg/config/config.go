// Package config loads the chassis lab description used by the commands.
//
// A configuration file is YAML:
//
//	owner: alice
//	chassis:
//	  - address: 10.0.0.1
//	    password: xena
//	ports:
//	  - 10.0.0.1/0/0
//	  - 10.0.0.1/0/1
//	poll_interval: 1s
//	traffic_timeout: 40s
//
// Secrets can be kept out of the file: XENA_PASSWORD and XENA_OWNER, read
// from the environment or a .env file, override the file values.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xena-tools/xenamanager-go/pkg/model"
	"github.com/xena-tools/xenamanager-go/pkg/service"
	"github.com/xena-tools/xenamanager-go/pkg/transport"
)

// Environment variables overriding file values.
const (
	EnvPassword = "XENA_PASSWORD"
	EnvOwner    = "XENA_OWNER"
)

// ErrInvalid indicates a configuration that fails validation.
var ErrInvalid = errors.New("invalid configuration")

// LoadError describes a configuration loading error.
type LoadError struct {
	// File is the path of the configuration file.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return e.File + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.File + ": " + e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Chassis describes one chassis endpoint.
type Chassis struct {
	Address  string `yaml:"address"`
	Port     int    `yaml:"port,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Config is the lab description.
type Config struct {
	// Owner is the reservation owner.
	Owner string `yaml:"owner"`

	// Chassis lists the chassis to connect to.
	Chassis []Chassis `yaml:"chassis"`

	// Ports lists port locations "<ip>/<module>/<port>".
	Ports []string `yaml:"ports,omitempty"`

	// Force takes over ports reserved by other owners.
	Force bool `yaml:"force,omitempty"`

	PollInterval      time.Duration `yaml:"poll_interval,omitempty"`
	TrafficTimeout    time.Duration `yaml:"traffic_timeout,omitempty"`
	RunTimeout        time.Duration `yaml:"run_timeout,omitempty"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout,omitempty"`
	ConnectRetries    int           `yaml:"connect_retries,omitempty"`
	ReplyTimeout      time.Duration `yaml:"reply_timeout,omitempty"`
	KeepAliveInterval time.Duration `yaml:"keepalive_interval,omitempty"`

	// ProtocolLog is the path of the CBOR protocol log, empty to disable.
	ProtocolLog string `yaml:"protocol_log,omitempty"`

	// ProtocolLogMaxSize rotates the protocol log past this many bytes.
	// Zero never rotates.
	ProtocolLogMaxSize int64 `yaml:"protocol_log_max_size,omitempty"`

	// StatsDB is the path of the statistics database, empty to disable.
	StatsDB string `yaml:"stats_db,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`
}

// Parse parses YAML configuration data and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Load reads the configuration file at path. When envFile is not empty it
// is loaded first; a missing env file is not an error. Environment
// overrides are applied before validation.
func Load(path, envFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, &LoadError{File: envFile, Message: "failed to load env file", Cause: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to parse", Cause: err}
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{File: path, Message: "validation failed", Cause: err}
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv applies XENA_OWNER and XENA_PASSWORD. The password replaces the
// password of every chassis.
func (c *Config) ApplyEnv() {
	if owner := os.Getenv(EnvOwner); owner != "" {
		c.Owner = owner
	}
	if password := os.Getenv(EnvPassword); password != "" {
		for i := range c.Chassis {
			c.Chassis[i].Password = password
		}
	}
}

func (c *Config) applyDefaults() {
	for i := range c.Chassis {
		if c.Chassis[i].Port == 0 {
			c.Chassis[i].Port = transport.DefaultPort
		}
		if c.Chassis[i].Password == "" {
			c.Chassis[i].Password = service.DefaultPassword
		}
	}
	if c.PollInterval == 0 {
		c.PollInterval = service.DefaultPollInterval
	}
	if c.TrafficTimeout == 0 {
		c.TrafficTimeout = service.DefaultTrafficTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Owner == "" {
		errs = append(errs, errors.New("owner is required"))
	}
	if len(c.Chassis) == 0 {
		errs = append(errs, errors.New("at least one chassis is required"))
	}

	known := make(map[string]bool, len(c.Chassis))
	for i, ch := range c.Chassis {
		if ch.Address == "" {
			errs = append(errs, fmt.Errorf("chassis[%d]: address is required", i))
			continue
		}
		if known[ch.Address] {
			errs = append(errs, fmt.Errorf("chassis[%d]: duplicate address %s", i, ch.Address))
		}
		known[ch.Address] = true
		if ch.Port < 0 || ch.Port > 65535 {
			errs = append(errs, fmt.Errorf("chassis[%d]: invalid port %d", i, ch.Port))
		}
	}

	for _, loc := range c.Ports {
		l, err := model.ParseLocation(loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !known[l.Chassis] {
			errs = append(errs, fmt.Errorf("port %s: chassis %s is not configured", loc, l.Chassis))
		}
	}

	if c.PollInterval < 0 || c.TrafficTimeout < 0 || c.RunTimeout < 0 ||
		c.ConnectTimeout < 0 || c.ReplyTimeout < 0 || c.KeepAliveInterval < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.ProtocolLogMaxSize < 0 {
		errs = append(errs, errors.New("protocol_log_max_size must not be negative"))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalid}, errs...)...)
	}
	return nil
}

// SessionConfig converts the configuration into a session configuration.
func (c *Config) SessionConfig() service.SessionConfig {
	sc := service.DefaultSessionConfig(c.Owner)
	sc.PollInterval = c.PollInterval
	sc.TrafficTimeout = c.TrafficTimeout
	sc.RunTimeout = c.RunTimeout
	sc.Client = transport.ClientConfig{
		ConnectTimeout: c.ConnectTimeout,
		ConnectRetries: c.ConnectRetries,
		Backoff:        transport.BackoffConfig{Jitter: transport.DefaultJitterFactor},
		ReplyTimeout:   c.ReplyTimeout,
	}
	if c.KeepAliveInterval > 0 {
		sc.KeepAlive.Interval = c.KeepAliveInterval
	}
	return sc
}

// ParseLogLevel parses a log level name.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}
