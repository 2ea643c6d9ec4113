// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted when no --config flag
// is given.
const EnvVar = "URAD_INGESTER_CONFIG"

// Config is the complete collector configuration.
type Config struct {
	Device  DeviceConfig  `yaml:"device" json:"device"`
	Poll    PollConfig    `yaml:"poll" json:"poll"`
	HTTP    HTTPConfig    `yaml:"http" json:"http"`
	Forward ForwardConfig `yaml:"forward" json:"forward"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// DeviceConfig locates the sensor.
type DeviceConfig struct {
	// URL is the device's JSON endpoint.
	URL string `yaml:"url" json:"url"`

	// Timeout bounds one fetch, connect through body read.
	Timeout string `yaml:"timeout" json:"timeout"`
}

// PollConfig controls the acquisition loop.
type PollConfig struct {
	// Interval is the wait between the end of one fetch and the start
	// of the next.
	Interval string `yaml:"interval" json:"interval"`
}

// HTTPConfig configures the history endpoint.
type HTTPConfig struct {
	// Listen is the TCP address to bind.
	Listen string `yaml:"listen" json:"listen"`

	// AllowedOrigins enables CORS for these browser origins.
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`

	// ShutdownTimeout bounds the graceful drain of in-flight requests.
	ShutdownTimeout string `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// ForwardConfig configures the optional MQTT forwarder. An empty Broker
// disables forwarding.
type ForwardConfig struct {
	Broker    string `yaml:"broker" json:"broker"`
	Topic     string `yaml:"topic" json:"topic"`
	ClientID  string `yaml:"client_id" json:"client_id"`
	QoS       int    `yaml:"qos" json:"qos"`
	Timeout   string `yaml:"timeout" json:"timeout"`
	QueueSize int    `yaml:"queue_size" json:"queue_size"`
}

// Enabled reports whether a broker is configured.
func (f ForwardConfig) Enabled() bool {
	return f.Broker != ""
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// File, when set, receives log output instead of stderr. Under the
	// Windows service manager stderr goes nowhere, so services should
	// set this.
	File string `yaml:"file" json:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			URL:     "http://192.168.2.106/j",
			Timeout: "3s",
		},
		Poll: PollConfig{
			Interval: "1s",
		},
		HTTP: HTTPConfig{
			Listen:          "127.0.0.1:8753",
			ShutdownTimeout: "10s",
		},
		Forward: ForwardConfig{
			Topic:     "urad/readings",
			ClientID:  "urad-ingester",
			QoS:       1,
			Timeout:   "5s",
			QueueSize: 256,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the file at path over [Default].
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) expandVariables() {
	c.Log.File = expandVars(c.Log.File)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration and returns every problem found,
// joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Device.URL == "" {
		errs = append(errs, errors.New("device.url is required"))
	} else if parsed, err := url.Parse(c.Device.URL); err != nil {
		errs = append(errs, fmt.Errorf("device.url: %w", err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Errorf("device.url must be http or https, got %q", c.Device.URL))
	} else if parsed.Host == "" {
		errs = append(errs, fmt.Errorf("device.url has no host: %q", c.Device.URL))
	}

	errs = appendDurationError(errs, "device.timeout", c.Device.Timeout)
	errs = appendDurationError(errs, "poll.interval", c.Poll.Interval)
	errs = appendDurationError(errs, "http.shutdown_timeout", c.HTTP.ShutdownTimeout)

	if _, _, err := net.SplitHostPort(c.HTTP.Listen); err != nil {
		errs = append(errs, fmt.Errorf("http.listen: %w", err))
	}

	if c.Forward.Enabled() {
		if parsed, err := url.Parse(c.Forward.Broker); err != nil || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("forward.broker must be a URL such as tcp://host:1883, got %q", c.Forward.Broker))
		}
		if c.Forward.Topic == "" {
			errs = append(errs, errors.New("forward.topic is required when forward.broker is set"))
		}
		if c.Forward.QoS < 0 || c.Forward.QoS > 2 {
			errs = append(errs, fmt.Errorf("forward.qos must be 0, 1 or 2, got %d", c.Forward.QoS))
		}
		if c.Forward.QueueSize <= 0 {
			errs = append(errs, fmt.Errorf("forward.queue_size must be positive, got %d", c.Forward.QueueSize))
		}
		errs = appendDurationError(errs, "forward.timeout", c.Forward.Timeout)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// appendDurationError validates a positive duration.
func appendDurationError(errs []error, field, value string) []error {
	duration, err := time.ParseDuration(value)
	switch {
	case err != nil:
		return append(errs, fmt.Errorf("%s: %w", field, err))
	case duration <= 0:
		return append(errs, fmt.Errorf("%s must be positive, got %s", field, value))
	}
	return errs
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, err
	}
	return level, nil
}

// FetchTimeout returns Device.Timeout. The config must be valid.
func (c *Config) FetchTimeout() time.Duration {
	return mustDuration(c.Device.Timeout)
}

// PollInterval returns Poll.Interval. The config must be valid.
func (c *Config) PollInterval() time.Duration {
	return mustDuration(c.Poll.Interval)
}

// ShutdownTimeout returns HTTP.ShutdownTimeout. The config must be valid.
func (c *Config) ShutdownTimeout() time.Duration {
	return mustDuration(c.HTTP.ShutdownTimeout)
}

// PublishTimeout returns Forward.Timeout. The config must be valid.
func (c *Config) PublishTimeout() time.Duration {
	return mustDuration(c.Forward.Timeout)
}

// LogLevel returns Log.Level. The config must be valid.
func (c *Config) LogLevel() slog.Level {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("config: unvalidated log level %q", c.Log.Level))
	}
	return level
}

func mustDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		panic(fmt.Sprintf("config: unvalidated duration %q", value))
	}
	return duration
}
