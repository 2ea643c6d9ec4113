// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
	if cfg.Device.URL != "http://192.168.2.106/j" {
		t.Errorf("Device.URL = %q", cfg.Device.URL)
	}
	if got := cfg.FetchTimeout(); got != 3*time.Second {
		t.Errorf("FetchTimeout() = %v, want 3s", got)
	}
	if got := cfg.PollInterval(); got != time.Second {
		t.Errorf("PollInterval() = %v, want 1s", got)
	}
	if cfg.HTTP.Listen != "127.0.0.1:8753" {
		t.Errorf("HTTP.Listen = %q", cfg.HTTP.Listen)
	}
	if cfg.Forward.Enabled() {
		t.Error("forwarding enabled by default")
	}
	if cfg.LogLevel() != slog.LevelInfo {
		t.Errorf("LogLevel() = %v, want info", cfg.LogLevel())
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "urad.yaml", `
device:
  url: http://10.0.0.5/j
poll:
  interval: 5s
http:
  listen: 0.0.0.0:9000
  allowed_origins:
    - http://dashboard.local
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.URL != "http://10.0.0.5/j" {
		t.Errorf("Device.URL = %q", cfg.Device.URL)
	}
	if cfg.PollInterval() != 5*time.Second {
		t.Errorf("PollInterval() = %v, want 5s", cfg.PollInterval())
	}
	if cfg.HTTP.Listen != "0.0.0.0:9000" {
		t.Errorf("HTTP.Listen = %q", cfg.HTTP.Listen)
	}
	if len(cfg.HTTP.AllowedOrigins) != 1 || cfg.HTTP.AllowedOrigins[0] != "http://dashboard.local" {
		t.Errorf("HTTP.AllowedOrigins = %v", cfg.HTTP.AllowedOrigins)
	}
	// Fields absent from the file keep their defaults.
	if cfg.FetchTimeout() != 3*time.Second {
		t.Errorf("FetchTimeout() = %v, want default 3s", cfg.FetchTimeout())
	}
}

func TestLoadJSONC(t *testing.T) {
	path := writeConfig(t, "urad.jsonc", `{
	// Lab unit on the bench network.
	"device": {"url": "http://172.16.1.20/j", "timeout": "1500ms"},
	"forward": {
		"broker": "tcp://mqtt.local:1883", /* plain TCP */
		"topic": "lab/urad",
	},
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.FetchTimeout() != 1500*time.Millisecond {
		t.Errorf("FetchTimeout() = %v, want 1.5s", cfg.FetchTimeout())
	}
	if !cfg.Forward.Enabled() || cfg.Forward.Topic != "lab/urad" {
		t.Errorf("Forward = %+v", cfg.Forward)
	}
	if cfg.Forward.QueueSize != 256 {
		t.Errorf("Forward.QueueSize = %d, want default 256", cfg.Forward.QueueSize)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}

	path := writeConfig(t, "bad.yaml", "device: [unterminated\n")
	if _, err := Load(path); err == nil {
		t.Error("Load of malformed YAML succeeded")
	}

	path = writeConfig(t, "bad.json", `{"device": `)
	if _, err := Load(path); err == nil {
		t.Error("Load of malformed JSON succeeded")
	}
}

func TestLoadExpandsLogFile(t *testing.T) {
	t.Setenv("URAD_TEST_LOGDIR", "/var/log/urad")
	path := writeConfig(t, "urad.yaml", `
log:
  file: ${URAD_TEST_LOGDIR}/ingester.log
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.File != "/var/log/urad/ingester.log" {
		t.Errorf("Log.File = %q", cfg.Log.File)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("URAD_TEST_SET", "value")

	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"${URAD_TEST_SET}/x", "value/x"},
		{"${URAD_TEST_UNSET_VARIABLE}/x", "/x"},
		{"${URAD_TEST_UNSET_VARIABLE:-fallback}/x", "fallback/x"},
		{"${URAD_TEST_SET:-fallback}", "value"},
	}
	for _, tt := range tests {
		if got := expandVars(tt.input); got != tt.want {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing url", func(c *Config) { c.Device.URL = "" }, "device.url is required"},
		{"bad scheme", func(c *Config) { c.Device.URL = "ftp://host/j" }, "must be http or https"},
		{"no host", func(c *Config) { c.Device.URL = "http:///j" }, "has no host"},
		{"bad timeout", func(c *Config) { c.Device.Timeout = "soon" }, "device.timeout"},
		{"zero timeout", func(c *Config) { c.Device.Timeout = "0s" }, "device.timeout must be positive"},
		{"zero interval", func(c *Config) { c.Poll.Interval = "0s" }, "poll.interval must be positive"},
		{"negative interval", func(c *Config) { c.Poll.Interval = "-1s" }, "poll.interval must be positive"},
		{"bad listen", func(c *Config) { c.HTTP.Listen = "8753" }, "http.listen"},
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }, "log.level"},
		{"bad broker", func(c *Config) { c.Forward.Broker = "mqtt" }, "forward.broker"},
		{"bad qos", func(c *Config) {
			c.Forward.Broker = "tcp://localhost:1883"
			c.Forward.QoS = 3
		}, "forward.qos"},
		{"empty topic", func(c *Config) {
			c.Forward.Broker = "tcp://localhost:1883"
			c.Forward.Topic = ""
		}, "forward.topic is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Device.URL = ""
	cfg.Poll.Interval = "never"
	cfg.HTTP.Listen = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() succeeded")
	}
	for _, field := range []string{"device.url", "poll.interval", "http.listen"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel accepted an unknown level")
	}
}
