// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/uradlab/urad-ingester/lib/config"
	"github.com/uradlab/urad-ingester/lib/lifecycle"
	"github.com/uradlab/urad-ingester/lib/process"
	"github.com/uradlab/urad-ingester/lib/version"
)

const (
	binaryName  = "urad-ingester"
	serviceName = "urad_ingester"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

// options are the parsed command line.
type options struct {
	flags *pflag.FlagSet

	configPath   string
	deviceURL    string
	listen       string
	pollInterval time.Duration
	fetchTimeout time.Duration
	logLevel     string
	logFile      string
	showVersion  bool
}

func parseOptions(args []string, output io.Writer) (*options, error) {
	opts := &options{}
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVar(&opts.configPath, "config", "", "path to a YAML or JSONC config file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&opts.deviceURL, "device-url", "", "sensor JSON endpoint, overrides device.url")
	flagSet.StringVar(&opts.listen, "listen", "", "HTTP listen address, overrides http.listen")
	flagSet.DurationVar(&opts.pollInterval, "poll-interval", 0, "wait between fetches, overrides poll.interval")
	flagSet.DurationVar(&opts.fetchTimeout, "fetch-timeout", 0, "per-fetch timeout, overrides device.timeout")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error, overrides log.level")
	flagSet.StringVar(&opts.logFile, "log-file", "", "append logs to this file instead of stderr, overrides log.file")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [flags]\n       %s install|remove [flags]   (Windows only)\n\nFlags:\n", binaryName, binaryName)
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	opts.flags = flagSet
	return opts, nil
}

// loadConfig reads the config file, if any, and applies flag
// overrides on top.
func loadConfig(opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = os.Getenv(config.EnvVar)
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.flags.Changed("device-url") {
		cfg.Device.URL = opts.deviceURL
	}
	if opts.flags.Changed("listen") {
		cfg.HTTP.Listen = opts.listen
	}
	if opts.flags.Changed("poll-interval") {
		cfg.Poll.Interval = opts.pollInterval.String()
	}
	if opts.flags.Changed("fetch-timeout") {
		cfg.Device.Timeout = opts.fetchTimeout.String()
	}
	if opts.flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if opts.flags.Changed("log-file") {
		cfg.Log.File = opts.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// serviceArgs reproduces the explicitly set flags, for storing as the
// service's start arguments.
func (o *options) serviceArgs() []string {
	var args []string
	o.flags.Visit(func(flag *pflag.Flag) {
		if flag.Name == "version" {
			return
		}
		args = append(args, "--"+flag.Name+"="+flag.Value.String())
	})
	return args
}

func run(args []string) error {
	opts, err := parseOptions(args, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	if opts.showVersion {
		version.Print(os.Stdout, binaryName)
		return nil
	}

	if rest := opts.flags.Args(); len(rest) > 0 {
		switch rest[0] {
		case "install":
			return installService(opts)
		case "remove":
			return removeService()
		default:
			return fmt.Errorf("unknown command %q (expected install or remove)", rest[0])
		}
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg.Log.File, cfg.LogLevel())
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("urad-ingester starting",
		"version", version.Info(),
		"device", cfg.Device.URL,
		"listen", cfg.HTTP.Listen,
		"poll_interval", cfg.PollInterval(),
		"fetch_timeout", cfg.FetchTimeout(),
		"forward", cfg.Forward.Enabled(),
	)

	asService, err := isWindowsService()
	if err != nil {
		return fmt.Errorf("detecting service mode: %w", err)
	}
	if asService {
		return runService(cfg, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return collect(ctx, cfg, logger, lifecycle.NopReporter{})
}
