// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the collector's configuration.
//
// [Default] returns the built-in constants: device URL, fetch timeout,
// poll interval, and listen address. [Load] reads a single file over
// those defaults. The file format follows its extension: .json and
// .jsonc are JSON with comments, anything else is YAML. Command-line
// flags are applied by the binary after loading and take precedence.
//
// Durations are strings in [time.ParseDuration] syntax ("1s", "250ms").
// [Config.Validate] checks every field and reports all problems at
// once; the typed accessors ([Config.FetchTimeout], [Config.PollInterval],
// and so on) assume a validated config.
//
// ${VAR} and ${VAR:-default} patterns are expanded in the log file path,
// so a service config can point at ${ProgramData} or ${HOME}.
package config
