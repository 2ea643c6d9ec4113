// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package main

import (
	"errors"
	"log/slog"

	"github.com/uradlab/urad-ingester/lib/config"
)

var errServiceUnsupported = errors.New("service management is only available on Windows")

func isWindowsService() (bool, error) {
	return false, nil
}

func runService(*config.Config, *slog.Logger) error {
	return errServiceUnsupported
}

func installService(*options) error {
	return errServiceUnsupported
}

func removeService() error {
	return errServiceUnsupported
}
