// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// newLogger builds the process logger. With path set, JSON records are
// appended to that file. Otherwise records go to stderr: text when
// stderr is a terminal, JSON when it is piped or redirected.
func newLogger(path string, level slog.Level) (*slog.Logger, func(), error) {
	if path == "" {
		terminal := term.IsTerminal(int(os.Stderr.Fd()))
		return newHandlerLogger(os.Stderr, terminal, level), func() {}, nil
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return newHandlerLogger(file, false, level), func() { file.Close() }, nil
}

func newHandlerLogger(w io.Writer, text bool, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if text {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}
