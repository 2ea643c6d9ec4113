// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds entrypoint helpers for the collector binaries:
// raw stderr error reporting for the window before the structured
// logger exists, and the process exit that follows.
package process
