// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the HTTP listener lifecycle shared by the
// collector and the device mock.
//
// Binding and serving are separate steps. Listen binds the TCP address
// and fails fast, so a port conflict aborts startup before the process
// reports itself running. Serve then accepts connections until its
// context is cancelled and performs a graceful shutdown: stop
// accepting, let in-flight requests finish, bounded by a timeout.
//
// The context handed to Serve is deliberately not the process stop
// signal. The lifecycle coordinator cancels it only after the poller
// has exited, which fixes the shutdown order.
package service
