// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so individual tests never call time.After themselves. They
// are the only place tests wait on the wall clock; everything else is
// driven by the fake clock in lib/clock.
//
// [DiscardLogger] returns a slog.Logger that drops every record, for
// components whose log output is not under test.
//
// All helpers call t.Fatalf on failure, since test setup failures are
// not recoverable.
package testutil
