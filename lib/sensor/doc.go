// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package sensor fetches readings from a uRADMonitor device's local
// JSON endpoint.
//
// The device answers GET /j with
//
//	{"data": {"temperature": 21.5, "humidity": 40, "voc": 120, "co2": 415,
//	          "ch2o": 3, "o3": 0.02, "pm1": 4, "pm25": 6.5, "pm10": 9,
//	          "noise": 38.2, ...}}
//
// Every one of the ten fields above must be present with a numeric
// value of the right kind; anything else the device adds (uptime,
// firmware version, ...) is ignored.
//
// Fetch performs exactly one request. Retrying is the caller's concern:
// the poller simply tries again on its next cycle.
package sensor
