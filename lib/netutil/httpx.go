// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O helpers shared by the sensor client
// and the history endpoint.
//
// Response reads are bounded: a device (or anything answering at its
// address) that streams an endless body must not grow the collector's
// memory. DecodeResponse fails instead of truncating so a cut-off body
// is never mistaken for a valid reading.
//
// IsExpectedCloseError classifies write errors caused by a client
// hanging up mid-response, which the endpoint logs quietly.
package netutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DeviceResponseLimit bounds reads of sensor responses. A device
// reading is a few hundred bytes; the limit only exists to stop a
// misbehaving peer.
const DeviceResponseLimit int64 = 1 << 20

// errorBodyLimit bounds how much of an error response is quoted in
// diagnostic messages.
const errorBodyLimit int64 = 512

// ErrResponseTooLarge is returned when a body exceeds its read limit.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// ReadResponse reads body up to limit bytes. Bodies longer than limit
// return ErrResponseTooLarge.
func ReadResponse(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, limit)
	}
	return data, nil
}

// DecodeResponse reads body (bounded by limit) and JSON-decodes it
// into v.
func DecodeResponse(body io.Reader, limit int64, v any) error {
	data, err := ReadResponse(body, limit)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody returns the start of an error response body for use in
// diagnostic messages. Read errors are ignored; a partial body is still
// useful.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, errorBodyLimit))
	return string(data)
}
