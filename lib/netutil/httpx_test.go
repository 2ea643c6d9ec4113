// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"
)

func TestReadResponse(t *testing.T) {
	t.Run("normal body", func(t *testing.T) {
		data, err := ReadResponse(bytes.NewReader([]byte(`{"data":{}}`)), 64)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"data":{}}` {
			t.Fatalf("got %q, want %q", data, `{"data":{}}`)
		}
	})

	t.Run("exactly at limit", func(t *testing.T) {
		data, err := ReadResponse(strings.NewReader(strings.Repeat("x", 16)), 16)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != 16 {
			t.Fatalf("got %d bytes, want 16", len(data))
		}
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := ReadResponse(strings.NewReader(strings.Repeat("x", 17)), 16)
		if !errors.Is(err, ErrResponseTooLarge) {
			t.Fatalf("error = %v, want ErrResponseTooLarge", err)
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		_, err := ReadResponse(&failReader{}, 64)
		if err == nil {
			t.Fatal("expected error from failing reader")
		}
	})
}

func TestDecodeResponse(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		var result struct {
			Data struct {
				Temperature float64 `json:"temperature"`
			} `json:"data"`
		}
		body := strings.NewReader(`{"data":{"temperature":21.5}}`)
		if err := DecodeResponse(body, DeviceResponseLimit, &result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Data.Temperature != 21.5 {
			t.Fatalf("temperature = %v, want 21.5", result.Data.Temperature)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		var result map[string]any
		if err := DecodeResponse(strings.NewReader(`{not json`), DeviceResponseLimit, &result); err == nil {
			t.Fatal("expected error for invalid JSON")
		}
	})

	t.Run("truncated by limit", func(t *testing.T) {
		var result map[string]any
		err := DecodeResponse(strings.NewReader(`{"data":{"temperature":21.5}}`), 8, &result)
		if !errors.Is(err, ErrResponseTooLarge) {
			t.Fatalf("error = %v, want ErrResponseTooLarge", err)
		}
	})
}

func TestErrorBody(t *testing.T) {
	if got := ErrorBody(strings.NewReader("device busy")); got != "device busy" {
		t.Errorf("ErrorBody = %q, want %q", got, "device busy")
	}
	long := strings.Repeat("e", 4096)
	if got := ErrorBody(strings.NewReader(long)); len(got) != int(errorBodyLimit) {
		t.Errorf("ErrorBody length = %d, want %d", len(got), errorBodyLimit)
	}
	if got := ErrorBody(&failReader{}); got != "" {
		t.Errorf("ErrorBody on failing reader = %q, want empty", got)
	}
}

func TestIsExpectedCloseError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"closed", net.ErrClosed, true},
		{"broken pipe", &net.OpError{Op: "write", Err: syscall.EPIPE}, true},
		{"reset", fmt.Errorf("writing body: %w", syscall.ECONNRESET), true},
		{"refused", syscall.ECONNREFUSED, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExpectedCloseError(tt.err); got != tt.want {
				t.Errorf("IsExpectedCloseError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type failReader struct{}

func (*failReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}
