// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package sensor

import "fmt"

// Kind classifies why a fetch failed.
type Kind int

const (
	// KindConnect means the request could not be sent or the
	// connection failed before a response arrived.
	KindConnect Kind = iota + 1

	// KindTimeout means the total request timeout elapsed.
	KindTimeout

	// KindStatus means the device answered with a non-2xx status.
	KindStatus

	// KindDecode means the body was not the expected JSON shape.
	KindDecode
)

// String returns the kind's lower-case name, used as a log attribute.
func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// FetchError is returned by Client.Fetch for every failure.
type FetchError struct {
	Kind Kind
	URL  string

	// StatusCode is set for KindStatus.
	StatusCode int

	Err error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetching %s: device returned status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
