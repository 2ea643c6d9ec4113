// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import "fmt"

// State is a coarse lifecycle phase.
type State int

const (
	StartPending State = iota + 1
	Running
	StopPending
	Stopped
)

func (s State) String() string {
	switch s {
	case StartPending:
		return "start-pending"
	case Running:
		return "running"
	case StopPending:
		return "stop-pending"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StatusReporter publishes lifecycle transitions to whatever supervises
// the process.
type StatusReporter interface {
	Report(State) error
}

// NopReporter discards every report.
type NopReporter struct{}

// Report implements StatusReporter.
func (NopReporter) Report(State) error { return nil }
