// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package reading defines the sensor sample and the timestamped history
// entry that the collector stores and serves.
//
// Entry embeds Reading, so both encoding/json and the CBOR codec
// flatten the reading's fields next to the timestamp:
//
//	{"timestamp":1767225600000,"temperature":21.5,"humidity":40,...}
package reading

import "time"

// Reading is one air-quality sample as reported by the device. Field
// types mirror the device's wire format: gas concentrations reported as
// whole numbers are integers, everything else is floating point.
type Reading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	VOC         int32   `json:"voc"`
	CO2         int32   `json:"co2"`
	CH2O        int32   `json:"ch2o"`
	O3          float64 `json:"o3"`
	PM1         float64 `json:"pm1"`
	PM25        float64 `json:"pm25"`
	PM10        float64 `json:"pm10"`
	Noise       float64 `json:"noise"`
}

// Entry is a Reading paired with the moment it was captured, in
// milliseconds since the Unix epoch.
type Entry struct {
	Timestamp int64 `json:"timestamp"`
	Reading
}

// NewEntry stamps r with captured.
func NewEntry(r Reading, captured time.Time) Entry {
	return Entry{Timestamp: captured.UnixMilli(), Reading: r}
}

// Time returns the capture time as a time.Time in UTC.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}
