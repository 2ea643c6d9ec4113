// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the collector's CBOR encoding configuration.
//
// JSON is the default representation of the history endpoint. Clients
// that send "Accept: application/cbor" get the same data encoded with
// Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items. The same
// history therefore always produces identical bytes, which keeps the
// endpoint's ETag stable across requests.
//
// Types carry `json` struct tags only; fxamacker/cbor falls back to
// them, so one set of tags drives both encodings. Embedded structs are
// flattened by both encoders in the same way.
package codec
