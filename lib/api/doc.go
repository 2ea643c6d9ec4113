// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package api serves the collected history over HTTP.
//
// There is exactly one resource:
//
//	GET / → 200, JSON array of entries in chronological order
//
// Each element is a flat object: the capture timestamp (milliseconds
// since the Unix epoch) next to the reading's fields. An empty history
// is "[]". Other methods on "/" get 405, other paths 404.
//
// The same resource is available as deterministic CBOR for clients
// sending "Accept: application/cbor". Responses carry a weak ETag over
// the encoded body so pollers can revalidate with If-None-Match, and
// are gzip-compressed when the client accepts it. CORS headers are
// emitted only for configured origins.
package api
