// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/zeebo/blake3"

	"github.com/uradlab/urad-ingester/lib/codec"
	"github.com/uradlab/urad-ingester/lib/netutil"
	"github.com/uradlab/urad-ingester/lib/reading"
)

// RequestIDHeader carries the per-request identifier. A client-supplied
// value is kept; otherwise a UUID is generated.
const RequestIDHeader = "X-Request-Id"

// Snapshotter is the read side of the history store.
type Snapshotter interface {
	Snapshot() []reading.Entry
}

// HandlerConfig configures the history handler.
type HandlerConfig struct {
	// Store supplies history snapshots. Required.
	Store Snapshotter

	// AllowedOrigins enables CORS for browser dashboards served from
	// these origins. Empty disables CORS headers entirely.
	AllowedOrigins []string

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

type historyHandler struct {
	store  Snapshotter
	logger *slog.Logger
}

// NewHandler returns the complete HTTP handler: routing plus the
// middleware chain (request IDs, access logging, CORS, compression,
// panic recovery).
func NewHandler(config HandlerConfig) http.Handler {
	if config.Store == nil {
		panic("api.NewHandler: Store is required")
	}
	if config.Logger == nil {
		panic("api.NewHandler: Logger is required")
	}

	h := &historyHandler{store: config.Store, logger: config.Logger}

	router := mux.NewRouter()
	router.HandleFunc("/", h.serveHistory).Methods(http.MethodGet, http.MethodHead)

	var handler http.Handler = router
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{config.Logger}),
		handlers.PrintRecoveryStack(false),
	)(handler)
	handler = gzhttp.GzipHandler(handler)
	if len(config.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: config.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
			ExposedHeaders: []string{"ETag", RequestIDHeader},
		}).Handler(handler)
	}
	handler = handlers.CustomLoggingHandler(io.Discard, handler, accessLogFormatter(config.Logger))
	handler = withRequestID(handler)
	return handler
}

func (h *historyHandler) serveHistory(writer http.ResponseWriter, request *http.Request) {
	entries := h.store.Snapshot()

	contentType := "application/json"
	var body []byte
	var err error
	if prefersCBOR(request.Header.Get("Accept")) {
		contentType = codec.ContentType
		body, err = codec.Marshal(entries)
	} else {
		body, err = json.Marshal(entries)
	}
	if err != nil {
		h.logger.Error("encoding history failed",
			"error", err,
			"entries", len(entries),
			"content_type", contentType,
			"request_id", request.Header.Get(RequestIDHeader),
		)
		http.Error(writer, "encoding history failed", http.StatusInternalServerError)
		return
	}

	tag := entityTag(body)
	header := writer.Header()
	header.Set("ETag", tag)
	header.Set("Cache-Control", "no-cache")
	header.Add("Vary", "Accept")

	if etagMatches(request.Header.Get("If-None-Match"), tag) {
		writer.WriteHeader(http.StatusNotModified)
		return
	}

	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.Itoa(len(body)))
	writer.WriteHeader(http.StatusOK)
	if request.Method == http.MethodHead {
		return
	}
	if _, err := writer.Write(body); err != nil {
		if netutil.IsExpectedCloseError(err) {
			h.logger.Debug("client went away during history response", "error", err)
			return
		}
		h.logger.Warn("writing history response failed", "error", err)
	}
}

// prefersCBOR reports whether the Accept header asks for CBOR ahead of
// JSON. Media types are taken in listed order; quality values are not
// weighed.
func prefersCBOR(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case codec.ContentType:
			return true
		case "application/json", "application/*", "*/*":
			return false
		}
	}
	return false
}

// entityTag is a weak validator over the encoded body. Weak because
// gzip may re-encode the bytes on the wire.
func entityTag(body []byte) string {
	sum := blake3.Sum256(body)
	return `W/"` + hex.EncodeToString(sum[:16]) + `"`
}

// etagMatches implements the weak comparison of If-None-Match.
func etagMatches(ifNoneMatch, tag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	opaque := strings.TrimPrefix(tag, "W/")
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == opaque {
			return true
		}
	}
	return false
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		id := request.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			request.Header.Set(RequestIDHeader, id)
		}
		writer.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(writer, request)
	})
}

func accessLogFormatter(logger *slog.Logger) handlers.LogFormatter {
	return func(_ io.Writer, params handlers.LogFormatterParams) {
		logger.Debug("http request",
			"request_id", params.Request.Header.Get(RequestIDHeader),
			"method", params.Request.Method,
			"path", params.URL.Path,
			"remote", params.Request.RemoteAddr,
			"status", params.StatusCode,
			"bytes", params.Size,
		)
	}
}

// recoveryLogger adapts slog to the gorilla recovery handler.
type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(values ...any) {
	l.logger.Error("panic while serving request", "panic", fmt.Sprint(values...))
}
