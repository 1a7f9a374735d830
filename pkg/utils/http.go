package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WriteJSONForHTTP writes status and body as a JSON response, setting
// Content-Type accordingly. Encoding failures are logged, not returned,
// since the status line has already been committed by the time they
// would surface.
func WriteJSONForHTTP(status int, body any, writer http.ResponseWriter) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	if err := json.NewEncoder(writer).Encode(body); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// WriteEventStreamHeadersForHTTP sets the headers required for an SSE
// response and writes the 200 status line, flushing immediately so the
// client sees headers before the first event is produced.
func WriteEventStreamHeadersForHTTP(writer http.ResponseWriter) {
	header := writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	writer.WriteHeader(http.StatusOK)

	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}
