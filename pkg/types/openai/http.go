// Package openai adapts the gateway's internal engine/SSE/metrics types to
// the OpenAI-compatible wire format: request parsing, template application,
// non-streaming response folding, and error-body encoding.
package openai

import (
	"errors"
	"log/slog"
	"net/http"

	"knoway.dev/pkg/metadata"
	"knoway.dev/pkg/object"
	"knoway.dev/pkg/utils"
)

// SkipStreamResponse is returned by a streaming endpoint handler to signal
// that the response was already written directly to the ResponseWriter (by
// the disconnect monitor), so ResponseHandler must not attempt to encode
// anything further.
var SkipStreamResponse = errors.New("skip writing stream response") //nolint:errname,stylecheck

// ResponseHandler is the terminal WithResponseHandler callback: it encodes
// the handler's (resp, err) outcome onto writer per spec §6/§7.
func ResponseHandler() func(resp any, err error, writer http.ResponseWriter, request *http.Request) {
	return func(resp any, err error, writer http.ResponseWriter, request *http.Request) {
		rMeta := metadata.RequestMetadataFromCtx(request.Context())

		if err == nil {
			if resp == nil {
				return
			}

			rMeta.StatusCode = http.StatusOK
			utils.WriteJSONForHTTP(http.StatusOK, resp, writer)

			return
		}

		if errors.Is(err, SkipStreamResponse) {
			// The disconnect monitor already wrote the SSE body and headers.
			rMeta.StatusCode = http.StatusOK

			return
		}

		llmErr := object.LLMErrorOrInternalError("", err)
		status := object.AsHttpStatus(llmErr.GetStatus())

		if status >= http.StatusInternalServerError {
			slog.Error("failed to handle request", "correlation_id", rMeta.CorrelationID, "error", err)
		}

		rMeta.StatusCode = status
		rMeta.ErrorMessage = llmErr.GetMessage()

		utils.WriteJSONForHTTP(status, &object.HttpError{Status: status, Message: llmErr.GetMessage()}, writer)
	}
}
