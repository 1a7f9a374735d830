package llm

import (
	"encoding/json"
	"log/slog"
	"net/http"

	openaiapi "github.com/sashabaranov/go-openai"

	"knoway.dev/pkg/metadata"
	"knoway.dev/pkg/metrics"
	"knoway.dev/pkg/object"
	"knoway.dev/pkg/reqctx"
	"knoway.dev/pkg/sse"
	"knoway.dev/pkg/types/openai"
)

func (l *Listener) handleCompletions(writer http.ResponseWriter, request *http.Request) (any, error) {
	var req openaiapi.CompletionRequest
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		return nil, &object.HttpError{Status: http.StatusBadRequest, Message: "invalid request body: " + err.Error()}
	}

	clientStreaming := req.Stream
	req.Stream = true

	rMeta := metadata.RequestMetadataFromCtx(request.Context())
	rMeta.RequestModel = req.Model
	rMeta.Streaming = clientStreaming

	if req.Model == "" {
		return nil, object.NewErrorMissingModel()
	}

	handleOpt := l.cfg.Registry.CompletionsEngine(req.Model)
	if handleOpt.IsAbsent() {
		return nil, object.NewErrorModelNotFound(req.Model)
	}

	guard := l.newGuard(req.Model, metrics.EndpointCompletions, clientStreaming)
	collector := metrics.NewResponseMetricCollector(req.Model)

	rc := reqctx.New(request.Context(), l.correlationID(request), req)
	rMeta.CorrelationID = rc.CorrelationID()

	stream, err := handleOpt.MustGet().Generate(rc)
	if err != nil {
		guard.Release()
		return nil, object.LLMErrorOrInternalError("Failed to generate completions", err)
	}

	if !clientStreaming {
		resp, err := openai.FoldCompletions(rc.Context(), stream)
		if err != nil {
			guard.Release()
			slog.Error("failed to fold completions stream", "correlation_id", rc.CorrelationID(), "error", err)

			return nil, &object.HttpError{Status: http.StatusInternalServerError, Message: "Failed to fold completions stream"}
		}

		guard.MarkOK()
		guard.Release()
		rMeta.ResponseModel = resp.Model

		return resp, nil
	}

	convert := func(item sse.AnnotatedItem[openaiapi.CompletionResponse]) (*sse.Event, error) {
		return sse.Convert(item, collector, openai.CompletionsMetric)
	}

	listenerPipeStream(rc, guard, stream, convert, writer, l.cfg.KeepAlive)

	return nil, openai.SkipStreamResponse
}
