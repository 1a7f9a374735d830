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

func (l *Listener) handleChatCompletions(writer http.ResponseWriter, request *http.Request) (any, error) {
	var req openaiapi.ChatCompletionRequest
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		return nil, &object.HttpError{Status: http.StatusBadRequest, Message: "invalid request body: " + err.Error()}
	}

	openai.ApplyTemplate(&req, l.cfg.ChatTemplate)

	clientStreaming := req.Stream
	req.Stream = true // step 5: always force engine streaming

	rMeta := metadata.RequestMetadataFromCtx(request.Context())
	rMeta.RequestModel = req.Model
	rMeta.Streaming = clientStreaming

	if req.Model == "" {
		return nil, object.NewErrorMissingModel()
	}

	handleOpt := l.cfg.Registry.ChatCompletionsEngine(req.Model)
	if handleOpt.IsAbsent() {
		return nil, object.NewErrorModelNotFound(req.Model)
	}

	guard := l.newGuard(req.Model, metrics.EndpointChatCompletions, clientStreaming)
	collector := metrics.NewResponseMetricCollector(req.Model)

	rc := reqctx.New(request.Context(), l.correlationID(request), req)
	rMeta.CorrelationID = rc.CorrelationID()

	stream, err := handleOpt.MustGet().Generate(rc)
	if err != nil {
		guard.Release()
		return nil, object.LLMErrorOrInternalError("Failed to generate chat completions", err)
	}

	if !clientStreaming {
		resp, err := openai.FoldChatCompletions(rc.Context(), stream)
		if err != nil {
			guard.Release()
			slog.Error("failed to fold chat completions stream", "correlation_id", rc.CorrelationID(), "error", err)

			return nil, &object.HttpError{Status: http.StatusInternalServerError, Message: "Failed to fold chat completions stream"}
		}

		guard.MarkOK()
		guard.Release()
		rMeta.ResponseModel = resp.Model

		return resp, nil
	}

	convert := func(item sse.AnnotatedItem[openaiapi.ChatCompletionStreamResponse]) (*sse.Event, error) {
		return sse.Convert(item, collector, openai.ChatCompletionsMetric)
	}

	listenerPipeStream(rc, guard, stream, convert, writer, l.cfg.KeepAlive)

	return nil, openai.SkipStreamResponse
}
