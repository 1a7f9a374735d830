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
	"knoway.dev/pkg/types/openai"
)

// handleEmbeddings has no streaming branch: embeddings aren't an
// OpenAI-streamable operation, so every request folds the engine's single
// response item directly (spec §1 scope).
func (l *Listener) handleEmbeddings(writer http.ResponseWriter, request *http.Request) (any, error) {
	var req openaiapi.EmbeddingRequest
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		return nil, &object.HttpError{Status: http.StatusBadRequest, Message: "invalid request body: " + err.Error()}
	}

	model := string(req.Model)

	rMeta := metadata.RequestMetadataFromCtx(request.Context())
	rMeta.RequestModel = model

	if model == "" {
		return nil, object.NewErrorMissingModel()
	}

	handleOpt := l.cfg.Registry.EmbeddingsEngine(model)
	if handleOpt.IsAbsent() {
		return nil, object.NewErrorModelNotFound(model)
	}

	guard := l.newGuard(model, metrics.EndpointEmbeddings, false)
	defer guard.Release()

	rc := reqctx.New(request.Context(), l.correlationID(request), req)
	rMeta.CorrelationID = rc.CorrelationID()

	stream, err := handleOpt.MustGet().Generate(rc)
	if err != nil {
		return nil, object.LLMErrorOrInternalError("Failed to generate embeddings", err)
	}

	resp, err := openai.FoldEmbeddings(rc.Context(), stream)
	if err != nil {
		slog.Error("failed to fold embeddings stream", "correlation_id", rc.CorrelationID(), "error", err)

		return nil, &object.HttpError{Status: http.StatusInternalServerError, Message: "Failed to fold embeddings stream"}
	}

	guard.MarkOK()
	rMeta.ResponseModel = string(resp.Model)

	return resp, nil
}
