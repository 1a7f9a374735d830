package llm

import (
	"net/http"
	"time"

	"knoway.dev/pkg/types/openai"
)

func (l *Listener) handleModels(writer http.ResponseWriter, request *http.Request) (any, error) {
	names := l.cfg.Registry.ModelDisplayNames()

	return openai.NewModelsResponse(names, time.Now().Unix()), nil
}
