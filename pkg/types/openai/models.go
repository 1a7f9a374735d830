package openai

// Model is a single entry of GET /v1/models' data array, matching the
// OpenAI schema's subset the gateway actually populates (spec §4.6).
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelsResponse is the GET /v1/models body.
type ModelsResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// modelOwner mirrors the upstream reference server's convention of a fixed
// owned_by value regardless of which engine actually serves the model.
const modelOwner = "nvidia"

func NewModelsResponse(names []string, createdAt int64) *ModelsResponse {
	data := make([]Model, 0, len(names))

	for _, name := range names {
		data = append(data, Model{
			ID:      name,
			Object:  "object",
			Created: createdAt,
			OwnedBy: modelOwner,
		})
	}

	return &ModelsResponse{Object: "list", Data: data}
}
