package openai

import (
	openaiapi "github.com/sashabaranov/go-openai"
)

// RequestTemplate carries the defaults applied to a chat-completions
// request before dispatch (spec §4.5 step 3). Only the three named fields
// are ever copied; everything else the client sent is left untouched.
type RequestTemplate struct {
	Model               string
	Temperature         float32
	MaxCompletionTokens int
}

// ApplyTemplate fills model, temperature, and max_completion_tokens from
// tmpl wherever the request left them unset (empty string, zero value). A
// nil tmpl is a no-op.
func ApplyTemplate(req *openaiapi.ChatCompletionRequest, tmpl *RequestTemplate) {
	if tmpl == nil {
		return
	}

	if req.Model == "" {
		req.Model = tmpl.Model
	}

	if req.Temperature == 0 {
		req.Temperature = tmpl.Temperature
	}

	if req.MaxCompletionTokens == 0 {
		req.MaxCompletionTokens = tmpl.MaxCompletionTokens
	}
}
