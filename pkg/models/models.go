// Package models defines the OpenAI-compatible wire types shared between the
// proxy handlers, the streaming relay, and the command-line tools.
package models

import "encoding/json"

// ErrorDetail is the inner object of an OpenAI-style error response.
type ErrorDetail struct {
	// Message is a human-readable description of the error
	Message string `json:"message"`
	// Type classifies the error (e.g., "invalid_request_error", "api_error")
	Type string `json:"type"`
	// Param names the offending request parameter, if any
	Param *string `json:"param"`
	// Code is the machine-readable error code; OpenAI uses both strings and
	// numbers here, so the field is left untyped
	Code interface{} `json:"code"`
}

// ErrorResponse is the envelope the proxy returns for every error it
// generates itself. Upstream error bodies are passed through unchanged.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ChunkDelta is the incremental message fragment inside a streaming choice.
type ChunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ChunkChoice is a single choice entry in a streaming chunk. It is only used
// when the proxy has to synthesize a chunk itself (e.g., to report a stream
// error); relayed chunks keep the upstream choices verbatim.
type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

// ChatCompletionChunk is the OpenAI streaming chunk shape the proxy emits.
// Choices and Usage are raw JSON so upstream content passes through without
// re-interpretation.
type ChatCompletionChunk struct {
	ID      string          `json:"id"`
	Object  string          `json:"object"`
	Created int64           `json:"created"`
	Model   string          `json:"model"`
	Choices json.RawMessage `json:"choices"`
	Usage   json.RawMessage `json:"usage,omitempty"`
}

// ModelInfo describes one entry in the /v1/models listing.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the OpenAI-shaped response of the /v1/models endpoint.
type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}
