package proxy

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github-models-proxy/pkg/models"
)

// ServerState wires the forwarding service into HTTP handlers.
type ServerState struct {
	Service *Service
}

// NewServerState creates the handler state for the given configuration.
func NewServerState(cfg *Config) *ServerState {
	return &ServerState{Service: NewService(cfg)}
}

// RegisterHandlers registers the OpenAI-compatible endpoints with a router.
func (s *ServerState) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/v1/chat/completions", s.HandleChatCompletions)
	mux.HandleFunc("/v1/models", s.HandleListModels)
}

// HandleChatCompletions handles POST /v1/chat/completions. It validates the
// incoming OpenAI-shaped body, applies model mapping and truncation, forwards
// the request upstream, and relays the response back buffered or streamed.
func (s *ServerState) HandleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		setCORSHeaders(w)
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error")
		return
	}

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "error reading request body", "invalid_request_error")
		return
	}
	r.Body.Close()

	var payload map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), "invalid_request_error")
		return
	}

	messages, ok := payload["messages"].([]interface{})
	if !ok || len(messages) == 0 {
		writeError(w, http.StatusBadRequest, "'messages' must be a non-empty array", "invalid_request_error")
		return
	}

	cfg := s.Service.Config()
	requested, _ := payload["model"].(string)
	upstreamModel := cfg.ModelMap.Resolve(requested)
	payload["model"] = upstreamModel
	if requested == "" {
		requested = upstreamModel
	}

	// The upstream endpoint rejects parameters it does not recognize.
	delete(payload, "store")

	stream, _ := payload["stream"].(bool)
	log.Printf("Model: %s -> %s, stream: %v, messages: %d", requested, upstreamModel, stream, len(messages))

	for _, notice := range cfg.Policy.Apply(payload, cfg.Estimator) {
		log.Printf("Truncated request: %s", notice)
	}

	resp, err := s.Service.Forward(r.Context(), payload, stream)
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream request failed", "api_error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		relayUpstreamError(w, resp)
		return
	}

	if stream {
		s.relayStream(r.Context(), w, resp.Body, requested)
		return
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		writeError(w, http.StatusBadGateway, "error reading upstream response", "api_error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(rewriteResponseModel(respBody, requested))
}

// HandleListModels handles GET /v1/models with a static OpenAI-shaped list
// of the upstream models the mapping can resolve to.
func (s *ServerState) HandleListModels(w http.ResponseWriter, r *http.Request) {
	list := models.ModelList{Object: "list"}
	for _, id := range s.Service.Config().ModelMap.UpstreamModels() {
		list.Data = append(list.Data, models.ModelInfo{ID: id, Object: "model", OwnedBy: "github"})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// relayUpstreamError passes a non-2xx upstream response through unchanged so
// the caller sees the provider's own status code and error body.
func relayUpstreamError(w http.ResponseWriter, resp *http.Response) {
	body, _ := io.ReadAll(resp.Body)

	snippet := body
	if len(snippet) > 500 {
		snippet = snippet[:500]
	}
	log.Printf("Upstream error %d: %s", resp.StatusCode, snippet)

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}

// rewriteResponseModel sets the model field of a buffered completion back to
// the id the client asked for, so the response matches the request. Bodies
// that fail to parse are returned unchanged.
func rewriteResponseModel(body []byte, model string) []byte {
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return body
	}
	if _, ok := parsed["model"]; !ok {
		return body
	}
	parsed["model"] = model
	out, err := json.Marshal(parsed)
	if err != nil {
		return body
	}
	return out
}

// writeError writes an OpenAI-style error envelope with the given status.
func writeError(w http.ResponseWriter, status int, message, errType string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: models.ErrorDetail{
		Message: message,
		Type:    errType,
		Code:    status,
	}})
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
}
