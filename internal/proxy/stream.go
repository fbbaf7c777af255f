package proxy

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github-models-proxy/pkg/models"
)

// streamChannelSize bounds the relay channel between the upstream reader and
// the downstream writer. The reader blocks when the client is slow to drain,
// so the proxy never buffers more than this many events.
const streamChannelSize = 16

// maxEventSize is the largest single SSE line accepted from upstream.
const maxEventSize = 1024 * 1024

type streamEvent struct {
	data string
	err  error
}

// readUpstreamEvents scans the upstream SSE body line by line and pushes each
// data payload onto the channel. The channel is closed when the stream ends;
// a read error is delivered as the final event.
func readUpstreamEvents(body io.Reader, events chan<- streamEvent) {
	defer close(events)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		events <- streamEvent{data: strings.TrimSpace(strings.TrimPrefix(line, "data:"))}
	}
	if err := scanner.Err(); err != nil {
		events <- streamEvent{err: err}
	}
}

// relayStream forwards upstream SSE chunks to the caller in arrival order,
// rewrapping each one as a chat.completion.chunk that carries the id the
// proxy assigned and the model the client requested. The relay ends when
// upstream sends [DONE], the upstream body ends, or the caller disconnects;
// the [DONE] sentinel is always the last event written.
func (s *ServerState) relayStream(ctx context.Context, w http.ResponseWriter, body io.ReadCloser, model string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	chunkID := newChunkID()
	created := time.Now().Unix()

	events := make(chan streamEvent, streamChannelSize)
	go readUpstreamEvents(body, events)

	// Closing the body aborts the upstream read, and draining unblocks the
	// reader goroutine on every exit path, including an early [DONE] from an
	// upstream that keeps sending data after the sentinel.
	defer func() {
		body.Close()
		for range events {
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				// Upstream ended without a sentinel; close the downstream
				// stream cleanly anyway.
				writeSSE(w, flusher, "[DONE]")
				return
			}
			if ev.err != nil {
				log.Printf("Stream error: %v", ev.err)
				writeErrorChunk(w, flusher, chunkID, created, model, "stream interrupted")
				writeSSE(w, flusher, "[DONE]")
				return
			}
			if ev.data == "[DONE]" {
				writeSSE(w, flusher, "[DONE]")
				return
			}
			out, ok := rewrapChunk(ev.data, chunkID, created, model)
			if !ok {
				continue
			}
			writeSSE(w, flusher, out)
		}
	}
}

// rewrapChunk rebuilds an upstream chunk as an OpenAI chunk owned by this
// proxy. Chunks that fail to parse or carry no choices are dropped; a usage
// block is forwarded when present.
func rewrapChunk(data, chunkID string, created int64, model string) (string, bool) {
	var parsed struct {
		Choices []json.RawMessage `json:"choices"`
		Usage   json.RawMessage   `json:"usage,omitempty"`
	}
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return "", false
	}
	if len(parsed.Choices) == 0 {
		return "", false
	}

	choices, err := json.Marshal(parsed.Choices)
	if err != nil {
		return "", false
	}
	out, err := json.Marshal(models.ChatCompletionChunk{
		ID:      chunkID,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: choices,
		Usage:   parsed.Usage,
	})
	if err != nil {
		return "", false
	}
	return string(out), true
}

// writeErrorChunk emits a final synthesized chunk describing a mid-stream
// failure, since the HTTP status is already committed by that point.
func writeErrorChunk(w http.ResponseWriter, flusher http.Flusher, chunkID string, created int64, model, message string) {
	choices, err := json.Marshal([]models.ChunkChoice{{
		Index:        0,
		Delta:        models.ChunkDelta{Content: "Error: " + message},
		FinishReason: "stop",
	}})
	if err != nil {
		return
	}
	out, err := json.Marshal(models.ChatCompletionChunk{
		ID:      chunkID,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: choices,
	})
	if err != nil {
		return
	}
	writeSSE(w, flusher, string(out))
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, data string) {
	fmt.Fprintf(w, "data: %s\n\n", data)
	if flusher != nil {
		flusher.Flush()
	}
}

// newChunkID generates a chatcmpl-style identifier for a streamed response.
func newChunkID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "chatcmpl-" + hex[:24]
}
