/*
Package proxy implements the OpenAI-compatible request path in front of the
GitHub Models inference API.

# Architecture Overview

The package follows a layered structure:

 1. HTTP Handlers (handlers.go)
    - Provide the /v1/chat/completions and /v1/models endpoints
    - Validate incoming bodies and convert errors to OpenAI error envelopes
    - Relay buffered and streamed upstream responses to the caller

 2. Service Layer (service.go)
    - Builds and issues the authenticated upstream request
    - Owns the HTTP clients (bounded timeout for buffered calls, caller
      context for streaming calls)

 3. Model Mapping (modelmap.go)
    - Static translation from client model ids to upstream model ids
    - Total: unknown ids resolve to the configured default model

 4. Truncation (truncate.go)
    - Applies the per-request size policy: system-prompt cap, history
      window, and tool-list cap
    - Only engages when the estimated request size exceeds the total budget

 5. Streaming Relay (stream.go)
    - Reads upstream server-sent events on a background goroutine
    - Forwards chunks through a bounded channel in arrival order
    - Terminates with the [DONE] sentinel and aborts the upstream read when
      the caller disconnects

 6. Configuration (config.go)
    - Loads the immutable process-wide Config from the environment once at
      startup; handlers receive it explicitly instead of reading globals

# Request Flow

 1. POST /v1/chat/completions arrives with an OpenAI-shaped JSON body
 2. The body is parsed; a missing or empty "messages" array is rejected
 3. The model id is resolved through the mapping table
 4. The truncation policy trims the system prompt, history, and tool list
    when the estimated size exceeds the budget, logging a notice per rule
 5. The rewritten body is forwarded with the GITHUB_TOKEN bearer credential
 6. The response is either buffered and returned as a single completion
    object, or relayed chunk by chunk as server-sent events

# Error Handling

Client errors (bad JSON, missing messages) return 4xx with an OpenAI error
envelope. Upstream errors pass through with the provider's own status code
and body so clients see exactly what the provider said. Transport failures
return 502 with a generic message. Nothing is retried; propagation is always
immediate.
*/
package proxy
