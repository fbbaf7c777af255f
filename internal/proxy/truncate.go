package proxy

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github-models-proxy/pkg/tokencount"
	"github-models-proxy/pkg/utils"
)

// truncationMarker is appended to a system prompt that was cut down to fit
// the upstream token budget, so the model (and anyone reading the forwarded
// request) can see that content is missing.
const truncationMarker = "\n\n[System prompt truncated for token limits]"

// messageOverheadTokens accounts for the role and metadata framing around
// each message.
const messageOverheadTokens = 10

// TruncationPolicy bounds the size of a forwarded request. It is part of the
// immutable process configuration; Apply only ever mutates the per-request
// payload it is given. A zero or negative limit disables that rule.
type TruncationPolicy struct {
	// MaxRequestTokens is the total estimated budget for messages plus
	// tools. Requests under the budget pass through byte-for-byte; the
	// remaining rules only engage above it.
	MaxRequestTokens int
	// MaxSystemPromptTokens caps the leading system message.
	MaxSystemPromptTokens int
	// MaxHistoryMessages caps the number of non-system messages retained.
	MaxHistoryMessages int
	// MaxTools caps the tool list length.
	MaxTools int
}

// DefaultTruncationPolicy returns the limits the upstream free tier is known
// to tolerate.
func DefaultTruncationPolicy() TruncationPolicy {
	return TruncationPolicy{
		MaxRequestTokens:      6000,
		MaxSystemPromptTokens: 3000,
		MaxHistoryMessages:    5,
		MaxTools:              10,
	}
}

// PolicyFromEnv builds the truncation policy from the environment, falling
// back to the defaults for unset or unparsable values.
func PolicyFromEnv() TruncationPolicy {
	def := DefaultTruncationPolicy()
	return TruncationPolicy{
		MaxRequestTokens:      utils.GetEnvIntWithDefault("MAX_REQUEST_TOKENS", def.MaxRequestTokens),
		MaxSystemPromptTokens: utils.GetEnvIntWithDefault("MAX_SYSTEM_PROMPT_TOKENS", def.MaxSystemPromptTokens),
		MaxHistoryMessages:    utils.GetEnvIntWithDefault("MAX_HISTORY_MESSAGES", def.MaxHistoryMessages),
		MaxTools:              utils.GetEnvIntWithDefault("MAX_TOOLS", def.MaxTools),
	}
}

// Apply enforces the policy on a decoded request body. The payload map is
// owned by the current request, so mutating it in place is safe. It returns
// a human-readable notice for every rule that fired; an empty result means
// the request passed through untouched.
func (p TruncationPolicy) Apply(payload map[string]interface{}, est tokencount.Estimator) []string {
	if p.MaxRequestTokens <= 0 {
		return nil
	}
	if est == nil {
		est = tokencount.CharEstimator{}
	}

	messages, _ := payload["messages"].([]interface{})
	tools, _ := payload["tools"].([]interface{})

	msgTokens := 0
	for _, m := range messages {
		msgTokens += est.Estimate(messageText(m)) + messageOverheadTokens
	}
	toolTokens := 0
	for _, t := range tools {
		toolTokens += est.Estimate(jsonText(t))
	}
	if msgTokens+toolTokens <= p.MaxRequestTokens {
		return nil
	}

	var notices []string

	if p.MaxSystemPromptTokens > 0 && len(messages) > 0 {
		if first, ok := messages[0].(map[string]interface{}); ok && first["role"] == "system" {
			if content, ok := first["content"].(string); ok {
				if got := est.Estimate(content); got > p.MaxSystemPromptTokens {
					limit := p.MaxSystemPromptTokens * tokencount.CharsPerToken
					first["content"] = truncateString(content, limit) + truncationMarker
					notices = append(notices,
						fmt.Sprintf("system prompt cut from ~%d to ~%d tokens", got, p.MaxSystemPromptTokens))
				}
			}
		}
	}

	if p.MaxHistoryMessages > 0 {
		nonSystem := 0
		for _, m := range messages {
			if !isSystemMessage(m) {
				nonSystem++
			}
		}
		if nonSystem > p.MaxHistoryMessages {
			kept := make([]interface{}, 0, len(messages))
			for _, m := range messages {
				if isSystemMessage(m) {
					kept = append(kept, m)
				}
			}
			// Walk backwards to find the most recent non-system messages,
			// then restore their original relative order.
			recent := make([]interface{}, 0, p.MaxHistoryMessages)
			for i := len(messages) - 1; i >= 0 && len(recent) < p.MaxHistoryMessages; i-- {
				if !isSystemMessage(messages[i]) {
					recent = append(recent, messages[i])
				}
			}
			for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
				recent[i], recent[j] = recent[j], recent[i]
			}
			kept = append(kept, recent...)
			payload["messages"] = kept
			notices = append(notices,
				fmt.Sprintf("history cut from %d to %d messages", len(messages), len(kept)))
		}
	}

	if p.MaxTools > 0 && len(tools) > p.MaxTools {
		payload["tools"] = tools[:p.MaxTools]
		notices = append(notices,
			fmt.Sprintf("tool list cut from %d to %d entries", len(tools), p.MaxTools))
	}

	return notices
}

// truncateString cuts s to at most limit bytes without splitting a
// multi-byte rune.
func truncateString(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut
}

func isSystemMessage(m interface{}) bool {
	msg, ok := m.(map[string]interface{})
	return ok && msg["role"] == "system"
}

// messageText extracts the text used for size estimation. String content is
// used directly; structured content parts are estimated from their JSON form.
func messageText(m interface{}) string {
	msg, ok := m.(map[string]interface{})
	if !ok {
		return ""
	}
	if s, ok := msg["content"].(string); ok {
		return s
	}
	return jsonText(msg["content"])
}

func jsonText(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
