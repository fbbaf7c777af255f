package proxy

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// DefaultUpstreamModel is the documented fallback for client model ids that
// have no mapping: the flagship general-purpose model on GitHub Models.
const DefaultUpstreamModel = "gpt-4o"

// ModelMap is the static translation table from client-supplied model ids to
// the ids the GitHub Models endpoint accepts. Resolution is a total function:
// ids with no mapping fall back to the default model instead of failing, so
// the proxy degrades gracefully with unfamiliar client configurations.
type ModelMap struct {
	entries      map[string]string
	defaultModel string
}

// NewModelMap builds a ModelMap from the given entries. The entries map is
// copied so the ModelMap stays read-only after construction. An empty
// defaultModel falls back to DefaultUpstreamModel.
func NewModelMap(entries map[string]string, defaultModel string) ModelMap {
	if defaultModel == "" {
		defaultModel = DefaultUpstreamModel
	}
	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return ModelMap{entries: copied, defaultModel: defaultModel}
}

// DefaultModelEntries returns the built-in client-to-upstream translations.
// Client ids follow the names OpenAI and OpenRouter clients commonly send;
// values are ids the GitHub Models catalog serves.
func DefaultModelEntries() map[string]string {
	return map[string]string{
		"gpt-4":             "gpt-4o",
		"gpt-4-turbo":       "gpt-4o",
		"gpt-4o":            "gpt-4o",
		"gpt-4o-mini":       "gpt-4o-mini",
		"gpt-3.5-turbo":     "gpt-4o-mini",
		"o1":                "o1",
		"o1-mini":           "o1-mini",
		"o1-preview":        "o1-preview",
		"claude-3-opus":     "claude-3-opus",
		"claude-3-sonnet":   "claude-3-sonnet",
		"claude-3-haiku":    "claude-3-haiku",
		"claude-3.5-sonnet": "claude-3-5-sonnet",
		"claude-3-5-sonnet": "claude-3-5-sonnet",
		"llama-3":           "meta-llama-3-70b-instruct",
		"llama-3-70b":       "meta-llama-3-70b-instruct",
		"llama-3.1-405b":    "meta-llama-3.1-405b-instruct",
		"mistral-large":     "mistral-large",
		"mistral-small":     "mistral-small",
		"command-r":         "cohere-command-r",
		"command-r-plus":    "cohere-command-r-plus",
	}
}

// Resolve translates a client model id to an upstream id. Resolution order:
// exact match, then case-insensitive substring match in either direction
// (so ids like "openai/gpt-4o" or "gpt-4o-2024-05-13" still land on the
// right model), then the default. Resolve never fails.
func (m ModelMap) Resolve(requested string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return m.defaultModel
	}

	if mapped, ok := m.entries[requested]; ok {
		return mapped
	}

	lower := strings.ToLower(requested)
	var bestKey string
	for key := range m.entries {
		keyLower := strings.ToLower(key)
		if !strings.Contains(lower, keyLower) && !strings.Contains(keyLower, lower) {
			continue
		}
		// Prefer the longest key so "gpt-4o-mini" wins over "gpt-4o";
		// tie-break lexicographically to keep resolution deterministic.
		if len(key) > len(bestKey) || (len(key) == len(bestKey) && key < bestKey) {
			bestKey = key
		}
	}
	if bestKey != "" {
		return m.entries[bestKey]
	}

	return m.defaultModel
}

// Default returns the fallback upstream model id.
func (m ModelMap) Default() string {
	return m.defaultModel
}

// UpstreamModels returns the distinct upstream model ids the map can resolve
// to, sorted, always including the default. Used by the /v1/models listing.
func (m ModelMap) UpstreamModels() []string {
	seen := map[string]bool{m.defaultModel: true}
	out := []string{m.defaultModel}
	for _, v := range m.entries {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// LoadModelMapFile reads additional client-to-upstream translations from a
// JSON file holding a single flat object of id pairs. The file is read once
// at startup and merged over the built-in entries.
func LoadModelMapFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
