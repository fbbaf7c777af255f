package proxy

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github-models-proxy/pkg/tokencount"
	"github-models-proxy/pkg/utils"
)

const (
	// Version identifies this proxy build in the index endpoint and the
	// upstream User-Agent header.
	Version = "1.0.0"

	// DefaultModelsURL is the GitHub Models inference endpoint.
	DefaultModelsURL = "https://models.inference.ai.azure.com"

	// DefaultPort is the TCP port the proxy listens on when PORT is unset.
	DefaultPort = 8000
)

// ErrMissingToken is returned when the required upstream credential is absent
// from the environment.
var ErrMissingToken = errors.New("GITHUB_TOKEN environment variable not set")

// Config holds the process-wide, read-only settings for the proxy. It is
// constructed once by LoadConfig at startup and passed explicitly into the
// service and handlers; nothing mutates it afterwards.
type Config struct {
	// GitHubToken is the upstream bearer credential, read from GITHUB_TOKEN.
	// It is never logged in full; use utils.MaskToken for display.
	GitHubToken string
	// ModelsURL is the base URL of the GitHub Models inference endpoint.
	ModelsURL string
	// DefaultModel is the fallback upstream model for unknown client ids.
	DefaultModel string
	// Port is the TCP port the proxy listens on.
	Port int
	// ModelMap translates client model ids to upstream ids.
	ModelMap ModelMap
	// Policy is the truncation policy applied to every request.
	Policy TruncationPolicy
	// Estimator approximates token counts for the truncation policy.
	Estimator tokencount.Estimator
}

// LoadConfig builds the proxy configuration from the process environment.
//
// Recognized variables:
//   - GITHUB_TOKEN (required): bearer credential for the upstream endpoint
//   - GITHUB_MODELS_URL: upstream base URL (default DefaultModelsURL)
//   - DEFAULT_MODEL: fallback upstream model id (default "gpt-4o")
//   - PORT: listen port (default 8000)
//   - MODEL_MAP_FILE: JSON file of extra model translations, merged over the
//     built-in entries at startup and never reloaded
//   - MAX_REQUEST_TOKENS, MAX_SYSTEM_PROMPT_TOKENS, MAX_HISTORY_MESSAGES,
//     MAX_TOOLS: truncation policy overrides
//   - TOKEN_ESTIMATOR: "chars" (default) or "heuristic"
func LoadConfig() (*Config, error) {
	// Tokens pasted into .env files sometimes keep their quotes.
	token := strings.Trim(os.Getenv("GITHUB_TOKEN"), "'\"")
	if token == "" {
		return nil, ErrMissingToken
	}

	defaultModel := utils.GetEnvWithDefault("DEFAULT_MODEL", DefaultUpstreamModel)

	entries := DefaultModelEntries()
	if path := os.Getenv("MODEL_MAP_FILE"); path != "" {
		fileEntries, err := LoadModelMapFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading model map file: %w", err)
		}
		for k, v := range fileEntries {
			entries[k] = v
		}
		log.Printf("Loaded %d model mapping(s) from %s", len(fileEntries), path)
	}

	return &Config{
		GitHubToken:  token,
		ModelsURL:    strings.TrimRight(utils.GetEnvWithDefault("GITHUB_MODELS_URL", DefaultModelsURL), "/"),
		DefaultModel: defaultModel,
		Port:         utils.GetEnvIntWithDefault("PORT", DefaultPort),
		ModelMap:     NewModelMap(entries, defaultModel),
		Policy:       PolicyFromEnv(),
		Estimator:    tokencount.ForName(os.Getenv("TOKEN_ESTIMATOR")),
	}, nil
}
