package proxy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github-models-proxy/pkg/tokencount"
)

func clearProxyEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"GITHUB_TOKEN", "GITHUB_MODELS_URL", "DEFAULT_MODEL", "PORT",
		"MODEL_MAP_FILE", "TOKEN_ESTIMATOR",
		"MAX_REQUEST_TOKENS", "MAX_SYSTEM_PROMPT_TOKENS", "MAX_HISTORY_MESSAGES", "MAX_TOOLS",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadConfigRequiresToken(t *testing.T) {
	clearProxyEnv(t)

	_, err := LoadConfig()
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err = %v, want ErrMissingToken", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearProxyEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_sometoken12345678")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ModelsURL != DefaultModelsURL {
		t.Errorf("ModelsURL = %q", cfg.ModelsURL)
	}
	if cfg.DefaultModel != DefaultUpstreamModel {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.Policy != DefaultTruncationPolicy() {
		t.Errorf("Policy = %+v", cfg.Policy)
	}
	if _, ok := cfg.Estimator.(tokencount.CharEstimator); !ok {
		t.Errorf("default estimator = %T, want CharEstimator", cfg.Estimator)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearProxyEnv(t)
	t.Setenv("GITHUB_TOKEN", "'ghp_quoted1234567890'")
	t.Setenv("GITHUB_MODELS_URL", "https://example.test/inference/")
	t.Setenv("DEFAULT_MODEL", "gpt-4o-mini")
	t.Setenv("PORT", "9100")
	t.Setenv("TOKEN_ESTIMATOR", "heuristic")
	t.Setenv("MAX_HISTORY_MESSAGES", "7")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	// Quotes from .env files are stripped.
	if cfg.GitHubToken != "ghp_quoted1234567890" {
		t.Errorf("GitHubToken = %q", cfg.GitHubToken)
	}
	// Trailing slash is trimmed so URL joins stay clean.
	if cfg.ModelsURL != "https://example.test/inference" {
		t.Errorf("ModelsURL = %q", cfg.ModelsURL)
	}
	if cfg.DefaultModel != "gpt-4o-mini" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.Port != 9100 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if _, ok := cfg.Estimator.(tokencount.HeuristicEstimator); !ok {
		t.Errorf("estimator = %T, want HeuristicEstimator", cfg.Estimator)
	}
	if cfg.Policy.MaxHistoryMessages != 7 {
		t.Errorf("MaxHistoryMessages = %d", cfg.Policy.MaxHistoryMessages)
	}
	if cfg.ModelMap.Default() != "gpt-4o-mini" {
		t.Errorf("ModelMap default = %q", cfg.ModelMap.Default())
	}
}

func TestLoadConfigModelMapFile(t *testing.T) {
	clearProxyEnv(t)
	path := filepath.Join(t.TempDir(), "map.json")
	if err := os.WriteFile(path, []byte(`{"gpt-4": "o1", "my-alias": "gpt-4o-mini"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GITHUB_TOKEN", "ghp_sometoken12345678")
	t.Setenv("MODEL_MAP_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	// File entries override the built-ins and add new aliases.
	if got := cfg.ModelMap.Resolve("gpt-4"); got != "o1" {
		t.Errorf("Resolve(gpt-4) = %q, want file override o1", got)
	}
	if got := cfg.ModelMap.Resolve("my-alias"); got != "gpt-4o-mini" {
		t.Errorf("Resolve(my-alias) = %q", got)
	}
	if got := cfg.ModelMap.Resolve("gpt-3.5-turbo"); got != "gpt-4o-mini" {
		t.Errorf("built-in entry lost: Resolve(gpt-3.5-turbo) = %q", got)
	}
}

func TestLoadConfigBadModelMapFile(t *testing.T) {
	clearProxyEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_sometoken12345678")
	t.Setenv("MODEL_MAP_FILE", filepath.Join(t.TempDir(), "nope.json"))

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for unreadable model map file")
	}
}
