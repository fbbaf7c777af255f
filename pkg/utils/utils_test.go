package utils

import (
	"strings"
	"testing"
)

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("TEST_ENV_VALUE", "set")
	if got := GetEnvWithDefault("TEST_ENV_VALUE", "fallback"); got != "set" {
		t.Errorf("got %q, want set", got)
	}
	if got := GetEnvWithDefault("TEST_ENV_MISSING", "fallback"); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
}

func TestGetEnvIntWithDefault(t *testing.T) {
	t.Setenv("TEST_ENV_INT", "42")
	if got := GetEnvIntWithDefault("TEST_ENV_INT", 7); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if got := GetEnvIntWithDefault("TEST_ENV_INT_MISSING", 7); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
	t.Setenv("TEST_ENV_INT_BAD", "eight")
	if got := GetEnvIntWithDefault("TEST_ENV_INT_BAD", 7); got != 7 {
		t.Errorf("invalid value: got %d, want default 7", got)
	}
}

func TestMaskToken(t *testing.T) {
	cases := []struct {
		name  string
		token string
		want  string
	}{
		{"short", "abc", "***"},
		{"classic PAT", "ghp_abcdefgh12345678", "ghp_abcd...5678"},
		{"fine-grained PAT", "github_pat_abcdefgh12345678", "github_pat_abcd...5678"},
		{"short suffix", "gho_abcdefg", "gho_***"},
		{"opaque token", "sk-abcdefghijklmnop", "sk-a...mnop"},
	}
	for _, c := range cases {
		if got := MaskToken(c.token); got != c.want {
			t.Errorf("%s: MaskToken(%q) = %q, want %q", c.name, c.token, got, c.want)
		}
	}
}

func TestMaskTokenNeverLeaksBody(t *testing.T) {
	token := "ghp_" + strings.Repeat("secret", 8)
	masked := MaskToken(token)
	if strings.Contains(masked, "secretsecret") {
		t.Errorf("masked token leaks content: %q", masked)
	}
	if len(masked) >= len(token) {
		t.Errorf("masked token is not shorter than the original")
	}
}

func TestLooksLikeGitHubToken(t *testing.T) {
	for _, token := range []string{"ghp_x", "gho_x", "ghu_x", "ghs_x", "github_pat_x"} {
		if !LooksLikeGitHubToken(token) {
			t.Errorf("LooksLikeGitHubToken(%q) = false", token)
		}
	}
	for _, token := range []string{"", "sk-openai", "Bearer ghp_x"} {
		if LooksLikeGitHubToken(token) {
			t.Errorf("LooksLikeGitHubToken(%q) = true", token)
		}
	}
}
