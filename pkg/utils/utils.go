// Package utils provides environment helpers and credential masking used
// across the proxy.
package utils

import (
	"os"
	"strconv"
	"strings"
)

// GetEnvWithDefault retrieves an environment variable or returns a default value if not set.
//
// Parameters:
//   - name: The name of the environment variable
//   - defaultValue: The default value to return if the environment variable is not set
//
// Returns the value of the environment variable, or the default value if not set.
func GetEnvWithDefault(name, defaultValue string) string {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvIntWithDefault retrieves an integer environment variable or returns a
// default value if the variable is unset or not a valid integer.
func GetEnvIntWithDefault(name string, defaultValue int) int {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// githubTokenPrefixes are the known prefixes of GitHub credentials: classic
// PATs, OAuth tokens, user-to-server tokens, server tokens, and fine-grained
// PATs.
var githubTokenPrefixes = []string{"ghp_", "gho_", "ghu_", "ghs_", "github_pat_"}

// MaskToken masks a credential for display, showing only the first and last
// few characters. GitHub tokens carry a recognizable prefix (ghp_, gho_,
// github_pat_, ...); the prefix is kept visible so log readers can tell which
// kind of credential is in use without the log ever containing the secret.
func MaskToken(token string) string {
	if len(token) < 10 {
		return "***" // Too short to safely show anything
	}

	for _, prefix := range githubTokenPrefixes {
		if strings.HasPrefix(token, prefix) {
			rest := token[len(prefix):]
			if len(rest) > 8 {
				return prefix + rest[:4] + "..." + rest[len(rest)-4:]
			}
			return prefix + "***"
		}
	}

	// For other tokens, show first/last few chars
	return token[:4] + "..." + token[len(token)-4:]
}

// LooksLikeGitHubToken reports whether the credential has one of the known
// GitHub token prefixes. The proxy only uses this for a startup warning; the
// upstream endpoint is the authority on whether a token is actually valid.
func LooksLikeGitHubToken(token string) bool {
	for _, prefix := range githubTokenPrefixes {
		if strings.HasPrefix(token, prefix) {
			return true
		}
	}
	return false
}
