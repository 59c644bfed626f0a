// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables understood by every docsift command.
const (
	// EnvAPIURL overrides the review API root.
	EnvAPIURL = "DOCSIFT_API_URL"

	// EnvPushURL overrides the push channel endpoint. When unset, the
	// endpoint is derived from the API URL.
	EnvPushURL = "DOCSIFT_PUSH_URL"

	// EnvToken supplies the bearer token directly, taking precedence
	// over the token file written by "docsift login".
	EnvToken = "DOCSIFT_TOKEN"

	// EnvStateDir overrides the per-user state directory that holds
	// the token file and session counters.
	EnvStateDir = "DOCSIFT_STATE_DIR"
)

// DefaultAPIURL is the review API root when DOCSIFT_API_URL is unset.
const DefaultAPIURL = "http://localhost:8100"

// APIURL returns the review API root from DOCSIFT_API_URL, or the
// default.
func APIURL() string {
	if url := os.Getenv(EnvAPIURL); url != "" {
		return url
	}
	return DefaultAPIURL
}

// PushURL returns the push channel endpoint override from
// DOCSIFT_PUSH_URL, or empty when the endpoint should be derived from
// the API URL.
func PushURL() string {
	return os.Getenv(EnvPushURL)
}

// StateDir returns the directory holding the token file and session
// counters. Checks DOCSIFT_STATE_DIR first, then falls back to the
// platform config directory (e.g., ~/.config/docsift).
func StateDir() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return dir
	}
	configDirectory, err := os.UserConfigDir()
	if err != nil {
		// No home directory. Rare outside of containers.
		return filepath.Join(os.TempDir(), "docsift")
	}
	return filepath.Join(configDirectory, "docsift")
}

// TokenFilePath returns the path of the token file written by
// "docsift login".
func TokenFilePath() string {
	return filepath.Join(StateDir(), "token")
}

// StatsFilePath returns the path of the session counter file shared
// by approve, reject, stats, and follow.
func StatsFilePath() string {
	return filepath.Join(StateDir(), "stats.json")
}

// Token returns the bearer token for API calls: DOCSIFT_TOKEN if set,
// otherwise the contents of the token file, otherwise empty. A missing
// token is not an error here; the service rejects the request if it
// requires one.
func Token() string {
	if token := os.Getenv(EnvToken); token != "" {
		return token
	}
	data, err := os.ReadFile(TokenFilePath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveToken writes the bearer token to the token file and returns the
// path. Creates the state directory with mode 0700 if it doesn't
// exist. The token file is written with mode 0600 (owner-only
// read/write) since it grants review access.
func SaveToken(token string) (string, error) {
	path := TokenFilePath()
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return "", fmt.Errorf("creating state directory %s: %w", directory, err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
		return "", fmt.Errorf("writing token file %s: %w", path, err)
	}
	return path, nil
}
