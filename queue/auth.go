// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashToken produces the bcrypt hash of an API token, the form the
// service config stores. The plaintext token is handed to reviewers;
// the service never sees it at rest.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// requireBearer wraps a handler with bearer-token authentication
// against a bcrypt token hash. The health endpoint is exempt so load
// balancers and uptime checks work without credentials. An empty
// tokenHash disables authentication entirely.
func requireBearer(tokenHash string, logger *slog.Logger, next http.Handler) http.Handler {
	if tokenHash == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, "missing bearer token")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
			logger.Warn("rejected request with bad token",
				"remote", r.RemoteAddr,
				"path", r.URL.Path,
			)
			writeAuthError(w, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from an Authorization: Bearer
// header. The scheme comparison is case-insensitive per RFC 9110.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
