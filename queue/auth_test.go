// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authTestHandler(t *testing.T, tokenHash string) http.Handler {
	t.Helper()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return requireBearer(tokenHash, testLogger(t), next)
}

func TestRequireBearer(t *testing.T) {
	hash, err := HashToken("swordfish")
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}

	tests := []struct {
		name       string
		path       string
		authHeader string
		wantStatus int
	}{
		{"valid_token", "/api/pending", "Bearer swordfish", http.StatusOK},
		{"scheme_is_case_insensitive", "/api/pending", "bearer swordfish", http.StatusOK},
		{"wrong_token", "/api/pending", "Bearer marlin", http.StatusUnauthorized},
		{"missing_header", "/api/pending", "", http.StatusUnauthorized},
		{"wrong_scheme", "/api/pending", "Basic c3dvcmRmaXNo", http.StatusUnauthorized},
		{"empty_token", "/api/pending", "Bearer ", http.StatusUnauthorized},
		{"health_is_exempt", "/api/health", "", http.StatusOK},
	}

	handler := authTestHandler(t, hash)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				request.Header.Set("Authorization", tt.authHeader)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			if recorder.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", recorder.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if got := recorder.Header().Get("Content-Type"); got != "application/json" {
					t.Errorf("error content type = %q, want application/json", got)
				}
			}
		})
	}
}

func TestRequireBearerDisabledWithoutHash(t *testing.T) {
	handler := authTestHandler(t, "")

	request := httptest.NewRequest(http.MethodGet, "/api/pending", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", recorder.Code)
	}
}
