// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/docsift/docsift/extraction"
)

// Maximum request body size for edit payloads. Records carry raw
// extraction output, so this is roomier than a typical form post.
const maxRequestBodySize = 1 << 20

// Handler serves the review queue HTTP API.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds the API routing table. The websocket hub is
// mounted at /api/ws; every other route is a Handler method. When
// tokenHash is non-empty, all routes except the health probe require
// a bearer token matching the hash.
func NewHandler(service *Service, hub *Hub, tokenHash string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{service: service, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("POST /api/scan", h.HandleScan)
	mux.HandleFunc("GET /api/pending", h.HandlePending)
	mux.HandleFunc("GET /api/pending/count", h.HandlePendingCount)
	mux.HandleFunc("DELETE /api/pending/clear", h.HandleClearPending)
	mux.HandleFunc("POST /api/approve/{id}", h.HandleApprove)
	mux.HandleFunc("POST /api/reject/{id}", h.HandleReject)
	mux.HandleFunc("PATCH /api/edit/{id}", h.HandleEdit)
	mux.HandleFunc("GET /api/source/{id}", h.HandleSource)
	mux.Handle("GET /api/ws", hub)

	return requireBearer(tokenHash, logger, mux)
}

// HandleHealth reports service and storage reachability. The probe
// always answers 200; a broken database shows up in the body so
// dashboards can distinguish "service down" from "storage down".
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	type healthStats struct {
		PendingCount int `json:"pending_count"`
	}
	type healthStatus struct {
		Status   string      `json:"status"`
		Database string      `json:"database"`
		Stats    healthStats `json:"stats"`
	}

	pending, err := h.service.Health(r.Context())
	if err != nil {
		h.logger.Warn("health probe found storage unreachable", "error", err)
		h.writeJSON(w, healthStatus{Status: "degraded", Database: "unreachable"})
		return
	}
	h.writeJSON(w, healthStatus{
		Status:   "ok",
		Database: "ok",
		Stats:    healthStats{PendingCount: pending},
	})
}

// HandleScan sweeps the extraction inbox on demand.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RunScan(r.Context())
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "scan failed: %v", err)
		return
	}
	h.writeJSON(w, result)
}

// HandlePending returns every record awaiting review, oldest first.
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Pending(r.Context())
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "listing pending records: %v", err)
		return
	}
	if records == nil {
		records = []extraction.Record{}
	}
	h.writeJSON(w, records)
}

// HandlePendingCount returns the queue size and the new-items flag.
func (h *Handler) HandlePendingCount(w http.ResponseWriter, r *http.Request) {
	count, hasNew, err := h.service.PendingCount(r.Context())
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "counting pending records: %v", err)
		return
	}
	h.writeJSON(w, map[string]any{"count": count, "has_new": hasNew})
}

// HandleClearPending removes every pending record.
func (h *Handler) HandleClearPending(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.service.ClearPending(r.Context())
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "clearing pending records: %v", err)
		return
	}
	h.writeJSON(w, map[string]any{
		"success":         true,
		"message":         fmt.Sprintf("cleared %d pending records", cleared),
		"records_cleared": cleared,
	})
}

// HandleApprove marks a record approved. Unknown IDs are 404; a
// record that already left the queue answers 200 with success false
// so the dashboard can show the reason inline.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := h.service.Approve(r.Context(), id)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		h.sendError(w, http.StatusNotFound, "record not found: %s", id)
		return
	case err != nil:
		h.sendError(w, http.StatusInternalServerError, "approving record: %v", err)
		return
	}
	h.writeJSON(w, result)
}

// HandleReject marks a record rejected.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.service.Reject(r.Context(), id)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		h.sendError(w, http.StatusNotFound, "record not found: %s", id)
		return
	case errors.Is(err, ErrNotPending):
		h.writeJSON(w, map[string]any{"success": false, "message": err.Error()})
		return
	case err != nil:
		h.sendError(w, http.StatusInternalServerError, "rejecting record: %v", err)
		return
	}
	h.writeJSON(w, map[string]any{
		"success": true,
		"message": fmt.Sprintf("record %s rejected", id),
	})
}

// HandleEdit applies partial field updates to a pending record and
// returns the updated record as stored.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if strings.Contains(err.Error(), "http: request body too large") {
			h.sendError(w, http.StatusRequestEntityTooLarge, "request body too large (max %d bytes)", maxRequestBodySize)
			return
		}
		h.sendError(w, http.StatusBadRequest, "invalid edit payload: %v", err)
		return
	}

	record, err := h.service.Edit(r.Context(), id, updates)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		h.sendError(w, http.StatusNotFound, "record not found: %s", id)
		return
	case errors.Is(err, ErrNotPending):
		h.sendError(w, http.StatusConflict, "%v", err)
		return
	case errors.Is(err, ErrInvalidUpdate):
		h.sendError(w, http.StatusBadRequest, "%v", err)
		return
	case err != nil:
		h.sendError(w, http.StatusInternalServerError, "editing record: %v", err)
		return
	}
	h.writeJSON(w, record)
}

// HandleSource returns the original document a record was extracted
// from. Records queued without a stored document answer 404.
func (h *Handler) HandleSource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	document, err := h.service.Source(r.Context(), id)
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		h.sendError(w, http.StatusNotFound, "no source document for record: %s", id)
		return
	case err != nil:
		h.sendError(w, http.StatusInternalServerError, "loading source document: %v", err)
		return
	}
	h.writeJSON(w, document)
}

func (h *Handler) sendError(w http.ResponseWriter, status int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": fmt.Sprintf(format, args...),
	}); err != nil {
		h.logger.Warn("writing JSON error response", "error", err, "status", status)
	}
}

// writeJSON encodes value as JSON into w, setting the Content-Type
// header. If encoding fails (typically because the client
// disconnected), the error is logged — the caller cannot send a
// corrective response to a dead client.
func (h *Handler) writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		h.logger.Warn("writing JSON response", "error", err)
	}
}
