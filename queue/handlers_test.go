// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/lib/clock"
)

// apiFixture runs the whole service stack — store, ingester, hub,
// service, handler — behind a real HTTP listener.
type apiFixture struct {
	server *httptest.Server
	store  *Store
	hub    *Hub
	inbox  string
	clock  *clock.FakeClock
}

func newAPIFixture(t *testing.T, tokenHash string) *apiFixture {
	t.Helper()

	store, fakeClock := openTestStore(t)
	inbox := t.TempDir()

	ingester, err := NewIngester(IngesterConfig{
		Store:    store,
		InboxDir: inbox,
		Clock:    fakeClock,
		Logger:   testLogger(t),
	})
	if err != nil {
		t.Fatalf("NewIngester: %v", err)
	}

	hub := NewHub(HubConfig{Logger: testLogger(t)})
	t.Cleanup(hub.Close)

	service, err := NewService(ServiceConfig{
		Store:         store,
		Hub:           hub,
		Ingester:      ingester,
		NewItemsDwell: 3 * time.Second,
		Clock:         fakeClock,
		Logger:        testLogger(t),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	server := httptest.NewServer(NewHandler(service, hub, tokenHash, testLogger(t)))
	t.Cleanup(server.Close)

	return &apiFixture{
		server: server,
		store:  store,
		hub:    hub,
		inbox:  inbox,
		clock:  fakeClock,
	}
}

// call performs one API request and returns the status code and body.
func (f *apiFixture) call(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	response, err := f.server.Client().Do(request)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer response.Body.Close()
	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	return response.StatusCode, responseBody
}

func (f *apiFixture) mustCall(t *testing.T, method, path string, body any, into any) {
	t.Helper()

	status, responseBody := f.call(t, method, path, body)
	if status != http.StatusOK {
		t.Fatalf("%s %s returned %d: %s", method, path, status, responseBody)
	}
	if into != nil {
		if err := json.Unmarshal(responseBody, into); err != nil {
			t.Fatalf("decoding %s %s response %q: %v", method, path, responseBody, err)
		}
	}
}

// ingestRecords drops record files into the inbox and scans.
func (f *apiFixture) ingestRecords(t *testing.T, ids ...string) {
	t.Helper()

	for _, id := range ids {
		writeInboxFile(t, f.inbox, id+".json", fmt.Sprintf(
			`{"id": %q, "type": "FORM", "confidence": 0.8, "client_name": "Test Client"}`, id))
	}
	var result extraction.ScanResult
	f.mustCall(t, http.MethodPost, "/api/scan", nil, &result)
	if result.NewItemsCount != len(ids) {
		t.Fatalf("scan queued %d records, want %d", result.NewItemsCount, len(ids))
	}
}

func TestAPIHealth(t *testing.T) {
	fixture := newAPIFixture(t, "")

	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Stats    struct {
			PendingCount int `json:"pending_count"`
		} `json:"stats"`
	}
	fixture.mustCall(t, http.MethodGet, "/api/health", nil, &health)

	if health.Status != "ok" || health.Database != "ok" {
		t.Errorf("health = %+v, want status ok database ok", health)
	}
	if health.Stats.PendingCount != 0 {
		t.Errorf("pending count = %d, want 0", health.Stats.PendingCount)
	}
}

func TestAPIScanPendingAndCount(t *testing.T) {
	fixture := newAPIFixture(t, "")

	writeInboxFile(t, fixture.inbox, "a.json", `{"id": "rec-a", "type": "FORM", "confidence": 0.9}`)
	writeInboxFile(t, fixture.inbox, "b.json", `{"id": "rec-b", "type": "EMAIL", "confidence": 0.4}`)
	writeInboxFile(t, fixture.inbox, "bad.json", `{"type": "FORM"`)

	var result extraction.ScanResult
	fixture.mustCall(t, http.MethodPost, "/api/scan", nil, &result)
	if result.ProcessedCount != 2 || result.NewItemsCount != 2 || result.FailedCount != 1 {
		t.Fatalf("scan result = %+v, want 2 processed, 1 failed", result)
	}

	var records []extraction.Record
	fixture.mustCall(t, http.MethodGet, "/api/pending", nil, &records)
	if len(records) != 2 {
		t.Fatalf("pending returned %d records, want 2", len(records))
	}

	var count struct {
		Count  int  `json:"count"`
		HasNew bool `json:"has_new"`
	}
	fixture.mustCall(t, http.MethodGet, "/api/pending/count", nil, &count)
	if count.Count != 2 {
		t.Errorf("count = %d, want 2", count.Count)
	}
	if !count.HasNew {
		t.Error("has_new = false right after a scan that queued records")
	}

	// Past the dwell window the flag drops.
	fixture.clock.Advance(4 * time.Second)
	fixture.mustCall(t, http.MethodGet, "/api/pending/count", nil, &count)
	if count.HasNew {
		t.Error("has_new = true after the dwell window passed")
	}
}

func TestAPIPendingEmptyIsAnArray(t *testing.T) {
	fixture := newAPIFixture(t, "")

	status, body := fixture.call(t, http.MethodGet, "/api/pending", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Errorf("empty pending body = %q, want []", got)
	}
}

func TestAPIApproveLifecycle(t *testing.T) {
	fixture := newAPIFixture(t, "")
	fixture.ingestRecords(t, "rec-1")

	raw := map[string]any{}
	fixture.mustCall(t, http.MethodPost, "/api/approve/rec-1", nil, &raw)
	if raw["success"] != true {
		t.Fatalf("approve response = %v, want success true", raw)
	}
	// No downstream export is wired, so no sheet row is claimed.
	if _, ok := raw["sheet_row"]; ok {
		t.Errorf("approve response claims a sheet row: %v", raw)
	}

	var records []extraction.Record
	fixture.mustCall(t, http.MethodGet, "/api/pending", nil, &records)
	if len(records) != 0 {
		t.Errorf("pending after approve = %d records, want 0", len(records))
	}

	// Approving again is refused but not an HTTP error: the
	// dashboard shows the reason inline.
	var result extraction.ApprovalResult
	fixture.mustCall(t, http.MethodPost, "/api/approve/rec-1", nil, &result)
	if result.Success {
		t.Error("second approve succeeded, want refusal")
	}
	if !strings.Contains(result.Error, "approved") {
		t.Errorf("refusal error = %q, want the current status named", result.Error)
	}

	status, body := fixture.call(t, http.MethodPost, "/api/approve/rec-unknown", nil)
	if status != http.StatusNotFound {
		t.Fatalf("approve unknown = %d: %s, want 404", status, body)
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == "" {
		t.Errorf("404 body = %q, want an error envelope", body)
	}
}

func TestAPIReject(t *testing.T) {
	fixture := newAPIFixture(t, "")
	fixture.ingestRecords(t, "rec-1")

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	fixture.mustCall(t, http.MethodPost, "/api/reject/rec-1", nil, &response)
	if !response.Success {
		t.Fatalf("reject failed: %+v", response)
	}

	// The record keeps its rejected status rather than vanishing.
	record, err := fixture.store.Record(t.Context(), "rec-1")
	if err != nil {
		t.Fatalf("Record after reject: %v", err)
	}
	if record.Status != extraction.StatusRejected {
		t.Errorf("status = %s, want rejected", record.Status)
	}

	// Rejecting again is refused.
	fixture.mustCall(t, http.MethodPost, "/api/reject/rec-1", nil, &response)
	if response.Success {
		t.Error("second reject succeeded, want refusal")
	}

	status, _ := fixture.call(t, http.MethodPost, "/api/reject/rec-unknown", nil)
	if status != http.StatusNotFound {
		t.Errorf("reject unknown = %d, want 404", status)
	}
}

func TestAPIEdit(t *testing.T) {
	fixture := newAPIFixture(t, "")
	fixture.ingestRecords(t, "rec-1")

	var updated extraction.Record
	fixture.mustCall(t, http.MethodPatch, "/api/edit/rec-1",
		map[string]any{"client_name": "Corrected Name", "confidence": 0.95}, &updated)
	if updated.ClientName != "Corrected Name" || updated.Confidence != 0.95 {
		t.Errorf("edited record = %+v, want the updates applied", updated)
	}

	stored, err := fixture.store.Record(t.Context(), "rec-1")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if stored.ClientName != "Corrected Name" {
		t.Errorf("stored name = %q, edit did not persist", stored.ClientName)
	}

	tests := []struct {
		name       string
		id         string
		body       any
		wantStatus int
	}{
		{"status_is_not_editable", "rec-1", map[string]any{"status": "approved"}, http.StatusBadRequest},
		{"id_is_not_editable", "rec-1", map[string]any{"id": "rec-2"}, http.StatusBadRequest},
		{"unknown_field", "rec-1", map[string]any{"frobnication": 7}, http.StatusBadRequest},
		{"invalid_value", "rec-1", map[string]any{"confidence": 5.0}, http.StatusBadRequest},
		{"wrong_type", "rec-1", map[string]any{"client_name": 12}, http.StatusBadRequest},
		{"empty_updates", "rec-1", map[string]any{}, http.StatusBadRequest},
		{"unknown_record", "rec-unknown", map[string]any{"client_name": "x"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := fixture.call(t, http.MethodPatch, "/api/edit/"+tt.id, tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d: %s, want %d", status, body, tt.wantStatus)
			}
		})
	}

	// A record that left the queue cannot be edited.
	fixture.mustCall(t, http.MethodPost, "/api/approve/rec-1", nil, nil)
	status, _ := fixture.call(t, http.MethodPatch, "/api/edit/rec-1", map[string]any{"client_name": "Too Late"})
	if status != http.StatusConflict {
		t.Errorf("edit after approve = %d, want 409", status)
	}
}

func TestAPISource(t *testing.T) {
	fixture := newAPIFixture(t, "")

	writeInboxFile(t, fixture.inbox, "form.html", "<form>original</form>")
	writeInboxFile(t, fixture.inbox, "rec.json",
		`{"id": "rec-1", "type": "FORM", "source_file": "form.html", "confidence": 0.8}`)
	fixture.mustCall(t, http.MethodPost, "/api/scan", nil, nil)

	var document extraction.SourceDocument
	fixture.mustCall(t, http.MethodGet, "/api/source/rec-1", nil, &document)
	if document.Content != "<form>original</form>" {
		t.Errorf("source content = %q", document.Content)
	}
	if document.Type != "text/html" || document.Filename != "form.html" {
		t.Errorf("source = %+v, want text/html form.html", document)
	}

	status, _ := fixture.call(t, http.MethodGet, "/api/source/rec-unknown", nil)
	if status != http.StatusNotFound {
		t.Errorf("source unknown = %d, want 404", status)
	}
}

func TestAPIClearPending(t *testing.T) {
	fixture := newAPIFixture(t, "")
	fixture.ingestRecords(t, "rec-1", "rec-2")

	var response struct {
		Success        bool   `json:"success"`
		Message        string `json:"message"`
		RecordsCleared int    `json:"records_cleared"`
	}
	fixture.mustCall(t, http.MethodDelete, "/api/pending/clear", nil, &response)
	if !response.Success || response.RecordsCleared != 2 {
		t.Fatalf("clear response = %+v, want 2 records cleared", response)
	}

	var count struct {
		Count int `json:"count"`
	}
	fixture.mustCall(t, http.MethodGet, "/api/pending/count", nil, &count)
	if count.Count != 0 {
		t.Errorf("count after clear = %d, want 0", count.Count)
	}

	// Cleared files stay recognized: a rescan does not requeue them.
	var result extraction.ScanResult
	fixture.mustCall(t, http.MethodPost, "/api/scan", nil, &result)
	if result.NewItemsCount != 0 {
		t.Errorf("rescan after clear queued %d records, want 0", result.NewItemsCount)
	}
}

func TestAPIPushEvents(t *testing.T) {
	fixture := newAPIFixture(t, "")

	wsURL := "ws" + strings.TrimPrefix(fixture.server.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing push channel: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	fixture.ingestRecords(t, "rec-1")
	event := readEvent(t, conn)
	added, ok := event.(extraction.RecordAdded)
	if !ok || added.RecordID != "rec-1" {
		t.Fatalf("got %#v, want RecordAdded rec-1", event)
	}
	if added.Data["type"] != "FORM" {
		t.Errorf("added data = %v, want the type hint", added.Data)
	}

	fixture.mustCall(t, http.MethodPost, "/api/approve/rec-1", nil, nil)
	event = readEvent(t, conn)
	removed, ok := event.(extraction.RecordRemoved)
	if !ok || removed.RecordID != "rec-1" {
		t.Fatalf("got %#v, want RecordRemoved rec-1", event)
	}

	fixture.ingestRecords(t, "rec-2")
	readEvent(t, conn) // record_added for rec-2
	fixture.mustCall(t, http.MethodPatch, "/api/edit/rec-2", map[string]any{"client_name": "Edited"}, nil)
	event = readEvent(t, conn)
	updated, ok := event.(extraction.RecordUpdated)
	if !ok || updated.RecordID != "rec-2" {
		t.Fatalf("got %#v, want RecordUpdated rec-2", event)
	}

	fixture.mustCall(t, http.MethodDelete, "/api/pending/clear", nil, nil)
	event = readEvent(t, conn)
	if _, ok := event.(extraction.RecordRemoved); !ok {
		t.Fatalf("got %#v, want RecordRemoved after clear", event)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	hash, err := HashToken("swordfish")
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	fixture := newAPIFixture(t, hash)

	status, _ := fixture.call(t, http.MethodGet, "/api/pending", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("unauthenticated pending = %d, want 401", status)
	}

	// Health stays open for probes.
	status, _ = fixture.call(t, http.MethodGet, "/api/health", nil)
	if status != http.StatusOK {
		t.Errorf("unauthenticated health = %d, want 200", status)
	}

	request, err := http.NewRequest(http.MethodGet, fixture.server.URL+"/api/pending", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	request.Header.Set("Authorization", "Bearer swordfish")
	response, err := fixture.server.Client().Do(request)
	if err != nil {
		t.Fatalf("authenticated request: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Errorf("authenticated pending = %d, want 200", response.StatusCode)
	}
}
