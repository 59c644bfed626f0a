// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/lib/netutil"
)

// defaultRequestTimeout bounds a single API call when the caller does
// not supply an HTTP client of its own.
const defaultRequestTimeout = 15 * time.Second

// APIError is a non-2xx response from the review API. Message carries
// the server's "error" field when the body is the standard error
// envelope, or the raw body otherwise.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("review: API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("review: API returned status %d: %s", e.StatusCode, e.Message)
}

// HealthStats is the queue summary embedded in a health response.
type HealthStats struct {
	PendingCount int `json:"pending_count"`
}

// HealthStatus is the response from the health endpoint.
type HealthStatus struct {
	Status   string      `json:"status"`
	Database string      `json:"database"`
	Stats    HealthStats `json:"stats"`
}

// PendingCount is the lightweight queue size probe.
type PendingCount struct {
	Count  int  `json:"count"`
	HasNew bool `json:"has_new"`
}

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the review API root (e.g. "http://localhost:8100").
	BaseURL string
	// Token, when set, is sent as a bearer token on every request.
	Token string
	// HTTPClient is used for all requests. If nil, a client with a
	// 15-second timeout is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, logs are discarded.
	Logger *slog.Logger
}

// Client calls the review API over HTTP. It is safe for concurrent
// use and implements both PendingFetcher and the mutator's Remote.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a review API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("review: BaseURL is required")
	}

	// Store the string form (trailing slash stripped) and build
	// request URLs by direct concatenation.
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("review: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Health reports service and storage reachability plus the current
// pending count.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}
	var status HealthStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("review: parsing health response: %w", err)
	}
	return &status, nil
}

// Scan asks the service to sweep the extraction inbox for new files.
func (c *Client) Scan(ctx context.Context) (*extraction.ScanResult, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/api/scan", nil)
	if err != nil {
		return nil, err
	}
	var result extraction.ScanResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("review: parsing scan response: %w", err)
	}
	return &result, nil
}

// FetchPending returns every record awaiting review.
func (c *Client) FetchPending(ctx context.Context) ([]extraction.Record, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/pending", nil)
	if err != nil {
		return nil, err
	}
	var records []extraction.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("review: parsing pending records: %w", err)
	}
	return records, nil
}

// PendingCount returns the queue size without transferring the records.
func (c *Client) PendingCount(ctx context.Context) (*PendingCount, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/pending/count", nil)
	if err != nil {
		return nil, err
	}
	var count PendingCount
	if err := json.Unmarshal(body, &count); err != nil {
		return nil, fmt.Errorf("review: parsing pending count: %w", err)
	}
	return &count, nil
}

// ClearPending removes every pending record and reports how many were
// cleared.
func (c *Client) ClearPending(ctx context.Context) (int, error) {
	body, err := c.doRequest(ctx, http.MethodDelete, "/api/pending/clear", nil)
	if err != nil {
		return 0, err
	}
	var response struct {
		Success        bool   `json:"success"`
		Message        string `json:"message"`
		RecordsCleared int    `json:"records_cleared"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return 0, fmt.Errorf("review: parsing clear response: %w", err)
	}
	return response.RecordsCleared, nil
}

// Approve asks the service to export the record downstream and mark it
// approved. A result with Success false means the export failed and
// the record stayed pending; the Error field says why.
func (c *Client) Approve(ctx context.Context, recordID string) (extraction.ApprovalResult, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/api/approve/"+url.PathEscape(recordID), nil)
	if err != nil {
		return extraction.ApprovalResult{}, err
	}
	var result extraction.ApprovalResult
	if err := json.Unmarshal(body, &result); err != nil {
		return extraction.ApprovalResult{}, fmt.Errorf("review: parsing approval response: %w", err)
	}
	return result, nil
}

// Reject marks the record rejected and drops it from the queue.
func (c *Client) Reject(ctx context.Context, recordID string) error {
	body, err := c.doRequest(ctx, http.MethodPost, "/api/reject/"+url.PathEscape(recordID), nil)
	if err != nil {
		return err
	}
	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("review: parsing reject response: %w", err)
	}
	if !response.Success {
		return fmt.Errorf("review: reject %s failed: %s", recordID, response.Message)
	}
	return nil
}

// Edit applies field updates to a pending record and returns the
// updated record as stored.
func (c *Client) Edit(ctx context.Context, recordID string, updates map[string]any) (extraction.Record, error) {
	body, err := c.doRequest(ctx, http.MethodPatch, "/api/edit/"+url.PathEscape(recordID), updates)
	if err != nil {
		return extraction.Record{}, err
	}
	var record extraction.Record
	if err := json.Unmarshal(body, &record); err != nil {
		return extraction.Record{}, fmt.Errorf("review: parsing edited record: %w", err)
	}
	return record, nil
}

// Source fetches the original document a record was extracted from.
func (c *Client) Source(ctx context.Context, recordID string) (*extraction.SourceDocument, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/source/"+url.PathEscape(recordID), nil)
	if err != nil {
		return nil, err
	}
	var document extraction.SourceDocument
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, fmt.Errorf("review: parsing source document: %w", err)
	}
	return &document, nil
}

// doRequest performs an HTTP request against the review API and returns
// the response body. On 2xx, returns the body. On 4xx/5xx, returns an
// *APIError. requestBody may be nil for endpoints without a body.
func (c *Client) doRequest(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	requestURL := c.baseURL + path

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("review: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("review: creating request: %w", err)
	}

	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("review: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("review: reading response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// All API error responses use the same {"error": "..."} envelope.
	var envelope struct {
		Error string `json:"error"`
	}
	if jsonErr := json.Unmarshal(responseBody, &envelope); jsonErr != nil || envelope.Error == "" {
		return nil, &APIError{StatusCode: response.StatusCode, Message: strings.TrimSpace(string(responseBody))}
	}
	return nil, &APIError{StatusCode: response.StatusCode, Message: envelope.Error}
}
