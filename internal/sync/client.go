// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

/*
client.go - Core Nexent ingest API client

HTTP communication layer for the backend ingest API:
  - HTTP client with configurable timeout
  - Client-side rate limiting (golang.org/x/time)
  - Automatic HTTP 429 handling with exponential backoff
  - JSON response parsing (goccy/go-json)
  - Context support for cancellation and timeouts

Related files:
  - circuit_breaker.go: resilience wrapper around this client
  - errors.go: upload error taxonomy returned by UploadFiles
*/

package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/LittlPenguin/nexent/internal/config"
	"github.com/LittlPenguin/nexent/internal/metrics"
	"github.com/LittlPenguin/nexent/internal/models/ingest"
)

// maxErrorBodySize limits how much of an error response body is read back
// for diagnostics.
const maxErrorBodySize = 64 * 1024 // 64KB

// uploadSuccessStatus is the only status code recognized as upload success.
// Any other 2xx is treated as an unrecognized response, never as success.
const uploadSuccessStatus = http.StatusCreated

// ClientInterface defines the backend ingest API surface used by the
// Directory and the polling manager. Implemented by APIClient for
// production and by CircuitBreakerClient as a resilience wrapper; tests
// substitute mock implementations.
//
// All methods accept a context for cancellation and return either a typed
// wire response or an error. Thread-safe for concurrent use.
type ClientInterface interface {
	Health(ctx context.Context) (*ingest.HealthResponse, error)
	ListIndices(ctx context.Context, pattern string, includeStats bool) (*ingest.ListIndicesResponse, error)
	GetIndexDetail(ctx context.Context, name string, includeFiles, forceRefresh bool) (*ingest.IndexDetailResponse, error)
	CreateIndex(ctx context.Context, name, description, embeddingModel string) error
	DeleteIndex(ctx context.Context, name string) error
	DeleteDocument(ctx context.Context, indexName, pathOrURL string) error
	UploadFiles(ctx context.Context, indexName string, files []UploadFile, chunkingStrategy string) error
}

// UploadFile is one file in a multi-file upload request.
type UploadFile struct {
	Name   string
	Reader io.Reader
}

// APIClient talks to the Nexent ingest API over HTTP.
//
// Requests pass through an optional client-side rate limiter, and HTTP 429
// responses are retried with exponential backoff honoring Retry-After.
type APIClient struct {
	baseURL        string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewAPIClient creates a client from backend configuration.
func NewAPIClient(cfg *config.BackendConfig) *APIClient {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &APIClient{
		baseURL:        cfg.URL,
		client:         &http.Client{Timeout: timeout},
		limiter:        limiter,
		maxRetries:     5,
		retryBaseDelay: 1 * time.Second,
	}
}

// readBodyForError reads at most maxErrorBodySize of the response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}

// doRequest performs one HTTP request with rate limiting and automatic
// retry on HTTP 429. Exponential backoff: 1s, 2s, 4s, 8s, 16s, overridden
// by a Retry-After header when present.
func (c *APIClient) doRequest(ctx context.Context, method, reqURL string, body []byte, contentType string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var reader io.Reader = http.NoBody
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// getJSON performs a GET and decodes the 200 response into result.
func (c *APIClient) getJSON(ctx context.Context, endpoint, reqURL string, result interface{}) error {
	start := time.Now()
	resp, err := c.doRequest(ctx, http.MethodGet, reqURL, nil, "")
	if err != nil {
		metrics.BackendRequests.WithLabelValues(endpoint, "failure").Inc()
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.BackendRequests.WithLabelValues(endpoint, "failure").Inc()
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s request failed with status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		metrics.BackendRequests.WithLabelValues(endpoint, "failure").Inc()
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	metrics.BackendRequests.WithLabelValues(endpoint, "success").Inc()
	return nil
}

// mutate performs a write request whose 200 reply carries a StatusResponse.
// A payload status other than "success" is a NotSuccessError.
func (c *APIClient) mutate(ctx context.Context, op, method, reqURL string, body []byte, contentType string) error {
	start := time.Now()
	resp, err := c.doRequest(ctx, method, reqURL, body, contentType)
	if err != nil {
		metrics.BackendRequests.WithLabelValues(op, "failure").Inc()
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.BackendRequests.WithLabelValues(op, "failure").Inc()
		respBody := readBodyForError(resp.Body)
		return fmt.Errorf("%s request failed with status %d: %s", op, resp.StatusCode, string(respBody))
	}

	var status ingest.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		metrics.BackendRequests.WithLabelValues(op, "failure").Inc()
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	if status.Status != "success" {
		metrics.BackendRequests.WithLabelValues(op, "failure").Inc()
		return &NotSuccessError{Op: op, Message: status.Message}
	}

	metrics.BackendRequests.WithLabelValues(op, "success").Inc()
	return nil
}

// Health probes GET /indices/health.
func (c *APIClient) Health(ctx context.Context) (*ingest.HealthResponse, error) {
	var result ingest.HealthResponse
	if err := c.getJSON(ctx, "health", c.baseURL+"/indices/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListIndices lists index names, optionally with per-index statistics.
func (c *APIClient) ListIndices(ctx context.Context, pattern string, includeStats bool) (*ingest.ListIndicesResponse, error) {
	if pattern == "" {
		pattern = "*"
	}
	params := url.Values{}
	params.Set("pattern", pattern)
	params.Set("include_stats", strconv.FormatBool(includeStats))

	var result ingest.ListIndicesResponse
	reqURL := fmt.Sprintf("%s/indices?%s", c.baseURL, params.Encode())
	if err := c.getJSON(ctx, "list_indices", reqURL, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetIndexDetail fetches index statistics, optionally including the file
// list. forceRefresh adds a cache-busting timestamp parameter and a
// no-cache header so intermediaries cannot serve a stale file list.
func (c *APIClient) GetIndexDetail(ctx context.Context, name string, includeFiles, forceRefresh bool) (*ingest.IndexDetailResponse, error) {
	params := url.Values{}
	params.Set("include_files", strconv.FormatBool(includeFiles))
	if forceRefresh {
		params.Set("_ts", strconv.FormatInt(time.Now().UnixNano(), 10))
	}
	reqURL := fmt.Sprintf("%s/indices/%s/info?%s", c.baseURL, url.PathEscape(name), params.Encode())

	start := time.Now()
	var resp *http.Response
	var err error
	if forceRefresh {
		resp, err = c.doRequestNoCache(ctx, reqURL)
	} else {
		resp, err = c.doRequest(ctx, http.MethodGet, reqURL, nil, "")
	}
	if err != nil {
		metrics.BackendRequests.WithLabelValues("index_detail", "failure").Inc()
		return nil, fmt.Errorf("index_detail request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestDuration.WithLabelValues("index_detail").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.BackendRequests.WithLabelValues("index_detail", "failure").Inc()
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("index_detail request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result ingest.IndexDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.BackendRequests.WithLabelValues("index_detail", "failure").Inc()
		return nil, fmt.Errorf("failed to decode index_detail response: %w", err)
	}
	metrics.BackendRequests.WithLabelValues("index_detail", "success").Inc()
	return &result, nil
}

// doRequestNoCache is doRequest with a Cache-Control: no-cache header.
func (c *APIClient) doRequestNoCache(ctx context.Context, reqURL string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return resp, nil
}

// CreateIndex creates a new knowledge base index.
func (c *APIClient) CreateIndex(ctx context.Context, name, description, embeddingModel string) error {
	body, err := json.Marshal(map[string]string{
		"name":            name,
		"description":     description,
		"embedding_model": embeddingModel,
	})
	if err != nil {
		return fmt.Errorf("failed to encode create_index body: %w", err)
	}
	reqURL := fmt.Sprintf("%s/indices/%s", c.baseURL, url.PathEscape(name))
	return c.mutate(ctx, "create_index", http.MethodPost, reqURL, body, "application/json")
}

// DeleteIndex deletes a knowledge base index and all its documents.
func (c *APIClient) DeleteIndex(ctx context.Context, name string) error {
	reqURL := fmt.Sprintf("%s/indices/%s", c.baseURL, url.PathEscape(name))
	return c.mutate(ctx, "delete_index", http.MethodDelete, reqURL, nil, "")
}

// DeleteDocument removes one document from an index, keyed by its
// URL-encoded path or URL.
func (c *APIClient) DeleteDocument(ctx context.Context, indexName, pathOrURL string) error {
	params := url.Values{}
	params.Set("path_or_url", pathOrURL)
	reqURL := fmt.Sprintf("%s/indices/%s/documents?%s", c.baseURL, url.PathEscape(indexName), params.Encode())
	return c.mutate(ctx, "delete_document", http.MethodDelete, reqURL, nil, "")
}

// UploadFiles posts a multipart upload of one or more files.
//
// Response mapping:
//   - 201 Created: success
//   - 400: ValidationError (missing or invalid files)
//   - 500: ProcessingError with the files that made it partway through
//   - any other 2xx: UnknownResponseError
//   - anything else: generic error with body excerpt
func (c *APIClient) UploadFiles(ctx context.Context, indexName string, files []UploadFile, chunkingStrategy string) error {
	if len(files) == 0 {
		return &ValidationError{NoFiles: true}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("index_name", indexName); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if chunkingStrategy != "" {
		if err := writer.WriteField("chunking_strategy", chunkingStrategy); err != nil {
			return fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile("file", f.Name)
		if err != nil {
			return fmt.Errorf("failed to build upload form: %w", err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return fmt.Errorf("failed to read upload file %s: %w", f.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload form: %w", err)
	}

	start := time.Now()
	resp, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/files/upload", buf.Bytes(), writer.FormDataContentType())
	if err != nil {
		metrics.BackendRequests.WithLabelValues("upload", "failure").Inc()
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestDuration.WithLabelValues("upload").Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == uploadSuccessStatus:
		metrics.BackendRequests.WithLabelValues("upload", "success").Inc()
		return nil

	case resp.StatusCode == http.StatusBadRequest:
		metrics.BackendRequests.WithLabelValues("upload", "failure").Inc()
		var body ingest.UploadErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return &ValidationError{NoFiles: true}
		}
		if len(body.Errors) == 0 {
			return &ValidationError{NoFiles: true}
		}
		return &ValidationError{Invalid: body.Errors}

	case resp.StatusCode >= 500:
		metrics.BackendRequests.WithLabelValues("upload", "failure").Inc()
		var body ingest.UploadErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return &ProcessingError{Message: "upload processing failed"}
		}
		return &ProcessingError{Message: body.Error, Files: body.Files}

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// A 2xx that is not the creation status is not trusted as success.
		metrics.BackendRequests.WithLabelValues("upload", "failure").Inc()
		return &UnknownResponseError{StatusCode: resp.StatusCode}

	default:
		metrics.BackendRequests.WithLabelValues("upload", "failure").Inc()
		body := readBodyForError(resp.Body)
		return fmt.Errorf("upload request failed with status %d: %s", resp.StatusCode, string(body))
	}
}
