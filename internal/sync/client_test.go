// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

package sync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LittlPenguin/nexent/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*APIClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewAPIClient(&config.BackendConfig{
		URL:     srv.URL,
		Timeout: 5 * time.Second,
	})
	c.retryBaseDelay = time.Millisecond
	return c, srv
}

func TestClientHealth(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indices/health" {
			t.Errorf("path = %s, want /indices/health", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","elasticsearch":"connected"}`))
	}))

	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if resp.Status != "ok" || resp.Elasticsearch != "connected" {
		t.Errorf("Health() = %+v, want ok/connected", resp)
	}
}

func TestClientListIndicesQueryParams(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("pattern") != "*" {
			t.Errorf("pattern = %q, want *", q.Get("pattern"))
		}
		if q.Get("include_stats") != "true" {
			t.Errorf("include_stats = %q, want true", q.Get("include_stats"))
		}
		w.Write([]byte(`{"indices":["kb-1"],"indices_info":[{"name":"kb-1","stats":{"base_info":{"doc_count":3,"chunk_count":12,"embedding_model":"bge-m3","creation_date":""}}}]}`))
	}))

	resp, err := c.ListIndices(context.Background(), "", true)
	if err != nil {
		t.Fatalf("ListIndices() error: %v", err)
	}
	if len(resp.Indices) != 1 || resp.Indices[0] != "kb-1" {
		t.Errorf("Indices = %v, want [kb-1]", resp.Indices)
	}
	if resp.IndicesInfo[0].Stats.BaseInfo.DocCount != 3 {
		t.Errorf("DocCount = %d, want 3", resp.IndicesInfo[0].Stats.BaseInfo.DocCount)
	}
}

func TestClientGetIndexDetailForceRefresh(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("include_files") != "true" {
			t.Errorf("include_files = %q, want true", q.Get("include_files"))
		}
		if q.Get("_ts") == "" {
			t.Error("force refresh request missing cache-busting _ts parameter")
		}
		if r.Header.Get("Cache-Control") != "no-cache" {
			t.Errorf("Cache-Control = %q, want no-cache", r.Header.Get("Cache-Control"))
		}
		w.Write([]byte(`{"files":[{"path_or_url":"a.pdf","file":"a.pdf","file_size":10,"chunk_count":1,"status":"COMPLETED"}]}`))
	}))

	resp, err := c.GetIndexDetail(context.Background(), "kb-1", true, true)
	if err != nil {
		t.Fatalf("GetIndexDetail() error: %v", err)
	}
	if len(resp.Files) != 1 {
		t.Fatalf("Files = %d entries, want 1", len(resp.Files))
	}
}

func TestClientGetIndexDetailPlainRead(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("_ts") != "" {
			t.Error("non-forced read carries the cache-busting parameter")
		}
		w.Write([]byte(`{"files":[]}`))
	}))

	if _, err := c.GetIndexDetail(context.Background(), "kb-1", true, false); err != nil {
		t.Fatalf("GetIndexDetail() error: %v", err)
	}
}

func TestClientCreateIndexNotSuccess(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Write([]byte(`{"status":"error","message":"index already exists"}`))
	}))

	err := c.CreateIndex(context.Background(), "kb-1", "", "")
	var nse *NotSuccessError
	if !errors.As(err, &nse) {
		t.Fatalf("CreateIndex() error = %v, want NotSuccessError", err)
	}
	if !strings.Contains(nse.Error(), "index already exists") {
		t.Errorf("error message %q does not carry the backend message", nse.Error())
	}
}

func TestClientDeleteDocumentEncodesPath(t *testing.T) {
	t.Parallel()

	var gotPath atomic.Value
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Query().Get("path_or_url"))
		w.Write([]byte(`{"status":"success","message":"ok"}`))
	}))

	err := c.DeleteDocument(context.Background(), "kb-1", "https://example.com/a b.pdf")
	if err != nil {
		t.Fatalf("DeleteDocument() error: %v", err)
	}
	if got := gotPath.Load(); got != "https://example.com/a b.pdf" {
		t.Errorf("path_or_url = %q, decoded value lost", got)
	}
}

func TestClientRetriesOn429(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"status":"ok","elasticsearch":"connected"}`))
	}))

	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health() after 429s error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	c.maxRetries = 2

	_, err := c.Health(context.Background())
	if err == nil {
		t.Fatal("Health() succeeded against persistent 429")
	}
	if !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("error = %v, want rate limit exhaustion", err)
	}
}

func TestClientUploadSuccess(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("bad multipart form: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got := r.FormValue("index_name"); got != "kb-1" {
			t.Errorf("index_name = %q, want kb-1", got)
		}
		if got := r.FormValue("chunking_strategy"); got != "by_title" {
			t.Errorf("chunking_strategy = %q, want by_title", got)
		}
		if got := len(r.MultipartForm.File["file"]); got != 2 {
			t.Errorf("file parts = %d, want 2", got)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"ok","uploaded_files":["a.pdf","b.pdf"]}`))
	}))

	files := []UploadFile{
		{Name: "a.pdf", Reader: strings.NewReader("aaa")},
		{Name: "b.pdf", Reader: strings.NewReader("bbb")},
	}
	if err := c.UploadFiles(context.Background(), "kb-1", files, "by_title"); err != nil {
		t.Fatalf("UploadFiles() error: %v", err)
	}
}

func TestClientUploadErrorTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "validation with per-file errors",
			status: http.StatusBadRequest,
			body:   `{"error":"invalid files","errors":["a.exe: unsupported type"]}`,
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("error = %v, want ValidationError", err)
				}
				if ve.NoFiles || len(ve.Invalid) != 1 {
					t.Errorf("ValidationError = %+v, want one invalid file", ve)
				}
			},
		},
		{
			name:   "validation without detail",
			status: http.StatusBadRequest,
			body:   `{"error":"no files"}`,
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("error = %v, want ValidationError", err)
				}
				if !ve.NoFiles {
					t.Errorf("ValidationError = %+v, want NoFiles", ve)
				}
			},
		},
		{
			name:   "processing failure with saved files",
			status: http.StatusInternalServerError,
			body:   `{"error":"embedding service down","files":["a.pdf"]}`,
			check: func(t *testing.T, err error) {
				var pe *ProcessingError
				if !errors.As(err, &pe) {
					t.Fatalf("error = %v, want ProcessingError", err)
				}
				if pe.Message != "embedding service down" || len(pe.Files) != 1 {
					t.Errorf("ProcessingError = %+v", pe)
				}
			},
		},
		{
			name:   "unexpected 2xx is not success",
			status: http.StatusOK,
			body:   `{"message":"ok"}`,
			check: func(t *testing.T, err error) {
				var ue *UnknownResponseError
				if !errors.As(err, &ue) {
					t.Fatalf("error = %v, want UnknownResponseError", err)
				}
				if ue.StatusCode != http.StatusOK {
					t.Errorf("StatusCode = %d, want 200", ue.StatusCode)
				}
			},
		},
		{
			name:   "unexpected status",
			status: http.StatusForbidden,
			body:   `forbidden`,
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Fatal("403 upload reported success")
				}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			err := c.UploadFiles(context.Background(), "kb-1", []UploadFile{
				{Name: "a.pdf", Reader: strings.NewReader("aaa")},
			}, "")
			tt.check(t, err)
		})
	}
}

func TestClientUploadNoFilesShortCircuits(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	err := c.UploadFiles(context.Background(), "kb-1", nil, "")
	var ve *ValidationError
	if !errors.As(err, &ve) || !ve.NoFiles {
		t.Fatalf("error = %v, want ValidationError{NoFiles}", err)
	}
	if calls.Load() != 0 {
		t.Error("empty upload reached the backend")
	}
}

func TestClientContextCancellation(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.Health(ctx); err == nil {
		t.Fatal("Health() succeeded with an expired context")
	}
}
