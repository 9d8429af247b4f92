// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

package sync

import (
	"context"
	"errors"
	"strings"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/LittlPenguin/nexent/internal/models/ingest"
)

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	t.Parallel()

	m := healthyMock()
	cbc := NewCircuitBreakerClient(m)

	resp, err := cbc.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want ok", resp.Status)
	}
}

func TestCircuitBreakerPassesThroughFailure(t *testing.T) {
	t.Parallel()

	m := &mockClient{healthErr: errors.New("connection refused")}
	cbc := NewCircuitBreakerClient(m)

	if _, err := cbc.Health(context.Background()); err == nil {
		t.Fatal("Health() swallowed the backend error")
	}
}

func TestCircuitBreakerOpensUnderSustainedFailure(t *testing.T) {
	t.Parallel()

	m := &mockClient{healthErr: errors.New("connection refused")}
	cbc := NewCircuitBreakerClient(m)
	ctx := context.Background()

	// Trip threshold: >= 60% failures over at least 10 requests.
	for i := 0; i < 12; i++ {
		cbc.Health(ctx)
	}

	_, err := cbc.Health(ctx)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("error after sustained failures = %v, want ErrOpenState", err)
	}

	before := m.calls("health")
	cbc.Health(ctx)
	if m.calls("health") != before {
		t.Error("open breaker still forwarded a request to the backend")
	}
}

func TestCircuitBreakerStaysClosedOnHealthyTraffic(t *testing.T) {
	t.Parallel()

	m := healthyMock()
	cbc := NewCircuitBreakerClient(m)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if _, err := cbc.Health(ctx); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if m.calls("health") != 20 {
		t.Errorf("forwarded = %d, want 20", m.calls("health"))
	}
}

func TestCircuitBreakerUploadValidationNotCountedAsFailure(t *testing.T) {
	t.Parallel()

	m := &mockClient{uploadErr: &ValidationError{NoFiles: true}}
	cbc := NewCircuitBreakerClient(m)
	ctx := context.Background()

	// Far more client-side rejections than the trip threshold.
	var lastErr error
	for i := 0; i < 20; i++ {
		lastErr = cbc.UploadFiles(ctx, "kb-1", nil, "")
	}

	var ve *ValidationError
	if !errors.As(lastErr, &ve) {
		t.Fatalf("error = %v, want ValidationError surfaced to caller", lastErr)
	}

	// The breaker stayed closed: a real request still goes through.
	if _, err := cbc.Health(ctx); err != nil {
		t.Errorf("breaker opened on validation errors: %v", err)
	}
}

func TestCircuitBreakerUploadProcessingErrorSurfaces(t *testing.T) {
	t.Parallel()

	m := &mockClient{uploadErr: &ProcessingError{Message: "embedding down", Files: []string{"a.pdf"}}}
	cbc := NewCircuitBreakerClient(m)

	err := cbc.UploadFiles(context.Background(), "kb-1", []UploadFile{{Name: "a.pdf", Reader: strings.NewReader("x")}}, "")
	var pe *ProcessingError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want ProcessingError", err)
	}
}

func TestCastResultTypeMismatch(t *testing.T) {
	t.Parallel()

	_, err := castResult[ingest.HealthResponse]("not the right type", nil)
	if err == nil {
		t.Fatal("castResult accepted a mismatched type")
	}

	want := &ingest.HealthResponse{Status: "ok"}
	got, err := castResult[ingest.HealthResponse](want, nil)
	if err != nil {
		t.Fatalf("castResult error: %v", err)
	}
	if got != want {
		t.Error("castResult returned a different pointer")
	}
}
