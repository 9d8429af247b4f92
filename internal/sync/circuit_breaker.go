// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/LittlPenguin/nexent/internal/logging"
	"github.com/LittlPenguin/nexent/internal/metrics"
	"github.com/LittlPenguin/nexent/internal/models/ingest"
)

// CircuitBreakerClient wraps a ClientInterface with the circuit breaker
// pattern, preventing request storms while the backend is unavailable or
// slow. The breaker uses real time for its interval and timeout
// calculations; tests should mock the wrapped client, not the breaker.
type CircuitBreakerClient struct {
	client ClientInterface
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient wraps client with a circuit breaker.
// Configuration:
//   - 3 concurrent requests allowed in half-open state
//   - 1 minute measurement window in closed state
//   - 1 minute open period before attempting recovery
//   - opens at >= 60% failure rate with a minimum of 10 requests
func NewCircuitBreakerClient(client ClientInterface) *CircuitBreakerClient {
	cbName := "nexent-ingest-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[circuit breaker] opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateString(from)
			toStr := breakerStateString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[circuit breaker] state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: cbName}
}

// execute runs one API call through the breaker and records metrics.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[circuit breaker] request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// castResult type-casts the breaker result with error checking.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Health probes backend health with circuit breaker protection.
func (cbc *CircuitBreakerClient) Health(ctx context.Context) (*ingest.HealthResponse, error) {
	return castResult[ingest.HealthResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.Health(ctx)
	}))
}

// ListIndices lists indices with circuit breaker protection.
func (cbc *CircuitBreakerClient) ListIndices(ctx context.Context, pattern string, includeStats bool) (*ingest.ListIndicesResponse, error) {
	return castResult[ingest.ListIndicesResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.ListIndices(ctx, pattern, includeStats)
	}))
}

// GetIndexDetail fetches index info with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetIndexDetail(ctx context.Context, name string, includeFiles, forceRefresh bool) (*ingest.IndexDetailResponse, error) {
	return castResult[ingest.IndexDetailResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetIndexDetail(ctx, name, includeFiles, forceRefresh)
	}))
}

// CreateIndex creates an index with circuit breaker protection.
func (cbc *CircuitBreakerClient) CreateIndex(ctx context.Context, name, description, embeddingModel string) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.CreateIndex(ctx, name, description, embeddingModel)
	})
	return err
}

// DeleteIndex deletes an index with circuit breaker protection.
func (cbc *CircuitBreakerClient) DeleteIndex(ctx context.Context, name string) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.DeleteIndex(ctx, name)
	})
	return err
}

// DeleteDocument deletes one document with circuit breaker protection.
func (cbc *CircuitBreakerClient) DeleteDocument(ctx context.Context, indexName, pathOrURL string) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.DeleteDocument(ctx, indexName, pathOrURL)
	})
	return err
}

// UploadFiles uploads files with circuit breaker protection.
// Validation errors do not count as breaker failures; they are client-side
// rejections, not backend faults.
func (cbc *CircuitBreakerClient) UploadFiles(ctx context.Context, indexName string, files []UploadFile, chunkingStrategy string) error {
	var validationErr *ValidationError
	_, err := cbc.execute(func() (interface{}, error) {
		uploadErr := cbc.client.UploadFiles(ctx, indexName, files, chunkingStrategy)
		if errors.As(uploadErr, &validationErr) {
			// Swallow inside the breaker, surface after.
			return nil, nil
		}
		return nil, uploadErr
	})
	if err != nil {
		return err
	}
	if validationErr != nil {
		return validationErr
	}
	return nil
}
