// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

// Package metrics exposes Prometheus instrumentation for the client:
// backend request outcomes, cache efficiency, circuit breaker state,
// polling lifecycle and reconciliation decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backend API metrics
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexent_backend_request_duration_seconds",
			Help:    "Duration of Nexent backend API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexent_backend_requests_total",
			Help: "Total backend API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: success, failure
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexent_cache_hits_total",
			Help: "Total TTL cache hits by cache name",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexent_cache_misses_total",
			Help: "Total TTL cache misses by cache name",
		},
		[]string{"cache"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nexent_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexent_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexent_circuit_breaker_requests_total",
			Help: "Total requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	// Polling metrics
	PollingSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nexent_polling_sessions_active",
			Help: "Number of currently running polling sessions",
		},
	)

	PollTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexent_poll_ticks_total",
			Help: "Total polling ticks by result",
		},
		[]string{"result"}, // result: ok, fetch_error, converged
	)

	// Reconciliation metrics
	ReconcileActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexent_reconcile_actions_total",
			Help: "Total reconciliation outcomes by action",
		},
		[]string{"action"}, // action: replace, patch, noop
	)
)
