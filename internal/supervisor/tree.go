// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

// Package supervisor wires the long-running client services (polling
// session manager, optional metrics endpoint) under a suture supervisor
// so crashed services restart with backoff instead of taking the process
// down.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/LittlPenguin/nexent/internal/logging"
)

// Tree is the root supervisor for the client's background services.
type Tree struct {
	root *suture.Supervisor
}

// New creates the supervisor tree. Suture events are logged through the
// global zerolog logger via the slog bridge.
//
// The sutureslog API is (&Handler{Logger: logger}).MustHook();
// MustHook has a pointer receiver.
func New() *Tree {
	logger := slog.New(logging.NewSlogHandler())
	handler := &sutureslog.Handler{Logger: logger}

	root := suture.New("nexent", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
	return &Tree{root: root}
}

// Add registers a service with the root supervisor.
func (t *Tree) Add(svc suture.Service) suture.ServiceToken {
	return t.root.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine; the returned channel
// receives the terminal error when the supervisor stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}
