// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

/*
manager.go - Polling session manager

Owns the process-wide "which knowledge base is being watched" pointer and
runs at most one timer-driven fetch loop per knowledge base id. Sessions
are deduplicated by id; each one polls the document list, feeds it through
the reconciliation engine, and tears itself down once ingestion has
converged. A failed fetch tick never ends a session; only convergence or
an explicit stop does.
*/

package sync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LittlPenguin/nexent/internal/logging"
	"github.com/LittlPenguin/nexent/internal/metrics"
	"github.com/LittlPenguin/nexent/internal/models"
)

// DefaultPollInterval is used when the manager is constructed with a
// non-positive interval. The exact value is a tuning parameter; the
// convergence predicate, not time, terminates sessions.
const DefaultPollInterval = 3 * time.Second

// tickTimeout bounds a single fetch+reconcile pass.
const tickTimeout = 30 * time.Second

// DocumentLister is the one Directory capability the manager needs.
type DocumentLister interface {
	ListDocuments(ctx context.Context, kbID string, forceRefresh bool) ([]models.Document, error)
}

// UpdateFunc receives the result of every reconciliation that changed the
// session's snapshot. Called from the session's own goroutine.
type UpdateFunc func(Result)

// Manager runs polling sessions and routes their updates.
type Manager struct {
	lister   DocumentLister
	bus      *Bus
	interval time.Duration

	mu       sync.Mutex
	sessions map[string]*session
	active   string

	wg sync.WaitGroup
}

// session is one timer-driven polling loop for a knowledge base.
type session struct {
	id       string // correlation id for logs
	kbID     string
	stop     chan struct{}
	onUpdate UpdateFunc
	prev     *models.DocumentSnapshot
}

// NewManager creates a manager polling through lister at the given
// interval. bus may be nil; when set, changed snapshots and list refresh
// signals are published on it.
func NewManager(lister DocumentLister, bus *Bus, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Manager{
		lister:   lister,
		bus:      bus,
		interval: interval,
		sessions: make(map[string]*session),
	}
}

// SetActive records which knowledge base's update events listeners should
// treat as relevant. It does not start or stop any session. Last write
// wins; the empty string means none.
func (m *Manager) SetActive(kbID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = kbID
}

// Active returns the currently active knowledge base id, or "".
func (m *Manager) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// StartPolling starts a polling session for kbID. Idempotent: an existing
// session for the same id is left running untouched. onUpdate may be nil.
func (m *Manager) StartPolling(kbID string, onUpdate UpdateFunc) {
	m.mu.Lock()
	if _, exists := m.sessions[kbID]; exists {
		m.mu.Unlock()
		return
	}
	s := &session{
		id:       uuid.NewString(),
		kbID:     kbID,
		stop:     make(chan struct{}),
		onUpdate: onUpdate,
	}
	m.sessions[kbID] = s
	m.mu.Unlock()

	metrics.PollingSessionsActive.Inc()
	logging.Info().Str("kb", kbID).Str("session", s.id).Dur("interval", m.interval).Msg("polling started")

	m.wg.Add(1)
	go m.run(s)
}

// StopPolling cancels and removes the session for kbID. No-op when absent.
func (m *Manager) StopPolling(kbID string) {
	m.mu.Lock()
	s, ok := m.sessions[kbID]
	if ok {
		delete(m.sessions, kbID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	close(s.stop)
	metrics.PollingSessionsActive.Dec()
	logging.Info().Str("kb", kbID).Str("session", s.id).Msg("polling stopped")
}

// IsPolling reports whether a session for kbID is registered.
func (m *Manager) IsPolling(kbID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[kbID]
	return ok
}

// TriggerListUpdate signals listeners that the knowledge base list should
// be refreshed. Fire and forget; no fetch happens here.
func (m *Manager) TriggerListUpdate(forceRefresh bool) {
	if m.bus == nil {
		return
	}
	if err := m.bus.PublishListRefresh(ListRefresh{ForceRefresh: forceRefresh}); err != nil {
		logging.Warn().Err(err).Msg("failed to publish list refresh")
	}
}

// StopAll tears down every session and waits for their goroutines.
func (m *Manager) StopAll() {
	m.mu.Lock()
	stopped := make([]*session, 0, len(m.sessions))
	for id, s := range m.sessions {
		stopped = append(stopped, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range stopped {
		close(s.stop)
		metrics.PollingSessionsActive.Dec()
	}
	m.wg.Wait()
}

// Serve makes the manager a supervisable service: it blocks until ctx is
// done, then stops all sessions.
func (m *Manager) Serve(ctx context.Context) error {
	<-ctx.Done()
	m.StopAll()
	return ctx.Err()
}

// run is the session loop. An initial poll happens before the first tick.
// Fetch and reconciliation run inline, so ticks for one knowledge base
// are strictly sequential.
func (m *Manager) run(s *session) {
	defer m.wg.Done()

	if !m.tick(s) {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if !m.tick(s) {
				return
			}
		}
	}
}

// tick performs one fetch+reconcile pass. Returns false when the session
// should end (converged, or no longer registered).
func (m *Manager) tick(s *session) bool {
	// A timer firing after teardown must be a no-op.
	m.mu.Lock()
	registered := m.sessions[s.kbID] == s
	m.mu.Unlock()
	if !registered {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	docs, err := m.lister.ListDocuments(ctx, s.kbID, true)
	cancel()
	if err != nil {
		// Retried on the next tick; only convergence or StopPolling ends
		// a session.
		metrics.PollTicks.WithLabelValues("fetch_error").Inc()
		logging.Warn().Err(err).Str("kb", s.kbID).Str("session", s.id).Msg("poll tick failed")
		return true
	}

	res := Reconcile(s.kbID, s.prev, docs)
	s.prev = res.Snapshot

	if res.Changed {
		if s.onUpdate != nil {
			s.onUpdate(res)
		}
		m.publishDocuments(s.kbID, res.Snapshot.Documents)
	}

	if !res.ContinuePolling {
		metrics.PollTicks.WithLabelValues("converged").Inc()
		logging.Info().Str("kb", s.kbID).Str("session", s.id).Msg("ingestion converged, polling stopped")
		m.removeIfCurrent(s)
		return false
	}

	metrics.PollTicks.WithLabelValues("ok").Inc()
	return true
}

// removeIfCurrent removes s from the registry if it is still the
// registered session for its knowledge base.
func (m *Manager) removeIfCurrent(s *session) {
	m.mu.Lock()
	if m.sessions[s.kbID] == s {
		delete(m.sessions, s.kbID)
		metrics.PollingSessionsActive.Dec()
	}
	m.mu.Unlock()
}

func (m *Manager) publishDocuments(kbID string, docs []models.Document) {
	if m.bus == nil {
		return
	}
	if err := m.bus.PublishDocumentsUpdated(DocumentsUpdated{KBID: kbID, Documents: docs}); err != nil {
		logging.Warn().Err(err).Str("kb", kbID).Msg("failed to publish document update")
	}
}
