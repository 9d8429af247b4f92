// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

/*
reconcile.go - Document snapshot reconciliation

Given the previous snapshot and a freshly fetched document list, decides
whether local state should be replaced wholesale or patched field-by-field,
and whether the ingestion pipeline is still converging.

The replace/patch split is deliberately coarse: any added or removed
document triggers a full replace, because additions and removals are rare
and cheap to handle that way. Patches only ever touch status and size, the
two fields the pipeline mutates.
*/

package sync

import (
	"github.com/LittlPenguin/nexent/internal/metrics"
	"github.com/LittlPenguin/nexent/internal/models"
)

// Action says how the previous snapshot relates to the reconciled one.
type Action int

const (
	// ActionReplace: the incoming list had a different membership, so the
	// snapshot was rebuilt from scratch.
	ActionReplace Action = iota
	// ActionPatch: same membership; only changed documents were rewritten.
	// A patch that changes nothing returns the previous snapshot unchanged.
	ActionPatch
)

// String returns the action name for logging and metrics.
func (a Action) String() string {
	if a == ActionReplace {
		return "replace"
	}
	return "patch"
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	Action Action

	// Snapshot is the reconciled state. For a no-op patch this is the
	// exact previous snapshot pointer, so consumers can skip re-rendering
	// on identity-equal state.
	Snapshot *models.DocumentSnapshot

	// Changed reports whether Snapshot differs from the previous one.
	Changed bool

	// ContinuePolling is the sole polling-termination authority: true
	// while any document has not converged.
	ContinuePolling bool
}

// Reconcile compares the previous snapshot with a freshly fetched document
// list and computes the minimal state update.
//
// A nil previous snapshot always produces a replace.
func Reconcile(kbID string, prev *models.DocumentSnapshot, incoming []models.Document) Result {
	if prev == nil || prev.Len() != len(incoming) || anyUnknownID(prev, incoming) {
		snapshot := models.NewDocumentSnapshot(kbID, incoming)
		metrics.ReconcileActions.WithLabelValues("replace").Inc()
		return Result{
			Action:          ActionReplace,
			Snapshot:        snapshot,
			Changed:         true,
			ContinuePolling: shouldContinuePolling(incoming),
		}
	}

	changed := false
	for i := range incoming {
		old, _ := prev.Lookup(incoming[i].ID)
		if old.Status != incoming[i].Status || old.Size != incoming[i].Size {
			changed = true
			break
		}
	}

	if !changed {
		metrics.ReconcileActions.WithLabelValues("noop").Inc()
		return Result{
			Action:          ActionPatch,
			Snapshot:        prev,
			Changed:         false,
			ContinuePolling: shouldContinuePolling(prev.Documents),
		}
	}

	// Same membership, some statuses or sizes moved: rebuild with new
	// values only for the changed documents, keeping untouched entries
	// exactly as they were in the previous snapshot.
	docs := make([]models.Document, len(incoming))
	for i := range incoming {
		old, _ := prev.Lookup(incoming[i].ID)
		if old.Status != incoming[i].Status || old.Size != incoming[i].Size {
			docs[i] = incoming[i]
		} else {
			docs[i] = old
		}
	}

	metrics.ReconcileActions.WithLabelValues("patch").Inc()
	return Result{
		Action:          ActionPatch,
		Snapshot:        models.NewDocumentSnapshot(kbID, docs),
		Changed:         true,
		ContinuePolling: shouldContinuePolling(docs),
	}
}

// anyUnknownID reports whether any incoming document id is absent from the
// previous snapshot.
func anyUnknownID(prev *models.DocumentSnapshot, incoming []models.Document) bool {
	for i := range incoming {
		if !prev.Contains(incoming[i].ID) {
			return true
		}
	}
	return false
}

// shouldContinuePolling is true while ingestion has not converged:
// any document still in a non-terminal status, or completed with zero
// observed size (size metadata lagging behind status).
//
// Documents in a terminal failure status are excluded from the zero-size
// rule: they will never gain size, and holding a session open for them
// would poll forever.
func shouldContinuePolling(docs []models.Document) bool {
	for i := range docs {
		if !docs[i].Status.IsTerminal() {
			return true
		}
		if docs[i].Status == models.StatusCompleted && docs[i].Size == 0 {
			return true
		}
	}
	return false
}
