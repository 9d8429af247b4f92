// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

package models

// DocumentSnapshot is the full ordered set of documents for one knowledge
// base at a point in time, with a status index for O(1) diffing.
//
// Snapshots are immutable after construction: reconciliation produces new
// snapshots and never mutates an existing one in place. Consumers may rely
// on pointer identity to skip work when nothing changed.
type DocumentSnapshot struct {
	KBID      string
	Documents []Document

	// statusIndex maps document ID to its position in Documents.
	statusIndex map[string]int
}

// NewDocumentSnapshot builds a snapshot over the given documents.
// The document slice is owned by the snapshot after this call.
func NewDocumentSnapshot(kbID string, documents []Document) *DocumentSnapshot {
	idx := make(map[string]int, len(documents))
	for i := range documents {
		idx[documents[i].ID] = i
	}
	return &DocumentSnapshot{
		KBID:        kbID,
		Documents:   documents,
		statusIndex: idx,
	}
}

// Lookup returns the document with the given ID, if present.
func (s *DocumentSnapshot) Lookup(id string) (Document, bool) {
	if s == nil {
		return Document{}, false
	}
	i, ok := s.statusIndex[id]
	if !ok {
		return Document{}, false
	}
	return s.Documents[i], true
}

// Contains reports whether a document with the given ID is in the snapshot.
func (s *DocumentSnapshot) Contains(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.statusIndex[id]
	return ok
}

// Len returns the number of documents in the snapshot. A nil snapshot is empty.
func (s *DocumentSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Documents)
}
