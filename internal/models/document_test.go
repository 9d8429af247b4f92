// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

package models

import "testing"

func TestDocumentStatusIsTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   DocumentStatus
		terminal bool
	}{
		{StatusWaiting, false},
		{StatusWaitForProcessing, false},
		{StatusProcessing, false},
		{StatusWaitForForwarding, false},
		{StatusForwarding, false},
		{StatusCompleted, true},
		{StatusProcessFailed, true},
		{StatusForwardFailed, true},
		{StatusUnknown, false},
		{DocumentStatus("SOMETHING_NEW"), false},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestDocumentStatusIsFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status  DocumentStatus
		failure bool
	}{
		{StatusCompleted, false},
		{StatusProcessFailed, true},
		{StatusForwardFailed, true},
		{StatusProcessing, false},
		{StatusUnknown, false},
	}

	for _, tt := range tests {
		if got := tt.status.IsFailure(); got != tt.failure {
			t.Errorf("%s.IsFailure() = %v, want %v", tt.status, got, tt.failure)
		}
	}
}

func TestDocTypeFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want DocumentType
	}{
		{"report.pdf", TypePDF},
		{"REPORT.PDF", TypePDF},
		{"notes.doc", TypeWord},
		{"notes.docx", TypeWord},
		{"sheet.xls", TypeExcel},
		{"sheet.xlsx", TypeExcel},
		{"deck.ppt", TypePowerPoint},
		{"deck.pptx", TypePowerPoint},
		{"readme.txt", TypeText},
		{"readme.md", TypeMarkdown},
		{"data/dir/nested.pdf", TypePDF},
		{"archive.zip", TypeUnknown},
		{"no-extension", TypeUnknown},
		{"", TypeUnknown},
		{"https://example.com/docs/guide.pdf", TypePDF},
	}

	for _, tt := range tests {
		if got := DocTypeFromFilename(tt.name); got != tt.want {
			t.Errorf("DocTypeFromFilename(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDocumentSnapshotLookup(t *testing.T) {
	t.Parallel()

	docs := []Document{
		{ID: "a.pdf", Status: StatusProcessing},
		{ID: "b.pdf", Status: StatusCompleted},
	}
	snap := NewDocumentSnapshot("kb-1", docs)

	if snap.Len() != 2 {
		t.Errorf("Len() = %d, want 2", snap.Len())
	}

	doc, ok := snap.Lookup("b.pdf")
	if !ok {
		t.Fatal("Lookup(b.pdf) not found")
	}
	if doc.Status != StatusCompleted {
		t.Errorf("Lookup(b.pdf).Status = %v, want %v", doc.Status, StatusCompleted)
	}

	if _, ok := snap.Lookup("c.pdf"); ok {
		t.Error("Lookup(c.pdf) found a document that is not in the snapshot")
	}
	if !snap.Contains("a.pdf") {
		t.Error("Contains(a.pdf) = false")
	}
	if snap.Contains("c.pdf") {
		t.Error("Contains(c.pdf) = true")
	}
}

func TestDocumentSnapshotNilSafe(t *testing.T) {
	t.Parallel()

	var snap *DocumentSnapshot

	if snap.Len() != 0 {
		t.Errorf("nil snapshot Len() = %d, want 0", snap.Len())
	}
	if snap.Contains("x") {
		t.Error("nil snapshot Contains = true")
	}
	if _, ok := snap.Lookup("x"); ok {
		t.Error("nil snapshot Lookup returned ok")
	}
}
