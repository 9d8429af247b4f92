// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

// Package models defines the domain types shared across the client:
// knowledge bases, documents, ingestion statuses and document snapshots.
package models

import (
	"path"
	"strings"
	"time"
)

// DocumentStatus is the closed set of ingestion pipeline states reported
// by the backend, plus the client-side WAITING marker used between an
// upload request and the first backend acknowledgement.
type DocumentStatus string

const (
	// Non-terminal pipeline states, in pipeline order.
	StatusWaiting           DocumentStatus = "WAITING"
	StatusWaitForProcessing DocumentStatus = "WAIT_FOR_PROCESSING"
	StatusProcessing        DocumentStatus = "PROCESSING"
	StatusWaitForForwarding DocumentStatus = "WAIT_FOR_FORWARDING"
	StatusForwarding        DocumentStatus = "FORWARDING"

	// Terminal states. The pipeline makes no further transitions from these.
	StatusCompleted     DocumentStatus = "COMPLETED"
	StatusProcessFailed DocumentStatus = "PROCESS_FAILED"
	StatusForwardFailed DocumentStatus = "FORWARD_FAILED"

	// StatusUnknown is the deterministic default for file records the
	// backend returns without a status field.
	StatusUnknown DocumentStatus = "UNKNOWN"
)

// IsTerminal reports whether the pipeline makes no further transitions
// from this status.
func (s DocumentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusProcessFailed, StatusForwardFailed:
		return true
	}
	return false
}

// IsFailure reports whether this is a terminal failure status.
func (s DocumentStatus) IsFailure() bool {
	return s == StatusProcessFailed || s == StatusForwardFailed
}

// DocumentType is a coarse file-type classification derived from the
// document's file extension.
type DocumentType string

const (
	TypePDF        DocumentType = "PDF"
	TypeWord       DocumentType = "Word"
	TypeExcel      DocumentType = "Excel"
	TypePowerPoint DocumentType = "PowerPoint"
	TypeText       DocumentType = "Text"
	TypeMarkdown   DocumentType = "Markdown"
	TypeUnknown    DocumentType = "Unknown"
)

// DocTypeFromFilename maps a file name or path to its coarse DocumentType.
// The mapping is closed: anything outside it is Unknown.
func DocTypeFromFilename(name string) DocumentType {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	switch ext {
	case "pdf":
		return TypePDF
	case "doc", "docx":
		return TypeWord
	case "xls", "xlsx":
		return TypeExcel
	case "ppt", "pptx":
		return TypePowerPoint
	case "txt":
		return TypeText
	case "md":
		return TypeMarkdown
	default:
		return TypeUnknown
	}
}

// Document is one ingested (or ingesting) file inside a knowledge base.
// Identity is ID, the path or URL unique within the knowledge base.
type Document struct {
	ID         string         `json:"id"`
	KBID       string         `json:"kb_id"`
	Name       string         `json:"name"`
	Type       DocumentType   `json:"type"`
	Size       int64          `json:"size"`
	CreateTime time.Time      `json:"create_time"`
	ChunkNum   int            `json:"chunk_num"`
	TokenNum   int            `json:"token_num"`
	Status     DocumentStatus `json:"status"`
}
