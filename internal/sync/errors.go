// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

package sync

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBackendUnavailable is returned by write operations that require a
// healthy backend. Read paths never return it; they degrade to empty
// results instead.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ValidationError is an upload rejected before processing: either no files
// were supplied or some files were invalid.
type ValidationError struct {
	NoFiles bool
	Invalid []string
}

func (e *ValidationError) Error() string {
	if e.NoFiles {
		return "upload rejected: no files in the request"
	}
	return fmt.Sprintf("upload rejected: %d invalid files: %s", len(e.Invalid), strings.Join(e.Invalid, "; "))
}

// ProcessingError is a backend-side upload failure. Files lists the files
// that were saved before processing failed.
type ProcessingError struct {
	Message string
	Files   []string
}

func (e *ProcessingError) Error() string {
	if len(e.Files) == 0 {
		return fmt.Sprintf("upload processing failed: %s", e.Message)
	}
	return fmt.Sprintf("upload processing failed: %s (files: %s)", e.Message, strings.Join(e.Files, ", "))
}

// UnknownResponseError marks a reply whose shape matched neither the
// expected success nor any known error pattern. Treated as failure rather
// than silently succeeding.
type UnknownResponseError struct {
	StatusCode int
}

func (e *UnknownResponseError) Error() string {
	return fmt.Sprintf("unrecognized backend response (status %d)", e.StatusCode)
}

// NotSuccessError is a mutation that returned HTTP 200 but a payload
// status other than "success".
type NotSuccessError struct {
	Op      string
	Message string
}

func (e *NotSuccessError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed: backend did not report success", e.Op)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}
