// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

// Package ingest contains the wire types of the Nexent ingest API.
// These mirror the backend's response shapes exactly; mapping to domain
// types happens in the sync package.
package ingest

// HealthResponse is returned by GET /indices/health.
// The backend is healthy iff Status == "ok" and Elasticsearch == "connected".
type HealthResponse struct {
	Status        string `json:"status"`
	Elasticsearch string `json:"elasticsearch"`
}

// IndexStats carries per-index statistics when include_stats is requested.
type IndexStats struct {
	BaseInfo BaseInfo `json:"base_info"`
}

// BaseInfo is the statistics block inside IndexStats.
type BaseInfo struct {
	DocCount       int    `json:"doc_count"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddingModel string `json:"embedding_model"`
	CreationDate   string `json:"creation_date"`
}

// IndexInfo pairs an index name with its statistics.
type IndexInfo struct {
	Name  string     `json:"name"`
	Stats IndexStats `json:"stats"`
}

// ListIndicesResponse is returned by GET /indices.
// IndicesInfo is only populated when include_stats=true.
type ListIndicesResponse struct {
	Indices     []string    `json:"indices"`
	IndicesInfo []IndexInfo `json:"indices_info"`
}

// FileInfo is one entry of the files array in an index info response.
// FileSize and CreateTime are optional on the wire.
type FileInfo struct {
	PathOrURL  string `json:"path_or_url"`
	File       string `json:"file"`
	FileSize   *int64 `json:"file_size"`
	CreateTime string `json:"create_time"`
	ChunkCount int    `json:"chunk_count"`
	Status     string `json:"status"`
}

// IndexDetailResponse is returned by GET /indices/{name}/info.
// Files is only populated when include_files=true.
type IndexDetailResponse struct {
	BaseInfo       BaseInfo   `json:"base_info"`
	DocCount       int        `json:"doc_count"`
	ChunkCount     int        `json:"chunk_count"`
	EmbeddingModel string     `json:"embedding_model"`
	Files          []FileInfo `json:"files"`
}

// StatusResponse is the generic mutation reply used by index create,
// index delete and document delete. Status "success" means the operation
// succeeded; anything else is a failure described by Message.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UploadErrorResponse is the body of a 400 or 500 upload reply.
// On 400, Errors lists the per-file validation failures.
// On 500, Files lists the files that were saved before processing failed.
type UploadErrorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors"`
	Files  []string `json:"files"`
}

// UploadResponse is the body of a 201 Created upload reply.
type UploadResponse struct {
	Message       string   `json:"message"`
	UploadedFiles []string `json:"uploaded_files"`
}
