// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

/*
directory.go - Knowledge Base Directory

CRUD-style facade over the backend's index store. Two TTL caches shield
the backend from repeated calls:

  - health cache (60s default): both probe outcomes are cached, so a
    failed probe suppresses further probes for a full TTL window
  - empty-list cache (30s default): set only when a listing comes back
    empty, cleared by any non-empty listing and invalidated by every
    create/delete

Read paths (health, list, exists) swallow failures and degrade to safe
defaults; write paths surface typed errors to the caller.
*/

package sync

import (
	"context"
	"path"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/LittlPenguin/nexent/internal/cache"
	"github.com/LittlPenguin/nexent/internal/config"
	"github.com/LittlPenguin/nexent/internal/logging"
	"github.com/LittlPenguin/nexent/internal/metrics"
	"github.com/LittlPenguin/nexent/internal/models"
	"github.com/LittlPenguin/nexent/internal/models/ingest"
)

// Cache keys. Each cache holds a single process-wide fact.
const (
	healthCacheKey    = "health"
	emptyListCacheKey = "empty"
)

// sourceUser marks knowledge bases created through this client.
const sourceUser = "user"

var validate = validator.New()

// CreateParams describes a knowledge base to create.
type CreateParams struct {
	Name           string `validate:"required,min=1,max=128"`
	Description    string `validate:"max=1024"`
	EmbeddingModel string
}

// ListOptions tunes one List call.
type ListOptions struct {
	// SkipHealthCheck bypasses the health gate, for callers that must
	// work even when health is momentarily uncertain (name-uniqueness
	// checks during creation).
	SkipHealthCheck bool

	// ForceRefresh bypasses the empty-list cache for a guaranteed-fresh
	// read.
	ForceRefresh bool
}

// Directory is the knowledge base facade. It owns the two TTL caches and
// is their only writer.
type Directory struct {
	client      ClientInterface
	healthCache *cache.TTL[bool]
	emptyCache  *cache.TTL[bool]
	bus         *Bus
}

// NewDirectory creates a Directory over client. bus may be nil; when set,
// create and delete publish list refresh events on it.
func NewDirectory(client ClientInterface, cfg *config.CacheConfig, bus *Bus) *Directory {
	return &Directory{
		client:      client,
		healthCache: cache.NewTTL[bool]("health", cfg.HealthTTL),
		emptyCache:  cache.NewTTL[bool]("empty_list", cfg.EmptyListTTL),
		bus:         bus,
	}
}

// cacheGet wraps a TTL cache read with hit/miss metrics.
func cacheGet(c *cache.TTL[bool], key string) (bool, bool) {
	v, ok := c.Get(key)
	if ok {
		metrics.CacheHits.WithLabelValues(c.Name()).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(c.Name()).Inc()
	}
	return v, ok
}

// CheckHealth reports backend health, consulting the health cache first.
// Probe failures are treated as unhealthy and are themselves cached for
// the TTL window, preventing health-check storms during an outage.
func (d *Directory) CheckHealth(ctx context.Context) bool {
	if healthy, ok := cacheGet(d.healthCache, healthCacheKey); ok {
		return healthy
	}

	resp, err := d.client.Health(ctx)
	healthy := err == nil && resp.Status == "ok" && resp.Elasticsearch == "connected"
	if err != nil {
		logging.Warn().Err(err).Msg("health probe failed")
	}

	d.healthCache.Set(healthCacheKey, healthy)
	return healthy
}

// List returns all knowledge base summaries. Unhealthy backend or fetch
// failure short-circuits to an empty result; a cached empty observation
// is served for up to the empty-list TTL unless ForceRefresh is set.
func (d *Directory) List(ctx context.Context, opts ListOptions) []models.KnowledgeBaseSummary {
	if !opts.SkipHealthCheck && !d.CheckHealth(ctx) {
		return nil
	}

	if !opts.ForceRefresh {
		if _, ok := cacheGet(d.emptyCache, emptyListCacheKey); ok {
			return []models.KnowledgeBaseSummary{}
		}
	}

	resp, err := d.client.ListIndices(ctx, "*", true)
	if err != nil {
		logging.Warn().Err(err).Msg("failed to list knowledge bases")
		return nil
	}

	summaries := mapIndices(resp)
	if len(summaries) == 0 {
		d.emptyCache.Set(emptyListCacheKey, true)
	} else {
		d.emptyCache.Invalidate(emptyListCacheKey)
	}
	return summaries
}

// Exists probes whether an index with the given name exists, using a
// statistics-free listing to keep the call cheap. Failures read as false.
func (d *Directory) Exists(ctx context.Context, name string) bool {
	resp, err := d.client.ListIndices(ctx, "*", false)
	if err != nil {
		logging.Warn().Err(err).Str("kb", name).Msg("existence probe failed")
		return false
	}
	for _, idx := range resp.Indices {
		if idx == name {
			return true
		}
	}
	return false
}

// NameExists reports whether a knowledge base with the given display name
// exists. It bypasses the health gate: uniqueness checks must work even
// when health is momentarily uncertain.
func (d *Directory) NameExists(ctx context.Context, name string) bool {
	for _, kb := range d.List(ctx, ListOptions{SkipHealthCheck: true}) {
		if kb.Name == name {
			return true
		}
	}
	return false
}

// Create creates a knowledge base. It fails fast when the backend is
// unhealthy, invalidates the empty-list cache unconditionally on success,
// and returns a locally synthesized summary with zeroed counters; the
// backend is not re-queried for exact counts.
func (d *Directory) Create(ctx context.Context, params CreateParams) (*models.KnowledgeBaseSummary, error) {
	if err := validate.Struct(params); err != nil {
		return nil, err
	}
	if !d.CheckHealth(ctx) {
		return nil, ErrBackendUnavailable
	}

	if err := d.client.CreateIndex(ctx, params.Name, params.Description, params.EmbeddingModel); err != nil {
		return nil, err
	}

	d.emptyCache.Invalidate(emptyListCacheKey)
	d.notifyListChanged()

	return &models.KnowledgeBaseSummary{
		ID:             params.Name,
		Name:           params.Name,
		Description:    params.Description,
		DocumentCount:  0,
		ChunkCount:     0,
		CreatedAt:      time.Now(),
		EmbeddingModel: params.EmbeddingModel,
		Source:         sourceUser,
	}, nil
}

// Delete removes a knowledge base. The empty-list cache is invalidated
// unconditionally: the directory may just have become empty.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.client.DeleteIndex(ctx, id); err != nil {
		return err
	}
	d.emptyCache.Invalidate(emptyListCacheKey)
	d.notifyListChanged()
	return nil
}

// ListDocuments fetches the document list of one knowledge base.
// forceRefresh busts any intermediary caching for a guaranteed-fresh file
// list. Missing file fields default deterministically.
func (d *Directory) ListDocuments(ctx context.Context, kbID string, forceRefresh bool) ([]models.Document, error) {
	resp, err := d.client.GetIndexDetail(ctx, kbID, true, forceRefresh)
	if err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(resp.Files))
	for _, f := range resp.Files {
		docs = append(docs, mapFile(kbID, f))
	}
	return docs, nil
}

// UploadDocuments uploads one or more files into a knowledge base.
// chunkingStrategy may be empty. Errors follow the upload taxonomy in
// errors.go.
func (d *Directory) UploadDocuments(ctx context.Context, kbID string, files []UploadFile, chunkingStrategy string) error {
	return d.client.UploadFiles(ctx, kbID, files, chunkingStrategy)
}

// DeleteDocument removes one document, keyed by its path or URL.
func (d *Directory) DeleteDocument(ctx context.Context, docID, kbID string) error {
	return d.client.DeleteDocument(ctx, kbID, docID)
}

func (d *Directory) notifyListChanged() {
	if d.bus == nil {
		return
	}
	if err := d.bus.PublishListRefresh(ListRefresh{ForceRefresh: true}); err != nil {
		logging.Warn().Err(err).Msg("failed to publish list refresh")
	}
}

// mapIndices converts a listing response to summaries. When the stats
// array is missing entries, bare names still produce minimal summaries.
func mapIndices(resp *ingest.ListIndicesResponse) []models.KnowledgeBaseSummary {
	seen := make(map[string]bool, len(resp.IndicesInfo))
	summaries := make([]models.KnowledgeBaseSummary, 0, len(resp.Indices))

	for _, info := range resp.IndicesInfo {
		seen[info.Name] = true
		summaries = append(summaries, models.KnowledgeBaseSummary{
			ID:             info.Name,
			Name:           info.Name,
			DocumentCount:  info.Stats.BaseInfo.DocCount,
			ChunkCount:     info.Stats.BaseInfo.ChunkCount,
			CreatedAt:      parseBackendTime(info.Stats.BaseInfo.CreationDate, time.Time{}),
			EmbeddingModel: info.Stats.BaseInfo.EmbeddingModel,
			Source:         "elasticsearch",
		})
	}
	for _, name := range resp.Indices {
		if !seen[name] {
			summaries = append(summaries, models.KnowledgeBaseSummary{
				ID:     name,
				Name:   name,
				Source: "elasticsearch",
			})
		}
	}
	return summaries
}

// mapFile converts one backend file record to a Document, applying the
// deterministic defaults for missing fields.
func mapFile(kbID string, f ingest.FileInfo) models.Document {
	name := f.File
	if name == "" {
		name = path.Base(f.PathOrURL)
	}

	var size int64
	if f.FileSize != nil {
		size = *f.FileSize
	}

	status := models.DocumentStatus(f.Status)
	if f.Status == "" {
		status = models.StatusUnknown
	}

	return models.Document{
		ID:         f.PathOrURL,
		KBID:       kbID,
		Name:       name,
		Type:       models.DocTypeFromFilename(name),
		Size:       size,
		CreateTime: parseBackendTime(f.CreateTime, time.Now()),
		ChunkNum:   f.ChunkCount,
		TokenNum:   0,
		Status:     status,
	}
}

// parseBackendTime handles the backend's assorted timestamp encodings:
// RFC3339, a plain datetime, or epoch milliseconds.
func parseBackendTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms)
	}
	return fallback
}
