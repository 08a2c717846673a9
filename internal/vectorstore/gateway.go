package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"askly/internal/domain"
)

const (
	DefaultUpsertBatchSize = 256
	DefaultTopK            = 8
	MaxTopK                = 100

	rollbackTimeout = 30 * time.Second
)

// Gateway is the only path from the services to the vector store. It owns
// the collection lifecycle and enforces the tenant filter on every access.
type Gateway struct {
	store     Storage
	dimension int
	batchSize int
	logger    *log.Logger

	mu    sync.Mutex
	ready bool
}

// NewGateway wraps store. dimension is the embedding size the collection is
// created with.
func NewGateway(store Storage, dimension, upsertBatchSize int, logger *log.Logger) *Gateway {
	if upsertBatchSize <= 0 {
		upsertBatchSize = DefaultUpsertBatchSize
	}
	return &Gateway{store: store, dimension: dimension, batchSize: upsertBatchSize, logger: logger}
}

// EnsureCollection creates the shared collection if needed. Safe to call
// repeatedly and concurrently.
func (g *Gateway) EnsureCollection(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ready {
		return nil
	}
	if err := g.store.EnsureCollection(ctx, g.dimension); err != nil {
		return err
	}
	g.ready = true
	return nil
}

// Upsert writes every chunk of one document. On failure, points already
// written for the document are removed so no partial document remains
// visible.
func (g *Gateway) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	scope, err := validateDocument(chunks)
	if err != nil {
		return err
	}
	if err := g.EnsureCollection(ctx); err != nil {
		return err
	}
	for start := 0; start < len(chunks); start += g.batchSize {
		end := min(start+g.batchSize, len(chunks))
		if err := g.store.Upsert(ctx, chunks[start:end]); err != nil {
			g.rollback(scope, err)
			if !errors.Is(err, domain.ErrStorage) {
				err = fmt.Errorf("%w: %v", domain.ErrStorage, err)
			}
			return err
		}
	}
	g.logger.Debug().
		Str("user_id", scope.UserID).
		Str("document_id", scope.DocumentID).
		Int("chunks", len(chunks)).
		Msg("Upserted document chunks")
	return nil
}

func (g *Gateway) rollback(scope Scope, cause error) {
	// The caller's context may already be done; the cleanup gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()
	if err := g.store.Delete(ctx, scope); err != nil && !errors.Is(err, domain.ErrCollectionNotFound) {
		g.logger.Error().
			Err(err).
			Str("cause", cause.Error()).
			Str("document_id", scope.DocumentID).
			Msg("Failed to remove partially written document")
		return
	}
	g.logger.Warn().
		Err(cause).
		Str("document_id", scope.DocumentID).
		Msg("Upsert failed, partial document removed")
}

// Search returns the k chunks closest to vector within scope. A missing
// collection yields no results.
func (g *Gateway) Search(ctx context.Context, vector []float32, scope Scope, k int) ([]domain.SearchResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrValidation)
	}
	if k <= 0 {
		k = DefaultTopK
	}
	k = min(k, MaxTopK)
	results, err := g.store.Search(ctx, vector, scope, k)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		g.logger.Debug().Str("user_id", scope.UserID).Msg("Search on missing collection, returning no results")
		return []domain.SearchResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// ListDocuments aggregates the user's chunks into document summaries, newest
// first. A missing collection yields an empty list.
func (g *Gateway) ListDocuments(ctx context.Context, userID string) ([]domain.DocumentSummary, error) {
	scope, err := NewScope(userID, "")
	if err != nil {
		return nil, err
	}
	metas, err := g.store.Scroll(ctx, scope)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return []domain.DocumentSummary{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Aggregate(metas), nil
}

// DeleteDocument removes every chunk of the document. Deleting a document
// that does not exist succeeds.
func (g *Gateway) DeleteDocument(ctx context.Context, userID, documentID string) error {
	scope, err := NewScope(userID, documentID)
	if err != nil {
		return err
	}
	if scope.DocumentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrValidation)
	}
	err = g.store.Delete(ctx, scope)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return nil
	}
	return err
}

// Aggregate groups chunk metadata by document id.
func Aggregate(metas []domain.ChunkMetadata) []domain.DocumentSummary {
	byID := make(map[string]*domain.DocumentSummary)
	var order []string
	for _, m := range metas {
		if m.DocumentID == "" {
			continue
		}
		doc, ok := byID[m.DocumentID]
		if !ok {
			url := m.URL
			if url == "" {
				url = m.VideoURL
			}
			doc = &domain.DocumentSummary{
				ID:         m.DocumentID,
				Name:       m.DisplayName(),
				Type:       m.Source,
				UploadedAt: m.UploadedAt,
				URL:        url,
			}
			byID[m.DocumentID] = doc
			order = append(order, m.DocumentID)
		}
		doc.ChunkCount++
		if !m.UploadedAt.IsZero() && (doc.UploadedAt.IsZero() || m.UploadedAt.Before(doc.UploadedAt)) {
			doc.UploadedAt = m.UploadedAt
		}
	}
	out := make([]domain.DocumentSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// validateDocument checks that chunks form one complete document: a single
// user and document id, dense chunk indexes and uniform vectors.
func validateDocument(chunks []domain.Chunk) (Scope, error) {
	if len(chunks) == 0 {
		return Scope{}, fmt.Errorf("%w: no chunks to write", domain.ErrValidation)
	}
	first := chunks[0].Metadata
	scope := Scope{UserID: first.UserID, DocumentID: first.DocumentID}
	if err := scope.Validate(); err != nil {
		return Scope{}, err
	}
	if strings.TrimSpace(scope.DocumentID) == "" {
		return Scope{}, fmt.Errorf("%w: document id is required", domain.ErrValidation)
	}
	seen := make([]bool, len(chunks))
	dim := len(chunks[0].Vector)
	for _, c := range chunks {
		m := c.Metadata
		if m.UserID != scope.UserID || m.DocumentID != scope.DocumentID {
			return Scope{}, fmt.Errorf("%w: chunks belong to more than one document", domain.ErrValidation)
		}
		if m.ChunkIndex < 0 || m.ChunkIndex >= len(chunks) || seen[m.ChunkIndex] {
			return Scope{}, fmt.Errorf("%w: chunk indexes must be unique and dense", domain.ErrValidation)
		}
		seen[m.ChunkIndex] = true
		if strings.TrimSpace(c.Text) == "" {
			return Scope{}, fmt.Errorf("%w: chunk %d is empty", domain.ErrValidation, m.ChunkIndex)
		}
		if dim == 0 || len(c.Vector) != dim {
			return Scope{}, fmt.Errorf("%w: chunk %d has no vector or a mismatched one", domain.ErrValidation, m.ChunkIndex)
		}
	}
	return scope, nil
}
