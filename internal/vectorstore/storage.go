package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"askly/internal/domain"
)

// Scope restricts a read or delete to one tenant and, optionally, one
// document. There is no way to address the collection without a user id.
type Scope struct {
	UserID     string
	DocumentID string
}

// NewScope builds a validated scope.
func NewScope(userID, documentID string) (Scope, error) {
	s := Scope{UserID: strings.TrimSpace(userID), DocumentID: strings.TrimSpace(documentID)}
	return s, s.Validate()
}

// Validate rejects scopes without a user id.
func (s Scope) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return nil
}

// Storage is a vector database backend holding every tenant's chunks in one
// collection. Implementations apply the scope as a payload filter on every
// read and delete; they report a missing collection as
// domain.ErrCollectionNotFound.
type Storage interface {
	// EnsureCollection creates the collection and its userId/documentId
	// payload indexes if absent. It is idempotent.
	EnsureCollection(ctx context.Context, dimension int) error
	// Upsert writes chunks with their vectors in a single call.
	Upsert(ctx context.Context, chunks []domain.Chunk) error
	// Search returns at most k chunks in scope, most similar first.
	Search(ctx context.Context, vector []float32, scope Scope, k int) ([]domain.SearchResult, error)
	// Scroll returns the metadata of every chunk in scope.
	Scroll(ctx context.Context, scope Scope) ([]domain.ChunkMetadata, error)
	// Delete removes every chunk in scope.
	Delete(ctx context.Context, scope Scope) error
}
