// Package service wires extraction, chunking, tagging, embedding and the
// vector store into the indexing pipeline and the question-answering flow.
package service

import (
	"context"
	"fmt"
	"strings"

	"askly/internal/domain"
	"askly/internal/vectorstore"
)

// Store is the tenant-scoped view of the vector collection.
// *vectorstore.Gateway implements it.
type Store interface {
	Upsert(ctx context.Context, chunks []domain.Chunk) error
	Search(ctx context.Context, vector []float32, scope vectorstore.Scope, k int) ([]domain.SearchResult, error)
	ListDocuments(ctx context.Context, userID string) ([]domain.DocumentSummary, error)
	DeleteDocument(ctx context.Context, userID, documentID string) error
}

// Fetcher extracts remote sources. *extractor.Extractor implements it.
type Fetcher interface {
	Website(ctx context.Context, url, name string) (domain.Extraction, error)
	YouTube(ctx context.Context, url string) (domain.Extraction, error)
}

func requireUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return userID, nil
}
