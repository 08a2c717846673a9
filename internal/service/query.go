package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"askly/internal/domain"
	"askly/internal/embedding"
	"askly/internal/vectorstore"
)

const (
	DefaultTopK = 8
	// DefaultHistoryMessages is three user/assistant exchanges.
	DefaultHistoryMessages = 6
)

type QueryOptions struct {
	TopK            int
	HistoryMessages int
}

// AnswerRequest is one question, optionally restricted to a document.
type AnswerRequest struct {
	UserID     string
	Question   string
	DocumentID string
	History    []domain.Message
}

// QueryService answers questions from a user's indexed documents.
type QueryService struct {
	embedder domain.Embedder
	model    domain.LanguageModel
	store    Store
	opts     QueryOptions
	logger   *log.Logger
}

func NewQueryService(embedder domain.Embedder, model domain.LanguageModel, store Store, opts QueryOptions, logger *log.Logger) *QueryService {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.HistoryMessages <= 0 {
		opts.HistoryMessages = DefaultHistoryMessages
	}
	return &QueryService{embedder: embedder, model: model, store: store, opts: opts, logger: logger}
}

// Search returns the k chunks of the user's documents closest to query.
func (q *QueryService) Search(ctx context.Context, query, userID, documentID string, k int) ([]domain.SearchResult, error) {
	scope, err := vectorstore.NewScope(userID, documentID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if k <= 0 {
		k = q.opts.TopK
	}
	vector, err := embedding.EmbedOne(ctx, q.embedder, query)
	if err != nil {
		return nil, err
	}
	return q.store.Search(ctx, vector, scope, k)
}

// Answer retrieves context and asks the model once. With nothing retrieved
// the model is not called.
func (q *QueryService) Answer(ctx context.Context, req AnswerRequest) (domain.Answer, error) {
	start := time.Now()
	results, err := q.Search(ctx, req.Question, req.UserID, req.DocumentID, q.opts.TopK)
	if err != nil {
		return domain.Answer{}, err
	}
	if len(results) == 0 {
		q.logger.Info().Str("user_id", req.UserID).Msg("No context retrieved, skipping model call")
		return domain.Answer{Text: InsufficientContextAnswer, Sources: []domain.Source{}}, nil
	}

	messages := BuildMessages(results, req.History, strings.TrimSpace(req.Question), q.opts.HistoryMessages)
	text, err := q.model.Complete(ctx, messages)
	if err != nil {
		q.logger.Error().Err(err).Str("model", q.model.Name()).Msg("Model call failed")
		return domain.Answer{}, err
	}
	if strings.TrimSpace(text) == "" {
		text = "No response generated"
	}
	q.logger.Info().
		Str("user_id", req.UserID).
		Str("document_id", req.DocumentID).
		Int("chunks", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("Answered question")
	return domain.Answer{Text: text, Sources: Sources(results), DocumentCount: len(results)}, nil
}

func (q *QueryService) ListDocuments(ctx context.Context, userID string) ([]domain.DocumentSummary, error) {
	return q.store.ListDocuments(ctx, userID)
}

func (q *QueryService) DeleteDocument(ctx context.Context, userID, documentID string) error {
	if err := q.store.DeleteDocument(ctx, userID, documentID); err != nil {
		return err
	}
	q.logger.Info().Str("user_id", userID).Str("document_id", documentID).Msg("Deleted document")
	return nil
}
