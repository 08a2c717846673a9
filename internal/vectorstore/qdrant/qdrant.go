package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/tidwall/gjson"

	"askly/internal/domain"
	"askly/internal/vectorstore"
)

const (
	DefaultCollection = "askly-documents"
	scrollPageSize    = 256
)

// pointNamespace seeds the deterministic point ids derived from
// userId, documentId and chunkIndex.
var pointNamespace = uuid.MustParse("3b8f5a52-6c1e-4d7a-9f0b-2e4c6d8a1b3f")

// indexedFields get keyword payload indexes so tenant filters stay fast.
var indexedFields = []string{"userId", "documentId"}

// Storage is a REST client to Qdrant holding every tenant in one collection
// with cosine distance.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	logger     *log.Logger
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config, logger *log.Logger) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// statusError is a non-2xx answer from Qdrant.
type statusError struct {
	method string
	path   string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %d %s", e.method, e.path, e.status, e.body)
}

func (s *Storage) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrStorage, dimension)
	}
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors json.RawMessage `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
			PayloadSchema map[string]json.RawMessage `json:"payload_schema"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodGet, s.collectionPath(), nil, &info)
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound):
		if err := s.createCollection(ctx, dimension); err != nil {
			return err
		}
		return s.createIndexes(ctx, nil)
	case err != nil:
		return err
	}

	var vectors struct {
		Size int `json:"size"`
	}
	if json.Unmarshal(info.Result.Config.Params.Vectors, &vectors) == nil && vectors.Size != 0 && vectors.Size != dimension {
		s.logger.Warn().
			Str("collection", s.collection).
			Int("existing_size", vectors.Size).
			Int("expected_size", dimension).
			Msg("Collection vector size differs from embedder dimension")
	}
	return s.createIndexes(ctx, info.Result.PayloadSchema)
}

func (s *Storage) createCollection(ctx context.Context, dimension int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	err := s.do(ctx, http.MethodPut, s.collectionPath(), body, nil)
	var se *statusError
	if errors.As(err, &se) && se.status == http.StatusConflict {
		// Another instance created it first.
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info().Str("collection", s.collection).Int("dimension", dimension).Msg("Created collection")
	return nil
}

func (s *Storage) createIndexes(ctx context.Context, existing map[string]json.RawMessage) error {
	for _, field := range indexedFields {
		if _, ok := existing[field]; ok {
			continue
		}
		body := map[string]any{"field_name": field, "field_schema": "keyword"}
		if err := s.do(ctx, http.MethodPut, s.collectionPath()+"/index?wait=true", body, nil); err != nil {
			return err
		}
	}
	return nil
}

type point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload payload   `json:"payload"`
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	points := make([]point, len(chunks))
	for i, c := range chunks {
		points[i] = point{
			ID:      PointID(c.Metadata.UserID, c.Metadata.DocumentID, c.Metadata.ChunkIndex),
			Vector:  c.Vector,
			Payload: toPayload(c),
		}
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, s.collectionPath()+"/points?wait=true", body, nil)
}

func (s *Storage) Search(ctx context.Context, vector []float32, scope vectorstore.Scope, k int) ([]domain.SearchResult, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"filter":       scopeFilter(scope),
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload payload `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath()+"/points/search", req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		// Defense against a backend that ignored the filter.
		if r.Payload.UserID != scope.UserID {
			continue
		}
		results = append(results, domain.SearchResult{Chunk: r.Payload.chunk(), Score: r.Score})
	}
	return results, nil
}

func (s *Storage) Scroll(ctx context.Context, scope vectorstore.Scope) ([]domain.ChunkMetadata, error) {
	var (
		out    []domain.ChunkMetadata
		offset json.RawMessage
	)
	for {
		req := map[string]any{
			"filter":       scopeFilter(scope),
			"limit":        scrollPageSize,
			"with_payload": map[string]any{"exclude": []string{"text"}},
			"with_vector":  false,
		}
		if len(offset) > 0 {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload payload `json:"payload"`
				} `json:"points"`
				NextPageOffset json.RawMessage `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodPost, s.collectionPath()+"/points/scroll", req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			if p.Payload.UserID != scope.UserID {
				continue
			}
			out = append(out, p.Payload.chunk().Metadata)
		}
		next := resp.Result.NextPageOffset
		if len(next) == 0 || string(next) == "null" {
			return out, nil
		}
		offset = next
	}
}

func (s *Storage) Delete(ctx context.Context, scope vectorstore.Scope) error {
	body := map[string]any{"filter": scopeFilter(scope)}
	return s.do(ctx, http.MethodPost, s.collectionPath()+"/points/delete?wait=true", body, nil)
}

// PointID derives a stable point id so re-upserting a chunk overwrites it.
func PointID(userID, documentID string, chunkIndex int) string {
	return uuid.NewSHA1(pointNamespace, fmt.Appendf(nil, "%s:%s:%d", userID, documentID, chunkIndex)).String()
}

func scopeFilter(scope vectorstore.Scope) map[string]any {
	must := []map[string]any{match("userId", scope.UserID)}
	if scope.DocumentID != "" {
		must = append(must, match("documentId", scope.DocumentID))
	}
	return map[string]any{"must": must}
}

func match(key, value string) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"value": value}}
}

func (s *Storage) collectionPath() string {
	return "/collections/" + url.PathEscape(s.collection)
}

func (s *Storage) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", domain.ErrStorage, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s %s: %v", domain.ErrStorage, method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusNotFound && missingCollection(msg) {
			return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, s.collection)
		}
		return fmt.Errorf("%w: %w", domain.ErrStorage, &statusError{
			method: method, path: path, status: resp.StatusCode, body: strings.TrimSpace(string(msg)),
		})
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode %s response: %v", domain.ErrStorage, path, err)
		}
	}
	return nil
}

// missingCollection reports whether a 404 body is Qdrant's own "collection
// doesn't exist" status. Any other 404 (wrong base URL, proxy prefix) is a
// storage failure.
func missingCollection(body []byte) bool {
	msg := gjson.GetBytes(body, "status.error").String()
	return strings.Contains(msg, "Collection") && strings.Contains(msg, "doesn't exist")
}
