package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"askly/internal/domain"
	"askly/internal/vectorstore"
)

// Storage is an in-memory vector store using brute-force cosine similarity.
// Like a real backend it has no collection until EnsureCollection is called.
type Storage struct {
	mu        sync.RWMutex
	exists    bool
	dimension int
	points    map[string]domain.Chunk
}

func NewStorage() *Storage { return &Storage{points: make(map[string]domain.Chunk)} }

func (s *Storage) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrStorage, dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		s.exists = true
		s.dimension = dimension
	}
	return nil
}

func (s *Storage) Upsert(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return domain.ErrCollectionNotFound
	}
	for _, c := range chunks {
		if len(c.Vector) != s.dimension {
			return fmt.Errorf("%w: vector dimension %d, collection expects %d", domain.ErrStorage, len(c.Vector), s.dimension)
		}
	}
	for _, c := range chunks {
		c.Vector = append([]float32(nil), c.Vector...)
		s.points[key(c.Metadata)] = c
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float32, scope vectorstore.Scope, k int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return nil, domain.ErrCollectionNotFound
	}
	results := make([]domain.SearchResult, 0)
	for _, c := range s.points {
		if !inScope(c.Metadata, scope) {
			continue
		}
		results = append(results, domain.SearchResult{Chunk: c, Score: cosine(c.Vector, vector)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		a, b := results[i].Chunk.Metadata, results[j].Chunk.Metadata
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.ChunkIndex < b.ChunkIndex
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *Storage) Scroll(_ context.Context, scope vectorstore.Scope) ([]domain.ChunkMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return nil, domain.ErrCollectionNotFound
	}
	var out []domain.ChunkMetadata
	for _, c := range s.points {
		if inScope(c.Metadata, scope) {
			out = append(out, c.Metadata)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out, nil
}

func (s *Storage) Delete(_ context.Context, scope vectorstore.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return domain.ErrCollectionNotFound
	}
	for id, c := range s.points {
		if inScope(c.Metadata, scope) {
			delete(s.points, id)
		}
	}
	return nil
}

// Len returns the number of stored points across all tenants.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func inScope(m domain.ChunkMetadata, scope vectorstore.Scope) bool {
	if m.UserID != scope.UserID {
		return false
	}
	return scope.DocumentID == "" || m.DocumentID == scope.DocumentID
}

func key(m domain.ChunkMetadata) string {
	return fmt.Sprintf("%s:%s:%d", m.UserID, m.DocumentID, m.ChunkIndex)
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
