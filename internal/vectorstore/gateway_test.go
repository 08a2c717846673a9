package vectorstore_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askly/internal/domain"
	"askly/internal/vectorstore"
	"askly/internal/vectorstore/memory"
)

func quietLogger() *log.Logger {
	return &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

func document(user, doc string, at time.Time, vectors ...[]float32) []domain.Chunk {
	chunks := make([]domain.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = domain.Chunk{
			Text:   "chunk text",
			Vector: v,
			Metadata: domain.ChunkMetadata{
				UserID:         user,
				DocumentID:     doc,
				ChunkIndex:     i,
				Source:         domain.SourceText,
				UploadedAt:     at,
				SourceMetadata: domain.SourceMetadata{TextName: doc + "-name"},
			},
		}
	}
	return chunks
}

func TestGateway_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	gw := vectorstore.NewGateway(memory.NewStorage(), 2, 0, quietLogger())
	now := time.Now().UTC()

	require.NoError(t, gw.Upsert(ctx, document("alice", "a1", now, []float32{1, 0}, []float32{0.9, 0.1})))
	require.NoError(t, gw.Upsert(ctx, document("bob", "b1", now, []float32{1, 0})))

	res, err := gw.Search(ctx, []float32{1, 0}, vectorstore.Scope{UserID: "alice"}, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	for _, r := range res {
		assert.Equal(t, "alice", r.Chunk.Metadata.UserID)
	}
	assert.GreaterOrEqual(t, res[0].Score, res[1].Score)

	docs, err := gw.ListDocuments(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b1", docs[0].ID)
}

func TestGateway_SearchRestrictsToDocument(t *testing.T) {
	ctx := context.Background()
	gw := vectorstore.NewGateway(memory.NewStorage(), 2, 0, quietLogger())
	now := time.Now().UTC()
	require.NoError(t, gw.Upsert(ctx, document("u", "d1", now, []float32{1, 0})))
	require.NoError(t, gw.Upsert(ctx, document("u", "d2", now, []float32{1, 0})))

	res, err := gw.Search(ctx, []float32{1, 0}, vectorstore.Scope{UserID: "u", DocumentID: "d2"}, 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "d2", res[0].Chunk.Metadata.DocumentID)
}

func TestGateway_MissingCollectionDegrades(t *testing.T) {
	ctx := context.Background()
	gw := vectorstore.NewGateway(memory.NewStorage(), 2, 0, quietLogger())

	res, err := gw.Search(ctx, []float32{1, 0}, vectorstore.Scope{UserID: "u"}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	docs, err := gw.ListDocuments(ctx, "u")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)

	assert.NoError(t, gw.DeleteDocument(ctx, "u", "missing"))
}

func TestGateway_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStorage()
	gw := vectorstore.NewGateway(store, 2, 0, quietLogger())
	require.NoError(t, gw.Upsert(ctx, document("u", "d1", time.Now(), []float32{1, 0}, []float32{0, 1})))

	require.NoError(t, gw.DeleteDocument(ctx, "u", "d1"))
	require.NoError(t, gw.DeleteDocument(ctx, "u", "d1"))
	assert.Equal(t, 0, store.Len())
}

func TestGateway_DeleteDoesNotCrossTenants(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStorage()
	gw := vectorstore.NewGateway(store, 2, 0, quietLogger())
	require.NoError(t, gw.Upsert(ctx, document("alice", "shared-id", time.Now(), []float32{1, 0})))

	require.NoError(t, gw.DeleteDocument(ctx, "mallory", "shared-id"))
	assert.Equal(t, 1, store.Len())
}

func TestGateway_RequiresUser(t *testing.T) {
	ctx := context.Background()
	gw := vectorstore.NewGateway(memory.NewStorage(), 2, 0, quietLogger())

	_, err := gw.Search(ctx, []float32{1, 0}, vectorstore.Scope{}, 5)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = gw.ListDocuments(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, gw.DeleteDocument(ctx, "u", ""), domain.ErrValidation)
}

func TestGateway_UpsertValidatesDocument(t *testing.T) {
	ctx := context.Background()
	gw := vectorstore.NewGateway(memory.NewStorage(), 2, 0, quietLogger())
	now := time.Now()

	assert.ErrorIs(t, gw.Upsert(ctx, nil), domain.ErrValidation)

	mixed := append(document("u", "d1", now, []float32{1, 0}), document("u", "d2", now, []float32{1, 0})...)
	mixed[1].Metadata.ChunkIndex = 1
	assert.ErrorIs(t, gw.Upsert(ctx, mixed), domain.ErrValidation)

	dup := document("u", "d1", now, []float32{1, 0}, []float32{0, 1})
	dup[1].Metadata.ChunkIndex = 0
	assert.ErrorIs(t, gw.Upsert(ctx, dup), domain.ErrValidation)

	noVec := document("u", "d1", now, nil)
	assert.ErrorIs(t, gw.Upsert(ctx, noVec), domain.ErrValidation)
}

// flakyStorage fails the nth upsert call.
type flakyStorage struct {
	*memory.Storage
	failOn  int
	calls   int
	deletes int
}

func (f *flakyStorage) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	f.calls++
	if f.calls == f.failOn {
		return errors.New("connection reset")
	}
	return f.Storage.Upsert(ctx, chunks)
}

func (f *flakyStorage) Delete(ctx context.Context, scope vectorstore.Scope) error {
	f.deletes++
	return f.Storage.Delete(ctx, scope)
}

func TestGateway_UpsertRollsBackPartialDocument(t *testing.T) {
	ctx := context.Background()
	store := &flakyStorage{Storage: memory.NewStorage(), failOn: 2}
	gw := vectorstore.NewGateway(store, 2, 2, quietLogger())

	chunks := document("u", "d1", time.Now(), []float32{1, 0}, []float32{0, 1}, []float32{1, 1}, []float32{1, 2})
	err := gw.Upsert(ctx, chunks)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, 1, store.deletes)
	assert.Equal(t, 0, store.Len())
}

func TestGateway_SearchClampsK(t *testing.T) {
	ctx := context.Background()
	gw := vectorstore.NewGateway(memory.NewStorage(), 2, 0, quietLogger())
	vecs := make([][]float32, 12)
	for i := range vecs {
		vecs[i] = []float32{1, float32(i)}
	}
	require.NoError(t, gw.Upsert(ctx, document("u", "d", time.Now(), vecs...)))

	res, err := gw.Search(ctx, []float32{1, 0}, vectorstore.Scope{UserID: "u"}, 0)
	require.NoError(t, err)
	assert.Len(t, res, vectorstore.DefaultTopK)

	res, err = gw.Search(ctx, []float32{1, 0}, vectorstore.Scope{UserID: "u"}, 3)
	require.NoError(t, err)
	assert.Len(t, res, 3)
	assert.Equal(t, 0, res[0].Chunk.Metadata.ChunkIndex)
}

func TestAggregate(t *testing.T) {
	older := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	metas := []domain.ChunkMetadata{
		{DocumentID: "old", ChunkIndex: 0, Source: domain.SourcePDF, UploadedAt: older, SourceMetadata: domain.SourceMetadata{FileName: "a.pdf"}},
		{DocumentID: "new", ChunkIndex: 0, Source: domain.SourceYouTube, UploadedAt: newer, SourceMetadata: domain.SourceMetadata{VideoTitle: "Talk", VideoURL: "https://www.youtube.com/watch?v=abcdefghijk"}},
		{DocumentID: "old", ChunkIndex: 1, Source: domain.SourcePDF, UploadedAt: older, SourceMetadata: domain.SourceMetadata{FileName: "a.pdf"}},
		{ChunkIndex: 0},
	}
	docs := vectorstore.Aggregate(metas)
	require.Len(t, docs, 2)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "Talk", docs[0].Name)
	assert.Equal(t, "https://www.youtube.com/watch?v=abcdefghijk", docs[0].URL)
	assert.Equal(t, "old", docs[1].ID)
	assert.Equal(t, 2, docs[1].ChunkCount)
	assert.Equal(t, domain.SourcePDF, docs[1].Type)
}
