package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"askly/internal/domain"
	"askly/internal/vectorstore"
)

type recorded struct {
	method string
	path   string
	body   string
}

type fakeQdrant struct {
	mu       sync.Mutex
	requests []recorded
	handle   func(w http.ResponseWriter, r *http.Request, body string)
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{method: r.Method, path: r.URL.Path, body: string(data)})
	f.mu.Unlock()
	f.handle(w, r, string(data))
}

func (f *fakeQdrant) find(method, path string) []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recorded
	for _, r := range f.requests {
		if r.method == method && r.path == path {
			out = append(out, r)
		}
	}
	return out
}

func newTestStorage(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, body string)) (*Storage, *fakeQdrant) {
	t.Helper()
	fake := &fakeQdrant{handle: handle}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	logger := &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
	return NewStorage(Config{URL: srv.URL + "/", APIKey: "secret"}, logger), fake
}

const collectionMissing = "{\"status\":{\"error\":\"Not found: Collection `askly-documents` doesn't exist!\"},\"time\":0.0001}"

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	s, fake := newTestStorage(t, func(w http.ResponseWriter, r *http.Request, _ string) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(collectionMissing))
			return
		}
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		_, _ = w.Write([]byte(`{"result":true,"status":"ok"}`))
	})

	require.NoError(t, s.EnsureCollection(context.Background(), 3072))

	created := fake.find(http.MethodPut, "/collections/askly-documents")
	require.Len(t, created, 1)
	assert.Equal(t, int64(3072), gjson.Get(created[0].body, "vectors.size").Int())
	assert.Equal(t, "Cosine", gjson.Get(created[0].body, "vectors.distance").String())

	indexes := fake.find(http.MethodPut, "/collections/askly-documents/index")
	require.Len(t, indexes, 2)
	assert.Equal(t, "userId", gjson.Get(indexes[0].body, "field_name").String())
	assert.Equal(t, "documentId", gjson.Get(indexes[1].body, "field_name").String())
	assert.Equal(t, "keyword", gjson.Get(indexes[1].body, "field_schema").String())
}

func TestEnsureCollection_ExistingSkipsKnownIndexes(t *testing.T) {
	s, fake := newTestStorage(t, func(w http.ResponseWriter, r *http.Request, _ string) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":3072,"distance":"Cosine"}}},"payload_schema":{"userId":{"data_type":"keyword"}}}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":true}`))
	})

	require.NoError(t, s.EnsureCollection(context.Background(), 3072))
	assert.Empty(t, fake.find(http.MethodPut, "/collections/askly-documents"))
	indexes := fake.find(http.MethodPut, "/collections/askly-documents/index")
	require.Len(t, indexes, 1)
	assert.Equal(t, "documentId", gjson.Get(indexes[0].body, "field_name").String())
}

func TestUpsert_FlatPayload(t *testing.T) {
	s, fake := newTestStorage(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	})
	at := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	chunk := domain.Chunk{
		Text:   "hello",
		Vector: []float32{0.5, 0.25},
		Metadata: domain.ChunkMetadata{
			UserID: "u1", DocumentID: "d1", ChunkIndex: 0, Source: domain.SourceWebsite, UploadedAt: at,
			SourceMetadata: domain.SourceMetadata{URL: "https://example.com", URLName: "example-com"},
		},
	}
	require.NoError(t, s.Upsert(context.Background(), []domain.Chunk{chunk}))

	reqs := fake.find(http.MethodPut, "/collections/askly-documents/points")
	require.Len(t, reqs, 1)
	p := gjson.Get(reqs[0].body, "points.0")
	assert.Equal(t, PointID("u1", "d1", 0), p.Get("id").String())
	assert.Equal(t, "u1", p.Get("payload.userId").String())
	assert.Equal(t, "d1", p.Get("payload.documentId").String())
	assert.Equal(t, "website", p.Get("payload.source").String())
	assert.Equal(t, "example-com", p.Get("payload.urlName").String())
	assert.Equal(t, "2025-03-05T10:00:00Z", p.Get("payload.uploadedAt").String())
	assert.False(t, p.Get("payload.fileName").Exists())
	assert.False(t, p.Get("payload.metadata").Exists())
}

func TestSearch_FiltersByUserAndDocument(t *testing.T) {
	s, fake := newTestStorage(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = w.Write([]byte(`{"result":[
			{"id":"a","score":0.91,"payload":{"userId":"u1","documentId":"d1","chunkIndex":2,"source":"text","text":"match","textName":"notes","uploadedAt":"2025-03-05T10:00:00.000Z"}},
			{"id":"b","score":0.80,"payload":{"userId":"other","documentId":"x","chunkIndex":0,"source":"text","text":"leak"}}
		]}`))
	})

	res, err := s.Search(context.Background(), []float32{1, 0}, vectorstore.Scope{UserID: "u1", DocumentID: "d1"}, 4)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "match", res[0].Chunk.Text)
	assert.Equal(t, 2, res[0].Chunk.Metadata.ChunkIndex)
	assert.Equal(t, "notes", res[0].Chunk.Metadata.TextName)
	assert.InDelta(t, 0.91, res[0].Score, 1e-9)

	body := fake.find(http.MethodPost, "/collections/askly-documents/points/search")[0].body
	assert.Equal(t, int64(4), gjson.Get(body, "limit").Int())
	must := gjson.Get(body, "filter.must").Array()
	require.Len(t, must, 2)
	assert.Equal(t, "userId", must[0].Get("key").String())
	assert.Equal(t, "u1", must[0].Get("match.value").String())
	assert.Equal(t, "documentId", must[1].Get("key").String())
}

func TestSearch_MissingCollection(t *testing.T) {
	s, _ := newTestStorage(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(collectionMissing))
	})
	_, err := s.Search(context.Background(), []float32{1}, vectorstore.Scope{UserID: "u"}, 1)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestOtherNotFoundIsStorage(t *testing.T) {
	s, _ := newTestStorage(t, func(w http.ResponseWriter, r *http.Request, _ string) {
		http.NotFound(w, r)
	})
	err := s.Delete(context.Background(), vectorstore.Scope{UserID: "u", DocumentID: "d"})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrCollectionNotFound)

	_, err = s.Search(context.Background(), []float32{1}, vectorstore.Scope{UserID: "u"}, 1)
	assert.NotErrorIs(t, err, domain.ErrCollectionNotFound)

	err = s.EnsureCollection(context.Background(), 8)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestScroll_FollowsPages(t *testing.T) {
	page := 0
	s, fake := newTestStorage(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		page++
		if page == 1 {
			_, _ = w.Write([]byte(`{"result":{"points":[{"payload":{"userId":"u","documentId":"d1","chunkIndex":0,"source":"pdf","fileName":"a.pdf"}}],"next_page_offset":"p2"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":{"points":[{"payload":{"userId":"u","documentId":"d1","chunkIndex":1,"source":"pdf","fileName":"a.pdf"}}],"next_page_offset":null}}`))
	})

	metas, err := s.Scroll(context.Background(), vectorstore.Scope{UserID: "u"})
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "a.pdf", metas[1].FileName)

	reqs := fake.find(http.MethodPost, "/collections/askly-documents/points/scroll")
	require.Len(t, reqs, 2)
	assert.False(t, gjson.Get(reqs[0].body, "offset").Exists())
	assert.Equal(t, "p2", gjson.Get(reqs[1].body, "offset").String())
	assert.Equal(t, "text", gjson.Get(reqs[0].body, "with_payload.exclude.0").String())
}

func TestDelete_ByFilter(t *testing.T) {
	s, fake := newTestStorage(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	})
	require.NoError(t, s.Delete(context.Background(), vectorstore.Scope{UserID: "u", DocumentID: "d"}))
	reqs := fake.find(http.MethodPost, "/collections/askly-documents/points/delete")
	require.Len(t, reqs, 1)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(reqs[0].body), &body))
	assert.Len(t, gjson.Get(reqs[0].body, "filter.must").Array(), 2)
}

func TestServerErrorIsStorage(t *testing.T) {
	s, _ := newTestStorage(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	err := s.Delete(context.Background(), vectorstore.Scope{UserID: "u"})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestPointIDIsStable(t *testing.T) {
	assert.Equal(t, PointID("u", "d", 1), PointID("u", "d", 1))
	assert.NotEqual(t, PointID("u", "d", 1), PointID("u", "d", 2))
}
