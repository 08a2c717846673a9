package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/phuslu/log"

	"askly/internal/domain"
	"askly/internal/embedding"
	"askly/internal/extractor"
	"askly/internal/tagger"
)

// IndexResult describes one indexed document.
type IndexResult struct {
	DocumentID string            `json:"documentId"`
	Source     domain.SourceType `json:"source"`
	Name       string            `json:"name"`
	Chunks     int               `json:"chunks"`
	URL        string            `json:"url,omitempty"`
	VideoID    string            `json:"videoId,omitempty"`
	VideoTitle string            `json:"videoTitle,omitempty"`
	IndexedAt  time.Time         `json:"indexedAt"`
}

type IndexingOptions struct {
	EmbedBatchSize   int
	EmbedConcurrency int
	// BatchConcurrency bounds how many batch items are indexed at once.
	BatchConcurrency int
	// BatchRate paces batch items per second; zero means unlimited.
	BatchRate float64
}

// IndexingService runs extract, chunk, tag, embed and upsert for every
// source type.
type IndexingService struct {
	fetcher  Fetcher
	chunker  domain.Chunker
	tagger   *tagger.Tagger
	embedder domain.Embedder
	store    Store
	opts     IndexingOptions
	logger   *log.Logger
}

func NewIndexingService(fetcher Fetcher, chunker domain.Chunker, tg *tagger.Tagger, embedder domain.Embedder, store Store, opts IndexingOptions, logger *log.Logger) *IndexingService {
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = embedding.DefaultBatchSize
	}
	if opts.EmbedConcurrency <= 0 {
		opts.EmbedConcurrency = embedding.DefaultConcurrency
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 1
	}
	return &IndexingService{
		fetcher:  fetcher,
		chunker:  chunker,
		tagger:   tg,
		embedder: embedder,
		store:    store,
		opts:     opts,
		logger:   logger,
	}
}

// IndexPDF indexes the text layer of an uploaded PDF.
func (s *IndexingService) IndexPDF(ctx context.Context, userID string, data []byte, fileName string) (IndexResult, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return IndexResult{}, err
	}
	ex, err := extractor.PDF(data, fileName)
	if err != nil {
		return IndexResult{}, err
	}
	return s.index(ctx, userID, ex)
}

// IndexPDFFile indexes a PDF spooled to disk and removes the file whatever
// the outcome.
func (s *IndexingService) IndexPDFFile(ctx context.Context, userID, path, fileName string) (IndexResult, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove temporary upload")
		}
	}()
	userID, err := requireUser(userID)
	if err != nil {
		return IndexResult{}, err
	}
	ex, err := extractor.PDFFile(path, fileName)
	if err != nil {
		return IndexResult{}, err
	}
	return s.index(ctx, userID, ex)
}

// IndexText indexes pasted text.
func (s *IndexingService) IndexText(ctx context.Context, userID, text, name string) (IndexResult, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return IndexResult{}, err
	}
	ex, err := extractor.Text(text, name)
	if err != nil {
		return IndexResult{}, err
	}
	return s.index(ctx, userID, ex)
}

// IndexWebsite fetches and indexes one page.
func (s *IndexingService) IndexWebsite(ctx context.Context, userID, url, name string) (IndexResult, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return IndexResult{}, err
	}
	ex, err := s.fetcher.Website(ctx, url, name)
	if err != nil {
		return IndexResult{}, err
	}
	return s.index(ctx, userID, ex)
}

// IndexYouTube indexes the transcript of one video.
func (s *IndexingService) IndexYouTube(ctx context.Context, userID, url string) (IndexResult, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return IndexResult{}, err
	}
	ex, err := s.fetcher.YouTube(ctx, url)
	if err != nil {
		return IndexResult{}, err
	}
	return s.index(ctx, userID, ex)
}

// IndexWebsites indexes up to MaxWebsiteBatch pages, each named after its host.
func (s *IndexingService) IndexWebsites(ctx context.Context, userID string, urls []string) (BatchResult, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return BatchResult{}, err
	}
	return s.runBatch(ctx, urls, MaxWebsiteBatch, func(ctx context.Context, url string) (IndexResult, error) {
		return s.IndexWebsite(ctx, userID, url, "")
	})
}

// IndexYouTubeVideos indexes up to MaxYouTubeBatch videos.
func (s *IndexingService) IndexYouTubeVideos(ctx context.Context, userID string, urls []string) (BatchResult, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return BatchResult{}, err
	}
	return s.runBatch(ctx, urls, MaxYouTubeBatch, func(ctx context.Context, url string) (IndexResult, error) {
		return s.IndexYouTube(ctx, userID, url)
	})
}

// index embeds every chunk before writing anything, so a failed embedding
// leaves the store untouched.
func (s *IndexingService) index(ctx context.Context, userID string, ex domain.Extraction) (IndexResult, error) {
	start := time.Now()
	texts := s.chunker.Split(ex.Text)
	if len(texts) == 0 {
		return IndexResult{}, fmt.Errorf("%w: nothing to index", domain.ErrExtraction)
	}
	chunks, documentID := s.tagger.Tag(texts, ex, userID)

	vectors, err := embedding.EmbedAll(ctx, s.embedder, texts, s.opts.EmbedBatchSize, s.opts.EmbedConcurrency)
	if err != nil {
		s.logger.Error().Err(err).Str("document_id", documentID).Msg("Embedding failed")
		return IndexResult{}, err
	}
	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}
	if err := s.store.Upsert(ctx, chunks); err != nil {
		s.logger.Error().Err(err).Str("document_id", documentID).Msg("Upsert failed")
		return IndexResult{}, err
	}

	meta := chunks[0].Metadata
	url := ex.Metadata.URL
	if url == "" {
		url = ex.Metadata.VideoURL
	}
	s.logger.Info().
		Str("user_id", userID).
		Str("document_id", documentID).
		Str("source", string(ex.Source)).
		Int("chunks", len(chunks)).
		Dur("elapsed", time.Since(start)).
		Msg("Indexed document")
	return IndexResult{
		DocumentID: documentID,
		Source:     ex.Source,
		Name:       ex.Metadata.DisplayName(),
		Chunks:     len(chunks),
		URL:        url,
		VideoID:    ex.Metadata.VideoID,
		VideoTitle: ex.Metadata.VideoTitle,
		IndexedAt:  meta.UploadedAt,
	}, nil
}
