// Package server exposes indexing and question answering over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"askly/internal/domain"
	"askly/internal/service"
)

// Indexer is implemented by *service.IndexingService.
type Indexer interface {
	IndexPDFFile(ctx context.Context, userID, path, fileName string) (service.IndexResult, error)
	IndexText(ctx context.Context, userID, text, name string) (service.IndexResult, error)
	IndexWebsite(ctx context.Context, userID, url, name string) (service.IndexResult, error)
	IndexWebsites(ctx context.Context, userID string, urls []string) (service.BatchResult, error)
	IndexYouTube(ctx context.Context, userID, url string) (service.IndexResult, error)
	IndexYouTubeVideos(ctx context.Context, userID string, urls []string) (service.BatchResult, error)
}

// Querier is implemented by *service.QueryService.
type Querier interface {
	Answer(ctx context.Context, req service.AnswerRequest) (domain.Answer, error)
	ListDocuments(ctx context.Context, userID string) ([]domain.DocumentSummary, error)
	DeleteDocument(ctx context.Context, userID, documentID string) error
}

type Options struct {
	Addr         string
	UserHeader   string
	MaxUploadMB  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TempDir      string
}

type Server struct {
	indexer Indexer
	querier Querier
	opts    Options
	logger  *log.Logger
	engine  *gin.Engine
}

func New(indexer Indexer, querier Querier, opts Options, logger *log.Logger) *Server {
	if opts.UserHeader == "" {
		opts.UserHeader = "X-User-ID"
	}
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 50
	}
	s := &Server{indexer: indexer, querier: querier, opts: opts, logger: logger}
	s.engine = s.setupRouter()
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger), gin.Recovery())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/health", healthCheck)

	api := r.Group("/api")
	api.Use(requireUser(s.opts.UserHeader))
	{
		upload := api.Group("/upload")
		{
			upload.POST("/file", s.uploadFile)
			upload.POST("/text", s.uploadText)
			upload.POST("/website", s.uploadWebsite)
			upload.POST("/youtube", s.uploadYouTube)
		}
		api.GET("/documents", s.listDocuments)
		api.DELETE("/documents/:documentId", s.deleteDocument)
		api.POST("/chat", s.chat)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info().Msg("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
