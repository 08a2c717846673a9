package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"askly/internal/domain"
	"askly/internal/service"
)

type indexResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    service.IndexResult `json:"data"`
}

type batchResponse struct {
	Success bool `json:"success"`
	service.BatchResult
}

func indexed(c *gin.Context, msg string, res service.IndexResult) {
	c.JSON(http.StatusOK, indexResponse{Success: true, Message: msg, Data: res})
}

// uploadFile accepts a single PDF in the multipart field "file".
func (s *Server) uploadFile(c *gin.Context) {
	maxBytes := int64(s.opts.MaxUploadMB) << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)

	tooLarge := fmt.Errorf("%w: file exceeds %d MB", domain.ErrValidation, s.opts.MaxUploadMB)
	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(c, tooLarge)
			return
		}
		writeError(c, fmt.Errorf("%w: a PDF file is required in field \"file\"", domain.ErrValidation))
		return
	}
	if file.Size > maxBytes {
		writeError(c, tooLarge)
		return
	}
	if !isPDF(file.Filename, file.Header.Get("Content-Type")) {
		writeError(c, fmt.Errorf("%w: only PDF files are supported", domain.ErrValidation))
		return
	}

	tmp, err := os.CreateTemp(s.opts.TempDir, "askly-upload-*.pdf")
	if err != nil {
		writeError(c, err)
		return
	}
	path := tmp.Name()
	_ = tmp.Close()
	if err := c.SaveUploadedFile(file, path); err != nil {
		_ = os.Remove(path)
		writeError(c, err)
		return
	}

	res, err := s.indexer.IndexPDFFile(c.Request.Context(), c.GetString(userIDKey), path, filepath.Base(file.Filename))
	if err != nil {
		writeError(c, err)
		return
	}
	indexed(c, "File indexed successfully", res)
}

func isPDF(name, contentType string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf") || strings.HasPrefix(contentType, "application/pdf")
}

type textRequest struct {
	Text     string `json:"text" binding:"required"`
	TextName string `json:"textName" binding:"required"`
}

func (s *Server) uploadText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}
	res, err := s.indexer.IndexText(c.Request.Context(), c.GetString(userIDKey), req.Text, req.TextName)
	if err != nil {
		writeError(c, err)
		return
	}
	indexed(c, "Text indexed successfully", res)
}

type websiteRequest struct {
	URL     string   `json:"url" binding:"omitempty,url"`
	URLName string   `json:"urlName"`
	URLs    []string `json:"urls" binding:"omitempty,max=50"`
}

func (s *Server) uploadWebsite(c *gin.Context) {
	var req websiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}
	ctx, userID := c.Request.Context(), c.GetString(userIDKey)
	switch {
	case len(req.URLs) > 0:
		res, err := s.indexer.IndexWebsites(ctx, userID, req.URLs)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, batchResponse{Success: true, BatchResult: res})
	case req.URL != "":
		res, err := s.indexer.IndexWebsite(ctx, userID, req.URL, req.URLName)
		if err != nil {
			writeError(c, err)
			return
		}
		indexed(c, "Website indexed successfully", res)
	default:
		writeError(c, fmt.Errorf("%w: url or urls is required", domain.ErrValidation))
	}
}

type youtubeRequest struct {
	URL  string   `json:"url" binding:"omitempty,url"`
	URLs []string `json:"urls" binding:"omitempty,max=10"`
}

func (s *Server) uploadYouTube(c *gin.Context) {
	var req youtubeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}
	ctx, userID := c.Request.Context(), c.GetString(userIDKey)
	switch {
	case len(req.URLs) > 0:
		res, err := s.indexer.IndexYouTubeVideos(ctx, userID, req.URLs)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, batchResponse{Success: true, BatchResult: res})
	case req.URL != "":
		res, err := s.indexer.IndexYouTube(ctx, userID, req.URL)
		if err != nil {
			writeError(c, err)
			return
		}
		indexed(c, "YouTube video indexed successfully", res)
	default:
		writeError(c, fmt.Errorf("%w: url or urls is required", domain.ErrValidation))
	}
}

func (s *Server) listDocuments(c *gin.Context) {
	docs, err := s.querier.ListDocuments(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "documents": docs, "count": len(docs)})
}

func (s *Server) deleteDocument(c *gin.Context) {
	documentID := c.Param("documentId")
	if err := s.querier.DeleteDocument(c.Request.Context(), c.GetString(userIDKey), documentID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Document deleted successfully",
		"documentId": documentID,
	})
}

type chatRequest struct {
	Message             string           `json:"message" binding:"required"`
	DocumentID          string           `json:"documentId"`
	ConversationHistory []domain.Message `json:"conversationHistory" binding:"max=100"`
}

type chatResponse struct {
	Success bool `json:"success"`
	domain.Answer
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}
	ans, err := s.querier.Answer(c.Request.Context(), service.AnswerRequest{
		UserID:     c.GetString(userIDKey),
		Question:   req.Message,
		DocumentID: req.DocumentID,
		History:    req.ConversationHistory,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{Success: true, Answer: ans})
}
