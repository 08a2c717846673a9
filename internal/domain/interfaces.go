package domain

import (
	"context"
	"time"
)

// SourceType identifies where the text of a document came from.
type SourceType string

const (
	SourcePDF     SourceType = "pdf"
	SourceText    SourceType = "text"
	SourceWebsite SourceType = "website"
	SourceYouTube SourceType = "youtube"
)

// Valid reports whether t is one of the known source types.
func (t SourceType) Valid() bool {
	switch t {
	case SourcePDF, SourceText, SourceWebsite, SourceYouTube:
		return true
	}
	return false
}

// SourceMetadata holds the source-specific fields of a chunk. Only the fields
// relevant to the source type are set.
type SourceMetadata struct {
	FileName    string
	TextName    string
	URL         string
	URLName     string
	VideoID     string
	VideoTitle  string
	ChannelName string
	VideoURL    string
}

// DisplayName returns the human-readable name of the source: the first
// non-empty of file name, URL name, text name and video title.
func (m SourceMetadata) DisplayName() string {
	for _, v := range []string{m.FileName, m.URLName, m.TextName, m.VideoTitle} {
		if v != "" {
			return v
		}
	}
	return ""
}

// ChunkMetadata is attached to every indexed chunk.
type ChunkMetadata struct {
	UserID     string
	DocumentID string
	ChunkIndex int
	Source     SourceType
	UploadedAt time.Time
	SourceMetadata
}

// Chunk is a unit of indexed text together with its embedding.
type Chunk struct {
	Text     string
	Vector   []float32
	Metadata ChunkMetadata
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// DocumentSummary is the aggregate view of all chunks sharing a document id.
type DocumentSummary struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       SourceType `json:"type"`
	UploadedAt time.Time  `json:"uploadedAt"`
	URL        string     `json:"url,omitempty"`
	ChunkCount int        `json:"chunkCount"`
}

// Extraction is the plain text pulled out of a source, plus what is known
// about the source itself.
type Extraction struct {
	Text     string
	Source   SourceType
	Metadata SourceMetadata
}

// Conversation roles understood by language models.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source is the citation metadata of one retrieved chunk.
type Source struct {
	Label      string     `json:"label"`
	DocumentID string     `json:"documentId"`
	Name       string     `json:"name"`
	Type       SourceType `json:"type"`
	FileName   string     `json:"fileName,omitempty"`
	TextName   string     `json:"textName,omitempty"`
	URL        string     `json:"url,omitempty"`
	VideoTitle string     `json:"videoTitle,omitempty"`
	ChunkIndex int        `json:"chunkIndex"`
	Score      float64    `json:"score"`
	Text       string     `json:"-"`
}

// Answer is the result of a retrieval-augmented question.
type Answer struct {
	Text          string   `json:"response"`
	Sources       []Source `json:"sources"`
	DocumentCount int      `json:"documentCount"`
}

// Chunker splits normalized text into ordered, non-empty segments.
type Chunker interface {
	Split(text string) []string
}

// Embedder converts free text into fixed-length vectors.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// LanguageModel completes a conversation.
type LanguageModel interface {
	Name() string
	Complete(ctx context.Context, messages []Message) (string, error)
}
