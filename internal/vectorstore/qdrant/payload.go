package qdrant

import (
	"time"

	"askly/internal/domain"
)

// payload is the flat point payload. Source-specific keys are omitted when
// they do not apply.
type payload struct {
	UserID      string            `json:"userId"`
	DocumentID  string            `json:"documentId"`
	ChunkIndex  int               `json:"chunkIndex"`
	Source      domain.SourceType `json:"source"`
	UploadedAt  time.Time         `json:"uploadedAt"`
	Text        string            `json:"text,omitempty"`
	FileName    string            `json:"fileName,omitempty"`
	TextName    string            `json:"textName,omitempty"`
	URL         string            `json:"url,omitempty"`
	URLName     string            `json:"urlName,omitempty"`
	VideoID     string            `json:"videoId,omitempty"`
	VideoTitle  string            `json:"videoTitle,omitempty"`
	ChannelName string            `json:"channelName,omitempty"`
	VideoURL    string            `json:"videoUrl,omitempty"`
}

func toPayload(c domain.Chunk) payload {
	m := c.Metadata
	return payload{
		UserID:      m.UserID,
		DocumentID:  m.DocumentID,
		ChunkIndex:  m.ChunkIndex,
		Source:      m.Source,
		UploadedAt:  m.UploadedAt.UTC(),
		Text:        c.Text,
		FileName:    m.FileName,
		TextName:    m.TextName,
		URL:         m.URL,
		URLName:     m.URLName,
		VideoID:     m.VideoID,
		VideoTitle:  m.VideoTitle,
		ChannelName: m.ChannelName,
		VideoURL:    m.VideoURL,
	}
}

func (p payload) chunk() domain.Chunk {
	return domain.Chunk{
		Text: p.Text,
		Metadata: domain.ChunkMetadata{
			UserID:     p.UserID,
			DocumentID: p.DocumentID,
			ChunkIndex: p.ChunkIndex,
			Source:     p.Source,
			UploadedAt: p.UploadedAt,
			SourceMetadata: domain.SourceMetadata{
				FileName:    p.FileName,
				TextName:    p.TextName,
				URL:         p.URL,
				URLName:     p.URLName,
				VideoID:     p.VideoID,
				VideoTitle:  p.VideoTitle,
				ChannelName: p.ChannelName,
				VideoURL:    p.VideoURL,
			},
		},
	}
}
