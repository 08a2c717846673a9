// Package tagger attaches document identity and positional metadata to chunks.
package tagger

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"askly/internal/domain"
)

const maxSlugLength = 64

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Tagger builds tagged chunks for one ingestion call.
type Tagger struct {
	now    func() time.Time
	suffix func() string
}

// New returns a Tagger using the wall clock.
func New() *Tagger {
	return &Tagger{
		now:    time.Now,
		suffix: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] },
	}
}

// WithClock overrides the time source.
func (t *Tagger) WithClock(now func() time.Time) *Tagger {
	t.now = now
	return t
}

// Tag assigns one freshly generated document id to all texts and returns the
// chunks in input order along with that id. Vectors are left empty.
func (t *Tagger) Tag(texts []string, src domain.Extraction, userID string) ([]domain.Chunk, string) {
	uploadedAt := t.now().UTC()
	documentID := t.DocumentID(userID, src.Metadata.DisplayName(), uploadedAt)
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			Text: text,
			Metadata: domain.ChunkMetadata{
				UserID:         userID,
				DocumentID:     documentID,
				ChunkIndex:     i,
				Source:         src.Source,
				UploadedAt:     uploadedAt,
				SourceMetadata: src.Metadata,
			},
		}
	}
	return chunks, documentID
}

// DocumentID combines the user id, the creation time and a slug of the
// source name. A random suffix keeps ids distinct for calls landing in the
// same millisecond.
func (t *Tagger) DocumentID(userID, name string, at time.Time) string {
	slug := Slug(name)
	if slug == "" {
		slug = "document"
	}
	return fmt.Sprintf("%s-%d-%s-%s", userID, at.UnixMilli(), slug, t.suffix())
}

// Slug replaces every run of non-alphanumeric characters with a dash.
func Slug(name string) string {
	s := strings.Trim(nonAlphanumeric.ReplaceAllString(name, "-"), "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}
