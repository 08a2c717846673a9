package tagger

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askly/internal/domain"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Quarterly Report (final).pdf", "Quarterly-Report-final-pdf"},
		{"www.example.com", "www-example-com"},
		{"---", ""},
		{"héllo wörld", "h-llo-w-rld"},
		{strings.Repeat("a", 80), strings.Repeat("a", 64)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
}

func TestTag_SharedIdentityAndDenseIndexes(t *testing.T) {
	fixed := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	tg := New().WithClock(func() time.Time { return fixed })
	src := domain.Extraction{
		Source:   domain.SourcePDF,
		Metadata: domain.SourceMetadata{FileName: "invoice.pdf"},
	}

	chunks, docID := tg.Tag([]string{"a", "b", "c"}, src, "user_1")
	require.Len(t, chunks, 3)
	assert.True(t, strings.HasPrefix(docID, "user_1-1741168800000-invoice-pdf-"), docID)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Metadata.ChunkIndex)
		assert.Equal(t, "user_1", ch.Metadata.UserID)
		assert.Equal(t, docID, ch.Metadata.DocumentID)
		assert.Equal(t, domain.SourcePDF, ch.Metadata.Source)
		assert.Equal(t, fixed, ch.Metadata.UploadedAt)
		assert.Equal(t, "invoice.pdf", ch.Metadata.FileName)
		assert.Nil(t, ch.Vector)
	}
}

func TestTag_ReingestionGetsNewDocumentID(t *testing.T) {
	fixed := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	tg := New().WithClock(func() time.Time { return fixed })
	src := domain.Extraction{Source: domain.SourceText, Metadata: domain.SourceMetadata{TextName: "notes"}}

	_, first := tg.Tag([]string{"x"}, src, "u")
	_, second := tg.Tag([]string{"x"}, src, "u")
	assert.NotEqual(t, first, second)
}

func TestTag_UnnamedSource(t *testing.T) {
	_, docID := New().Tag([]string{"x"}, domain.Extraction{Source: domain.SourceText}, "u")
	assert.Contains(t, docID, "-document-")
}
