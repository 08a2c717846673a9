package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordsText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(words, " ")
}

// assertCovers checks that chunks are ordered substrings of text whose union
// leaves nothing but whitespace uncovered.
func assertCovers(t *testing.T, text string, chunks []string, size int) {
	t.Helper()
	require.NotEmpty(t, chunks)
	pos, end := 0, 0
	for i, ch := range chunks {
		require.NotEmpty(t, ch, "chunk %d empty", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), size, "chunk %d too long", i)
		idx := strings.Index(text[pos:], ch)
		require.GreaterOrEqual(t, idx, 0, "chunk %d is not an ordered substring", i)
		start := pos + idx
		if start > end {
			assert.Empty(t, strings.TrimSpace(text[end:start]), "gap before chunk %d", i)
		}
		if start+len(ch) > end {
			end = start + len(ch)
		}
		pos = start + 1
	}
	assert.Empty(t, strings.TrimSpace(text[end:]), "text after last chunk is not covered")
	assert.Empty(t, strings.TrimSpace(text[:strings.Index(text, chunks[0])]))
}

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	c := NewRecursiveChunker(DefaultChunkSize, DefaultChunkOverlap)
	text := "Invoice total: $452.10 due March 5. Please pay by bank transfer to the account below."
	assert.Equal(t, []string{text}, c.Split(text))
}

func TestSplit_BlankText(t *testing.T) {
	c := NewRecursiveChunker(0, 0)
	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split(" \n\t "))
}

func TestSplit_WordsCoverWithOverlap(t *testing.T) {
	c := NewRecursiveChunker(DefaultChunkSize, DefaultChunkOverlap)
	text := wordsText(900)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 3)
	assertCovers(t, text, chunks, DefaultChunkSize)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		first := strings.Fields(chunks[i])[0]
		assert.Contains(t, prev, first, "chunk %d should start inside the previous chunk", i)
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	c := NewRecursiveChunker(DefaultChunkSize, DefaultChunkOverlap)
	para := func(tag string) string { return strings.Repeat(tag+" sentence here. ", 40) }
	text := para("alpha") + "\n\n" + para("beta") + "\n\n" + para("gamma")
	chunks := c.Split(text)
	assertCovers(t, text, chunks, DefaultChunkSize)
	for _, ch := range chunks {
		assert.False(t, strings.Contains(ch, "alpha") && strings.Contains(ch, "gamma"))
	}
}

func TestSplit_HardCutWithoutSeparators(t *testing.T) {
	c := NewRecursiveChunker(DefaultChunkSize, DefaultChunkOverlap)
	var b strings.Builder
	for i := 0; i < 2500; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	text := b.String()
	chunks := c.Split(text)
	require.Len(t, chunks, 3)
	assert.Equal(t, text[0:1000], chunks[0])
	assert.Equal(t, text[800:1800], chunks[1])
	assert.Equal(t, text[1600:], chunks[2])
}

func TestSplit_CountsRunesNotBytes(t *testing.T) {
	c := NewRecursiveChunker(100, 20)
	text := strings.Repeat("é", 250)
	chunks := c.Split(text)
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), 100)
		assert.True(t, utf8.ValidString(ch))
	}
	assert.Len(t, chunks, 3)
}

func TestNewRecursiveChunker_ClampsOverlap(t *testing.T) {
	c := NewRecursiveChunker(100, 150)
	assert.Equal(t, 20, c.overlap)
	c = NewRecursiveChunker(-1, -1)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, 0, c.overlap)
}
