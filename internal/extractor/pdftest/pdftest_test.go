package pdftest

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentXrefPointsAtObjects(t *testing.T) {
	doc := Document("a (b) c")
	require.True(t, bytes.HasPrefix(doc, []byte("%PDF-1.4\n")))
	require.True(t, bytes.HasSuffix(doc, []byte("%%EOF\n")))
	assert.Contains(t, string(doc), `(a \(b\) c) Tj`)

	text := string(doc)
	tail := text[strings.LastIndex(text, "startxref\n")+len("startxref\n"):]
	xref, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(tail), "%%EOF")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text[xref:], "xref\n0 6\n"))

	entries := strings.Split(text[xref:], "\n")[3:8]
	for i, e := range entries {
		off, err := strconv.Atoi(e[:10])
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(text[off:], strconv.Itoa(i+1)+" 0 obj\n"), "object %d", i+1)
	}
}
