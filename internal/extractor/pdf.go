package extractor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"askly/internal/domain"
)

// PDF extracts the text layer of a PDF document. Scanned documents without a
// text layer fail with ErrExtraction.
func PDF(data []byte, fileName string) (domain.Extraction, error) {
	if len(data) == 0 {
		return domain.Extraction{}, fmt.Errorf("%w: empty file", domain.ErrValidation)
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.Extraction{}, domain.WithCause(domain.ErrExtraction, "unreadable PDF", err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return domain.Extraction{}, domain.WithCause(domain.ErrExtraction, "unreadable PDF", err)
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return domain.Extraction{}, domain.WithCause(domain.ErrExtraction, "unreadable PDF", err)
	}
	text := strings.TrimSpace(string(out))
	if !meaningful(text) {
		return domain.Extraction{}, fmt.Errorf("%w: no meaningful text found in the PDF", domain.ErrExtraction)
	}
	return domain.Extraction{
		Text:     text,
		Source:   domain.SourcePDF,
		Metadata: domain.SourceMetadata{FileName: fileName},
	}, nil
}

// PDFFile extracts a PDF from disk. The file name defaults to the base name
// of path.
func PDFFile(path, fileName string) (domain.Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Extraction{}, domain.WithCause(domain.ErrExtraction, "the uploaded file could not be read", err)
	}
	if fileName == "" {
		fileName = filepath.Base(path)
	}
	return PDF(data, fileName)
}
