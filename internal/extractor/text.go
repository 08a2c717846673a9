package extractor

import (
	"fmt"
	"strings"

	"askly/internal/domain"
)

// Text validates pasted text. Unlike fetched sources, short text is the
// caller's mistake and reported as ErrValidation.
func Text(text, name string) (domain.Extraction, error) {
	text = strings.TrimSpace(text)
	if !meaningful(text) {
		return domain.Extraction{}, fmt.Errorf("%w: text must be at least %d characters", domain.ErrValidation, MinTextLength)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled Text"
	}
	return domain.Extraction{
		Text:     text,
		Source:   domain.SourceText,
		Metadata: domain.SourceMetadata{TextName: name},
	}, nil
}
