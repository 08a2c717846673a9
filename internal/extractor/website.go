package extractor

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"askly/internal/domain"
)

// Website fetches a page and returns its visible body text. An empty name
// defaults to the host name with dots replaced by dashes.
func (e *Extractor) Website(ctx context.Context, rawURL, name string) (domain.Extraction, error) {
	u, err := ParseWebURL(rawURL)
	if err != nil {
		return domain.Extraction{}, err
	}
	if name = strings.TrimSpace(name); name == "" {
		name = HostName(u)
	}

	body, err := e.get(ctx, u.String())
	if err != nil {
		return domain.Extraction{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Extraction{}, domain.WithCause(domain.ErrExtraction, "the page could not be parsed", err)
	}
	doc.Find("script, style, noscript, iframe").Remove()
	text := collapse(doc.Find("body").Text())
	if !meaningful(text) {
		return domain.Extraction{}, fmt.Errorf("%w: no meaningful text found at the provided URL", domain.ErrExtraction)
	}
	return domain.Extraction{
		Text:   text,
		Source: domain.SourceWebsite,
		Metadata: domain.SourceMetadata{
			URL:     rawURL,
			URLName: name,
		},
	}, nil
}

// ParseWebURL accepts absolute http and https URLs only.
func ParseWebURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid URL %q", domain.ErrValidation, rawURL)
	}
	return u, nil
}

// HostName derives a document name from the URL host.
func HostName(u *url.URL) string {
	return strings.ReplaceAll(u.Hostname(), ".", "-")
}
