// Package extractor turns PDFs, raw text, web pages and YouTube videos into
// plain text plus source metadata.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"askly/internal/domain"
)

const (
	// MinTextLength is the shortest extracted text worth indexing.
	MinTextLength = 50

	DefaultTimeout      = 10 * time.Second
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultMaxBodyBytes = 10 << 20
	DefaultYouTubeURL   = "https://www.youtube.com"
)

type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// YouTubeURL is the base of watch page requests.
	YouTubeURL string
}

// Extractor fetches remote sources. PDF and text extraction need no network
// and are package functions.
type Extractor struct {
	client     *http.Client
	userAgent  string
	maxBody    int64
	youtubeURL string
}

func New(cfg Config) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.YouTubeURL == "" {
		cfg.YouTubeURL = DefaultYouTubeURL
	}
	return &Extractor{
		client:     &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		maxBody:    cfg.MaxBodyBytes,
		youtubeURL: strings.TrimRight(cfg.YouTubeURL, "/"),
	}
}

// get fetches url and returns at most maxBody bytes of a 2xx response.
func (e *Extractor) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.WithCause(domain.ErrValidation, "invalid URL", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, transportError(url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET %s: %s", domain.ErrFetch, url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		return nil, transportError(url, err)
	}
	return data, nil
}

func transportError(url string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: GET %s: %v", domain.ErrTimeout, url, err)
	}
	return fmt.Errorf("%w: GET %s: %v", domain.ErrFetch, url, err)
}

// collapse replaces every whitespace run with a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func meaningful(text string) bool {
	return len([]rune(strings.TrimSpace(text))) >= MinTextLength
}
