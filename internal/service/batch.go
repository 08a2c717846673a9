package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"askly/internal/domain"
)

const (
	MaxWebsiteBatch = 50
	MaxYouTubeBatch = 10
)

type BatchError struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// BatchResult reports every item of a batch. One failing item never aborts
// the others.
type BatchResult struct {
	Indexed int           `json:"indexed"`
	Failed  int           `json:"failed"`
	Results []IndexResult `json:"results"`
	Errors  []BatchError  `json:"errors"`
}

type outcome struct {
	result IndexResult
	err    error
}

// runBatch indexes urls through a bounded worker pool. Results and errors
// keep input order.
func (s *IndexingService) runBatch(ctx context.Context, urls []string, limit int, one func(context.Context, string) (IndexResult, error)) (BatchResult, error) {
	if len(urls) == 0 {
		return BatchResult{}, fmt.Errorf("%w: at least one URL is required", domain.ErrValidation)
	}
	if len(urls) > limit {
		return BatchResult{}, fmt.Errorf("%w: at most %d URLs per batch", domain.ErrValidation, limit)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.opts.BatchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.BatchRate), 1)
	}
	outcomes := make([]outcome, len(urls))
	g := new(errgroup.Group)
	g.SetLimit(s.opts.BatchConcurrency)
	for i, url := range urls {
		url = strings.TrimSpace(url)
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				outcomes[i].err = fmt.Errorf("%w: %v", domain.ErrTimeout, err)
				return nil
			}
			outcomes[i].result, outcomes[i].err = one(ctx, url)
			return nil
		})
	}
	_ = g.Wait()

	res := BatchResult{Results: []IndexResult{}, Errors: []BatchError{}}
	for i, o := range outcomes {
		if o.err != nil {
			s.logger.Warn().Err(o.err).Str("url", urls[i]).Msg("Batch item failed")
			res.Errors = append(res.Errors, BatchError{URL: urls[i], Error: domain.UserMessage(o.err)})
			continue
		}
		res.Results = append(res.Results, o.result)
	}
	res.Indexed = len(res.Results)
	res.Failed = len(res.Errors)
	return res, nil
}
