package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/hanwei-dev/listing-autofill/internal/page"
	"github.com/hanwei-dev/listing-autofill/internal/queue"
)

// PageSource opens Amazon product pages for pipeline jobs. One page is
// reused across jobs; navigation replaces its content.
type PageSource struct {
	browser    *Browser
	page       playwright.Page
	maxRetries int
	logger     *slog.Logger
}

func NewPageSource(b *Browser, maxRetries int, logger *slog.Logger) *PageSource {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &PageSource{
		browser:    b,
		maxRetries: maxRetries,
		logger:     logger.With("component", "page_source"),
	}
}

func productURL(job *queue.Job) string {
	if job.URL != "" {
		return job.URL
	}
	return "https://www.amazon.com/dp/" + job.ASIN
}

// Product navigates to the job's product page and returns a queryable
// document over it.
func (s *PageSource) Product(ctx context.Context, job *queue.Job) (page.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.page == nil {
		p, err := s.browser.NewPage()
		if err != nil {
			return nil, err
		}
		s.page = p
	}

	url := productURL(job)
	if err := s.browser.NavigateWithRetry(s.page, url, s.maxRetries); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}

	s.logger.Debug("product page opened", "asin", job.ASIN, "url", url)
	return page.NewLive(s.page), nil
}

// Close releases the reused page. The browser itself is owned by the
// caller.
func (s *PageSource) Close() error {
	if s.page == nil {
		return nil
	}
	err := s.page.Close()
	s.page = nil
	return err
}
