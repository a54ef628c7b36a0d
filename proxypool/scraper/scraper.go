package scraper

import (
	"context"

	"fofahack/proxypool/model"
)

// Scraper fetches candidate proxies from one public source. Implementers
// only collect and parse; validation happens elsewhere.
type Scraper interface {
	Scrape(ctx context.Context) ([]*model.Entry, error)

	// Name identifies the source for logging.
	Name() string
}
