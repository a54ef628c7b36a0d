package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"fofahack/internal/shared/logger"
	"fofahack/proxypool/model"
)

const proxyscrapeURL = "https://api.proxyscrape.com/v2/?request=displayproxies&protocol=http&timeout=5000&country=all"

// ProxyscrapeScraper pulls the on-demand list from proxyscrape.com.
type ProxyscrapeScraper struct {
	collector *colly.Collector
}

// NewProxyscrapeScraper creates a new ProxyscrapeScraper instance.
func NewProxyscrapeScraper() Scraper {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	c.SetRequestTimeout(20 * time.Second)

	return &ProxyscrapeScraper{
		collector: c,
	}
}

// Name returns the source name.
func (s *ProxyscrapeScraper) Name() string {
	return "proxyscrape.com"
}

// Scrape requests the list endpoint; the response is one proxy per line.
// The collector is cloned per call so handlers do not pile up across
// refresh cycles.
func (s *ProxyscrapeScraper) Scrape(ctx context.Context) ([]*model.Entry, error) {
	l := logger.WithComponent("ProxyPool/Scraper")

	var proxies []*model.Entry
	var mu sync.Mutex

	collector := s.collector.Clone()
	collector.OnResponse(func(r *colly.Response) {
		mu.Lock()
		defer mu.Unlock()

		for _, line := range strings.Split(string(r.Body), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || !strings.Contains(line, ":") {
				continue
			}
			proxies = append(proxies, &model.Entry{
				URL:    "http://" + line,
				Source: s.Name(),
				State:  model.StateUnvalidated,
			})
		}
	})

	if err := collector.Visit(proxyscrapeURL); err != nil {
		return nil, fmt.Errorf("failed to fetch list from %s: %w", s.Name(), err)
	}
	collector.Wait()

	l.Debug().Int("count", len(proxies)).Str("source", s.Name()).Msg("Scrape finished.")
	return proxies, nil
}
