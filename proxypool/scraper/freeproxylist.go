package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/corpix/uarand"

	"fofahack/internal/shared/logger"
	"fofahack/proxypool/model"
)

// FreeProxyListScraper parses the HTML proxy table on
// free-proxy-list.net.
type FreeProxyListScraper struct {
	client *http.Client
}

// NewFreeProxyListScraper creates a new FreeProxyListScraper instance.
func NewFreeProxyListScraper() Scraper {
	return &FreeProxyListScraper{
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Name returns the source name.
func (s *FreeProxyListScraper) Name() string {
	return "free-proxy-list.net"
}

// Scrape fetches the listing page and extracts the proxy table rows.
func (s *FreeProxyListScraper) Scrape(ctx context.Context) ([]*model.Entry, error) {
	l := logger.WithComponent("ProxyPool/Scraper")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://free-proxy-list.net/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", s.Name(), err)
	}
	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page for %s: %w", s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("received non-200 status code (%d) from %s", resp.StatusCode, s.Name())
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML for %s: %w", s.Name(), err)
	}

	var proxies []*model.Entry
	doc.Find("table.table-striped tbody tr").Each(func(_ int, sel *goquery.Selection) {
		ip := strings.TrimSpace(sel.Find("td").Eq(0).Text())
		portStr := strings.TrimSpace(sel.Find("td").Eq(1).Text())
		if ip == "" || portStr == "" {
			return
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			l.Warn().Str("ip", ip).Str("port", portStr).Str("source", s.Name()).Msg("Failed to parse port, skipping row.")
			return
		}
		proxies = append(proxies, &model.Entry{
			URL:    fmt.Sprintf("http://%s:%d", ip, port),
			Source: s.Name(),
			State:  model.StateUnvalidated,
		})
	})

	l.Debug().Int("count", len(proxies)).Str("source", s.Name()).Msg("Scrape finished.")
	return proxies, nil
}
