package scraper

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/corpix/uarand"

	"fofahack/internal/shared/logger"
	"fofahack/proxypool/model"
)

// The raw-list sources publish one "ip:port" per line. They churn
// constantly, which is why collection is best-effort per source.
var rawListSources = map[string]string{
	"thespeedx":    "https://raw.githubusercontent.com/TheSpeedX/PROXY-List/master/http.txt",
	"mertguvencli": "https://raw.githubusercontent.com/mertguvencli/http-proxy-list/main/proxies.txt",
	"shiftytr":     "https://raw.githubusercontent.com/ShiftyTR/Proxy-List/master/http.txt",
	"sunny9577":    "https://raw.githubusercontent.com/sunny9577/proxy-scraper/master/proxies/http.txt",
	"roosterkid":   "https://raw.githubusercontent.com/roosterkid/openproxylist/main/http.txt",
	"mmpx12":       "https://raw.githubusercontent.com/mmpx12/proxy-list/master/http.txt",
	"rdavydov":     "https://raw.githubusercontent.com/rdavydov/proxy-list/main/proxies/http.txt",
}

// RawListScraper fetches a plain-text proxy list.
type RawListScraper struct {
	name   string
	url    string
	client *http.Client
}

// NewRawListScraper creates a scraper for one named raw list source.
func NewRawListScraper(name, url string) Scraper {
	return &RawListScraper{
		name: name,
		url:  url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewRawListScrapers returns one scraper per known raw list source.
func NewRawListScrapers() []Scraper {
	out := make([]Scraper, 0, len(rawListSources))
	for name, url := range rawListSources {
		out = append(out, NewRawListScraper(name, url))
	}
	return out
}

// Name returns the source name.
func (s *RawListScraper) Name() string {
	return s.name
}

// Scrape downloads the list and parses each line into an entry.
func (s *RawListScraper) Scrape(ctx context.Context) ([]*model.Entry, error) {
	l := logger.WithComponent("ProxyPool/Scraper")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", s.name, err)
	}
	req.Header.Set("User-Agent", uarand.GetRandom())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch list from %s: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("received non-200 status code (%d) from %s", resp.StatusCode, s.name)
	}

	var proxies []*model.Entry
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, ":") {
			continue
		}
		url := line
		if !strings.HasPrefix(url, "http") && !strings.HasPrefix(url, "socks") {
			url = "http://" + url
		}
		proxies = append(proxies, &model.Entry{
			URL:    url,
			Source: s.name,
			State:  model.StateUnvalidated,
		})
	}
	if err := scanner.Err(); err != nil {
		return proxies, err
	}

	l.Debug().Int("count", len(proxies)).Str("source", s.name).Msg("Scrape finished.")
	return proxies, nil
}
