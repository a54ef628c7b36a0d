package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fofahack/proxypool/model"
)

func TestRawListScrapeParsesLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("1.2.3.4:8080\n\n# comment\nnot-a-proxy\nsocks5://5.6.7.8:1080\n  9.9.9.9:3128  \n"))
	}))
	defer srv.Close()

	s := NewRawListScraper("testsource", srv.URL)
	entries, err := s.Scrape(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "http://1.2.3.4:8080", entries[0].URL)
	assert.Equal(t, "socks5://5.6.7.8:1080", entries[1].URL)
	assert.Equal(t, "http://9.9.9.9:3128", entries[2].URL)
	for _, e := range entries {
		assert.Equal(t, "testsource", e.Source)
		assert.Equal(t, model.StateUnvalidated, e.State)
	}
}

func TestRawListScrapeNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewRawListScraper("testsource", srv.URL)
	_, err := s.Scrape(context.Background())
	assert.Error(t, err)
}

func TestNewRawListScrapersCoversAllSources(t *testing.T) {
	scrapers := NewRawListScrapers()
	assert.Len(t, scrapers, len(rawListSources))
	names := make(map[string]bool)
	for _, s := range scrapers {
		names[s.Name()] = true
	}
	assert.True(t, names["thespeedx"])
}
