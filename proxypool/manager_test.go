package proxypool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fofahack/internal/shared/types"
	"fofahack/proxypool/model"
	"fofahack/proxypool/scraper"
	"fofahack/proxypool/storage"
	"fofahack/proxypool/validator"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	cfg := types.Default()
	cfg.ProxyPoolConf.PoolFile = filepath.Join(t.TempDir(), "pool.txt")
	store := storage.NewFileStorage(cfg.ProxyPoolConf.PoolFile)
	v := validator.New(time.Second, 2, cfg.DetectConf)
	return NewManager(cfg, store, v)
}

type stubScraper struct {
	entries []*model.Entry
}

func (s *stubScraper) Name() string { return "stub" }

func (s *stubScraper) Scrape(_ context.Context) ([]*model.Entry, error) {
	return s.entries, nil
}

func TestNextProxyEmptyPool(t *testing.T) {
	m := testManager(t)
	p, ok := m.NextProxy()
	assert.False(t, ok)
	assert.Empty(t, p)
}

func TestAddManualRoundRobin(t *testing.T) {
	m := testManager(t)
	m.AddManual([]string{
		"http://10.0.0.1:8080",
		"http://10.0.0.2:8080",
		"http://10.0.0.3:8080",
	})
	require.Equal(t, 3, m.ValidCount())

	seen := make(map[string]bool)
	var order []string
	for i := 0; i < 3; i++ {
		p, ok := m.NextProxy()
		require.True(t, ok)
		seen[p] = true
		order = append(order, p)
	}
	assert.Len(t, seen, 3, "a full cycle must visit every valid proxy once")

	p, ok := m.NextProxy()
	require.True(t, ok)
	assert.Equal(t, order[0], p, "the cycle must wrap around")
}

func TestAddManualNormalizesScheme(t *testing.T) {
	m := testManager(t)
	m.AddManual([]string{"1.2.3.4:8080", " ", "socks5://5.6.7.8:1080"})

	require.Equal(t, 2, m.ValidCount())
	urls := make(map[string]bool)
	for i := 0; i < 2; i++ {
		p, ok := m.NextProxy()
		require.True(t, ok)
		urls[p] = true
	}
	assert.True(t, urls["http://1.2.3.4:8080"])
	assert.True(t, urls["socks5://5.6.7.8:1080"])
}

func TestMarkFailedEvictsAfterLimit(t *testing.T) {
	m := testManager(t)
	m.AddManual([]string{"http://10.0.0.1:8080"})
	require.Equal(t, 1, m.Size())

	m.MarkFailed("http://10.0.0.1:8080")
	assert.Equal(t, 1, m.Size(), "a single failure must not evict")
	assert.Equal(t, 0, m.ValidCount(), "a failed entry must not be handed out")

	m.MarkFailed("http://10.0.0.1:8080")
	m.MarkFailed("http://10.0.0.1:8080")
	assert.Equal(t, 0, m.Size(), "the third consecutive failure must evict")
}

func TestMarkSuccessRestoresFailedEntry(t *testing.T) {
	m := testManager(t)
	m.AddManual([]string{"http://10.0.0.1:8080"})

	m.MarkFailed("http://10.0.0.1:8080")
	require.Equal(t, 0, m.ValidCount())

	m.MarkSuccess("http://10.0.0.1:8080")
	assert.Equal(t, 1, m.ValidCount())

	// Success resets the failure streak, so the eviction counter restarts.
	m.MarkFailed("http://10.0.0.1:8080")
	m.MarkFailed("http://10.0.0.1:8080")
	assert.Equal(t, 1, m.Size())
}

func TestMarkIgnoresUnknownAndDirect(t *testing.T) {
	m := testManager(t)
	m.MarkFailed("")
	m.MarkFailed("http://unknown:1")
	m.MarkSuccess("")
	m.MarkSuccess("http://unknown:1")
	assert.Equal(t, 0, m.Size())
}

func TestRefreshCollectsValidatesPersists(t *testing.T) {
	// The httptest server plays the HTTP proxy: the probe arrives here as
	// an absolute-URL GET and gets a healthy envelope back.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code":0,"data":{"total":1}}`))
	}))
	defer srv.Close()

	cfg := types.Default()
	poolFile := filepath.Join(t.TempDir(), "pool.txt")
	cfg.ProxyPoolConf.PoolFile = poolFile
	store := storage.NewFileStorage(poolFile)

	v := validator.New(2*time.Second, 2, cfg.DetectConf)
	v.SetProbeBase("http://probe.internal")

	m := &Manager{
		cfg:       cfg,
		storage:   store,
		validator: v,
		entries:   make(map[string]*model.Entry),
		stopChan:  make(chan struct{}),
	}
	m.AddScraper(&stubScraper{entries: []*model.Entry{
		{URL: srv.URL, Source: "stub", State: model.StateUnvalidated},
	}})

	m.refresh(context.Background())

	assert.Equal(t, 1, m.ValidCount())
	p, ok := m.NextProxy()
	require.True(t, ok)
	assert.Equal(t, srv.URL, p)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, model.StateValid, loaded[srv.URL].State)
}

func TestRefreshCapsBatchSize(t *testing.T) {
	cfg := types.Default()
	cfg.ProxyPoolConf.PoolFile = filepath.Join(t.TempDir(), "pool.txt")
	cfg.ProxyPoolConf.ValidationBatchSize = 2
	store := storage.NewFileStorage(cfg.ProxyPoolConf.PoolFile)

	v := validator.New(200*time.Millisecond, 2, cfg.DetectConf)
	// Unroutable probe target: every candidate fails validation fast.
	v.SetProbeBase("http://127.0.0.1:1")

	m := &Manager{
		cfg:       cfg,
		storage:   store,
		validator: v,
		entries:   make(map[string]*model.Entry),
		stopChan:  make(chan struct{}),
	}
	m.AddScraper(&stubScraper{entries: []*model.Entry{
		{URL: "http://10.0.0.1:1", State: model.StateUnvalidated},
		{URL: "http://10.0.0.2:1", State: model.StateUnvalidated},
		{URL: "http://10.0.0.3:1", State: model.StateUnvalidated},
		{URL: "http://10.0.0.4:1", State: model.StateUnvalidated},
	}})

	m.refresh(context.Background())

	assert.Equal(t, 2, m.Size(), "only one batch worth of candidates enters the pool per cycle")
	assert.Equal(t, 0, m.ValidCount())
}

func TestConcurrentHandoutAndMarks(t *testing.T) {
	m := testManager(t)
	m.AddManual([]string{
		"http://10.0.0.1:8080",
		"http://10.0.0.2:8080",
		"http://10.0.0.3:8080",
		"http://10.0.0.4:8080",
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if p, ok := m.NextProxy(); ok {
					if j%2 == 0 {
						m.MarkSuccess(p)
					} else {
						m.MarkFailed(p)
					}
				}
			}
		}()
	}
	wg.Wait()
	// No assertion on the surviving count: the race detector is the check.
	assert.LessOrEqual(t, m.Size(), 4)
}

var _ scraper.Scraper = (*stubScraper)(nil)
