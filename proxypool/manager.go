package proxypool

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fofahack/internal/shared/logger"
	"fofahack/internal/shared/types"
	"fofahack/proxypool/model"
	"fofahack/proxypool/scraper"
	"fofahack/proxypool/storage"
	"fofahack/proxypool/validator"
)

// Manager owns the proxy pool: background collection from public list
// sources, validation against the target's real search endpoint, and
// round-robin hand-out of valid entries to the search flow. Collection
// runs on its own schedule; NextProxy never blocks on it.
type Manager struct {
	cfg       *types.Config
	storage   storage.Storage
	validator *validator.Validator
	scrapers  []scraper.Scraper

	mu      sync.RWMutex
	entries map[string]*model.Entry
	rrIdx   int

	refreshTicker *time.Ticker
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// NewManager creates a pool manager with the default source set.
func NewManager(cfg *types.Config, store storage.Storage, v *validator.Validator) *Manager {
	m := &Manager{
		cfg:       cfg,
		storage:   store,
		validator: v,
		entries:   make(map[string]*model.Entry),
		stopChan:  make(chan struct{}),
	}
	for _, s := range scraper.NewRawListScrapers() {
		m.AddScraper(s)
	}
	m.AddScraper(scraper.NewFreeProxyListScraper())
	m.AddScraper(scraper.NewProxyscrapeScraper())
	return m
}

// AddScraper registers an additional source.
func (m *Manager) AddScraper(s scraper.Scraper) {
	m.scrapers = append(m.scrapers, s)
}

// AddManual injects caller-supplied proxies. They are trusted as valid
// immediately so an explicit --proxy works without waiting for a
// validation cycle.
func (m *Manager) AddManual(urls []string) {
	l := logger.WithComponent("ProxyPool/Manager")
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if !strings.HasPrefix(u, "http") && !strings.HasPrefix(u, "socks") {
			u = "http://" + u
		}
		if _, exists := m.entries[u]; exists {
			continue
		}
		m.entries[u] = &model.Entry{
			URL:         u,
			Source:      "manual",
			State:       model.StateValid,
			LastChecked: time.Now(),
		}
		added++
	}
	if added > 0 {
		l.Info().Int("count", added).Msg("Manual proxies added to pool.")
	}
}

// Start loads the persisted pool and launches the background refresh
// loop. It returns immediately; the first collection cycle runs
// asynchronously so the initial search never waits for it.
func (m *Manager) Start(ctx context.Context) {
	l := logger.WithComponent("ProxyPool/Manager")

	if entries, err := m.storage.Load(); err != nil {
		l.Error().Err(err).Msg("Failed to load pool from storage. Starting empty.")
	} else {
		m.mu.Lock()
		for url, e := range entries {
			if _, exists := m.entries[url]; !exists {
				m.entries[url] = e
			}
		}
		m.mu.Unlock()
	}

	interval := time.Duration(m.cfg.ProxyPoolConf.RefreshIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	m.refreshTicker = time.NewTicker(interval)

	l.Info().Msg("Pool manager starting.")

	m.wg.Add(1)
	go m.schedulerLoop(ctx)

	go m.refresh(ctx)
}

// schedulerLoop drives periodic refresh until Stop or context
// cancellation.
func (m *Manager) schedulerLoop(ctx context.Context) {
	defer m.wg.Done()
	l := logger.WithComponent("ProxyPool/Manager")

	for {
		select {
		case <-m.refreshTicker.C:
			l.Debug().Msg("Refresh ticker triggered.")
			go m.refresh(ctx)

		case <-m.stopChan:
			l.Info().Msg("Stop signal received. Shutting down scheduler.")
			m.refreshTicker.Stop()
			return

		case <-ctx.Done():
			m.refreshTicker.Stop()
			return
		}
	}
}

// refresh runs one collect -> validate -> merge -> persist cycle.
// Partial source failures are tolerated; a source that errors is skipped.
func (m *Manager) refresh(ctx context.Context) {
	l := logger.WithComponent("ProxyPool/Manager")
	l.Info().Msg("Starting collection cycle...")

	var wg sync.WaitGroup
	scrapedChan := make(chan []*model.Entry, len(m.scrapers))

	for _, s := range m.scrapers {
		wg.Add(1)
		go func(sc scraper.Scraper) {
			defer wg.Done()
			entries, err := sc.Scrape(ctx)
			if err != nil {
				l.Warn().Err(err).Str("source", sc.Name()).Msg("Scraper failed, skipping source.")
				return
			}
			if len(entries) > 0 {
				scrapedChan <- entries
			}
		}(s)
	}

	wg.Wait()
	close(scrapedChan)

	var fresh []*model.Entry
	m.mu.RLock()
	for batch := range scrapedChan {
		for _, e := range batch {
			if _, exists := m.entries[e.URL]; !exists {
				fresh = append(fresh, e)
			}
		}
	}
	m.mu.RUnlock()

	if len(fresh) == 0 {
		l.Info().Msg("No new proxies found in this cycle.")
		return
	}

	batchSize := m.cfg.ProxyPoolConf.ValidationBatchSize
	if batchSize > 0 && len(fresh) > batchSize {
		fresh = fresh[:batchSize]
	}

	l.Info().Int("count", len(fresh)).Msg("Validating new proxies...")
	m.validator.Validate(ctx, fresh)

	valid := 0
	m.mu.Lock()
	for _, e := range fresh {
		m.entries[e.URL] = e
		if e.Usable() {
			valid++
		}
	}
	m.mu.Unlock()

	l.Info().Int("validated", len(fresh)).Int("valid", valid).Msg("Collection cycle finished.")

	if err := m.save(); err != nil {
		l.Error().Err(err).Msg("Failed to persist pool after cycle.")
	}
}

// NextProxy returns one valid entry in round-robin order, or ("", false)
// when none is available. Safe to call while a refresh cycle appends new
// entries.
func (m *Manager) NextProxy() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	valid := m.validLocked()
	if len(valid) == 0 {
		return "", false
	}

	m.rrIdx = (m.rrIdx + 1) % len(valid)
	return valid[m.rrIdx], true
}

// validLocked returns the sorted URLs of usable entries. Caller holds
// the lock.
func (m *Manager) validLocked() []string {
	urls := make([]string, 0, len(m.entries))
	for url, e := range m.entries {
		if e.Usable() {
			urls = append(urls, url)
		}
	}
	// Map iteration order is random; round-robin needs a stable cycle.
	sort.Strings(urls)
	return urls
}

// MarkFailed records a failure against an entry; entries are evicted
// after the configured consecutive-failure limit.
func (m *Manager) MarkFailed(proxyURL string) {
	if proxyURL == "" {
		return
	}
	l := logger.WithComponent("ProxyPool/Manager")

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[proxyURL]
	if !ok {
		return
	}
	e.SuccessCount = 0
	e.FailureCount++

	limit := m.cfg.ProxyPoolConf.MaxFailuresBeforeRemoval
	if limit <= 0 {
		limit = 3
	}
	if e.FailureCount >= limit {
		delete(m.entries, proxyURL)
		l.Info().Str("proxy", proxyURL).Int("failures", e.FailureCount).Msg("Proxy evicted after repeated failures.")
		return
	}
	e.State = model.StateFailed
}

// MarkSuccess records a success, restoring a failed entry to valid.
func (m *Manager) MarkSuccess(proxyURL string) {
	if proxyURL == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[proxyURL]; ok {
		e.FailureCount = 0
		e.SuccessCount++
		e.State = model.StateValid
	}
}

// ValidCount returns the number of usable entries.
func (m *Manager) ValidCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.entries {
		if e.Usable() {
			n++
		}
	}
	return n
}

// Size returns the total pool size including failed entries.
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stop shuts down the scheduler and persists the pool.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	m.wg.Wait()
	if err := m.save(); err != nil {
		logger.Error().Err(err).Msg("Failed to persist pool on shutdown.")
	}
	logger.Info().Msg("Pool manager stopped.")
}

func (m *Manager) save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.storage.Save(m.entries)
}
