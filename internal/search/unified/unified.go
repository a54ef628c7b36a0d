package unified

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fofahack/internal/search/apiclient"
	"fofahack/internal/search/model"
	"fofahack/internal/search/webclient"
	"fofahack/internal/shared/logger"
	"fofahack/internal/shared/types"
)

// PageClient is the contract both mode clients satisfy: fetch one page,
// report which proxy the instance was built with.
type PageClient interface {
	FetchPage(ctx context.Context, query string, page int) (*model.PageResult, error)
	Proxy() string
	Close()
}

// Pool is the slice of the proxy pool the orchestrator consumes. Nil
// pool means rotation is disabled.
type Pool interface {
	NextProxy() (string, bool)
	MarkFailed(proxy string)
	MarkSuccess(proxy string)
}

// Factory builds a mode client bound to a proxy.
type Factory func(cfg model.SearchConfig, detect types.DetectConf, proxy string) (PageClient, error)

// Client orchestrates mode selection, pagination, backoff and proxy
// rotation across the two mode clients. One Client serves one search
// flow; pages are fetched strictly in order.
type Client struct {
	cfg    model.SearchConfig
	detect types.DetectConf
	search types.SearchConf
	pool   Pool

	apiFactory Factory
	webFactory Factory

	mode  model.AccessMode
	proxy string
	api   PageClient
	web   PageClient

	// banSwitched marks that the current failure episode already spent
	// its one mode switch. It resets on the next success, so a later ban
	// can fall back again instead of oscillating between modes.
	banSwitched bool

	runID string

	mu    sync.Mutex
	stats Stats
}

// Option adjusts Client construction.
type Option func(*Client)

// WithAPIFactory replaces the API client constructor (tests).
func WithAPIFactory(f Factory) Option {
	return func(c *Client) { c.apiFactory = f }
}

// WithWebFactory replaces the web client constructor (tests).
func WithWebFactory(f Factory) Option {
	return func(c *Client) { c.webFactory = f }
}

// New creates a unified client. pool may be nil to disable rotation.
func New(cfg model.SearchConfig, detect types.DetectConf, search types.SearchConf, pool Pool, opts ...Option) *Client {
	mode := model.ModeAPI
	if cfg.Mode == model.ModeWeb {
		mode = model.ModeWeb
	}

	c := &Client{
		cfg:    cfg,
		detect: detect,
		search: search,
		pool:   pool,
		mode:   mode,
		runID:  uuid.NewString(),
		apiFactory: func(cfg model.SearchConfig, detect types.DetectConf, proxy string) (PageClient, error) {
			return apiclient.New(cfg, detect, proxy)
		},
		webFactory: func(cfg model.SearchConfig, detect types.DetectConf, proxy string) (PageClient, error) {
			return webclient.New(cfg, detect, proxy)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stats.Mode = c.mode
	c.stats.RunID = c.runID
	return c
}

// RunID returns the identifier attached to this run's logs and stats.
func (c *Client) RunID() string {
	return c.runID
}

// activeClient returns the client for the current mode, rebuilding it
// when the bound proxy no longer matches the value the instance was
// constructed with. Stale transport state never survives a proxy change.
func (c *Client) activeClient() (PageClient, error) {
	switch c.mode {
	case model.ModeWeb:
		if c.web != nil && c.web.Proxy() != c.proxy {
			c.web.Close()
			c.web = nil
		}
		if c.web == nil {
			cl, err := c.webFactory(c.cfg, c.detect, c.proxy)
			if err != nil {
				return nil, err
			}
			c.web = cl
		}
		return c.web, nil
	default:
		if c.api != nil && c.api.Proxy() != c.proxy {
			c.api.Close()
			c.api = nil
		}
		if c.api == nil {
			cl, err := c.apiFactory(c.cfg, c.detect, c.proxy)
			if err != nil {
				return nil, err
			}
			c.api = cl
		}
		return c.api, nil
	}
}

// bindProxy changes the bound proxy. The mode clients are rebuilt on
// their next use.
func (c *Client) bindProxy(proxy string) {
	c.proxy = proxy
	c.mu.Lock()
	c.stats.Proxy = proxy
	c.mu.Unlock()
}

// switchMode toggles API<->WEB.
func (c *Client) switchMode() {
	if c.mode == model.ModeAPI {
		c.mode = model.ModeWeb
	} else {
		c.mode = model.ModeAPI
	}
	c.mu.Lock()
	c.stats.Mode = c.mode
	c.mu.Unlock()
}

// fetchOnce performs a single attempt on the active mode client.
func (c *Client) fetchOnce(ctx context.Context, query string, page int) (*model.PageResult, error) {
	cl, err := c.activeClient()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.stats.Attempts++
	c.mu.Unlock()

	return cl.FetchPage(ctx, query, page)
}

// attemptPage drives one page to success or failure. A ban rotates the
// proxy when one is available, otherwise switches mode once; transport
// and parse errors retry with doubling, capped backoff. Every path is
// bounded so a page attempt always terminates.
func (c *Client) attemptPage(ctx context.Context, query string, page int) (*model.PageResult, bool) {
	l := logger.WithComponent("Search/Unified")

	maxRetries := c.search.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	backoff := c.cfg.TimeSleep
	if backoff <= 0 {
		backoff = time.Second
	}
	const maxBackoff = 30 * time.Second

	retries := 0
	rotations := 0

	for {
		res, err := c.fetchOnce(ctx, query, page)
		if err == nil {
			c.mu.Lock()
			c.stats.Successes++
			c.mu.Unlock()
			c.banSwitched = false
			if c.pool != nil {
				c.pool.MarkSuccess(c.proxy)
			}
			return res, true
		}

		if ctx.Err() != nil {
			c.recordFailure()
			return nil, false
		}

		if model.IsBan(err) {
			c.mu.Lock()
			c.stats.Bans++
			c.mu.Unlock()
			l.Warn().Err(err).Str("mode", string(c.mode)).Int("page", page).Msg("Ban signal received.")

			if c.pool != nil {
				c.pool.MarkFailed(c.proxy)
				if rotations < maxRetries {
					if next, ok := c.pool.NextProxy(); ok && next != c.proxy {
						rotations++
						l.Info().Str("proxy", next).Msg("Rotating to next proxy.")
						c.bindProxy(next)
						continue
					}
				}
			}

			if !c.banSwitched {
				c.banSwitched = true
				c.switchMode()
				l.Info().Str("mode", string(c.mode)).Msg("Proxies exhausted, switching mode.")
				continue
			}

			c.recordFailure()
			return nil, false
		}

		// Transport or parse error: bounded exponential backoff.
		if retries >= maxRetries {
			l.Warn().Err(err).Int("page", page).Msg("Retry ceiling reached.")
			c.recordFailure()
			return nil, false
		}
		retries++
		l.Debug().Err(err).Int("retry", retries).Str("backoff", backoff.String()).Msg("Transient error, backing off.")
		if !sleepCtx(ctx, backoff) {
			c.recordFailure()
			return nil, false
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.stats.Failures++
	c.mu.Unlock()
}

// SearchAll fetches pages in order until the target count is reached,
// pages run out, or the consecutive-failure threshold fires. Partial
// results are always returned; Stats reports an early stop.
func (c *Client) SearchAll(ctx context.Context, query string) ([]model.SearchResult, error) {
	l := logger.WithComponent("Search/Unified")

	endCount := c.cfg.EndCount
	if endCount <= 0 {
		endCount = 100
	}
	maxPages := c.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}
	threshold := c.search.MaxConsecutiveFailures
	if threshold <= 0 {
		threshold = 3
	}

	l.Info().Str("run_id", c.runID).Str("query", query).Int("target", endCount).Msg("Search starting.")

	var all []model.SearchResult
	consecutive := 0

	for page := 1; len(all) < endCount && page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		res, ok := c.attemptPage(ctx, query, page)
		if !ok {
			consecutive++
			l.Warn().Int("page", page).Int("consecutive_failures", consecutive).Msg("Page failed.")
			if consecutive >= threshold {
				c.mu.Lock()
				c.stats.StoppedEarly = true
				c.mu.Unlock()
				l.Error().Int("threshold", threshold).Msg("Consecutive failure threshold reached, terminating run.")
				return all, fmt.Errorf("terminated after %d consecutive failures", threshold)
			}
			continue
		}

		consecutive = 0

		if len(res.Results) == 0 {
			l.Info().Int("page", page).Msg("Empty page, no more results.")
			break
		}

		all = append(all, res.Results...)
		l.Info().Int("page", page).Int("page_count", len(res.Results)).Int("total", len(all)).Msg("Page fetched.")

		if len(all) >= endCount {
			all = all[:endCount]
			break
		}
		if res.Total > 0 && len(all) >= res.Total {
			break
		}

		if c.cfg.TimeSleep > 0 && page < maxPages {
			if !sleepCtx(ctx, c.cfg.TimeSleep) {
				return all, ctx.Err()
			}
		}
	}

	l.Info().Str("run_id", c.runID).Int("results", len(all)).Msg("Search finished.")
	return all, nil
}

// Close releases both mode clients.
func (c *Client) Close() {
	if c.api != nil {
		c.api.Close()
	}
	if c.web != nil {
		c.web.Close()
	}
}

// sleepCtx sleeps unless the context is cancelled first. Returns false
// on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
