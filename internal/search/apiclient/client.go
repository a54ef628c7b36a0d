package apiclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/corpix/uarand"
	"golang.org/x/time/rate"

	"fofahack/internal/search/model"
	"fofahack/internal/shared/logger"
	"fofahack/internal/shared/types"
)

const defaultBaseURL = "https://api.fofa.info"

// Client issues signed requests to the REST search endpoint. The bound
// proxy is fixed at construction; the unified client rebuilds the Client
// whenever the proxy changes, so transport state never mixes proxies.
type Client struct {
	cfg     model.SearchConfig
	detect  types.DetectConf
	proxy   string
	baseURL string
	signer  *Signer
	http    *http.Client
	limiter *rate.Limiter
}

// Option overrides client construction details, used by tests to point
// the client at a local server.
type Option func(*Client)

// WithBaseURL replaces the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// New builds an API-mode client bound to the given proxy URL ("" means
// direct connection).
func New(cfg model.SearchConfig, detect types.DetectConf, proxyURL string, opts ...Option) (*Client, error) {
	signer, err := NewSigner()
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout: cfg.Timeout / 2,
		IdleConnTimeout:     cfg.Timeout,
	}
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", proxyURL, err)
		}
		transport.Proxy = http.ProxyURL(parsed)
	}

	interval := cfg.TimeSleep
	if interval <= 0 {
		interval = time.Second
	}

	c := &Client{
		cfg:     cfg,
		detect:  detect,
		proxy:   proxyURL,
		baseURL: defaultBaseURL,
		signer:  signer,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Proxy returns the proxy URL this client was constructed with.
func (c *Client) Proxy() string {
	return c.proxy
}

// Close releases idle transport connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// FetchPage requests one page of results. A ban/captcha status code in
// the envelope is returned as a *model.BanError without any internal
// retry: rotation is the caller's decision, not this layer's.
func (c *Client) FetchPage(ctx context.Context, query string, page int) (*model.PageResult, error) {
	l := logger.WithComponent("Search/API")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	size := c.cfg.PageSize
	if size <= 0 {
		size = 20
	}

	ts := time.Now().UnixMilli()
	reqURL, err := c.signer.BuildSignedURL(c.baseURL, query, page, size, c.cfg.Full, ts)
	if err != nil {
		return nil, err
	}

	if c.cfg.Debug {
		l.Debug().Int("page", page).Str("url", reqURL).Msg("Requesting page.")
	}

	env, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(env.Data.Assets))
	for i := range env.Data.Assets {
		results = append(results, env.Data.Assets[i].ToResult())
	}

	return &model.PageResult{
		Page:    page,
		Total:   env.Data.Total,
		Results: results,
	}, nil
}

// Count returns the total number of hits for a query, or -1 on failure.
func (c *Client) Count(ctx context.Context, query string) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return -1, err
	}

	ts := time.Now().UnixMilli()
	reqURL, err := c.signer.BuildSignedURL(c.baseURL, query, 1, 1, c.cfg.Full, ts)
	if err != nil {
		return -1, err
	}

	env, err := c.get(ctx, reqURL)
	if err != nil {
		return -1, err
	}
	return env.Data.Total, nil
}

func (c *Client) get(ctx context.Context, reqURL string) (*model.Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", "https://fofa.info/")
	req.Header.Set("Origin", "https://fofa.info")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env model.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &model.ParseError{Reason: "malformed api envelope", Err: err}
	}

	switch env.Code {
	case c.detect.BanCode:
		return nil, &model.BanError{Code: env.Code, Message: env.Message}
	case c.detect.CaptchaCode:
		return nil, &model.BanError{Code: env.Code, Message: env.Message}
	case 0:
		return &env, nil
	default:
		return nil, fmt.Errorf("api error code %d: %s", env.Code, env.Message)
	}
}
