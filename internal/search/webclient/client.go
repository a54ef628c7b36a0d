package webclient

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/corpix/uarand"
	"golang.org/x/time/rate"

	"fofahack/internal/search/model"
	"fofahack/internal/shared/logger"
	"fofahack/internal/shared/types"
)

const defaultBaseURL = "https://fofa.info"

// Client scrapes the human-facing search result page without any
// authentication. Like the API client, the bound proxy is fixed at
// construction and the instance is rebuilt on proxy change.
type Client struct {
	cfg     model.SearchConfig
	detect  types.DetectConf
	proxy   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option overrides client construction details.
type Option func(*Client)

// WithBaseURL replaces the web endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// New builds a web-mode client bound to the given proxy URL.
func New(cfg model.SearchConfig, detect types.DetectConf, proxyURL string, opts ...Option) (*Client, error) {
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

// buildURL assembles the result page URL with the base64 query.
func (c *Client) buildURL(query string, page int) string {
	qbase64 := base64.StdEncoding.EncodeToString([]byte(query))
	u := fmt.Sprintf("%s/result?qbase64=%s", c.baseURL, url.QueryEscape(qbase64))
	if page > 1 {
		u += fmt.Sprintf("&page=%d", page)
	}
	if c.cfg.Full {
		u += "&full=true"
	}
	return u
}

// FetchPage loads one result page and extracts the records embedded in
// its markup. A redirect to the captcha page, or a body carrying the
// captcha marker, is a ban signal; markup whose shape cannot be parsed
// is a ParseError, never an empty success.
func (c *Client) FetchPage(ctx context.Context, query string, page int) (*model.PageResult, error) {
	l := logger.WithComponent("Search/Web")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.buildURL(query, page)
	if c.cfg.Debug {
		l.Debug().Int("page", page).Str("url", reqURL).Msg("Requesting page.")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Redirect chain ending on the captcha page is the web-mode ban.
	finalURL := resp.Request.URL.String()
	if strings.Contains(strings.ToLower(finalURL), c.detect.CaptchaSubstr) {
		return nil, &model.BanError{Message: "redirected to captcha page"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("web returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if banErr := c.detectBan(string(body)); banErr != nil {
		return nil, banErr
	}

	results, total, err := extractResults(string(body))
	if err != nil {
		return nil, err
	}

	return &model.PageResult{
		Page:    page,
		Total:   total,
		Results: results,
	}, nil
}

// detectBan scans a response body for the captcha marker and the ban
// phrases the service embeds in blocked pages.
func (c *Client) detectBan(body string) error {
	if body == "" {
		return &model.BanError{Message: "empty response body"}
	}
	lower := strings.ToLower(body)
	if strings.Contains(lower, c.detect.CaptchaSubstr) {
		return &model.BanError{Message: "captcha challenge in response"}
	}
	if strings.Contains(body, fmt.Sprintf("[%d]", c.detect.BanCode)) {
		return &model.BanError{Code: c.detect.BanCode, Message: "ban marker in response"}
	}
	return nil
}
