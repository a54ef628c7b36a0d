package validator

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/sync/semaphore"

	"fofahack/internal/shared/logger"
	"fofahack/internal/shared/types"
	"fofahack/proxypool/model"
)

const defaultProbeBase = "https://api.fofa.info"

// probeQuery is a cheap real query. A generic connectivity check is not
// enough: a proxy that reaches the internet but is already banned by the
// target is useless to us.
const probeQuery = "port=80"

// Validator checks candidate proxies against the target's actual search
// endpoint with a short timeout.
type Validator struct {
	timeout     time.Duration
	concurrency int64
	detect      types.DetectConf
	probeBase   string
}

// New creates a Validator.
func New(timeout time.Duration, concurrency int, detect types.DetectConf) *Validator {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Validator{
		timeout:     timeout,
		concurrency: int64(concurrency),
		detect:      detect,
		probeBase:   defaultProbeBase,
	}
}

// SetProbeBase points the validator at a different endpoint, used by
// tests.
func (v *Validator) SetProbeBase(base string) {
	v.probeBase = base
}

// Validate checks a batch concurrently and mutates each entry's state in
// place. The batch is bounded by the semaphore, not fanned out
// unbounded.
func (v *Validator) Validate(ctx context.Context, entries []*model.Entry) {
	l := logger.WithComponent("ProxyPool/Validator")
	if len(entries) == 0 {
		return
	}

	l.Info().Int("count", len(entries)).Msg("Starting validation batch...")

	sem := semaphore.NewWeighted(v.concurrency)
	var wg sync.WaitGroup

	for _, e := range entries {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(entry *model.Entry) {
			defer wg.Done()
			defer sem.Release(1)
			v.validateOne(ctx, entry)
		}(e)
	}

	wg.Wait()
	l.Info().Msg("Validation batch finished.")
}

// validateOne issues the probe request through the candidate and updates
// its state. Any error, non-2xx status, or ban-coded envelope marks the
// entry failed.
func (v *Validator) validateOne(ctx context.Context, entry *model.Entry) {
	start := time.Now()
	err := v.probe(ctx, entry.URL)
	entry.LastChecked = time.Now()

	if err != nil {
		entry.State = model.StateFailed
		entry.SuccessCount = 0
		entry.FailureCount++
		entry.Latency = 0
		return
	}
	entry.State = model.StateValid
	entry.FailureCount = 0
	entry.SuccessCount++
	entry.Latency = time.Since(start)
}

func (v *Validator) probe(ctx context.Context, proxyURL string) error {
	client, err := v.clientFor(proxyURL)
	if err != nil {
		return err
	}
	defer client.CloseIdleConnections()

	qbase64 := base64.StdEncoding.EncodeToString([]byte(probeQuery))
	probeURL := fmt.Sprintf(
		"%s/v1/search?qbase64=%s&page=1&size=1&full=false&ts=%d",
		v.probeBase, url.QueryEscape(qbase64), time.Now().UnixMilli(),
	)

	reqCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, probeURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}

	var env struct {
		Code int `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("probe response not json: %w", err)
	}
	if env.Code == v.detect.BanCode || env.Code == v.detect.CaptchaCode {
		return fmt.Errorf("proxy already banned by target (code %d)", env.Code)
	}
	return nil
}

// clientFor builds an HTTP client routed through the candidate, handling
// both http and socks5 proxies.
func (v *Validator) clientFor(proxyURL string) (*http.Client, error) {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url %q: %w", proxyURL, err)
	}

	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout: v.timeout,
		IdleConnTimeout:     v.timeout,
	}

	if strings.HasPrefix(parsed.Scheme, "socks") {
		dialer, err := proxy.SOCKS5("tcp", parsed.Host, nil, &net.Dialer{Timeout: v.timeout})
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("SOCKS5 dialer does not support context")
		}
		transport.DialContext = contextDialer.DialContext
	} else {
		transport.Proxy = http.ProxyURL(parsed)
		transport.DialContext = (&net.Dialer{Timeout: v.timeout}).DialContext
	}

	return &http.Client{
		Transport: transport,
		Timeout:   v.timeout,
	}, nil
}
