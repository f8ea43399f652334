package fetcher

import (
	"bytes"
	"context"
	"io"
	"math"
	"math/rand/v2"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration

	// MaxRetries is the total number of attempts per request. Only transport
	// errors, 429 and 5xx responses are retried.
	MaxRetries   int
	RetryBackoff time.Duration

	// RatePerHost and Burst bound request rate to any single host.
	RatePerHost rate.Limit
	Burst       int

	// CacheTTL enables an in-memory cache of successful responses when > 0.
	CacheTTL time.Duration

	// MaxBodyBytes caps a 2xx body. Larger bodies fail the fetch rather than
	// being parsed truncated.
	MaxBodyBytes int64
}

// HTTPFetcher implements Fetcher using net/http with per-host rate limiting,
// retry of transient failures and an optional response cache.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	cache *gocache.Cache
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "adscan/1.0"
	}
	if opts.RatePerHost == 0 {
		opts.RatePerHost = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}

	f := &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
	if opts.CacheTTL > 0 {
		f.cache = gocache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return f
}

// FetchText retrieves rawURL and returns its body as UTF-8 text.
func (f *HTTPFetcher) FetchText(ctx context.Context, rawURL string) (*Response, error) {
	if cached, ok := f.cached("text", rawURL); ok {
		return cached, nil
	}

	resp, body, err := f.get(ctx, rawURL, "text/plain, */*")
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return resp, nil
	}

	resp.Body = string(body)
	f.store("text", rawURL, resp)
	return resp, nil
}

// FetchJSON retrieves rawURL and decodes a successful body as JSON. The body
// of a non-2xx response is not decoded.
func (f *HTTPFetcher) FetchJSON(ctx context.Context, rawURL string) (*Response, error) {
	if cached, ok := f.cached("json", rawURL); ok {
		return cached, nil
	}

	resp, body, err := f.get(ctx, rawURL, "application/json, */*")
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return resp, nil
	}

	v, err := DecodeJSONValue(bytes.NewReader(body))
	if err != nil {
		return nil, &DecodeError{URL: rawURL, Err: err}
	}
	resp.Value = v
	f.store("json", rawURL, resp)
	return resp, nil
}

func (f *HTTPFetcher) cached(kind, rawURL string) (*Response, bool) {
	if f.cache == nil {
		return nil, false
	}
	v, ok := f.cache.Get(kind + ":" + rawURL)
	if !ok {
		return nil, false
	}
	resp := *v.(*Response)
	zap.L().Debug("fetch cache hit", zap.String("url", rawURL))
	return &resp, true
}

func (f *HTTPFetcher) store(kind, rawURL string, resp *Response) {
	if f.cache == nil {
		return
	}
	stored := *resp
	f.cache.SetDefault(kind+":"+rawURL, &stored)
}

// get performs a GET with retry and returns the response status together
// with the UTF-8 body of a 2xx response.
func (f *HTTPFetcher) get(ctx context.Context, rawURL, accept string) (*Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", accept)

	httpResp, err := f.doWithRetry(ctx, req)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "fetch %s", rawURL)
	}
	defer httpResp.Body.Close() //nolint:errcheck

	resp := &Response{
		URL:        rawURL,
		OK:         httpResp.StatusCode >= 200 && httpResp.StatusCode < 300,
		StatusCode: httpResp.StatusCode,
		StatusText: statusText(httpResp),
	}
	if !resp.OK {
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, 64<<10))
		return resp, nil, nil
	}

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, f.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, nil, eris.Wrapf(err, "read body from %s", rawURL)
	}
	if int64(len(raw)) > f.opts.MaxBodyBytes {
		return nil, nil, eris.Errorf("response body from %s exceeds %d bytes", rawURL, f.opts.MaxBodyBytes)
	}
	return resp, toUTF8(raw, httpResp.Header.Get("Content-Type")), nil
}

func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.opts.RatePerHost, f.opts.Burst)
		f.limiters[host] = lim
	}
	return lim
}

// doWithRetry returns the final response, retrying transport errors, 429
// and 5xx up to MaxRetries attempts. When attempts run out on a retryable
// status, that response is returned so its status reaches the caller.
func (f *HTTPFetcher) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	lim := f.limiterFor(req.URL.String())

	var lastErr error
	for attempt := range f.opts.MaxRetries {
		if err := lim.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}

		resp, err := f.client.Do(req.Clone(ctx))
		last := attempt == f.opts.MaxRetries-1
		if err != nil {
			lastErr = err
			if last || ctx.Err() != nil {
				break
			}
			zap.L().Warn("http request failed, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			f.backoff(ctx, attempt)
			continue
		}

		if !last && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) {
			_ = resp.Body.Close()
			zap.L().Warn("retryable status, backing off",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			f.backoff(ctx, attempt)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (f *HTTPFetcher) backoff(ctx context.Context, attempt int) {
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(f.opts.RetryBackoff) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	if half := int64(d) / 2; half > 0 {
		d += time.Duration(rand.Int64N(half))
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// statusText returns the reason phrase of a response, e.g. "Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// toUTF8 converts body to UTF-8 using the declared charset. Bodies without a
// declared charset that are already valid UTF-8 are returned unchanged.
func toUTF8(body []byte, contentType string) []byte {
	declared := false
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		_, declared = params["charset"]
	}
	if !declared && utf8.Valid(body) {
		return body
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		zap.L().Debug("charset conversion unavailable, using raw body",
			zap.String("content_type", contentType),
			zap.Error(err),
		)
		return body
	}
	converted, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return converted
}
