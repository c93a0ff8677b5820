// Package httpx wraps Colly for fetching the menu pages. The university
// sites serve broken certificate chains, so verification is disabled, and
// one endpoint only answers to a browser User-Agent.
package httpx

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:57.0) Gecko/20100101 Firefox/57.0"

// FetchError carries the HTTP status of a failed fetch.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error (status %d)", e.Status)
	}
	return fmt.Sprintf("fetch error (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher issues rate-limited HTTP requests and parses responses into
// goquery documents.
type Fetcher struct {
	userAgent string
	timeout   time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		userAgent: defaultUserAgent,
		timeout:   timeout,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Get fetches a page and parses it.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*goquery.Document, error) {
	return f.fetch(ctx, http.MethodGet, rawURL, nil)
}

// PostForm submits a form-encoded body and parses the response.
func (f *Fetcher) PostForm(ctx context.Context, rawURL string, form url.Values) (*goquery.Document, error) {
	return f.fetch(ctx, http.MethodPost, rawURL, form)
}

func (f *Fetcher) fetch(ctx context.Context, method, rawURL string, form url.Values) (*goquery.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if err := f.limiterFor(u.Hostname()).Wait(ctx); err != nil {
		return nil, err
	}

	var (
		body    []byte
		status  int
		lastErr error
	)
	for attempt := 0; attempt < 3; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		body, status, lastErr = f.fetchOnce(ctx, method, rawURL, form)
		if lastErr == nil {
			break
		}
		if !retryable(status) {
			return nil, &FetchError{Status: status, Err: lastErr}
		}
		backoff := time.Duration(500*(1<<attempt)) * time.Millisecond
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if lastErr != nil {
		return nil, &FetchError{Status: status, Err: lastErr}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return doc, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, method, rawURL string, form url.Values) ([]byte, int, error) {
	c := f.newCollector()

	var (
		body   []byte
		status int
		reqErr error
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	collyCtx := colly.NewContext()
	collyCtx.Put("ctx", ctx)

	var (
		reader *strings.Reader
		hdr    http.Header
	)
	if form != nil {
		reader = strings.NewReader(form.Encode())
		hdr = http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}}
	}
	var err error
	if reader != nil {
		err = c.Request(method, rawURL, reader, collyCtx, hdr)
	} else {
		err = c.Request(method, rawURL, nil, collyCtx, nil)
	}
	if err != nil {
		return nil, status, err
	}
	if reqErr != nil {
		return nil, status, reqErr
	}
	if status >= 400 {
		return nil, status, fmt.Errorf("status %d", status)
	}
	return body, status, nil
}

func (f *Fetcher) newCollector() *colly.Collector {
	c := colly.NewCollector(colly.UserAgent(f.userAgent))
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(f.timeout)
	c.WithTransport(&http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	})

	c.OnRequest(func(r *colly.Request) {
		reqCtx := context.Background()
		if v := r.Ctx.GetAny("ctx"); v != nil {
			if c, ok := v.(context.Context); ok {
				reqCtx = c
			}
		}
		if reqCtx.Err() != nil {
			r.Abort()
		}
	})

	return c
}

func (f *Fetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(100*time.Millisecond), 10)
	f.limiters[host] = l
	return l
}

func retryable(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status <= 599
}
