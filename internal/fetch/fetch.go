// Package fetch downloads listing pages with a polite client: fixed UA, a request-rate
// limiter, and retries on 429/5xx that honour Retry-After.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138 Safari/537.36 (+stats-research)"

// Fetcher returns the body of a successful GET.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

type Options struct {
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
	// Cooldown is used on 429 when the server sends no Retry-After.
	Cooldown time.Duration
	// RPS caps requests per second; <= 0 disables the limiter.
	RPS    float64
	Logger *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		UserAgent:   DefaultUserAgent,
		Timeout:     30 * time.Second,
		MaxAttempts: 6,
		RetryBase:   400 * time.Millisecond,
		RetryMax:    6 * time.Second,
		Cooldown:    7 * time.Second,
		RPS:         1,
	}
}

// Client is the resty-backed Fetcher.
type Client struct {
	http *resty.Client
	log  *slog.Logger
}

func New(o Options) *Client {
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}

	hc := resty.New()
	hc.SetTimeout(o.Timeout)
	hc.SetHeader("User-Agent", o.UserAgent)
	hc.SetHeader("Accept-Language", "en-US,en;q=0.9")
	hc.SetRetryCount(o.MaxAttempts - 1)
	hc.SetRetryWaitTime(o.RetryBase)
	hc.SetRetryMaxWaitTime(o.RetryMax)
	hc.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil || r == nil {
			return true
		}
		return retryable(r.StatusCode())
	})
	hc.SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
		if r == nil || r.StatusCode() != http.StatusTooManyRequests {
			// zero falls back to resty's jittered exponential backoff
			return 0, nil
		}
		if d := parseRetryAfter(r.Header().Get("Retry-After")); d > 0 {
			return d, nil
		}
		return o.Cooldown + time.Duration(rand.Intn(250))*time.Millisecond, nil
	})

	if o.RPS > 0 {
		limiter := rate.NewLimiter(rate.Limit(o.RPS), 1)
		hc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}
	hc.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
		log.Debug("fetch", "url", r.Request.URL, "status", r.StatusCode(), "bytes", len(r.Body()), "attempt", r.Request.Attempt)
		return nil
	})

	return &Client{http: hc, log: log}
}

func (c *Client) Get(ctx context.Context, url string) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("status %d for %s (body len=%d)", resp.StatusCode(), url, len(resp.Body()))
	}
	return resp.String(), nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

func parseRetryAfter(h string) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
