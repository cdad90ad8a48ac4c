package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	minLimit  = 0.1
	backOffBy = 2.0
	recoverBy = 1.5
)

// RateLimiters keeps track of per-host rate limits for the hosts
// images are fetched from. Catalog files tend to point most of their
// images at one or two hosts, so a page of images can otherwise
// arrive at a host all at once.
//
// Use `*RateLimiters.RoundTripper(rt)` to obtain a transport that
// waits on the limiter for the host of each request. A `HTTP 429 Too
// many requests` response reduces the limit for that host; a
// successful response raises it modestly back towards RPS.
type RateLimiters struct {
	RPS     float64
	Burst   int
	Logger  log.Logger
	perHost map[string]*rate.Limiter
	mu      sync.Mutex
}

func (limiters *RateLimiters) clip(limit float64) float64 {
	if limit < minLimit {
		return minLimit
	}
	if limit > limiters.RPS {
		return limiters.RPS
	}
	return limit
}

// limiter must be called with limiters.mu held.
func (limiters *RateLimiters) limiter(host string) *rate.Limiter {
	if limiters.perHost == nil {
		limiters.perHost = map[string]*rate.Limiter{}
	}
	rl, ok := limiters.perHost[host]
	if !ok {
		rl = rate.NewLimiter(rate.Limit(limiters.RPS), limiters.Burst)
		limiters.perHost[host] = rl
	}
	return rl
}

// backOff reduces the limit for a particular host.
func (limiters *RateLimiters) backOff(host string) {
	limiters.mu.Lock()
	defer limiters.mu.Unlock()

	limiter := limiters.limiter(host)
	oldLimit := float64(limiter.Limit())
	newLimit := limiters.clip(oldLimit / backOffBy)
	if oldLimit != newLimit && limiters.Logger != nil {
		limiters.Logger.Log("info", "reducing rate limit", "host", host, "limit", strconv.FormatFloat(newLimit, 'f', 2, 64))
	}
	limiter.SetLimit(rate.Limit(newLimit))
}

// Recover bumps the limit for a host back up again.
func (limiters *RateLimiters) Recover(host string) {
	limiters.mu.Lock()
	defer limiters.mu.Unlock()
	if limiters.perHost == nil {
		return
	}
	if limiter, ok := limiters.perHost[host]; ok {
		oldLimit := float64(limiter.Limit())
		newLimit := limiters.clip(oldLimit * recoverBy)
		if newLimit != oldLimit && limiters.Logger != nil {
			limiters.Logger.Log("info", "increasing rate limit", "host", host, "limit", strconv.FormatFloat(newLimit, 'f', 2, 64))
		}
		limiter.SetLimit(rate.Limit(newLimit))
	}
}

// Limit returns the current limit for a host, in requests per second.
func (limiters *RateLimiters) Limit(host string) float64 {
	limiters.mu.Lock()
	defer limiters.mu.Unlock()
	return float64(limiters.limiter(host).Limit())
}

// RoundTripper wraps rt so that every request waits its turn with the
// limiter for its host.
func (limiters *RateLimiters) RoundTripper(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &roundTripRateLimiter{limiters: limiters, tx: rt}
}

type roundTripRateLimiter struct {
	limiters *RateLimiters
	tx       http.RoundTripper
}

func (t *roundTripRateLimiter) RoundTrip(r *http.Request) (*http.Response, error) {
	host := r.URL.Host
	t.limiters.mu.Lock()
	rl := t.limiters.limiter(host)
	t.limiters.mu.Unlock()

	// Wait errors out if the request cannot be processed within
	// the deadline. This is pre-emptive, instead of waiting the
	// entire duration.
	if err := rl.Wait(r.Context()); err != nil {
		return nil, errors.Wrap(err, "rate limited")
	}
	resp, err := t.tx.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		t.limiters.backOff(host)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		t.limiters.Recover(host)
	}
	return resp, err
}
