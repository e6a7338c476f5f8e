package fetcher

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// domainLimiter enforces a per-domain request rate so concurrent crawl
// workers stay polite to any single host.
type domainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

func newDomainLimiter(requestsPerSecond float64) *domainLimiter {
	return &domainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      requestsPerSecond,
	}
}

// Wait blocks until the domain of rawURL is allowed another request. URLs
// without a parseable host share one bucket.
func (d *domainLimiter) Wait(ctx context.Context, rawURL string) error {
	if d.rps <= 0 {
		return nil
	}

	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Hostname()
	}

	d.mu.Lock()
	limiter, ok := d.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[host] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
