// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"math/rand"
	"time"
)

// PrimaryUserAgent is presented on the first attempt of every target.
const PrimaryUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// RetryUserAgents is the pool retries draw from.
var RetryUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// Request header values sent with every fetch.
const (
	AcceptPDF      = "application/pdf, application/octet-stream, */*"
	AcceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	AcceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"
)

// IdentityPool hands out the client identity for each attempt: the primary
// identity first, then a pseudo-random pick from the pool. It is not safe for
// concurrent use.
type IdentityPool struct {
	primary string
	pool    []string
	rng     *rand.Rand
}

// NewIdentityPool builds a pool. A zero seed seeds from the clock; tests pass
// a fixed seed to get a repeatable sequence.
func NewIdentityPool(primary string, pool []string, seed int64) *IdentityPool {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if len(pool) == 0 {
		pool = []string{primary}
	}
	return &IdentityPool{
		primary: primary,
		pool:    append([]string(nil), pool...),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// DefaultIdentityPool uses PrimaryUserAgent and RetryUserAgents.
func DefaultIdentityPool(seed int64) *IdentityPool {
	return NewIdentityPool(PrimaryUserAgent, RetryUserAgents, seed)
}

// Pick returns the identity for a 0-based attempt.
func (p *IdentityPool) Pick(attempt int) string {
	if attempt == 0 {
		return p.primary
	}
	return p.pool[p.rng.Intn(len(p.pool))]
}
