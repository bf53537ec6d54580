// Package headers supplies per-request header sets for the static fetchers.
package headers

import (
	"math/rand"
	"net/http"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36",
}

// Rotator hands out browser-profile headers with a randomly chosen
// User-Agent per request.
type Rotator struct {
	agents []string
}

// NewRotator builds a Rotator over the default agent pool. extra agents, if
// any, are appended to the pool.
func NewRotator(extra ...string) *Rotator {
	agents := append([]string(nil), userAgents...)
	agents = append(agents, extra...)
	return &Rotator{agents: agents}
}

// Headers returns a fresh header set for one request.
func (r *Rotator) Headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", r.agents[rand.Intn(len(r.agents))])
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("DNT", "1")
	return h
}

// Static always returns the same User-Agent. Useful for tests and for sites
// that object to rotation.
type Static struct {
	UserAgent string
}

// Headers returns the fixed header set.
func (s Static) Headers() http.Header {
	h := http.Header{}
	if s.UserAgent != "" {
		h.Set("User-Agent", s.UserAgent)
	}
	return h
}
