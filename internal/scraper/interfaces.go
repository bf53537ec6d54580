package scraper

import (
	"context"
	"net/http"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// HeaderProvider supplies per-request header sets to the static extractors.
// Implementations may rotate user agents; the engine treats the result as
// opaque.
type HeaderProvider interface {
	Headers() http.Header
}

// DelayPolicy produces politeness pauses between sites and between cards.
// Test implementations return zero so timing never leaks into assertions.
type DelayPolicy interface {
	// Wait sleeps for one sampled delay or until the context is done.
	Wait(ctx context.Context)
	// WaitMicro sleeps for a shorter sampled delay used between cards.
	WaitMicro(ctx context.Context)
}

// StaticExtractor runs one static-phase strategy against a single target.
type StaticExtractor interface {
	Extract(ctx context.Context, target SiteTarget) Outcome
}

// BrowserRunner executes the browser phase over an ordered batch of targets,
// producing exactly one attempt per target.
type BrowserRunner interface {
	ExtractAll(ctx context.Context, targets []SiteTarget) []Attempt
}
