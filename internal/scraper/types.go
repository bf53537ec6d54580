// Package scraper defines core types shared across subsystems and implements
// the scrape orchestration engine.
package scraper

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Strategy identifies the extraction approach assigned to a site.
type Strategy string

// Supported extraction strategies.
const (
	StrategyStructured Strategy = "structured"
	StrategyGeneric    Strategy = "generic"
	StrategyBrowser    Strategy = "browser"
)

// ParseStrategy maps a raw platform type from the firm roster onto a
// Strategy. Legacy vocabulary from earlier rosters is accepted alongside the
// canonical names.
func ParseStrategy(raw string) (Strategy, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.TrimSuffix(normalized, "_standard")
	normalized = strings.TrimSuffix(normalized, "_custom")
	switch normalized {
	case "structured", "greenhouse":
		return StrategyStructured, nil
	case "generic", "custom_site", "custom":
		return StrategyGeneric, nil
	case "browser", "playwright":
		return StrategyBrowser, nil
	default:
		return "", fmt.Errorf("unknown platform type %q", raw)
	}
}

// FirmKey canonicalizes a firm name for table lookups. Selector schema
// tables are keyed by FirmKey so config-file key folding cannot break the
// match against roster firm names.
func FirmKey(firm string) string {
	return strings.ToLower(strings.TrimSpace(firm))
}

// TitleFromCardText is the marker value for SelectorSchema.Title meaning
// "use the card element's own text" rather than a descendant lookup.
const TitleFromCardText = "text"

// SelectorSchema describes how to locate job postings on a single site.
// Location is optional; an empty value means the site exposes no location.
type SelectorSchema struct {
	Card     string `mapstructure:"card"`
	Title    string `mapstructure:"title"`
	Location string `mapstructure:"location"`
}

// SiteTarget is one employer's career-page entry plus its assigned strategy.
// Targets are immutable once loaded; Schema is required for structured and
// browser strategies and nil for generic.
type SiteTarget struct {
	Firm     string
	URL      string
	Strategy Strategy
	Schema   *SelectorSchema
}

// JobRecord is a single extracted job posting.
type JobRecord struct {
	Firm     string `json:"firm"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Link     string `json:"link"`
}

// Key returns the canonical uniqueness key for deduplication.
func (r JobRecord) Key() string {
	return strings.ToLower(r.Firm) + "|" + strings.ToLower(r.Title) + "|" + strings.ToLower(r.Location)
}

// OutcomeKind tags the result of one extraction attempt.
type OutcomeKind string

// Outcome tags.
const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeEmpty   OutcomeKind = "empty"
	OutcomeError   OutcomeKind = "error"
)

// ErrorKind classifies failed attempts.
type ErrorKind string

// Error classes produced by extractors and the orchestrator.
const (
	ErrKindNetwork ErrorKind = "network"
	ErrKindPhase   ErrorKind = "phase"
)

// Outcome is the per-target result of one extraction phase. It is a closed
// sum: exactly one of Success(records), Empty, or Error(kind). Errors are
// carried as values, never thrown across a task boundary.
type Outcome struct {
	Kind    OutcomeKind
	Records []JobRecord
	ErrKind ErrorKind
	Err     error
}

// SuccessOutcome wraps extracted records. An empty slice degrades to Empty so
// callers can branch on the tag alone.
func SuccessOutcome(records []JobRecord) Outcome {
	if len(records) == 0 {
		return EmptyOutcome()
	}
	return Outcome{Kind: OutcomeSuccess, Records: records}
}

// EmptyOutcome reports that the strategy ran but found nothing extractable.
func EmptyOutcome() Outcome {
	return Outcome{Kind: OutcomeEmpty}
}

// ErrorOutcome reports a whole-target failure of the given class.
func ErrorOutcome(kind ErrorKind, err error) Outcome {
	return Outcome{Kind: OutcomeError, ErrKind: kind, Err: err}
}

// Failed reports whether the outcome is Empty or Error, the two escalation
// triggers.
func (o Outcome) Failed() bool {
	return o.Kind == OutcomeEmpty || o.Kind == OutcomeError
}

// Attempt pairs a target with the outcome of one phase.
type Attempt struct {
	Target  SiteTarget
	Outcome Outcome
}

// FetchRequest captures everything needed to fetch a document.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation. URL is
// the final URL after redirects and is the base for link resolution.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// ResolveLink resolves href against base and returns the absolute URL, or
// false when the href cannot be resolved to an http(s) URL.
func ResolveLink(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	resolved := baseURL.ResolveReference(ref)
	if !ValidScheme(resolved.Scheme) {
		return "", false
	}
	return resolved.String(), true
}

// ValidScheme reports whether scheme is acceptable for an output link.
func ValidScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}
