package scraper

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// candidateSelectors is the union of heuristic patterns that tend to wrap job
// postings on unconfigured career pages.
var candidateSelectors = strings.Join([]string{
	`a[href*="job"]`,
	`a[href*="careers"]`,
	`a[href*="role"]`,
	`a[class*="job"]`,
	`div[class*="job"]`,
	`div.job-listing`,
	`li.job-item`,
	`div.role-item`,
}, ", ")

// exclusionPhrases disqualify navigation and teaser links that match the
// candidate patterns but are not postings.
var exclusionPhrases = []string{"open role", "career", "alert", "view all"}

// Title length bounds for heuristic candidates, exclusive on both ends.
const (
	minTitleLen = 5
	maxTitleLen = 100
)

// GenericSiteExtractor extracts records from statically served pages with no
// per-site configuration, using heuristic selector patterns.
type GenericSiteExtractor struct {
	fetcher Fetcher
	headers HeaderProvider
	logger  *zap.Logger
}

// NewGenericExtractor builds a generic extractor.
func NewGenericExtractor(fetcher Fetcher, headers HeaderProvider, logger *zap.Logger) *GenericSiteExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenericSiteExtractor{fetcher: fetcher, headers: headers, logger: logger}
}

// Extract fetches the target's entry page and harvests heuristic candidates.
// Zero accepted candidates yields Empty, never Error, so the escalation
// policy can distinguish "nothing extractable" from "fetch failed" by the
// outcome tag.
func (e *GenericSiteExtractor) Extract(ctx context.Context, target SiteTarget) Outcome {
	doc, baseURL, outcome, ok := fetchDocument(ctx, e.fetcher, e.headers, target)
	if !ok {
		return outcome
	}

	var records []JobRecord
	seen := make(map[string]struct{})
	doc.Find(candidateSelectors).Each(func(_ int, candidate *goquery.Selection) {
		record, accepted := e.evaluate(target.Firm, baseURL, candidate)
		if !accepted {
			return
		}
		pageKey := record.Title + "|" + record.Link
		if _, duplicate := seen[pageKey]; duplicate {
			return
		}
		seen[pageKey] = struct{}{}
		records = append(records, record)
	})

	if len(records) == 0 {
		e.logger.Debug("generic heuristics found nothing", zap.String("firm", target.Firm))
		return EmptyOutcome()
	}
	return SuccessOutcome(records)
}

func (e *GenericSiteExtractor) evaluate(firm, baseURL string, candidate *goquery.Selection) (JobRecord, bool) {
	href, found := selectionHref(candidate)
	if !found {
		return JobRecord{}, false
	}

	title := strings.TrimSpace(candidate.Text())
	if goquery.NodeName(candidate) != "a" {
		title = firstLine(title)
	}
	title = collapseWhitespace(title)
	if !AcceptableTitle(title) {
		return JobRecord{}, false
	}

	link, resolved := ResolveLink(baseURL, href)
	if !resolved {
		return JobRecord{}, false
	}

	return JobRecord{
		Firm:     firm,
		Title:    title,
		Location: LocationUnknown,
		Link:     link,
	}, true
}

// AcceptableTitle applies the shared heuristic title filter: character count
// strictly between the bounds and no exclusion phrase, case-insensitive. The
// browser extractor applies the same filter to rendered cards.
func AcceptableTitle(title string) bool {
	length := utf8.RuneCountInString(title)
	if length <= minTitleLen || length >= maxTitleLen {
		return false
	}
	lowered := strings.ToLower(title)
	for _, phrase := range exclusionPhrases {
		if strings.Contains(lowered, phrase) {
			return false
		}
	}
	return true
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
