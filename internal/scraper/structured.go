package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// StructuredSiteExtractor extracts records from statically served pages using
// a fixed per-site selector schema.
type StructuredSiteExtractor struct {
	fetcher Fetcher
	headers HeaderProvider
	logger  *zap.Logger
}

// NewStructuredExtractor builds a structured extractor.
func NewStructuredExtractor(fetcher Fetcher, headers HeaderProvider, logger *zap.Logger) *StructuredSiteExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StructuredSiteExtractor{fetcher: fetcher, headers: headers, logger: logger}
}

// Extract fetches the target's entry page and applies its selector schema.
// A fetch failure yields Error(network); a page with no matching cards
// yields Empty. Cards missing a resolvable title or link are skipped.
func (e *StructuredSiteExtractor) Extract(ctx context.Context, target SiteTarget) Outcome {
	doc, baseURL, outcome, ok := fetchDocument(ctx, e.fetcher, e.headers, target)
	if !ok {
		return outcome
	}

	schema := target.Schema
	cards := doc.Find(schema.Card)
	if cards.Length() == 0 {
		e.logger.Debug("no cards matched",
			zap.String("firm", target.Firm),
			zap.String("selector", schema.Card),
		)
		return EmptyOutcome()
	}

	var records []JobRecord
	cards.Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(schema.Title).First().Text())
		href, found := selectionHref(card)
		if title == "" || !found {
			return
		}
		link, resolved := ResolveLink(baseURL, href)
		if !resolved {
			return
		}
		location := LocationUnknown
		if schema.Location != "" {
			if text := strings.TrimSpace(card.Find(schema.Location).First().Text()); text != "" {
				location = text
			}
		}
		records = append(records, JobRecord{
			Firm:     target.Firm,
			Title:    collapseWhitespace(title),
			Location: location,
			Link:     link,
		})
	})
	return SuccessOutcome(records)
}

// fetchDocument runs the static fetch shared by both static-phase extractors
// and parses the body. ok is false when the returned outcome is final.
func fetchDocument(
	ctx context.Context,
	fetcher Fetcher,
	headers HeaderProvider,
	target SiteTarget,
) (*goquery.Document, string, Outcome, bool) {
	request := FetchRequest{URL: target.URL}
	if headers != nil {
		request.Headers = headers.Headers()
	}
	resp, err := fetcher.Fetch(ctx, request)
	if err != nil {
		return nil, "", ErrorOutcome(ErrKindNetwork, fmt.Errorf("fetch %s: %w", target.URL, err)), false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("fetch %s: unexpected status %d", target.URL, resp.StatusCode)
		return nil, "", ErrorOutcome(ErrKindNetwork, err), false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		// Unparseable markup is indistinguishable from a page with nothing on it.
		return nil, "", EmptyOutcome(), false
	}
	base := resp.URL
	if base == "" {
		base = target.URL
	}
	return doc, base, Outcome{}, true
}

// selectionHref returns the element's own href when the element is an anchor,
// otherwise the first descendant anchor's href.
func selectionHref(sel *goquery.Selection) (string, bool) {
	if goquery.NodeName(sel) == "a" {
		if href, ok := sel.Attr("href"); ok && strings.TrimSpace(href) != "" {
			return href, true
		}
		return "", false
	}
	href, ok := sel.Find("a[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	return href, true
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
