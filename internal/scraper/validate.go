package scraper

import (
	"net/url"
	"strings"
)

// LocationUnknown is the placeholder stored when a site exposes no location.
const LocationUnknown = "N/A"

// ValidateRecords normalizes and deduplicates the merged record list. Fields
// are trimmed, records with an empty firm, title, or link are dropped, links
// must be absolute http(s) URLs, and duplicate uniqueness keys keep only the
// first-seen record. The second return value is the number of dropped
// records. The function is pure and idempotent.
func ValidateRecords(records []JobRecord) ([]JobRecord, int) {
	valid := make([]JobRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	dropped := 0

	for _, record := range records {
		record.Firm = strings.TrimSpace(record.Firm)
		record.Title = strings.TrimSpace(record.Title)
		record.Location = strings.TrimSpace(record.Location)
		record.Link = strings.TrimSpace(record.Link)

		if record.Firm == "" || record.Title == "" || record.Link == "" {
			dropped++
			continue
		}
		if !linkAcceptable(record.Link) {
			dropped++
			continue
		}
		if record.Location == "" {
			record.Location = LocationUnknown
		}

		key := record.Key()
		if _, duplicate := seen[key]; duplicate {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, record)
	}
	return valid, dropped
}

func linkAcceptable(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	return ValidScheme(parsed.Scheme) && parsed.Host != ""
}
