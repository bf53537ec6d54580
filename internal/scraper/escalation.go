package scraper

// Escalate derives the set of targets that must be retried with the browser
// strategy. A target escalates iff its assigned strategy was generic, its
// static outcome was Empty or Error, and a browser schema exists for its
// firm. Structured targets have no fallback path, and browser-assigned
// targets are part of the initial browser batch rather than escalations.
//
// The returned targets carry the browser strategy and schema; input order is
// preserved. Pure function of its inputs.
func Escalate(attempts []Attempt, browserSchemas map[string]SelectorSchema) []SiteTarget {
	var escalated []SiteTarget
	for _, attempt := range attempts {
		if attempt.Target.Strategy != StrategyGeneric {
			continue
		}
		if !attempt.Outcome.Failed() {
			continue
		}
		schema, ok := browserSchemas[FirmKey(attempt.Target.Firm)]
		if !ok {
			continue
		}
		escalated = append(escalated, SiteTarget{
			Firm:     attempt.Target.Firm,
			URL:      attempt.Target.URL,
			Strategy: StrategyBrowser,
			Schema:   &schema,
		})
	}
	return escalated
}
