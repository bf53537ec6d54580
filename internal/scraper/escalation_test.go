package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func browserTable(firms ...string) map[string]SelectorSchema {
	table := make(map[string]SelectorSchema, len(firms))
	for _, firm := range firms {
		table[FirmKey(firm)] = SelectorSchema{Card: "div.card", Title: "h3"}
	}
	return table
}

func TestEscalateEmptyGenericWithSchema(t *testing.T) {
	t.Parallel()

	attempts := []Attempt{
		{
			Target:  SiteTarget{Firm: "Two Sigma", URL: "https://ts.example", Strategy: StrategyGeneric},
			Outcome: EmptyOutcome(),
		},
	}
	escalated := Escalate(attempts, browserTable("Two Sigma"))
	require.Len(t, escalated, 1)
	require.Equal(t, "Two Sigma", escalated[0].Firm)
	require.Equal(t, StrategyBrowser, escalated[0].Strategy)
	require.NotNil(t, escalated[0].Schema)
}

func TestEscalateErrorOutcomeAlsoTriggers(t *testing.T) {
	t.Parallel()

	attempts := []Attempt{
		{
			Target:  SiteTarget{Firm: "Citadel", Strategy: StrategyGeneric},
			Outcome: ErrorOutcome(ErrKindNetwork, errors.New("connection refused")),
		},
	}
	escalated := Escalate(attempts, browserTable("Citadel"))
	require.Len(t, escalated, 1)
}

func TestEscalateSkipsSuccessfulGeneric(t *testing.T) {
	t.Parallel()

	attempts := []Attempt{
		{
			Target:  SiteTarget{Firm: "Citadel", Strategy: StrategyGeneric},
			Outcome: SuccessOutcome([]JobRecord{{Firm: "Citadel", Title: "Quant Researcher", Link: "https://c/1"}}),
		},
	}
	require.Empty(t, Escalate(attempts, browserTable("Citadel")))
}

func TestEscalateRequiresBrowserSchema(t *testing.T) {
	t.Parallel()

	attempts := []Attempt{
		{
			Target:  SiteTarget{Firm: "No Schema Capital", Strategy: StrategyGeneric},
			Outcome: EmptyOutcome(),
		},
	}
	require.Empty(t, Escalate(attempts, browserTable("Someone Else")))
}

func TestEscalateNeverPromotesStructuredOrBrowser(t *testing.T) {
	t.Parallel()

	attempts := []Attempt{
		{
			Target:  SiteTarget{Firm: "Structured Firm", Strategy: StrategyStructured},
			Outcome: EmptyOutcome(),
		},
		{
			Target:  SiteTarget{Firm: "Browser Firm", Strategy: StrategyBrowser},
			Outcome: ErrorOutcome(ErrKindNetwork, errors.New("boom")),
		},
	}
	require.Empty(t, Escalate(attempts, browserTable("Structured Firm", "Browser Firm")))
}

func TestEscalateMatchesFirmCaseInsensitively(t *testing.T) {
	t.Parallel()

	attempts := []Attempt{
		{
			Target:  SiteTarget{Firm: "TWO SIGMA", Strategy: StrategyGeneric},
			Outcome: EmptyOutcome(),
		},
	}
	require.Len(t, Escalate(attempts, browserTable("two sigma")), 1)
}
