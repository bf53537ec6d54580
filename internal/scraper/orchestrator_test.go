package scraper

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStatic struct {
	mu       sync.Mutex
	outcomes map[string]Outcome
	calls    []string
	panics   bool
}

func (f *fakeStatic) Extract(_ context.Context, target SiteTarget) Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, target.Firm)
	f.mu.Unlock()
	if f.panics {
		panic("extractor exploded")
	}
	if outcome, ok := f.outcomes[target.Firm]; ok {
		return outcome
	}
	return EmptyOutcome()
}

type fakeBrowser struct {
	mu       sync.Mutex
	batches  [][]SiteTarget
	outcomes map[string]Outcome
}

func (f *fakeBrowser) ExtractAll(_ context.Context, targets []SiteTarget) []Attempt {
	f.mu.Lock()
	f.batches = append(f.batches, append([]SiteTarget(nil), targets...))
	f.mu.Unlock()
	attempts := make([]Attempt, len(targets))
	for i, t := range targets {
		outcome, ok := f.outcomes[t.Firm]
		if !ok {
			outcome = EmptyOutcome()
		}
		attempts[i] = Attempt{Target: t, Outcome: outcome}
	}
	return attempts
}

func record(firm, title, link string) JobRecord {
	return JobRecord{Firm: firm, Title: title, Location: "NY", Link: link}
}

func TestOrchestratorEscalatesFailedGenericOnce(t *testing.T) {
	t.Parallel()

	static := &fakeStatic{outcomes: map[string]Outcome{
		"Alpha": SuccessOutcome([]JobRecord{record("Alpha", "Engineer", "https://alpha.example/1")}),
		"Beta":  EmptyOutcome(),
	}}
	browser := &fakeBrowser{outcomes: map[string]Outcome{
		"Beta":  SuccessOutcome([]JobRecord{record("Beta", "Trader", "https://beta.example/1")}),
		"Gamma": SuccessOutcome([]JobRecord{record("Gamma", "Quant", "https://gamma.example/1")}),
	}}
	schemas := browserTable("Beta", "Gamma")

	o := NewOrchestrator(static, static, browser, schemas, nil)
	result, err := o.Run(context.Background(), []SiteTarget{
		{Firm: "Alpha", URL: "https://alpha.example", Strategy: StrategyGeneric},
		{Firm: "Beta", URL: "https://beta.example", Strategy: StrategyGeneric},
		{Firm: "Gamma", URL: "https://gamma.example", Strategy: StrategyBrowser},
	})
	require.NoError(t, err)

	require.Len(t, browser.batches, 1)
	batch := browser.batches[0]
	require.Len(t, batch, 2)
	// Initial browser assignment first, escalated generic second, each once.
	require.Equal(t, "Gamma", batch[0].Firm)
	require.Equal(t, "Beta", batch[1].Firm)
	require.Equal(t, StrategyBrowser, batch[1].Strategy)
	require.NotNil(t, batch[1].Schema)

	require.Len(t, result.Records, 3)
	require.Equal(t, 0, result.EmptySites)
}

func TestOrchestratorDropsUnknownAndSchemaless(t *testing.T) {
	t.Parallel()

	static := &fakeStatic{outcomes: map[string]Outcome{}}
	browser := &fakeBrowser{}

	o := NewOrchestrator(static, static, browser, nil, nil)
	result, err := o.Run(context.Background(), []SiteTarget{
		{Firm: "Mystery", URL: "https://m.example", Strategy: Strategy("carrier_pigeon")},
		{Firm: "NoSchema", URL: "https://n.example", Strategy: StrategyBrowser},
		{Firm: "BareStructured", URL: "https://b.example", Strategy: StrategyStructured},
	})
	require.NoError(t, err)
	require.Empty(t, result.Records)
	require.Empty(t, static.calls)
	require.Empty(t, browser.batches)
}

func TestOrchestratorDedupesBrowserBatchByFirm(t *testing.T) {
	t.Parallel()

	// Same firm appears both as an initial browser target and as an
	// escalation candidate; it must be attempted only once.
	schema := SelectorSchema{Card: "div.card", Title: "h3"}
	static := &fakeStatic{outcomes: map[string]Outcome{"Dual": EmptyOutcome()}}
	browser := &fakeBrowser{}

	o := NewOrchestrator(static, static, browser, browserTable("Dual"), nil)
	_, err := o.Run(context.Background(), []SiteTarget{
		{Firm: "Dual", URL: "https://d.example", Strategy: StrategyBrowser, Schema: &schema},
		{Firm: "Dual", URL: "https://d.example", Strategy: StrategyGeneric},
	})
	require.NoError(t, err)
	require.Len(t, browser.batches, 1)
	require.Len(t, browser.batches[0], 1)
}

func TestOrchestratorCountsEmptySites(t *testing.T) {
	t.Parallel()

	static := &fakeStatic{outcomes: map[string]Outcome{
		"Productive": SuccessOutcome([]JobRecord{record("Productive", "Engineer", "https://p.example/1")}),
		"Barren":     EmptyOutcome(),
	}}

	o := NewOrchestrator(static, static, &fakeBrowser{}, nil, nil)
	result, err := o.Run(context.Background(), []SiteTarget{
		{Firm: "Productive", URL: "https://p.example", Strategy: StrategyGeneric},
		{Firm: "Barren", URL: "https://b.example", Strategy: StrategyGeneric},
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Equal(t, 1, result.EmptySites)
}

func TestOrchestratorSurvivesPanickingExtractor(t *testing.T) {
	t.Parallel()

	static := &fakeStatic{panics: true}
	o := NewOrchestrator(static, static, &fakeBrowser{}, nil, nil)
	result, err := o.Run(context.Background(), []SiteTarget{
		{Firm: "Volatile", URL: "https://v.example", Strategy: StrategyGeneric},
	})
	require.NoError(t, err)
	require.Empty(t, result.Records)
	require.Equal(t, 1, result.EmptySites)
}

func TestOrchestratorWithoutBrowserRunnerDegrades(t *testing.T) {
	t.Parallel()

	schema := SelectorSchema{Card: "div.card", Title: "h3"}
	static := &fakeStatic{}
	o := NewOrchestrator(static, static, nil, nil, nil)
	result, err := o.Run(context.Background(), []SiteTarget{
		{Firm: "Rendered", URL: "https://r.example", Strategy: StrategyBrowser, Schema: &schema},
	})
	require.NoError(t, err)
	require.Empty(t, result.Records)
	require.Equal(t, 1, result.EmptySites)
}

func TestOrchestratorMergesAcrossPhasesThroughValidator(t *testing.T) {
	t.Parallel()

	static := &fakeStatic{outcomes: map[string]Outcome{
		"Alpha": SuccessOutcome([]JobRecord{
			record("Alpha", "Engineer", "https://alpha.example/1"),
			record("Alpha", "engineer", "https://alpha.example/other"), // duplicate key
			{Firm: "Alpha", Title: "Bad Link", Location: "NY", Link: "ftp://alpha.example"},
		}),
	}}
	browser := &fakeBrowser{outcomes: map[string]Outcome{
		"Gamma": SuccessOutcome([]JobRecord{record("Gamma", "Quant", "https://gamma.example/1")}),
	}}
	schema := SelectorSchema{Card: "div.card", Title: "h3"}

	o := NewOrchestrator(static, static, browser, nil, nil)
	result, err := o.Run(context.Background(), []SiteTarget{
		{Firm: "Alpha", URL: "https://alpha.example", Strategy: StrategyGeneric},
		{Firm: "Gamma", URL: "https://gamma.example", Strategy: StrategyBrowser, Schema: &schema},
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	require.Equal(t, 2, result.DroppedRecords)
}
