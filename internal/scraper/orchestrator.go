package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JohannesMeyerYC/quant-job-scraper/internal/logging"
	"github.com/JohannesMeyerYC/quant-job-scraper/internal/metrics"
)

// Orchestrator routes each site to an extraction strategy, runs the static
// strategies concurrently, escalates failed generic sites to the browser
// strategy, and merges everything through the record validator.
//
// The browser schema table is read-only and injected at construction.
type Orchestrator struct {
	structured     StaticExtractor
	generic        StaticExtractor
	browser        BrowserRunner
	browserSchemas map[string]SelectorSchema
	logger         *zap.Logger
}

// NewOrchestrator wires the three strategies together. browser may be nil
// when no rendering engine is available; browser-phase targets then degrade
// to phase errors.
func NewOrchestrator(
	structured StaticExtractor,
	generic StaticExtractor,
	browser BrowserRunner,
	browserSchemas map[string]SelectorSchema,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		structured:     structured,
		generic:        generic,
		browser:        browser,
		browserSchemas: browserSchemas,
		logger:         logger,
	}
}

// Result summarizes one complete run.
type Result struct {
	RunID          string
	Records        []JobRecord
	DroppedRecords int
	EmptySites     int
	Duration       time.Duration
}

// Run executes a full scrape over targets. No single target's failure aborts
// the run; failures degrade to Empty or Error outcomes for that target, and
// every routed target is attempted at most twice (its assigned phase plus at
// most one escalation).
func (o *Orchestrator) Run(ctx context.Context, targets []SiteTarget) (Result, error) {
	runID := uuid.NewString()
	logger := logging.WithRun(o.logger, runID)
	start := time.Now()

	structuredTargets, genericTargets, browserTargets := o.partition(logger, targets)
	logger.Info("targets routed",
		zap.Int("structured", len(structuredTargets)),
		zap.Int("generic", len(genericTargets)),
		zap.Int("browser", len(browserTargets)),
	)

	staticAttempts := o.runStaticPhase(ctx, structuredTargets, genericTargets)

	escalated := Escalate(staticAttempts, o.browserSchemas)
	metrics.AddEscalations(len(escalated))
	for _, t := range escalated {
		logger.Info("escalating to browser strategy", zap.String("firm", t.Firm))
	}

	browserBatch := dedupeByFirm(append(append([]SiteTarget{}, browserTargets...), escalated...))
	browserAttempts := o.runBrowserPhase(ctx, logger, browserBatch)

	allAttempts := append(staticAttempts, browserAttempts...)
	merged := make([]JobRecord, 0)
	perFirm := make(map[string]int)
	for _, attempt := range allAttempts {
		metrics.ObserveAttempt(string(attempt.Target.Strategy), string(attempt.Outcome.Kind))
		if _, tracked := perFirm[attempt.Target.Firm]; !tracked {
			perFirm[attempt.Target.Firm] = 0
		}
		if attempt.Outcome.Kind != OutcomeSuccess {
			if attempt.Outcome.Err != nil {
				logger.Warn("extraction attempt failed",
					zap.String("firm", attempt.Target.Firm),
					zap.String("strategy", string(attempt.Target.Strategy)),
					zap.Error(attempt.Outcome.Err),
				)
			}
			continue
		}
		merged = append(merged, attempt.Outcome.Records...)
		perFirm[attempt.Target.Firm] += len(attempt.Outcome.Records)
	}

	records, dropped := ValidateRecords(merged)
	metrics.AddRecords(len(records))
	metrics.AddDroppedRecords(dropped)

	emptySites := 0
	for _, count := range perFirm {
		if count == 0 {
			emptySites++
		}
	}

	result := Result{
		RunID:          runID,
		Records:        records,
		DroppedRecords: dropped,
		EmptySites:     emptySites,
		Duration:       time.Since(start),
	}
	logger.Info("run finished",
		zap.Int("records", len(result.Records)),
		zap.Int("dropped_records", result.DroppedRecords),
		zap.Int("empty_sites", result.EmptySites),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// partition splits targets by strategy, dropping malformed entries with a
// warning. Dropping is non-fatal: a bad roster row never aborts the run.
func (o *Orchestrator) partition(logger *zap.Logger, targets []SiteTarget) (structured, generic, browser []SiteTarget) {
	for _, t := range targets {
		switch t.Strategy {
		case StrategyStructured:
			if t.Schema == nil {
				o.dropTarget(logger, t, "structured target missing selector schema")
				continue
			}
			structured = append(structured, t)
		case StrategyGeneric:
			generic = append(generic, t)
		case StrategyBrowser:
			if t.Schema == nil {
				if schema, ok := o.browserSchemas[FirmKey(t.Firm)]; ok {
					t.Schema = &schema
				} else {
					o.dropTarget(logger, t, "browser target missing selector schema")
					continue
				}
			}
			browser = append(browser, t)
		default:
			o.dropTarget(logger, t, fmt.Sprintf("unknown strategy %q", t.Strategy))
		}
	}
	return structured, generic, browser
}

func (o *Orchestrator) dropTarget(logger *zap.Logger, t SiteTarget, reason string) {
	metrics.AddConfigDrops(1)
	logger.Warn("dropping target",
		zap.String("firm", t.Firm),
		zap.String("url", t.URL),
		zap.String("reason", reason),
	)
}

type staticUnit struct {
	target    SiteTarget
	extractor StaticExtractor
}

// runStaticPhase launches every structured and generic target as an
// independent concurrent unit and blocks until each has produced an outcome.
// One unit's failure never cancels or blocks its siblings, and the phase
// always yields exactly one attempt per target.
func (o *Orchestrator) runStaticPhase(ctx context.Context, structured, generic []SiteTarget) []Attempt {
	start := time.Now()
	units := make([]staticUnit, 0, len(structured)+len(generic))
	for _, t := range structured {
		units = append(units, staticUnit{target: t, extractor: o.structured})
	}
	for _, t := range generic {
		units = append(units, staticUnit{target: t, extractor: o.generic})
	}

	attempts := make([]Attempt, len(units))
	var wg sync.WaitGroup
	for i, unit := range units {
		wg.Add(1)
		go func(slot int, unit staticUnit) {
			defer wg.Done()
			attempts[slot] = Attempt{
				Target:  unit.target,
				Outcome: runUnitGuarded(ctx, unit),
			}
		}(i, unit)
	}
	wg.Wait()
	metrics.ObservePhaseDuration("static", time.Since(start))
	return attempts
}

// runUnitGuarded converts panics into Error outcomes so the attempt contract
// (n targets in, n outcomes out) holds no matter what an extractor does.
func runUnitGuarded(ctx context.Context, unit staticUnit) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = ErrorOutcome(ErrKindPhase, fmt.Errorf("static extraction panic: %v", r))
		}
	}()
	if unit.extractor == nil {
		return ErrorOutcome(ErrKindPhase, fmt.Errorf("no extractor for strategy %s", unit.target.Strategy))
	}
	return unit.extractor.Extract(ctx, unit.target)
}

// runBrowserPhase executes the browser batch. A whole-phase failure is
// captured and logged; the affected targets report phase errors while the
// rest of the run continues with whatever the other phases gathered.
func (o *Orchestrator) runBrowserPhase(ctx context.Context, logger *zap.Logger, batch []SiteTarget) (attempts []Attempt) {
	if len(batch) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { metrics.ObservePhaseDuration("browser", time.Since(start)) }()

	if o.browser == nil {
		logger.Warn("no browser runner configured; browser batch skipped", zap.Int("targets", len(batch)))
		return phaseErrorAttempts(batch, fmt.Errorf("browser runner unavailable"))
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("browser phase failed", zap.Any("panic", r))
			attempts = phaseErrorAttempts(batch, fmt.Errorf("browser phase panic: %v", r))
		}
	}()
	return o.browser.ExtractAll(ctx, batch)
}

func phaseErrorAttempts(batch []SiteTarget, err error) []Attempt {
	attempts := make([]Attempt, len(batch))
	for i, t := range batch {
		attempts[i] = Attempt{Target: t, Outcome: ErrorOutcome(ErrKindPhase, err)}
	}
	return attempts
}

// dedupeByFirm keeps the first occurrence of each firm so an initial browser
// assignment always wins over a later escalation of the same firm.
func dedupeByFirm(targets []SiteTarget) []SiteTarget {
	seen := make(map[string]struct{}, len(targets))
	out := targets[:0]
	for _, t := range targets {
		if _, duplicate := seen[t.Firm]; duplicate {
			continue
		}
		seen[t.Firm] = struct{}{}
		out = append(out, t)
	}
	return out
}
