package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JohannesMeyerYC/quant-job-scraper/internal/logging"
)

// BrowserConfig controls the chromedp-backed extractor.
type BrowserConfig struct {
	UserAgent         string
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	CardTimeout       time.Duration
	Concurrency       int
	WindowWidth       int
	WindowHeight      int
}

func (c *BrowserConfig) applyDefaults() {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 20 * time.Second
	}
	if c.SelectorTimeout <= 0 {
		c.SelectorTimeout = 15 * time.Second
	}
	if c.CardTimeout <= 0 {
		c.CardTimeout = 5 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = 1920
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = 1080
	}
}

// ChromeExtractor drives a single shared headless Chrome process. Each site
// runs in its own incognito browser context so cookies and storage never
// leak between sites.
type ChromeExtractor struct {
	cfg           BrowserConfig
	logger        *zap.Logger
	delay         DelayPolicy
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromeExtractor launches the shared browser process. Image loading is
// disabled and the viewport fixed for deterministic layout.
func NewChromeExtractor(cfg BrowserConfig, delay DelayPolicy, logger *zap.Logger) (*ChromeExtractor, error) {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay == nil {
		delay = ZeroDelay{}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &ChromeExtractor{
		cfg:           cfg,
		logger:        logger,
		delay:         delay,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close tears down the browser and allocator. Safe on a nil receiver.
func (e *ChromeExtractor) Close() {
	if e == nil {
		return
	}
	e.browserCancel()
	e.allocCancel()
}

// ExtractAll runs the browser phase over targets and returns exactly one
// attempt per target, in input order. Sites are processed sequentially by
// default; raising Concurrency opens independent contexts in parallel
// against the same process. A politeness delay separates sequential sites.
func (e *ChromeExtractor) ExtractAll(ctx context.Context, targets []SiteTarget) []Attempt {
	attempts := make([]Attempt, len(targets))

	if e.cfg.Concurrency <= 1 {
		for i, t := range targets {
			if i > 0 {
				e.delay.Wait(ctx)
			}
			attempts[i] = Attempt{Target: t, Outcome: e.extractGuarded(ctx, t)}
		}
		return attempts
	}

	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(slot int, t SiteTarget) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			attempts[slot] = Attempt{Target: t, Outcome: e.extractGuarded(ctx, t)}
		}(i, t)
	}
	wg.Wait()
	return attempts
}

// extractGuarded converts panics and cancellation into Error outcomes so one
// site can never take the phase down.
func (e *ChromeExtractor) extractGuarded(ctx context.Context, t SiteTarget) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("browser extraction panicked",
				zap.String("firm", t.Firm),
				zap.Any("panic", r),
			)
			outcome = ErrorOutcome(ErrKindPhase, fmt.Errorf("browser extraction panic: %v", r))
		}
	}()
	if err := ctx.Err(); err != nil {
		return ErrorOutcome(ErrKindPhase, err)
	}
	return e.extractSite(ctx, t)
}

func (e *ChromeExtractor) extractSite(ctx context.Context, t SiteTarget) Outcome {
	if t.Schema == nil {
		return ErrorOutcome(ErrKindPhase, fmt.Errorf("target %s has no browser schema", t.Firm))
	}
	logger := logging.WithFirm(e.logger, t.Firm)

	tabCtx, cleanup, err := e.newIsolatedContext(ctx)
	if err != nil {
		return ErrorOutcome(ErrKindPhase, err)
	}
	// Context disposal runs on every exit path, including cancellation.
	defer cleanup()

	navCtx, cancelNav := context.WithTimeout(tabCtx, e.cfg.NavigationTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(t.URL)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("navigation timed out", zap.String("url", t.URL))
			return EmptyOutcome()
		}
		return ErrorOutcome(ErrKindNetwork, fmt.Errorf("navigate %s: %w", t.URL, err))
	}

	// Render-completion heuristic: give late scripts a moment before probing.
	e.delay.WaitMicro(tabCtx)

	waitCtx, cancelWait := context.WithTimeout(tabCtx, e.cfg.SelectorTimeout)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(t.Schema.Card, chromedp.ByQuery)); err != nil {
		logger.Warn("card selector never became visible", zap.String("selector", t.Schema.Card))
		return EmptyOutcome()
	}

	var (
		finalURL string
		nodes    []*cdp.Node
	)
	enumCtx, cancelEnum := context.WithTimeout(tabCtx, e.cfg.SelectorTimeout)
	defer cancelEnum()
	err = chromedp.Run(enumCtx,
		chromedp.Location(&finalURL),
		chromedp.Nodes(t.Schema.Card, &nodes, chromedp.ByQueryAll),
	)
	if err != nil {
		return ErrorOutcome(ErrKindNetwork, fmt.Errorf("enumerate cards for %s: %w", t.Firm, err))
	}
	if finalURL == "" {
		finalURL = t.URL
	}

	var records []JobRecord
	for i, node := range nodes {
		if i > 0 {
			e.delay.WaitMicro(tabCtx)
		}
		record, ok := e.extractCard(tabCtx, t, finalURL, node)
		if !ok {
			continue
		}
		records = append(records, record)
	}

	logger.Info("browser extraction finished",
		zap.Int("cards", len(nodes)),
		zap.Int("records", len(records)),
	)
	return SuccessOutcome(records)
}

// extractCard reads one card node. Any per-card failure skips only that card.
func (e *ChromeExtractor) extractCard(tabCtx context.Context, t SiteTarget, baseURL string, node *cdp.Node) (JobRecord, bool) {
	cardCtx, cancel := context.WithTimeout(tabCtx, e.cfg.CardTimeout)
	defer cancel()

	title, err := e.cardTitle(cardCtx, t.Schema, node)
	if err != nil || title == "" {
		return JobRecord{}, false
	}

	href, ok := e.cardHref(cardCtx, node)
	if !ok {
		return JobRecord{}, false
	}
	link, resolved := ResolveLink(baseURL, href)
	if !resolved {
		return JobRecord{}, false
	}

	if !AcceptableTitle(title) {
		return JobRecord{}, false
	}

	return JobRecord{
		Firm:     t.Firm,
		Title:    title,
		Location: e.cardLocation(cardCtx, t.Schema, node),
		Link:     link,
	}, true
}

func (e *ChromeExtractor) cardTitle(ctx context.Context, schema *SelectorSchema, node *cdp.Node) (string, error) {
	var title string
	if schema.Title == TitleFromCardText {
		err := chromedp.Run(ctx, chromedp.Text(node.FullXPath(), &title, chromedp.BySearch))
		if err != nil {
			return "", err
		}
	} else {
		err := chromedp.Run(ctx,
			chromedp.Text(schema.Title, &title, chromedp.ByQuery, chromedp.FromNode(node), chromedp.AtLeast(0)),
		)
		if err != nil {
			return "", err
		}
	}
	return collapseWhitespace(title), nil
}

// cardHref resolves the card's own href when the card is an anchor, falling
// back to the first descendant anchor.
func (e *ChromeExtractor) cardHref(ctx context.Context, node *cdp.Node) (string, bool) {
	if strings.EqualFold(node.NodeName, "a") {
		if href := node.AttributeValue("href"); strings.TrimSpace(href) != "" {
			return href, true
		}
	}
	var (
		href string
		ok   bool
	)
	err := chromedp.Run(ctx,
		chromedp.AttributeValue("a", "href", &href, &ok, chromedp.ByQuery, chromedp.FromNode(node), chromedp.AtLeast(0)),
	)
	if err != nil || !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	return href, true
}

func (e *ChromeExtractor) cardLocation(ctx context.Context, schema *SelectorSchema, node *cdp.Node) string {
	if schema.Location == "" {
		return LocationUnknown
	}
	var location string
	err := chromedp.Run(ctx,
		chromedp.Text(schema.Location, &location, chromedp.ByQuery, chromedp.FromNode(node), chromedp.AtLeast(0)),
	)
	location = strings.TrimSpace(location)
	if err != nil || location == "" {
		return LocationUnknown
	}
	return location
}

// newIsolatedContext opens a fresh incognito browser context on the shared
// process plus one tab inside it. The returned cleanup closes the tab and
// disposes the context; it uses its own timeout so disposal still happens
// when the run's context is already canceled.
func (e *ChromeExtractor) newIsolatedContext(ctx context.Context) (context.Context, func(), error) {
	c := chromedp.FromContext(e.browserCtx)
	if c == nil || c.Browser == nil {
		return nil, nil, errors.New("shared browser not initialized")
	}
	exec := cdp.WithExecutor(ctx, c.Browser)

	bctxID, err := target.CreateBrowserContext().WithDisposeOnDetach(true).Do(exec)
	if err != nil {
		return nil, nil, fmt.Errorf("create browser context: %w", err)
	}
	tid, err := target.CreateTarget("about:blank").WithBrowserContextID(bctxID).Do(exec)
	if err != nil {
		e.disposeContext(bctxID)
		return nil, nil, fmt.Errorf("create target: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(e.browserCtx, chromedp.WithTargetID(tid))
	cleanup := func() {
		tabCancel()
		e.disposeContext(bctxID)
	}
	return tabCtx, cleanup, nil
}

func (e *ChromeExtractor) disposeContext(id cdp.BrowserContextID) {
	c := chromedp.FromContext(e.browserCtx)
	if c == nil || c.Browser == nil {
		return
	}
	disposeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := target.DisposeBrowserContext(id).Do(cdp.WithExecutor(disposeCtx, c.Browser)); err != nil {
		e.logger.Debug("dispose browser context", zap.Error(err))
	}
}
