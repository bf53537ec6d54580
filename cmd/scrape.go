package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JohannesMeyerYC/quant-job-scraper/internal/api"
	"github.com/JohannesMeyerYC/quant-job-scraper/internal/config"
	collyfetcher "github.com/JohannesMeyerYC/quant-job-scraper/internal/fetcher/colly"
	"github.com/JohannesMeyerYC/quant-job-scraper/internal/headers"
	"github.com/JohannesMeyerYC/quant-job-scraper/internal/logging"
	"github.com/JohannesMeyerYC/quant-job-scraper/internal/metrics"
	"github.com/JohannesMeyerYC/quant-job-scraper/internal/ratelimit"
	"github.com/JohannesMeyerYC/quant-job-scraper/internal/scraper"
	"github.com/JohannesMeyerYC/quant-job-scraper/internal/sink"
)

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Runs one scrape over the configured firm roster",
		Long: `Reads the firm roster, runs the static strategies concurrently,
escalates failed generic sites to the headless browser, and exports the
validated record set.`,
		RunE: runScrapeCommand,
	}
	cmd.Flags().String("firms", "", "firm roster CSV (overrides firms_file)")
	cmd.Flags().String("out", "", "CSV output path (overrides output.csv)")
	cmd.Flags().Bool("no-browser", false, "skip the browser phase entirely")
	return cmd
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	logger, err := logging.New(viper.GetBool("logging.development"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	cfg, err := scraper.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load scraper config: %w", err)
	}

	targets, browserSchemas, err := loadTargets(cmd, logger)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		logger.Warn("no targets to scrape")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if addr := viper.GetString("ops.addr"); addr != "" {
		ops := api.New(addr, logger)
		ops.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ops.Shutdown(shutdownCtx)
		}()
	}

	orchestrator, closeBrowser, err := buildEngine(cmd, cfg, browserSchemas, logger)
	if err != nil {
		return err
	}
	defer closeBrowser()

	result, err := orchestrator.Run(ctx, targets)
	if err != nil {
		return fmt.Errorf("run scrape: %w", err)
	}

	// Records gathered before an interrupt are still worth keeping.
	return exportRecords(context.WithoutCancel(ctx), cmd, result, logger)
}

func loadTargets(cmd *cobra.Command, logger *zap.Logger) ([]scraper.SiteTarget, map[string]scraper.SelectorSchema, error) {
	firmsPath := viper.GetString("firms_file")
	if flag, _ := cmd.Flags().GetString("firms"); flag != "" {
		firmsPath = flag
	}
	rows, err := config.LoadFirms(firmsPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("load firm roster: %w", err)
	}

	structuredSchemas, browserSchemas, err := config.LoadSchemas(viper.GetViper())
	if err != nil {
		return nil, nil, fmt.Errorf("load selector schemas: %w", err)
	}

	targets := config.BuildTargets(rows, structuredSchemas, browserSchemas, logger)
	return targets, browserSchemas, nil
}

func buildEngine(
	cmd *cobra.Command,
	cfg scraper.Config,
	browserSchemas map[string]scraper.SelectorSchema,
	logger *zap.Logger,
) (*scraper.Orchestrator, func(), error) {
	limiter := ratelimit.New(ratelimit.Config{DefaultRPS: cfg.DomainRPS})
	fetcher := collyfetcher.New(collyfetcher.Config{Timeout: cfg.RequestTimeout}, limiter)
	rotator := headers.NewRotator()

	structured := scraper.NewStructuredExtractor(fetcher, rotator, logger)
	generic := scraper.NewGenericExtractor(fetcher, rotator, logger)

	var (
		browser      scraper.BrowserRunner
		closeBrowser = func() {}
	)
	if noBrowser, _ := cmd.Flags().GetBool("no-browser"); !noBrowser {
		delay := scraper.NewRandomDelay(cfg.DelayMin, cfg.DelayMax)
		chrome, err := scraper.NewChromeExtractor(cfg.Browser, delay, logger)
		if err != nil {
			// A missing Chrome binary degrades the run; static phases still work.
			logger.Warn("browser unavailable; browser targets will fail", zap.Error(err))
		} else {
			browser = chrome
			closeBrowser = chrome.Close
		}
	}

	return scraper.NewOrchestrator(structured, generic, browser, browserSchemas, logger), closeBrowser, nil
}

func exportRecords(ctx context.Context, cmd *cobra.Command, result scraper.Result, logger *zap.Logger) error {
	var sinks sink.Multi
	csvPath := viper.GetString("output.csv")
	if flag, _ := cmd.Flags().GetString("out"); flag != "" {
		csvPath = flag
	}
	if csvPath != "" {
		sinks = append(sinks, sink.NewCSVSink(csvPath, logger))
	}
	if jsonPath := viper.GetString("output.json"); jsonPath != "" {
		sinks = append(sinks, sink.NewJSONSink(jsonPath, logger))
	}
	if len(sinks) == 0 {
		logger.Warn("no output sinks configured; records discarded",
			zap.Int("records", len(result.Records)),
		)
		return nil
	}
	if err := sinks.Write(ctx, result.Records); err != nil {
		return fmt.Errorf("export records: %w", err)
	}
	return nil
}
