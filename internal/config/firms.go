package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/JohannesMeyerYC/quant-job-scraper/internal/scraper"
)

// FirmRow is one roster entry as read from the firms CSV.
type FirmRow struct {
	Firm         string
	URL          string
	PlatformType string
}

var rosterColumns = []string{"firm_name", "url", "platform_type"}

// LoadFirms reads the firm roster CSV. Expected header:
// firm_name,url,platform_type. Rows with missing values are skipped with a
// warning; a malformed header is fatal.
func LoadFirms(path string, logger *zap.Logger) ([]FirmRow, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open firm roster %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []FirmRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("skipping unreadable roster row", zap.Error(err))
			continue
		}
		row := FirmRow{
			Firm:         strings.TrimSpace(record[index["firm_name"]]),
			URL:          strings.TrimSpace(record[index["url"]]),
			PlatformType: strings.TrimSpace(record[index["platform_type"]]),
		}
		if row.Firm == "" || row.URL == "" || row.PlatformType == "" {
			logger.Warn("skipping roster row with missing fields", zap.Strings("row", record))
			continue
		}
		rows = append(rows, row)
	}
	logger.Info("firm roster loaded", zap.String("path", path), zap.Int("firms", len(rows)))
	return rows, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range rosterColumns {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("roster missing required column %q", required)
		}
	}
	return index, nil
}

// BuildTargets converts roster rows into site targets, attaching selector
// schemas from the given tables. Rows with unrecognized platform types are
// dropped with a warning, never fatally.
func BuildTargets(
	rows []FirmRow,
	structuredSchemas map[string]scraper.SelectorSchema,
	browserSchemas map[string]scraper.SelectorSchema,
	logger *zap.Logger,
) []scraper.SiteTarget {
	if logger == nil {
		logger = zap.NewNop()
	}
	targets := make([]scraper.SiteTarget, 0, len(rows))
	for _, row := range rows {
		strategy, err := scraper.ParseStrategy(row.PlatformType)
		if err != nil {
			logger.Warn("dropping firm with unknown platform type",
				zap.String("firm", row.Firm),
				zap.String("platform_type", row.PlatformType),
			)
			continue
		}
		target := scraper.SiteTarget{Firm: row.Firm, URL: row.URL, Strategy: strategy}
		switch strategy {
		case scraper.StrategyStructured:
			if schema, ok := structuredSchemas[scraper.FirmKey(row.Firm)]; ok {
				target.Schema = &schema
			}
		case scraper.StrategyBrowser:
			if schema, ok := browserSchemas[scraper.FirmKey(row.Firm)]; ok {
				target.Schema = &schema
			}
		}
		targets = append(targets, target)
	}
	return targets
}
