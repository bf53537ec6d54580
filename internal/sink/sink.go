// Package sink writes validated job records to local files. It owns all
// formatting concerns; its only contract with the engine is accepting the
// record shape.
package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/JohannesMeyerYC/quant-job-scraper/internal/scraper"
)

// RecordSink accepts one run's validated records.
type RecordSink interface {
	Write(ctx context.Context, records []scraper.JobRecord) error
}

// sorted returns a copy ordered by (firm, title, location) so exports are
// stable across runs even though the merge order is not.
func sorted(records []scraper.JobRecord) []scraper.JobRecord {
	out := append([]scraper.JobRecord(nil), records...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Firm != out[j].Firm {
			return out[i].Firm < out[j].Firm
		}
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].Location < out[j].Location
	})
	return out
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create sink dir %s: %w", dir, err)
	}
	return nil
}

// CSVSink writes records as a CSV table.
type CSVSink struct {
	path   string
	logger *zap.Logger
}

// NewCSVSink returns a sink writing to path.
func NewCSVSink(path string, logger *zap.Logger) *CSVSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVSink{path: path, logger: logger}
}

// Write replaces the file at the sink's path with the full record set.
func (s *CSVSink) Write(ctx context.Context, records []scraper.JobRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	if err := ensureDir(s.path); err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"firm", "title", "location", "link"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range sorted(records) {
		if err := w.Write([]string{r.Firm, r.Title, r.Location, r.Link}); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	s.logger.Info("records exported", zap.String("path", s.path), zap.Int("records", len(records)))
	return nil
}

// JSONSink writes records as a pretty-printed JSON array.
type JSONSink struct {
	path   string
	logger *zap.Logger
}

// NewJSONSink returns a sink writing to path.
func NewJSONSink(path string, logger *zap.Logger) *JSONSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONSink{path: path, logger: logger}
}

// Write replaces the file at the sink's path with the full record set.
func (s *JSONSink) Write(ctx context.Context, records []scraper.JobRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	if err := ensureDir(s.path); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(sorted(records), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.logger.Info("records exported", zap.String("path", s.path), zap.Int("records", len(records)))
	return nil
}

// Multi fans one record set out to several sinks, failing on the first error.
type Multi []RecordSink

// Write sends records to every sink in order.
func (m Multi) Write(ctx context.Context, records []scraper.JobRecord) error {
	for _, s := range m {
		if err := s.Write(ctx, records); err != nil {
			return err
		}
	}
	return nil
}
