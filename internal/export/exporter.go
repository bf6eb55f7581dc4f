// Package export writes run snapshots to disk so dry runs and live syncs
// leave a reviewable artifact.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"prodsync/internal/orchestrator"
)

type Exporter struct {
	dir    string
	logger *logrus.Logger
}

func New(dir string, logger *logrus.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// WriteJSON dumps the full run summary, raw products included.
func (e *Exporter) WriteJSON(summary *orchestrator.RunSummary) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path := filepath.Join(e.dir, e.filename(summary, "json"))
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	e.logger.WithField("path", path).Info("wrote run summary")
	return path, nil
}

// WriteMarkdown renders a human-readable report of the run, one section per
// brand with a product table.
func (e *Exporter) WriteMarkdown(summary *orchestrator.RunSummary) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path := filepath.Join(e.dir, e.filename(summary, "md"))
	if err := os.WriteFile(path, []byte(renderMarkdown(summary)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	e.logger.WithField("path", path).Info("wrote run report")
	return path, nil
}

func (e *Exporter) filename(summary *orchestrator.RunSummary, ext string) string {
	prefix := "sync"
	if summary.DryRun {
		prefix = "dry_run"
	}
	return fmt.Sprintf("%s_%s.%s", prefix, summary.StartedAt.Format("20060102_150405"), ext)
}

func renderMarkdown(summary *orchestrator.RunSummary) string {
	var b strings.Builder

	title := "Sync Run"
	if summary.DryRun {
		title = "Dry Run"
	}
	fmt.Fprintf(&b, "# %s %s\n\n", title, summary.RunID)
	fmt.Fprintf(&b, "- Started: %s\n", summary.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Finished: %s\n", summary.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Total synced: %d\n", summary.TotalSynced())
	if failed := summary.FailedBrands(); len(failed) > 0 {
		fmt.Fprintf(&b, "- Failed brands: %s\n", strings.Join(failed, ", "))
	}
	b.WriteString("\n")

	for _, o := range summary.Outcomes {
		fmt.Fprintf(&b, "## %s (%s)\n\n", o.Brand, o.Status)
		fmt.Fprintf(&b, "Fetched %d, synced %d, failed %d.\n\n", o.Fetched, o.Synced, o.Failed)

		if len(o.Errors) > 0 {
			b.WriteString("Errors:\n\n")
			for _, e := range o.Errors {
				fmt.Fprintf(&b, "- %s\n", e)
			}
			b.WriteString("\n")
		}

		if len(o.Products) > 0 {
			b.WriteString("| SKU | Title | Price | Keywords |\n")
			b.WriteString("|---|---|---|---|\n")
			for _, p := range o.Products {
				price := fmt.Sprintf("%.2f %s", p.Price, p.Currency)
				if sale, ok := p.DiscountedPrice(); ok {
					price = fmt.Sprintf("%.2f %s (was %.2f)", sale, p.Currency, p.Price)
				}
				fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
					p.SKU, escapeCell(p.Title), price, strings.Join(p.KeywordsMatched, ", "))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
