package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"prodsync/internal/models"
)

type BrandStatus string

const (
	StatusSynced BrandStatus = "synced"
	StatusFailed BrandStatus = "failed"
)

// BrandOutcome is the per-brand result of one sync run.
type BrandOutcome struct {
	Brand   string           `json:"brand"`
	Source  models.SourceAPI `json:"source,omitempty"`
	Status  BrandStatus      `json:"status"`
	Fetched int              `json:"fetched"`
	Synced  int              `json:"synced"`
	Failed  int              `json:"failed"`
	Errors  []string         `json:"errors,omitempty"`

	Products []*models.UnifiedProduct `json:"products,omitempty"`
}

// RunSummary aggregates one full run across brands.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DryRun     bool           `json:"dry_run"`
	Outcomes   []BrandOutcome `json:"outcomes"`
}

// TotalSynced sums synced products across all brands.
func (s *RunSummary) TotalSynced() int {
	total := 0
	for _, o := range s.Outcomes {
		total += o.Synced
	}
	return total
}

// FailedBrands lists brands whose sync failed outright.
func (s *RunSummary) FailedBrands() []string {
	var failed []string
	for _, o := range s.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o.Brand)
		}
	}
	return failed
}

// Run syncs the given brands in sequence. Brands fail independently; the
// summary always covers every requested brand.
func (o *Orchestrator) Run(ctx context.Context, brandNames []string, keywords map[string][]string, dryRun bool) *RunSummary {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    dryRun,
	}

	o.logger.WithFields(logrus.Fields{
		"run_id":  summary.RunID,
		"brands":  brandNames,
		"dry_run": dryRun,
	}).Info("sync run starting")

	for _, name := range brandNames {
		summary.Outcomes = append(summary.Outcomes, o.SyncBrand(ctx, name, keywords[name]))
	}

	summary.FinishedAt = time.Now().UTC()

	o.logger.WithFields(logrus.Fields{
		"run_id":        summary.RunID,
		"total_synced":  summary.TotalSynced(),
		"failed_brands": summary.FailedBrands(),
		"duration":      summary.FinishedAt.Sub(summary.StartedAt).String(),
	}).Info("sync run finished")

	return summary
}
