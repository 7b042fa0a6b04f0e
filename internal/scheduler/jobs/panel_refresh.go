package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/panel"
	"github.com/wonny/termpremium/pkg/logger"
)

// PanelStore stores the derived panel in the database
type PanelStore interface {
	SaveBatch(ctx context.Context, records []contracts.PanelRecord) (int, error)
}

// PanelRefreshJob downloads the raw dataset and rewrites the cleaned panel
type PanelRefreshJob struct {
	fetcher  *panel.Fetcher
	path     string
	schedule string
	store    PanelStore // optional
	logger   *logger.Logger
}

// NewPanelRefreshJob creates a new panel refresh job. store may be nil.
func NewPanelRefreshJob(fetcher *panel.Fetcher, path, schedule string, store PanelStore, log *logger.Logger) *PanelRefreshJob {
	if schedule == "" {
		schedule = "0 0 5 * * 1" // 매주 월요일 05:00
	}
	return &PanelRefreshJob{
		fetcher:  fetcher,
		path:     path,
		schedule: schedule,
		store:    store,
		logger:   log,
	}
}

// Name returns the job name
func (j *PanelRefreshJob) Name() string {
	return "panel_refresh"
}

// Schedule returns the cron schedule
func (j *PanelRefreshJob) Schedule() string {
	return j.schedule
}

// Run downloads, derives and saves the panel
func (j *PanelRefreshJob) Run(ctx context.Context) error {
	records, err := j.fetcher.Refresh(ctx, j.path)
	if err != nil {
		return fmt.Errorf("refresh panel: %w", err)
	}

	if j.store != nil {
		n, err := j.store.SaveBatch(ctx, records)
		if err != nil {
			return fmt.Errorf("store panel: %w", err)
		}
		j.logger.WithField("rows", n).Debug("Panel rows upserted")
	}

	return nil
}
