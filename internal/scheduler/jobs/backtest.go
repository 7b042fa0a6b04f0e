package jobs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wonny/termpremium/internal/backtest"
	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/report"
	"github.com/wonny/termpremium/pkg/logger"
)

// RunSaver persists a finished report
type RunSaver interface {
	SaveRun(ctx context.Context, report *contracts.Report) error
}

// BacktestJob re-runs the configured backtest and rewrites the report file
// ⭐ SSOT: 정기 백테스트는 이 Job에서만
type BacktestJob struct {
	runner     *backtest.Runner
	params     contracts.Params
	configHash string
	reportDir  string
	schedule   string
	runs       RunSaver // optional
	logger     *logger.Logger
}

// BacktestJobConfig holds what a scheduled run needs
type BacktestJobConfig struct {
	Params     contracts.Params
	ConfigHash string
	ReportDir  string
	Schedule   string
}

// NewBacktestJob creates a new backtest job. runs may be nil.
func NewBacktestJob(runner *backtest.Runner, cfg BacktestJobConfig, runs RunSaver, log *logger.Logger) *BacktestJob {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = "0 0 6 * * *"
	}
	return &BacktestJob{
		runner:     runner,
		params:     cfg.Params,
		configHash: cfg.ConfigHash,
		reportDir:  cfg.ReportDir,
		schedule:   schedule,
		runs:       runs,
		logger:     log,
	}
}

// Name returns the job name
func (j *BacktestJob) Name() string {
	return "backtest"
}

// Schedule returns the cron schedule (seconds field included)
func (j *BacktestJob) Schedule() string {
	return j.schedule
}

// ReportPath is where the job writes its CSV
func (j *BacktestJob) ReportPath() string {
	return filepath.Join(j.reportDir, report.DefaultFileName)
}

// Run executes the backtest and saves its outputs
func (j *BacktestJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled backtest")

	rep, runErr := j.runner.Run(ctx, j.params, backtest.Options{
		Trigger:    backtest.TriggerScheduler,
		ConfigHash: j.configHash,
	})
	if rep == nil {
		return fmt.Errorf("backtest: %w", runErr)
	}

	// 1. CSV 리포트
	if err := report.SaveCSV(j.ReportPath(), rep); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	// 2. 실행 기록 (DB 설정 시)
	if j.runs != nil {
		if err := j.runs.SaveRun(ctx, rep); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}

	// 요약 계산 실패는 재시도 없이 보고 (CSV는 이미 저장됨)
	if runErr != nil {
		return fmt.Errorf("backtest summary: %w", runErr)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": rep.RunID,
		"path":   j.ReportPath(),
	}).Info("Scheduled backtest completed")

	return nil
}
