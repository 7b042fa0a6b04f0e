package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/termpremium/internal/audit"
	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/risk"
	"github.com/wonny/termpremium/pkg/logger"
	"github.com/wonny/termpremium/pkg/metrics"
)

// Run triggers
const (
	TriggerCLI       = "cli"
	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
)

// Runner executes a complete backtest: strategy, benchmark, join and summaries
// ⭐ SSOT: 백테스트 실행 진입점
type Runner struct {
	source  contracts.PanelSource
	metrics *metrics.Registry
	logger  *logger.Logger
}

// Options carry run metadata that does not affect the numbers
type Options struct {
	Trigger    string
	ConfigHash string
}

// NewRunner creates a new runner. metrics may be nil.
func NewRunner(source contracts.PanelSource, metrics *metrics.Registry, logger *logger.Logger) *Runner {
	return &Runner{
		source:  source,
		metrics: metrics,
		logger:  logger,
	}
}

// Run validates params, loads the panel and runs the backtest
func (r *Runner) Run(ctx context.Context, params contracts.Params, opts Options) (*contracts.Report, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	records, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load panel: %w", err)
	}

	return r.RunRecords(ctx, params, records, opts)
}

// RunRecords runs the backtest over an already loaded panel.
//
// When a performance summary is undefined (too few observations, zero
// dispersion) the report is still returned, together with the
// ComputationError: strategy, benchmark and joined rows are complete and
// the failed summary is nil. Any other error returns a nil report.
func (r *Runner) RunRecords(ctx context.Context, params contracts.Params, records []contracts.PanelRecord, opts Options) (*contracts.Report, error) {
	start := time.Now()
	if opts.Trigger == "" {
		opts.Trigger = TriggerCLI
	}

	report, err := r.run(ctx, params, records, opts)
	if report == nil {
		r.metrics.ObserveRun(opts.Trigger, metrics.StatusFailure, time.Since(start), 0)
		return nil, err
	}

	fields := map[string]interface{}{
		"run_id":      report.RunID,
		"init_year":   params.InitYear,
		"end_year":    params.EndYear,
		"top_n":       params.TopN,
		"accepted":    len(report.Strategy),
		"skipped":     len(report.Skipped),
		"joined":      len(report.Combined),
		"final_index": fmt.Sprintf("%.4f", report.FinalIndex()),
		"duration_ms": time.Since(start).Milliseconds(),
	}

	if err != nil {
		r.metrics.ObserveRun(opts.Trigger, metrics.StatusPartial, time.Since(start), len(report.Skipped))
		r.logger.WithFields(fields).WithError(err).Warn("Backtest completed without summary")
		return report, err
	}

	r.metrics.ObserveRun(opts.Trigger, metrics.StatusSuccess, time.Since(start), len(report.Skipped))
	r.metrics.SetLastResult(report.FinalIndex(), report.Summary.Sharpe)

	fields["sharpe"] = fmt.Sprintf("%.4f", report.Summary.Sharpe)
	r.logger.WithFields(fields).Info("Backtest completed")

	return report, nil
}

func (r *Runner) run(ctx context.Context, params contracts.Params, records []contracts.PanelRecord, opts Options) (*contracts.Report, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	strategy, err := NewEngine(params, r.logger).Run(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("strategy: %w", err)
	}

	bench := NewBenchmarkBuilder(params, r.logger).Build(records)

	combined, err := Merge(strategy.Years, bench)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	report := &contracts.Report{
		RunID:      uuid.NewString(),
		ConfigHash: opts.ConfigHash,
		Params:     params,
		CreatedAt:  time.Now().UTC(),
		Strategy:   strategy.Years,
		Benchmark:  bench,
		Combined:   combined,
		Skipped:    strategy.Skipped,
	}

	audit.NewRiskReporter(risk.NewEngine(risk.DefaultConfidence), r.logger).Attach(report)

	if err := audit.NewAnalyzer(r.logger).Analyze(report, records); err != nil {
		if !contracts.IsComputationError(err) {
			return nil, err
		}
		report.SummaryError = err.Error()
		return report, err
	}

	return report, nil
}
