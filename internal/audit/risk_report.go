package audit

import (
	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/risk"
	"github.com/wonny/termpremium/pkg/logger"
)

// RiskReporter attaches tail-risk statistics to a backtest report
// ⭐ SSOT: 리스크 계산은 risk.Engine, 트랙 조립은 여기서
type RiskReporter struct {
	engine *risk.Engine
	logger *logger.Logger
}

// NewRiskReporter creates a new risk reporter
func NewRiskReporter(engine *risk.Engine, logger *logger.Logger) *RiskReporter {
	return &RiskReporter{
		engine: engine,
		logger: logger,
	}
}

// Attach fills StrategyRisk and BenchmarkRisk. Tracks are taken the same way
// the performance summaries take them: accepted strategy years and the full
// benchmark track.
func (r *RiskReporter) Attach(report *contracts.Report) {
	years := make([]int, len(report.Strategy))
	returns := make([]float64, len(report.Strategy))
	for i, s := range report.Strategy {
		years[i] = s.Year
		returns[i] = s.StrategyReturn
	}
	report.StrategyRisk = r.engine.Track(LabelStrategy, years, returns)

	years = make([]int, len(report.Benchmark))
	returns = make([]float64, len(report.Benchmark))
	for i, b := range report.Benchmark {
		years[i] = b.Year
		returns[i] = b.BenchmarkReturn
	}
	report.BenchmarkRisk = r.engine.Track(LabelBenchmark, years, returns)

	if report.StrategyRisk != nil {
		r.logger.WithFields(map[string]interface{}{
			"confidence":   r.engine.Confidence(),
			"var":          report.StrategyRisk.VaR,
			"max_drawdown": report.StrategyRisk.MaxDrawdown,
			"worst_year":   report.StrategyRisk.WorstYear,
		}).Debug("Strategy risk computed")
	}
}
