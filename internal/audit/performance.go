package audit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/pkg/logger"
)

// Summary labels
const (
	LabelStrategy  = "Strategy (Top-N Term Premium)"
	LabelBenchmark = "Benchmark (Reference Bonds)"
)

// Analyzer computes the performance summaries of a backtest report
// ⭐ SSOT: 성과 지표 계산은 여기서만
type Analyzer struct {
	logger *logger.Logger
}

// NewAnalyzer creates a new performance analyzer
func NewAnalyzer(logger *logger.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze fills RiskFree, Summary and BenchSum of report.
// The strategy summary uses every accepted strategy year; the benchmark summary
// uses the full benchmark track, including years the strategy skipped.
// The two summaries are independent: a track whose statistics are undefined
// stays nil while the other is still filled, and the ComputationErrors are joined.
func (a *Analyzer) Analyze(report *contracts.Report, records []contracts.PanelRecord) error {
	rf, err := RiskFreeReference(records, report.Params)
	if err != nil {
		return err
	}
	report.RiskFree = rf

	strategyReturns := make([]float64, len(report.Strategy))
	for i, s := range report.Strategy {
		strategyReturns[i] = s.StrategyReturn
	}
	benchReturns := make([]float64, len(report.Benchmark))
	for i, b := range report.Benchmark {
		benchReturns[i] = b.BenchmarkReturn
	}

	var errs []error
	summary, err := Summarize(LabelStrategy, strategyReturns, rf)
	if err != nil {
		errs = append(errs, fmt.Errorf("strategy summary: %w", err))
	}
	benchSum, err := Summarize(LabelBenchmark, benchReturns, rf)
	if err != nil {
		errs = append(errs, fmt.Errorf("benchmark summary: %w", err))
	}

	report.Summary = summary
	report.BenchSum = benchSum

	fields := map[string]interface{}{"risk_free": rf}
	if summary != nil {
		fields["strategy_sharpe"] = summary.Sharpe
	}
	if benchSum != nil {
		fields["benchmark_sharpe"] = benchSum.Sharpe
	}
	a.logger.WithFields(fields).Debug("Performance analyzed")

	return errors.Join(errs...)
}

// Summarize computes mean and sample standard deviation of ln(1+r) and
// sharpe = (mean - riskFree) / std.
// Fewer than two observations or zero dispersion is a ComputationError.
func Summarize(label string, returns []float64, riskFree float64) (*contracts.PerformanceSummary, error) {
	if len(returns) < 2 {
		return nil, &contracts.ComputationError{
			Metric:  "std",
			Message: fmt.Sprintf("%s: need at least 2 observations, got %d", label, len(returns)),
		}
	}

	logs := make([]float64, len(returns))
	for i, r := range returns {
		if r <= -1 {
			return nil, &contracts.ComputationError{
				Metric:  "log_return",
				Message: fmt.Sprintf("%s: return %.6f at position %d is a total loss", label, r, i),
			}
		}
		logs[i] = math.Log1p(r)
	}

	// MeanStdDev uses the n-1 denominator
	mean, std := stat.MeanStdDev(logs, nil)
	if constant(logs) || std == 0 || math.IsNaN(std) {
		return nil, &contracts.ComputationError{
			Metric:  "sharpe",
			Message: fmt.Sprintf("%s: zero standard deviation", label),
		}
	}

	return &contracts.PerformanceSummary{
		Label:        label,
		Observations: len(returns),
		MeanLog:      mean,
		StdLog:       std,
		Sharpe:       (mean - riskFree) / std,
		RiskFree:     riskFree,
	}, nil
}

// RiskFreeReference is the arithmetic mean of the reference country's bill rate
// over [init_year, end_year], ignoring missing values.
func RiskFreeReference(records []contracts.PanelRecord, params contracts.Params) (float64, error) {
	var sum float64
	var n int
	for i := range records {
		rec := &records[i]
		if rec.Country != params.ReferenceCountry || !params.InRange(rec.Year) || !contracts.Present(rec.BillRate) {
			continue
		}
		sum += *rec.BillRate
		n++
	}

	if n == 0 {
		return 0, &contracts.ComputationError{
			Metric:  "risk_free",
			Message: fmt.Sprintf("no %s bill rate in %d..%d", params.ReferenceCountry, params.InitYear, params.EndYear),
		}
	}

	return sum / float64(n), nil
}

// constant reports whether every value is identical; rounding in the
// variance of a constant series can leave a tiny non-zero std
func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
