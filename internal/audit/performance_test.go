package audit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/risk"
	"github.com/wonny/termpremium/pkg/logger"
)

func TestSummarize(t *testing.T) {
	returns := []float64{0.10, -0.05, 0.02}
	rf := 0.01

	s, err := Summarize(LabelStrategy, returns, rf)
	require.NoError(t, err)

	logs := []float64{math.Log(1.10), math.Log(0.95), math.Log(1.02)}
	mean := (logs[0] + logs[1] + logs[2]) / 3
	var ss float64
	for _, l := range logs {
		ss += (l - mean) * (l - mean)
	}
	std := math.Sqrt(ss / 2) // sample std

	assert.Equal(t, 3, s.Observations)
	assert.InDelta(t, mean, s.MeanLog, 1e-12)
	assert.InDelta(t, std, s.StdLog, 1e-12)
	assert.InDelta(t, (mean-rf)/std, s.Sharpe, 1e-9)
	assert.Equal(t, rf, s.RiskFree)
	assert.Equal(t, LabelStrategy, s.Label)
}

func TestSummarize_ComputationErrors(t *testing.T) {
	tests := []struct {
		name       string
		returns    []float64
		wantMetric string
	}{
		{"empty", nil, "std"},
		{"single", []float64{0.05}, "std"},
		{"zero variance", []float64{0.03, 0.03, 0.03}, "sharpe"},
		{"total loss", []float64{0.03, -1.0}, "log_return"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Summarize("x", tt.returns, 0)
			require.Error(t, err)
			assert.True(t, contracts.IsComputationError(err))

			var ce *contracts.ComputationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantMetric, ce.Metric)
		})
	}
}

func TestRiskFreeReference(t *testing.T) {
	params := contracts.Params{InitYear: 1950, EndYear: 1952, TopN: 1, ReferenceCountry: "USA"}
	records := []contracts.PanelRecord{
		{Year: 1949, Country: "USA", BillRate: contracts.Float(0.50)}, // out of range
		{Year: 1950, Country: "USA", BillRate: contracts.Float(0.02)},
		{Year: 1951, Country: "USA"}, // missing
		{Year: 1952, Country: "USA", BillRate: contracts.Float(0.04)},
		{Year: 1951, Country: "GBR", BillRate: contracts.Float(0.90)}, // not reference
	}

	rf, err := RiskFreeReference(records, params)
	require.NoError(t, err)
	assert.InDelta(t, 0.03, rf, 1e-12)

	_, err = RiskFreeReference(records[4:], params)
	assert.True(t, contracts.IsComputationError(err))
}

func TestAnalyzer_Analyze(t *testing.T) {
	params := contracts.Params{InitYear: 1, EndYear: 3, TopN: 1, ReferenceCountry: "USA"}
	records := []contracts.PanelRecord{
		{Year: 1, Country: "USA", BillRate: contracts.Float(0.01)},
		{Year: 2, Country: "USA", BillRate: contracts.Float(0.03)},
	}
	report := &contracts.Report{
		Params: params,
		Strategy: []contracts.SelectionResult{
			{Year: 1, StrategyReturn: 0.05},
			{Year: 3, StrategyReturn: 0.01},
		},
		Benchmark: []contracts.BenchmarkPoint{
			{Year: 1, BenchmarkReturn: 0.05},
			{Year: 2, BenchmarkReturn: 0.0},
			{Year: 3, BenchmarkReturn: 0.03},
		},
	}

	require.NoError(t, NewAnalyzer(logger.Nop()).Analyze(report, records))
	assert.InDelta(t, 0.02, report.RiskFree, 1e-12)
	require.NotNil(t, report.Summary)
	require.NotNil(t, report.BenchSum)
	assert.Equal(t, 2, report.Summary.Observations)
	assert.Equal(t, 3, report.BenchSum.Observations, "benchmark uses its full track")
}

func TestAnalyzer_StrategyTooShort(t *testing.T) {
	report := &contracts.Report{
		Params:   contracts.Params{InitYear: 1, EndYear: 3, TopN: 1, ReferenceCountry: "USA"},
		Strategy: []contracts.SelectionResult{{Year: 1, StrategyReturn: 0.05}},
	}
	records := []contracts.PanelRecord{{Year: 1, Country: "USA", BillRate: contracts.Float(0.01)}}

	err := NewAnalyzer(logger.Nop()).Analyze(report, records)
	assert.True(t, contracts.IsComputationError(err))
	assert.Nil(t, report.Summary)
}

func TestAnalyzer_BenchmarkSurvivesShortStrategy(t *testing.T) {
	report := &contracts.Report{
		Params:   contracts.Params{InitYear: 1, EndYear: 3, TopN: 1, ReferenceCountry: "USA"},
		Strategy: []contracts.SelectionResult{{Year: 1, StrategyReturn: 0.05}},
		Benchmark: []contracts.BenchmarkPoint{
			{Year: 1, BenchmarkReturn: 0.05},
			{Year: 2, BenchmarkReturn: 0.01},
		},
	}
	records := []contracts.PanelRecord{{Year: 1, Country: "USA", BillRate: contracts.Float(0.01)}}

	err := NewAnalyzer(logger.Nop()).Analyze(report, records)
	require.Error(t, err)
	assert.True(t, contracts.IsComputationError(err))
	assert.Contains(t, err.Error(), "strategy summary")
	assert.NotContains(t, err.Error(), "benchmark summary")

	assert.Nil(t, report.Summary)
	require.NotNil(t, report.BenchSum)
	assert.Equal(t, 2, report.BenchSum.Observations)
	assert.InDelta(t, 0.01, report.RiskFree, 1e-12)
}

func TestRiskReporter_Attach(t *testing.T) {
	report := &contracts.Report{
		Strategy: []contracts.SelectionResult{
			{Year: 1, StrategyReturn: 0.10},
			{Year: 2, StrategyReturn: -0.20},
			{Year: 4, StrategyReturn: 0.05},
		},
		Benchmark: []contracts.BenchmarkPoint{
			{Year: 1, BenchmarkReturn: 0.02},
			{Year: 2, BenchmarkReturn: 0.01},
		},
	}

	NewRiskReporter(risk.NewEngine(risk.DefaultConfidence), logger.Nop()).Attach(report)

	require.NotNil(t, report.StrategyRisk)
	assert.Equal(t, LabelStrategy, report.StrategyRisk.Label)
	assert.Equal(t, 2, report.StrategyRisk.WorstYear)
	assert.InDelta(t, 0.20, report.StrategyRisk.MaxDrawdown, 1e-12)

	require.NotNil(t, report.BenchmarkRisk)
	assert.Zero(t, report.BenchmarkRisk.MaxDrawdown)
	assert.InDelta(t, 1.0, report.BenchmarkRisk.PositiveRate, 1e-12)
}

func TestRiskReporter_EmptyTracks(t *testing.T) {
	report := &contracts.Report{}
	NewRiskReporter(risk.NewEngine(0), logger.Nop()).Attach(report)
	assert.Nil(t, report.StrategyRisk)
	assert.Nil(t, report.BenchmarkRisk)
}
