package contracts

import "time"

// MissingPolicy says how a component treats a missing numeric field
type MissingPolicy string

const (
	PolicyExclude  MissingPolicy = "exclude"   // drop the record
	PolicyZeroFill MissingPolicy = "zero_fill" // treat the value as 0
)

// Params are the inputs the backtest is a pure function of
type Params struct {
	InitYear         int    `json:"init_year"`
	EndYear          int    `json:"end_year"`
	TopN             int    `json:"top_n"`
	ReferenceCountry string `json:"reference_country"`

	// BenchmarkMissing defaults to zero_fill when empty
	BenchmarkMissing MissingPolicy `json:"benchmark_missing,omitempty"`
}

// DefaultParams returns 1950..2015, top 3, USA
func DefaultParams() Params {
	return Params{
		InitYear:         1950,
		EndYear:          2015,
		TopN:             3,
		ReferenceCountry: ReferenceCountry,
		BenchmarkMissing: PolicyZeroFill,
	}
}

// BenchmarkPolicy returns the effective benchmark missing policy
func (p Params) BenchmarkPolicy() MissingPolicy {
	if p.BenchmarkMissing == "" {
		return PolicyZeroFill
	}
	return p.BenchmarkMissing
}

// InRange reports whether year lies in [InitYear, EndYear]
func (p Params) InRange(year int) bool {
	return year >= p.InitYear && year <= p.EndYear
}

// Validate rejects configurations that would silently produce an empty report
func (p Params) Validate() error {
	if p.TopN <= 0 {
		return &ConfigurationError{Field: "top_n", Message: "must be > 0"}
	}
	if p.InitYear > p.EndYear {
		return &ConfigurationError{Field: "init_year", Message: "must be <= end_year"}
	}
	if p.ReferenceCountry == "" {
		return &ConfigurationError{Field: "reference_country", Message: "required"}
	}
	switch p.BenchmarkPolicy() {
	case PolicyZeroFill, PolicyExclude:
	default:
		return &ConfigurationError{Field: "benchmark_missing", Message: "unknown policy " + string(p.BenchmarkMissing)}
	}
	return nil
}

// SelectionResult is one accepted strategy year
// ⭐ SSOT: Engine → Merger 전달
type SelectionResult struct {
	Year              int      `json:"year"`
	SelectedCountries []string `json:"selected_countries"` // rank order
	PortfolioExcess   float64  `json:"portfolio_excess_return"`
	ReferenceBillRate float64  `json:"reference_bill_rate"`
	StrategyReturn    float64  `json:"strategy_return"`
	CumulativeIndex   float64  `json:"cumulative_index"`
}

// BenchmarkPoint is one year of the buy-and-hold reference track
type BenchmarkPoint struct {
	Year            int     `json:"year"`
	BenchmarkReturn float64 `json:"benchmark_return"`
	BenchmarkIndex  float64 `json:"benchmark_index"`
}

// CombinedRow is one row of the strategy/benchmark inner join
type CombinedRow struct {
	Year              int      `json:"year"`
	StrategyReturn    float64  `json:"strategy_return"`
	StrategyIndex     float64  `json:"strategy_index"`
	SelectedCountries []string `json:"selected_countries"`
	BenchmarkReturn   float64  `json:"benchmark_return"`
	BenchmarkIndex    float64  `json:"benchmark_index"`
}

// SkippedYear records a year rejected by the engine
type SkippedYear struct {
	Year     int    `json:"year"`
	Reason   string `json:"reason"`
	Eligible int    `json:"eligible"`
}

// PerformanceSummary holds log-return statistics of one track
type PerformanceSummary struct {
	Label        string  `json:"label"`
	Observations int     `json:"observations"`
	MeanLog      float64 `json:"mean_log_return"`
	StdLog       float64 `json:"std_log_return"`
	Sharpe       float64 `json:"sharpe"`
	RiskFree     float64 `json:"risk_free"`
}

// TrackRisk holds the tail-risk statistics of one return track.
// ⭐ SSOT: VaR/CVaR/MaxDrawdown는 손실을 양수로 표현
type TrackRisk struct {
	Label        string  `json:"label"`
	Confidence   float64 `json:"confidence"`
	VaR          float64 `json:"var"`
	CVaR         float64 `json:"cvar"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	WorstYear    int     `json:"worst_year"`
	WorstReturn  float64 `json:"worst_return"`
	PositiveRate float64 `json:"positive_rate"` // share of years with r > 0
}

// Report is the full output of one backtest invocation
type Report struct {
	RunID      string              `json:"run_id"`
	ConfigHash string              `json:"config_hash,omitempty"`
	Params     Params              `json:"params"`
	CreatedAt  time.Time           `json:"created_at"`
	Strategy   []SelectionResult   `json:"strategy"`
	Benchmark  []BenchmarkPoint    `json:"benchmark"`
	Combined   []CombinedRow       `json:"combined"`
	Skipped    []SkippedYear       `json:"skipped"`
	RiskFree   float64             `json:"risk_free"`
	Summary    *PerformanceSummary `json:"strategy_summary,omitempty"`
	BenchSum   *PerformanceSummary `json:"benchmark_summary,omitempty"`

	StrategyRisk  *TrackRisk `json:"strategy_risk,omitempty"`
	BenchmarkRisk *TrackRisk `json:"benchmark_risk,omitempty"`

	// SummaryError is set when a performance summary could not be computed;
	// the tracks and joined rows are still complete
	SummaryError string `json:"summary_error,omitempty"`
}

// FinalIndex returns the last strategy index or 1.0 when nothing was accepted
func (r *Report) FinalIndex() float64 {
	if len(r.Strategy) == 0 {
		return 1.0
	}
	return r.Strategy[len(r.Strategy)-1].CumulativeIndex
}
