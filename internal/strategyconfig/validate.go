package strategyconfig

import (
	"fmt"

	"github.com/wonny/termpremium/internal/contracts"
)

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 *contracts.ConfigurationError 반환 (처리 시작 전 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return &contracts.ConfigurationError{Field: "meta.strategy_id", Message: "required"}
	}

	// === Backtest ===
	if cfg.Backtest.TopN <= 0 {
		return &contracts.ConfigurationError{Field: "backtest.top_n", Message: "must be > 0"}
	}
	if cfg.Backtest.InitYear > cfg.Backtest.EndYear {
		return &contracts.ConfigurationError{
			Field:   "backtest.init_year",
			Message: fmt.Sprintf("%d must be <= end_year %d", cfg.Backtest.InitYear, cfg.Backtest.EndYear),
		}
	}
	if cfg.Backtest.ReferenceCountry == "" {
		return &contracts.ConfigurationError{Field: "backtest.reference_country", Message: "required"}
	}

	// === Missing ===
	// 전략은 결측치 엄격 제외만 허용
	if cfg.Missing.Strategy != string(contracts.PolicyExclude) {
		return &contracts.ConfigurationError{
			Field:   "missing.strategy",
			Message: fmt.Sprintf("must be '%s'", contracts.PolicyExclude),
		}
	}
	switch contracts.MissingPolicy(cfg.Missing.Benchmark) {
	case contracts.PolicyZeroFill, contracts.PolicyExclude:
	default:
		return &contracts.ConfigurationError{
			Field:   "missing.benchmark",
			Message: fmt.Sprintf("must be '%s' or '%s'", contracts.PolicyZeroFill, contracts.PolicyExclude),
		}
	}

	return nil
}

// CheckWarnings returns recommended-setting violations
func CheckWarnings(cfg *Config) []Warning {
	var warnings []Warning

	// Sharpe는 최소 2개 관측치 필요
	if cfg.Backtest.EndYear-cfg.Backtest.InitYear < 1 {
		warnings = append(warnings, Warning{
			Code:    "W001",
			Message: "single-year range: Sharpe ratio is undefined",
		})
	}

	// JST 패널 국가 수(18) 대비 과도한 top_n → 대부분 연도 스킵
	if cfg.Backtest.TopN > 8 {
		warnings = append(warnings, Warning{
			Code:    "W002",
			Message: fmt.Sprintf("top_n=%d: most years will have fewer eligible countries", cfg.Backtest.TopN),
		})
	}

	if cfg.Missing.Benchmark == string(contracts.PolicyExclude) {
		warnings = append(warnings, Warning{
			Code:    "W003",
			Message: "benchmark exclude policy drops years instead of zero-filling them",
		})
	}

	if cfg.Output.ReportPath == "" {
		warnings = append(warnings, Warning{
			Code:    "W004",
			Message: "output.report_path empty: report CSV will not be written",
		})
	}

	return warnings
}
