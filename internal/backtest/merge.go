package backtest

import (
	"fmt"

	"github.com/wonny/termpremium/internal/contracts"
)

// Merge inner-joins the strategy and benchmark tracks on year.
// Both tracks must be strictly increasing in year; rows without a counterpart are dropped.
func Merge(strategy []contracts.SelectionResult, benchmark []contracts.BenchmarkPoint) ([]contracts.CombinedRow, error) {
	for i := 1; i < len(strategy); i++ {
		if strategy[i].Year <= strategy[i-1].Year {
			return nil, fmt.Errorf("%w: strategy year %d after %d", contracts.ErrJoinKey, strategy[i].Year, strategy[i-1].Year)
		}
	}
	for i := 1; i < len(benchmark); i++ {
		if benchmark[i].Year <= benchmark[i-1].Year {
			return nil, fmt.Errorf("%w: benchmark year %d after %d", contracts.ErrJoinKey, benchmark[i].Year, benchmark[i-1].Year)
		}
	}

	rows := make([]contracts.CombinedRow, 0, len(strategy))
	i, j := 0, 0
	for i < len(strategy) && j < len(benchmark) {
		s, b := strategy[i], benchmark[j]
		switch {
		case s.Year < b.Year:
			i++
		case s.Year > b.Year:
			j++
		default:
			rows = append(rows, contracts.CombinedRow{
				Year:              s.Year,
				StrategyReturn:    s.StrategyReturn,
				StrategyIndex:     s.CumulativeIndex,
				SelectedCountries: s.SelectedCountries,
				BenchmarkReturn:   b.BenchmarkReturn,
				BenchmarkIndex:    b.BenchmarkIndex,
			})
			i++
			j++
		}
	}

	return rows, nil
}
