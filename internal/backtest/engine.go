package backtest

import (
	"context"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/portfolio"
	"github.com/wonny/termpremium/internal/selection"
	"github.com/wonny/termpremium/pkg/logger"
)

// Engine runs the yearly ranking-and-compounding strategy
// ⭐ SSOT: 전략 연도별 실행은 여기서만
type Engine struct {
	params    contracts.Params
	screener  contracts.Screener
	ranker    contracts.Ranker
	allocator contracts.Allocator
	logger    *logger.Logger
}

// StrategyResult is the strategy track of one run
type StrategyResult struct {
	Years   []contracts.SelectionResult
	Skipped []contracts.SkippedYear
}

// NewEngine creates an engine with the default screener, ranker and equal-weight allocator
func NewEngine(params contracts.Params, logger *logger.Logger) *Engine {
	return NewEngineWith(
		params,
		selection.NewScreener(params, logger),
		selection.NewRanker(),
		portfolio.NewConstructor(params.TopN, logger),
		logger,
	)
}

// NewEngineWith creates an engine from explicit components
func NewEngineWith(
	params contracts.Params,
	screener contracts.Screener,
	ranker contracts.Ranker,
	allocator contracts.Allocator,
	logger *logger.Logger,
) *Engine {
	return &Engine{
		params:    params,
		screener:  screener,
		ranker:    ranker,
		allocator: allocator,
		logger:    logger,
	}
}

// Run folds the panel year by year in ascending order.
// top_n <= 0 or an empty panel yields an empty result, not an error.
// Rejected years are recorded in Skipped and leave the index unchanged.
func (e *Engine) Run(ctx context.Context, records []contracts.PanelRecord) (*StrategyResult, error) {
	result := &StrategyResult{
		Years:   make([]contracts.SelectionResult, 0),
		Skipped: make([]contracts.SkippedYear, 0),
	}
	if e.params.TopN <= 0 || len(records) == 0 {
		return result, nil
	}

	pools := selection.GroupByYear(e.screener.Screen(records))
	index := NewIndexAccumulator()

	for _, yp := range pools {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if gap := selection.CheckPool(yp.Year, yp.Pool, e.params); gap != nil {
			e.logger.WithFields(map[string]interface{}{
				"year":     gap.Year,
				"eligible": len(yp.Pool),
				"reason":   gap.Reason,
			}).Debug("Year skipped")

			result.Skipped = append(result.Skipped, contracts.SkippedYear{
				Year:     gap.Year,
				Reason:   gap.Reason,
				Eligible: len(yp.Pool),
			})
			continue
		}

		selected := selection.Top(e.ranker.Rank(yp.Pool), e.params.TopN)
		alloc, err := e.allocator.Allocate(selected)
		if err != nil {
			return nil, err
		}

		ref, _ := selection.FindCountry(yp.Pool, e.params.ReferenceCountry)
		refBill := *ref.Record.BillRate
		strategyReturn := alloc.ExcessReturn + refBill

		result.Years = append(result.Years, contracts.SelectionResult{
			Year:              yp.Year,
			SelectedCountries: selection.Countries(selected),
			PortfolioExcess:   alloc.ExcessReturn,
			ReferenceBillRate: refBill,
			StrategyReturn:    strategyReturn,
			CumulativeIndex:   index.Apply(strategyReturn),
		})
	}

	e.logger.WithFields(map[string]interface{}{
		"accepted":    len(result.Years),
		"skipped":     len(result.Skipped),
		"final_index": index.Value(),
	}).Debug("Strategy completed")

	return result, nil
}
