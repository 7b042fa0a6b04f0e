package portfolio

import (
	"fmt"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/pkg/logger"
)

// Constructor blends the selected countries into one portfolio excess return
// ⭐ SSOT: 포트폴리오 비중 계산은 여기서만
type Constructor struct {
	topN   int
	logger *logger.Logger
}

// NewConstructor creates a new equal-weight constructor for top_n positions
func NewConstructor(topN int, logger *logger.Logger) *Constructor {
	return &Constructor{
		topN:   topN,
		logger: logger,
	}
}

// Allocate weights each selected candidate 1/top_n and sums the USD excess returns.
// position_return = (bond_tr - bill_rate) * fx_return
func (c *Constructor) Allocate(selected []contracts.Candidate) (contracts.Allocation, error) {
	if c.topN <= 0 {
		return contracts.Allocation{}, &contracts.ConfigurationError{Field: "top_n", Message: "must be > 0"}
	}
	if len(selected) != c.topN {
		return contracts.Allocation{}, fmt.Errorf("allocate: got %d positions, want %d", len(selected), c.topN)
	}

	weight := 1.0 / float64(c.topN)
	alloc := contracts.Allocation{
		Weights:         make(map[string]float64, len(selected)),
		PositionReturns: make([]float64, 0, len(selected)),
	}

	// rank order; the sum is order dependent in floating point
	for _, cand := range selected {
		pos, ok := cand.Record.USDExcessReturn()
		if !ok {
			return contracts.Allocation{}, fmt.Errorf("allocate: %s %d: missing return inputs",
				cand.Record.Country, cand.Record.Year)
		}
		alloc.PositionReturns = append(alloc.PositionReturns, pos)
		alloc.Weights[cand.Record.Country] += weight
		alloc.ExcessReturn += weight * pos
	}

	c.logger.WithFields(map[string]interface{}{
		"positions":     len(selected),
		"excess_return": alloc.ExcessReturn,
	}).Debug("Portfolio constructed")

	return alloc, nil
}
