package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/pkg/logger"
)

func cand(country string, bondTR, bill, fx float64) contracts.Candidate {
	return contracts.Candidate{Record: contracts.PanelRecord{
		Year:        1950,
		Country:     country,
		TermPremium: contracts.Float(0.01),
		BondTR:      contracts.Float(bondTR),
		BillRate:    contracts.Float(bill),
		FXReturn:    contracts.Float(fx),
	}}
}

func TestConstructor_Allocate(t *testing.T) {
	c := NewConstructor(2, logger.Nop())

	alloc, err := c.Allocate([]contracts.Candidate{
		cand("A", 0.06, 0.02, 1.0),
		cand("B", 0.04, 0.02, 1.0),
	})
	require.NoError(t, err)

	// (0.04 + 0.02) / 2
	assert.InDelta(t, 0.03, alloc.ExcessReturn, 1e-12)
	assert.InDeltaSlice(t, []float64{0.04, 0.02}, alloc.PositionReturns, 1e-12)
	assert.InDelta(t, 0.5, alloc.Weights["A"], 1e-12)
	assert.InDelta(t, 0.5, alloc.Weights["B"], 1e-12)
}

func TestConstructor_FXAdjusted(t *testing.T) {
	c := NewConstructor(1, logger.Nop())

	alloc, err := c.Allocate([]contracts.Candidate{cand("GBR", 0.10, 0.04, 0.9)})
	require.NoError(t, err)
	assert.InDelta(t, 0.054, alloc.ExcessReturn, 1e-12)
}

func TestConstructor_Errors(t *testing.T) {
	_, err := NewConstructor(0, logger.Nop()).Allocate(nil)
	assert.True(t, contracts.IsConfigurationError(err))

	_, err = NewConstructor(3, logger.Nop()).Allocate([]contracts.Candidate{cand("A", 0.1, 0.0, 1.0)})
	assert.Error(t, err)

	bad := cand("A", 0.1, 0.0, 1.0)
	bad.Record.FXReturn = nil
	_, err = NewConstructor(1, logger.Nop()).Allocate([]contracts.Candidate{bad})
	assert.Error(t, err)
}
