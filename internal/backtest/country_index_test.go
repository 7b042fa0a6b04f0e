package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/termpremium/internal/contracts"
)

func TestCountryIndices(t *testing.T) {
	records := []contracts.PanelRecord{
		row(2, "CHE", 0.01, 0.06, 0.01, 0.5),
		row(1, "CHE", 0.01, 0.12, 0.02, 1.0),
		{Year: 3, Country: "CHE", BondTR: contracts.Float(0.1)}, // no bill rate
		row(1, "AUS", 0.01, 0.03, 0.01, 1.0),
	}

	points := CountryIndices(records)
	require.Len(t, points, 4)

	assert.Equal(t, "AUS", points[0].Country)
	assert.InDelta(t, 1.02, points[0].IndexLocal, 1e-12)

	che := points[1:]
	assert.Equal(t, []int{1, 2, 3}, []int{che[0].Year, che[1].Year, che[2].Year})

	// local: 1.10 * 1.05; usd: 1.10 * (1 + 0.05*0.5)
	assert.InDelta(t, 1.10, che[0].IndexLocal, 1e-12)
	assert.InDelta(t, 1.10*1.05, che[1].IndexLocal, 1e-12)
	assert.InDelta(t, 1.10*1.025, che[1].IndexUSD, 1e-12)

	// missing step keeps the index
	assert.Nil(t, che[2].ExcessLocal)
	assert.InDelta(t, che[1].IndexLocal, che[2].IndexLocal, 1e-12)
	assert.InDelta(t, che[1].IndexUSD, che[2].IndexUSD, 1e-12)

	// input untouched
	assert.Equal(t, 2, records[0].Year)
}
