package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/pkg/logger"
)

func full(year int, country string) contracts.PanelRecord {
	return contracts.PanelRecord{
		Year:        year,
		Country:     country,
		TermPremium: contracts.Float(0.01),
		BondTR:      contracts.Float(0.05),
		BillRate:    contracts.Float(0.02),
		FXReturn:    contracts.Float(1.0),
	}
}

func TestGate_Check(t *testing.T) {
	gap := full(1951, "GBR")
	gap.BondTR = nil

	records := []contracts.PanelRecord{
		full(1949, "USA"), // out of range
		full(1950, "USA"),
		full(1950, "GBR"),
		full(1950, "DEU"),
		full(1951, "USA"),
		gap,
		full(1952, "GBR"),
		full(1952, "DEU"),
	}

	params := contracts.Params{InitYear: 1950, EndYear: 1952, TopN: 2, ReferenceCountry: "USA"}
	q := NewGate(params, logger.Nop()).Check(records)

	require.Len(t, q.Years, 3)
	assert.Equal(t, 3, q.Countries)
	assert.Equal(t, 1, q.AcceptedYears)

	y50, y51, y52 := q.Years[0], q.Years[1], q.Years[2]

	assert.True(t, y50.Accepted)
	assert.Equal(t, 3, y50.EligibleRecords)
	assert.Empty(t, y50.MissingCountries)

	assert.False(t, y51.Accepted, "only USA eligible")
	assert.True(t, y51.ReferencePresent)
	assert.Equal(t, []string{"GBR"}, y51.MissingCountries)
	assert.InDelta(t, 0.5, y51.Coverage(), 1e-12)

	assert.False(t, y52.Accepted)
	assert.False(t, y52.ReferencePresent)
}

func TestGate_Empty(t *testing.T) {
	q := NewGate(contracts.DefaultParams(), logger.Nop()).Check(nil)
	assert.Empty(t, q.Years)
	assert.Equal(t, 0, q.AcceptedYears)
}
