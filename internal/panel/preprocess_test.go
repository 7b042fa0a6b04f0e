package panel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/termpremium/internal/contracts"
)

const sampleRaw = `year,country,iso,bond_tr,bond_rate,bill_rate,xrusd,eq_tr,gdp
1952,Germany,DEU,0.06,0.07,0.03,4.0,0.1,100
1950,Germany,DEU,0.05,0.06,0.02,4.2,0.1,90
1951,Germany,DEU,0.04,0.06,0.03,,0.1,95
1950,USA,USA,0.03,0.025,0.01,1,0.2,300
1951,USA,USA,0.02,,0.01,1,0.2,310
`

func TestReadRawCSV(t *testing.T) {
	raw, err := ReadRawCSV(strings.NewReader(sampleRaw))
	require.NoError(t, err)
	require.Len(t, raw, 5)
	assert.Equal(t, "Germany", raw[0].Country)
	assert.Nil(t, raw[2].XRUSD)
	require.NotNil(t, raw[0].XRUSD)
	assert.Equal(t, 4.0, *raw[0].XRUSD)
}

func TestDerive(t *testing.T) {
	raw, err := ReadRawCSV(strings.NewReader(sampleRaw))
	require.NoError(t, err)

	records, err := Derive(raw)
	require.NoError(t, err)
	require.Len(t, records, 5)

	// Germany 1950: first row of the country has no fx_return
	de50 := records[0]
	assert.Equal(t, "Germany", de50.Country)
	assert.Equal(t, 1950, de50.Year)
	assert.Nil(t, de50.FXReturn)
	require.NotNil(t, de50.TermPremium)
	assert.InDelta(t, 0.04, *de50.TermPremium, 1e-12)

	// Germany 1951: xrusd forward-filled from 1950, so fx_return = 4.2 / 4.2
	de51 := records[1]
	require.NotNil(t, de51.FXReturn)
	assert.InDelta(t, 1.0, *de51.FXReturn, 1e-12)

	// Germany 1952: previous filled value 4.2, current 4.0
	de52 := records[2]
	require.NotNil(t, de52.FXReturn)
	assert.InDelta(t, 4.2/4.0, *de52.FXReturn, 1e-12)

	// USA 1951: bond_rate missing, so no term premium
	us51 := records[4]
	assert.Equal(t, "USA", us51.Country)
	assert.Nil(t, us51.TermPremium)
	require.NotNil(t, us51.FXReturn)
	assert.Equal(t, 1.0, *us51.FXReturn)
}

func TestDerive_DoesNotMutateInput(t *testing.T) {
	raw := []contracts.RawRecord{
		{Year: 1951, Country: "USA", XRUSD: contracts.Float(1)},
		{Year: 1950, Country: "USA", XRUSD: contracts.Float(1)},
	}
	_, err := Derive(raw)
	require.NoError(t, err)
	assert.Equal(t, 1951, raw[0].Year)
}

func TestDerive_ZeroRateIsMissing(t *testing.T) {
	raw := []contracts.RawRecord{
		{Year: 1950, Country: "XXX", XRUSD: contracts.Float(2)},
		{Year: 1951, Country: "XXX", XRUSD: contracts.Float(0)},
	}
	records, err := Derive(raw)
	require.NoError(t, err)
	assert.Nil(t, records[1].FXReturn)
}

func TestDerive_Duplicate(t *testing.T) {
	raw := []contracts.RawRecord{
		{Year: 1950, Country: "USA"},
		{Year: 1950, Country: "USA"},
	}
	_, err := Derive(raw)
	assert.ErrorIs(t, err, ErrDuplicateRecord)
}
