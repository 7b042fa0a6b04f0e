package backtest

import (
	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/panel"
)

// CountryIndexPoint is one year of a country's excess-return indices
type CountryIndexPoint struct {
	Country     string   `json:"country"`
	Year        int      `json:"year"`
	ExcessLocal *float64 `json:"bond_excess_return"`
	FXReturn    *float64 `json:"fx_return"`
	ExcessUSD   *float64 `json:"bond_excess_return_usd"`
	IndexLocal  float64  `json:"term_premium_index_local"`
	IndexUSD    float64  `json:"term_premium_index_usd"`
}

// CountryIndices builds per-country cumulative indices of the local
// (bond_tr - bill_rate) and USD-adjusted excess returns.
// Each country starts at 1.0; a missing return is a zero step.
func CountryIndices(records []contracts.PanelRecord) []CountryIndexPoint {
	rows := make([]contracts.PanelRecord, len(records))
	copy(rows, records)
	panel.Sort(rows)

	points := make([]CountryIndexPoint, 0, len(rows))
	var (
		country string
		local   *IndexAccumulator
		usd     *IndexAccumulator
	)

	for i := range rows {
		rec := &rows[i]
		if local == nil || rec.Country != country {
			country = rec.Country
			local = NewIndexAccumulator()
			usd = NewIndexAccumulator()
		}

		p := CountryIndexPoint{
			Country:  rec.Country,
			Year:     rec.Year,
			FXReturn: rec.FXReturn,
		}
		if v, ok := rec.ExcessReturn(); ok {
			p.ExcessLocal = contracts.Float(v)
		}
		if v, ok := rec.USDExcessReturn(); ok {
			p.ExcessUSD = contracts.Float(v)
		}

		p.IndexLocal = local.Apply(contracts.ValueOr(p.ExcessLocal, 0))
		p.IndexUSD = usd.Apply(contracts.ValueOr(p.ExcessUSD, 0))
		points = append(points, p)
	}

	return points
}
