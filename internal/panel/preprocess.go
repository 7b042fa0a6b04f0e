package panel

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wonny/termpremium/internal/contracts"
)

// Raw dataset columns (JST macrohistory layout)
const (
	ColXRUSD = "xrusd"
)

// ReadRawCSV parses the raw country-year dataset.
// Extra columns are ignored, so the full macrohistory file can be fed directly.
func ReadRawCSV(r io.Reader) ([]contracts.RawRecord, error) {
	rows, header, err := readTable(r)
	if err != nil {
		return nil, err
	}

	idx, err := columnIndex(header, ColYear, ColCountry)
	if err != nil {
		return nil, err
	}

	raw := make([]contracts.RawRecord, 0, len(rows))
	for i, row := range rows {
		line := i + 2

		year, err := parseYear(field(row, idx, ColYear))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		country := strings.TrimSpace(field(row, idx, ColCountry))
		if country == "" {
			return nil, fmt.Errorf("line %d: empty country", line)
		}

		rec := contracts.RawRecord{Year: year, Country: country}
		targets := []struct {
			col string
			dst **float64
		}{
			{ColBondTR, &rec.BondTR},
			{ColBondRate, &rec.BondRate},
			{ColBillRate, &rec.BillRate},
			{ColXRUSD, &rec.XRUSD},
			{ColEqTR, &rec.EqTR},
		}
		for _, t := range targets {
			v, err := parseOptional(field(row, idx, t.col))
			if err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, t.col, err)
			}
			*t.dst = v
		}

		raw = append(raw, rec)
	}

	return raw, nil
}

// Derive turns raw rows into panel records
// ⭐ SSOT: fx_return / term_premium 파생 로직은 여기서만
//
//   - rows are ordered by (country, year)
//   - xrusd is forward-filled within each country
//   - fx_return = xrusd[t-1] / xrusd[t], missing on a country's first row
//   - term_premium = bond_rate - bill_rate
func Derive(raw []contracts.RawRecord) ([]contracts.PanelRecord, error) {
	rows := make([]contracts.RawRecord, len(raw))
	copy(rows, raw)

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Country != rows[j].Country {
			return rows[i].Country < rows[j].Country
		}
		return rows[i].Year < rows[j].Year
	})

	records := make([]contracts.PanelRecord, 0, len(rows))

	var (
		country string
		filled  *float64 // forward-filled xrusd of the current row
		prev    *float64 // forward-filled xrusd of the previous row
	)
	for i, row := range rows {
		if i == 0 || row.Country != country {
			country = row.Country
			filled = nil
			prev = nil
		} else {
			prev = filled
		}

		if contracts.Present(row.XRUSD) {
			filled = row.XRUSD
		}

		rec := contracts.PanelRecord{
			Year:     row.Year,
			Country:  row.Country,
			BondTR:   row.BondTR,
			BondRate: row.BondRate,
			BillRate: row.BillRate,
			EqTR:     row.EqTR,
		}

		if contracts.Present(prev) && contracts.Present(filled) && *filled != 0 {
			rec.FXReturn = contracts.Float(*prev / *filled)
		}
		if contracts.Present(row.BondRate) && contracts.Present(row.BillRate) {
			rec.TermPremium = contracts.Float(*row.BondRate - *row.BillRate)
		}

		records = append(records, rec)
	}

	if err := CheckUnique(records); err != nil {
		return nil, err
	}

	return records, nil
}
