package quality

import (
	"sort"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/selection"
	"github.com/wonny/termpremium/pkg/logger"
)

// Gate reports, per year, whether the strategy engine can trade it
type Gate struct {
	params contracts.Params
	logger *logger.Logger
}

// NewGate creates a new quality gate
func NewGate(params contracts.Params, logger *logger.Logger) *Gate {
	return &Gate{
		params: params,
		logger: logger,
	}
}

// Check builds the per-year quality report of records inside [init_year, end_year]
// ⭐ SSOT: Panel → Engine 품질 검증
func (g *Gate) Check(records []contracts.PanelRecord) *contracts.PanelQuality {
	report := &contracts.PanelQuality{
		Params: g.params,
		Years:  make([]contracts.YearQuality, 0),
	}

	// 1. 연도별 전체 레코드
	totals := make(map[int][]contracts.PanelRecord)
	countries := make(map[string]struct{})
	for i := range records {
		rec := records[i]
		if !g.params.InRange(rec.Year) {
			continue
		}
		totals[rec.Year] = append(totals[rec.Year], rec)
		countries[rec.Country] = struct{}{}
	}
	report.Countries = len(countries)

	// 2. 적격 풀 (엔진과 동일한 스크리닝)
	eligible := make(map[int][]contracts.Candidate)
	for _, yp := range selection.GroupByYear(selection.NewScreener(g.params, g.logger).Screen(records)) {
		eligible[yp.Year] = yp.Pool
	}

	years := make([]int, 0, len(totals))
	for year := range totals {
		years = append(years, year)
	}
	sort.Ints(years)

	// 3. 연도별 판정
	for _, year := range years {
		pool := eligible[year]
		_, refOK := selection.FindCountry(pool, g.params.ReferenceCountry)

		q := contracts.YearQuality{
			Year:             year,
			TotalRecords:     len(totals[year]),
			EligibleRecords:  len(pool),
			ReferencePresent: refOK,
			Accepted:         g.params.TopN > 0 && selection.CheckPool(year, pool, g.params) == nil,
		}

		inPool := make(map[string]bool, len(pool))
		for _, c := range pool {
			inPool[c.Record.Country] = true
		}
		for _, rec := range totals[year] {
			if !inPool[rec.Country] {
				q.MissingCountries = append(q.MissingCountries, rec.Country)
			}
		}
		sort.Strings(q.MissingCountries)

		if q.Accepted {
			report.AcceptedYears++
		}
		report.Years = append(report.Years, q)
	}

	g.logger.WithFields(map[string]interface{}{
		"years":          len(report.Years),
		"accepted_years": report.AcceptedYears,
		"coverage":       report.CoverageRate(),
	}).Info("Panel quality checked")

	return report
}
