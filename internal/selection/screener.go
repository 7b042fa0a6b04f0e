package selection

import (
	"sort"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/pkg/logger"
)

// Screener builds eligible pools
// ⭐ SSOT: 적격 국가 필터링은 여기서만
type Screener struct {
	params contracts.Params
	logger *logger.Logger
}

// YearPool is the eligible pool of one year, in input order
type YearPool struct {
	Year int
	Pool []contracts.Candidate
}

// NewScreener creates a new screener
func NewScreener(params contracts.Params, logger *logger.Logger) *Screener {
	return &Screener{
		params: params,
		logger: logger,
	}
}

// Screen keeps records inside [init_year, end_year] with every field needed for selection.
// Candidate.Index is the record's position in the input slice.
func (s *Screener) Screen(records []contracts.PanelRecord) []contracts.Candidate {
	passed := make([]contracts.Candidate, 0, len(records))
	filtered := make(map[string]int) // reason -> count

	for i := range records {
		rec := records[i]
		switch {
		case !s.params.InRange(rec.Year):
			filtered["out_of_range"]++
		case !rec.HasRequired():
			filtered["missing_field"]++
		default:
			passed = append(passed, contracts.Candidate{Index: i, Record: rec})
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input": len(records),
		"passed":      len(passed),
		"filters":     filtered,
	}).Debug("Screening completed")

	return passed
}

// GroupByYear splits candidates into ascending-year pools, keeping input order inside each pool
func GroupByYear(candidates []contracts.Candidate) []YearPool {
	byYear := make(map[int][]contracts.Candidate)
	for _, c := range candidates {
		byYear[c.Record.Year] = append(byYear[c.Record.Year], c)
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	pools := make([]YearPool, 0, len(years))
	for _, year := range years {
		pool := byYear[year]
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Index < pool[j].Index
		})
		pools = append(pools, YearPool{Year: year, Pool: pool})
	}
	return pools
}

// CheckPool returns a DataGapError when the year cannot be traded:
// the reference country is missing or fewer than top_n countries are eligible.
func CheckPool(year int, pool []contracts.Candidate, params contracts.Params) *contracts.DataGapError {
	if ref, ok := FindCountry(pool, params.ReferenceCountry); !ok || !contracts.Present(ref.Record.BillRate) {
		return &contracts.DataGapError{Year: year, Reason: contracts.GapMissingReference}
	}
	if len(pool) < params.TopN {
		return &contracts.DataGapError{Year: year, Reason: contracts.GapTooFewCountries}
	}
	return nil
}

// FindCountry returns the first candidate of the given country
func FindCountry(pool []contracts.Candidate, country string) (contracts.Candidate, bool) {
	for _, c := range pool {
		if c.Record.Country == country {
			return c, true
		}
	}
	return contracts.Candidate{}, false
}
