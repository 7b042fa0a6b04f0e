package backtest

import (
	"sort"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/pkg/logger"
)

// BenchmarkBuilder builds the buy-and-hold track of the reference country
type BenchmarkBuilder struct {
	params contracts.Params
	logger *logger.Logger
}

// NewBenchmarkBuilder creates a new benchmark builder
func NewBenchmarkBuilder(params contracts.Params, logger *logger.Logger) *BenchmarkBuilder {
	return &BenchmarkBuilder{
		params: params,
		logger: logger,
	}
}

// Build compounds the reference country's bond_tr over every reference year in
// [init_year, end_year], including years the strategy rejects.
// Missing bond_tr is a zero return under zero_fill and drops the year under exclude.
func (b *BenchmarkBuilder) Build(records []contracts.PanelRecord) []contracts.BenchmarkPoint {
	refs := make([]contracts.PanelRecord, 0)
	for i := range records {
		if records[i].Country == b.params.ReferenceCountry && b.params.InRange(records[i].Year) {
			refs = append(refs, records[i])
		}
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Year < refs[j].Year
	})

	policy := b.params.BenchmarkPolicy()
	points := make([]contracts.BenchmarkPoint, 0, len(refs))
	index := NewIndexAccumulator()
	filled := 0

	for _, rec := range refs {
		if !contracts.Present(rec.BondTR) {
			if policy == contracts.PolicyExclude {
				continue
			}
			filled++
		}

		r := contracts.ValueOr(rec.BondTR, 0)
		points = append(points, contracts.BenchmarkPoint{
			Year:            rec.Year,
			BenchmarkReturn: r,
			BenchmarkIndex:  index.Apply(r),
		})
	}

	b.logger.WithFields(map[string]interface{}{
		"country":     b.params.ReferenceCountry,
		"years":       len(points),
		"zero_filled": filled,
		"policy":      string(policy),
	}).Debug("Benchmark built")

	return points
}
