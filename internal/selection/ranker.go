package selection

import (
	"sort"

	"github.com/wonny/termpremium/internal/contracts"
)

// Ranker orders a pool by term premium
// ⭐ SSOT: 랭킹 로직은 여기서만
type Ranker struct{}

// NewRanker creates a new ranker
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank returns a sorted copy: term_premium descending, ties by input position
func (r *Ranker) Rank(pool []contracts.Candidate) []contracts.Candidate {
	ranked := make([]contracts.Candidate, len(pool))
	copy(ranked, pool)

	sort.SliceStable(ranked, func(i, j int) bool {
		a := contracts.ValueOr(ranked[i].Record.TermPremium, 0)
		b := contracts.ValueOr(ranked[j].Record.TermPremium, 0)
		if a != b {
			return a > b
		}
		return ranked[i].Index < ranked[j].Index
	})

	return ranked
}

// Top returns the first n ranked candidates (all of them when fewer)
func Top(ranked []contracts.Candidate, n int) []contracts.Candidate {
	if n <= 0 {
		return nil
	}
	if len(ranked) < n {
		n = len(ranked)
	}
	return ranked[:n]
}

// Countries returns the country codes in candidate order
func Countries(candidates []contracts.Candidate) []string {
	codes := make([]string, len(candidates))
	for i, c := range candidates {
		codes[i] = c.Record.Country
	}
	return codes
}
