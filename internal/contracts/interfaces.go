package contracts

import "context"

// PanelSource provides cleaned panel records (file, database, ...)
// ⭐ SSOT: 패널 입력 인터페이스
type PanelSource interface {
	Load(ctx context.Context) ([]PanelRecord, error)
}

// Screener keeps the records that may enter a yearly eligible pool
type Screener interface {
	Screen(records []PanelRecord) []Candidate
}

// Ranker orders an eligible pool by signal
type Ranker interface {
	Rank(pool []Candidate) []Candidate
}

// Allocator turns the selected candidates into a portfolio excess return
type Allocator interface {
	Allocate(selected []Candidate) (Allocation, error)
}

// Candidate is one eligible country-year together with its input position.
// Index is the insertion order used to break ranking ties.
type Candidate struct {
	Index  int
	Record PanelRecord
}

// Allocation is the equal-weight blend of the selected positions
type Allocation struct {
	Weights         map[string]float64 `json:"weights"`
	PositionReturns []float64          `json:"position_returns"` // rank order
	ExcessReturn    float64            `json:"excess_return"`
}
