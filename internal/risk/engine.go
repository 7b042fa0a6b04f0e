package risk

import "github.com/wonny/termpremium/internal/contracts"

// DefaultConfidence is the VaR level reported for every track
const DefaultConfidence = 0.95

// Engine 리스크 엔진 (순수 계산기)
// ⭐ SSOT: 트랙 구성은 상위 레이어(audit)에서 조립, 여기는 계산만
type Engine struct {
	confidence float64
}

// NewEngine creates an engine at the given confidence; values outside (0, 1)
// fall back to DefaultConfidence
func NewEngine(confidence float64) *Engine {
	if confidence <= 0 || confidence >= 1 {
		confidence = DefaultConfidence
	}
	return &Engine{confidence: confidence}
}

// Confidence returns the VaR level in use
func (e *Engine) Confidence() float64 {
	return e.confidence
}

// Track computes the tail-risk statistics of a yearly return track.
// years and returns are parallel and in year order. Returns nil for an empty track.
func (e *Engine) Track(label string, years []int, returns []float64) *contracts.TrackRisk {
	if len(returns) == 0 || len(years) != len(returns) {
		return nil
	}

	v := CalculateVaR(returns, e.confidence)

	worst := 0
	positive := 0
	for i, r := range returns {
		if r < returns[worst] {
			worst = i
		}
		if r > 0 {
			positive++
		}
	}

	return &contracts.TrackRisk{
		Label:        label,
		Confidence:   e.confidence,
		VaR:          v.VaR,
		CVaR:         v.CVaR,
		MaxDrawdown:  MaxDrawdown(returns),
		WorstYear:    years[worst],
		WorstReturn:  returns[worst],
		PositiveRate: float64(positive) / float64(len(returns)),
	}
}
