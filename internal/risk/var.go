package risk

import (
	"math"
	"sort"
)

// VaRResult VaR 계산 결과
// ⭐ SSOT: 손실을 양수로 표현 (VaR=0.05 → 5% 손실 가능)
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"` // Expected Shortfall
}

// CalculateVaR 과거 수익률 기반 VaR (Historical Simulation)
// returns: 연간 수익률 (양수=이익, 음수=손실)
// confidence: 신뢰수준 (예: 0.95)
func CalculateVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	// 오름차순: 손실이 앞에
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        lossOf(sorted[idx]),
		CVaR:       CalculateCVaR(sorted, idx),
	}
}

// CalculateCVaR averages the tail sorted[0..varIdx]; sorted must be ascending
func CalculateCVaR(sorted []float64, varIdx int) float64 {
	if len(sorted) == 0 || varIdx < 0 {
		return 0
	}
	if varIdx >= len(sorted) {
		varIdx = len(sorted) - 1
	}

	var sum float64
	for _, r := range sorted[:varIdx+1] {
		sum += r
	}
	return lossOf(sum / float64(varIdx+1))
}

// MaxDrawdown is the largest peak-to-trough fall of the compounded track,
// starting from an index of 1.0
func MaxDrawdown(returns []float64) float64 {
	index, peak, maxDD := 1.0, 1.0, 0.0
	for _, r := range returns {
		index *= 1 + r
		if index > peak {
			peak = index
		}
		if dd := (peak - index) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func lossOf(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}
