package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateVaR(t *testing.T) {
	// 20 observations: -0.10, -0.05 then 18 gains
	returns := []float64{0.02, -0.10, 0.03, -0.05}
	for i := 0; i < 16; i++ {
		returns = append(returns, 0.01)
	}

	v := CalculateVaR(returns, 0.95)
	// floor(0.05*20) = 1 → sorted[1] = -0.05
	assert.InDelta(t, 0.05, v.VaR, 1e-12)
	assert.InDelta(t, 0.075, v.CVaR, 1e-12)
	assert.Equal(t, 0.95, v.Confidence)
}

func TestCalculateVaR_Edges(t *testing.T) {
	assert.Equal(t, VaRResult{Confidence: 0.95}, CalculateVaR(nil, 0.95))

	gains := CalculateVaR([]float64{0.01, 0.02, 0.03}, 0.95)
	assert.Zero(t, gains.VaR, "no loss in the tail")
	assert.Zero(t, gains.CVaR)

	// input is not reordered
	in := []float64{0.03, -0.02, 0.01}
	CalculateVaR(in, 0.5)
	assert.Equal(t, []float64{0.03, -0.02, 0.01}, in)
}

func TestCalculateCVaR(t *testing.T) {
	assert.Zero(t, CalculateCVaR(nil, 0))
	assert.Zero(t, CalculateCVaR([]float64{-0.1}, -1))
	assert.InDelta(t, 0.1, CalculateCVaR([]float64{-0.1}, 5), 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{"empty", nil, 0},
		{"only gains", []float64{0.1, 0.2}, 0},
		{"single fall", []float64{0.1, -0.5, 0.2}, 0.5},
		// 1.0 → 0.9 → 0.81 → 0.891 → 0.4455
		{"recovery then deeper", []float64{-0.1, -0.1, 0.1, -0.5}, 1 - 0.4455},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MaxDrawdown(tt.returns), 1e-12)
		})
	}
}

func TestEngine_Track(t *testing.T) {
	e := NewEngine(0)
	assert.Equal(t, DefaultConfidence, e.Confidence())

	tr := e.Track("strategy", []int{1950, 1951, 1952, 1953}, []float64{0.05, -0.08, 0.0, 0.02})
	require.NotNil(t, tr)
	assert.Equal(t, "strategy", tr.Label)
	assert.Equal(t, 1951, tr.WorstYear)
	assert.InDelta(t, -0.08, tr.WorstReturn, 1e-12)
	assert.InDelta(t, 0.5, tr.PositiveRate, 1e-12)
	assert.InDelta(t, 0.08, tr.VaR, 1e-12)
	assert.InDelta(t, 0.08, tr.MaxDrawdown, 1e-12)

	assert.Nil(t, e.Track("empty", nil, nil))
	assert.Nil(t, e.Track("mismatch", []int{1}, []float64{0.1, 0.2}))
}
