package backtest

// IndexAccumulator compounds returns into a running index starting at 1.0.
// Only applied steps move the index; there is no carry-forward for gaps.
type IndexAccumulator struct {
	value float64
	steps int
}

// NewIndexAccumulator creates an accumulator at 1.0
func NewIndexAccumulator() *IndexAccumulator {
	return &IndexAccumulator{value: 1.0}
}

// Apply compounds one period return and returns the new index
func (a *IndexAccumulator) Apply(r float64) float64 {
	a.value *= 1 + r
	a.steps++
	return a.value
}

// Value returns the current index
func (a *IndexAccumulator) Value() float64 {
	return a.value
}

// Steps returns the number of applied returns
func (a *IndexAccumulator) Steps() int {
	return a.steps
}
