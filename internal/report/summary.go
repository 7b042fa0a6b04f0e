package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/wonny/termpremium/internal/contracts"
)

// WriteSummary prints the human readable mean / std / Sharpe of each track
func WriteSummary(w io.Writer, r *contracts.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Backtest %s\n", r.RunID)
	fmt.Fprintf(&b, "  Period:                %d-%d\n", r.Params.InitYear, r.Params.EndYear)
	fmt.Fprintf(&b, "  Top N:                 %d\n", r.Params.TopN)
	fmt.Fprintf(&b, "  Reference:             %s\n", r.Params.ReferenceCountry)
	fmt.Fprintf(&b, "  Accepted years:        %d\n", len(r.Strategy))
	fmt.Fprintf(&b, "  Skipped years:         %d\n", len(r.Skipped))
	fmt.Fprintf(&b, "  Final strategy index:  %.4f\n", r.FinalIndex())
	fmt.Fprintf(&b, "  Risk-free (mean bill): %.2f%%\n", r.RiskFree*100)

	for _, s := range []*contracts.PerformanceSummary{r.Summary, r.BenchSum} {
		if s == nil {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", s.Label)
		fmt.Fprintf(&b, "  Mean Log Return:       %.2f%%\n", s.MeanLog*100)
		fmt.Fprintf(&b, "  Std Dev (Log Return):  %.2f%%\n", s.StdLog*100)
		fmt.Fprintf(&b, "  Sharpe Ratio:          %.4f\n", s.Sharpe)
	}

	if r.SummaryError != "" {
		fmt.Fprintf(&b, "\nSummary unavailable: %s\n", r.SummaryError)
	}

	for _, tr := range []*contracts.TrackRisk{r.StrategyRisk, r.BenchmarkRisk} {
		if tr == nil {
			continue
		}
		fmt.Fprintf(&b, "\nRisk: %s\n", tr.Label)
		fmt.Fprintf(&b, "  VaR (%.0f%%):             %.2f%%\n", tr.Confidence*100, tr.VaR*100)
		fmt.Fprintf(&b, "  CVaR:                  %.2f%%\n", tr.CVaR*100)
		fmt.Fprintf(&b, "  Max Drawdown:          %.2f%%\n", tr.MaxDrawdown*100)
		fmt.Fprintf(&b, "  Worst Year:            %d (%.2f%%)\n", tr.WorstYear, tr.WorstReturn*100)
		fmt.Fprintf(&b, "  Positive Years:        %.1f%%\n", tr.PositiveRate*100)
	}

	if len(r.Skipped) > 0 {
		b.WriteString("\nSkipped\n")
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "  %d: %s (%d eligible)\n", s.Year, s.Reason, s.Eligible)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
