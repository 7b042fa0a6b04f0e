package contracts

// YearQuality describes the eligible pool of one year
// ⭐ SSOT: Panel quality → CLI/API 전달
type YearQuality struct {
	Year             int      `json:"year"`
	TotalRecords     int      `json:"total_records"`
	EligibleRecords  int      `json:"eligible_records"`
	ReferencePresent bool     `json:"reference_present"`
	Accepted         bool     `json:"accepted"` // would the engine accept this year
	MissingCountries []string `json:"missing_countries,omitempty"`
}

// Coverage returns the eligible share of the year's records
func (q *YearQuality) Coverage() float64 {
	if q.TotalRecords == 0 {
		return 0.0
	}
	return float64(q.EligibleRecords) / float64(q.TotalRecords)
}

// PanelQuality is the per-year quality report of a panel
type PanelQuality struct {
	Params        Params        `json:"params"`
	Years         []YearQuality `json:"years"`
	AcceptedYears int           `json:"accepted_years"`
	Countries     int           `json:"countries"`
}

// CoverageRate returns the average coverage across all years
func (p *PanelQuality) CoverageRate() float64 {
	if len(p.Years) == 0 {
		return 0.0
	}

	total := 0.0
	for i := range p.Years {
		total += p.Years[i].Coverage()
	}

	return total / float64(len(p.Years))
}
