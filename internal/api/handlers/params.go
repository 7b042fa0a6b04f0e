package handlers

import (
	"net/http"

	"github.com/wonny/termpremium/internal/contracts"
)

// ParamsRequest overrides the server default backtest parameters.
// Omitted fields keep the default.
type ParamsRequest struct {
	InitYear         *int    `json:"init_year,omitempty"`
	EndYear          *int    `json:"end_year,omitempty"`
	TopN             *int    `json:"top_n,omitempty"`
	ReferenceCountry *string `json:"reference_country,omitempty"`
	BenchmarkMissing *string `json:"benchmark_missing,omitempty"`
}

// Apply returns base with the request overrides applied
func (p ParamsRequest) Apply(base contracts.Params) contracts.Params {
	if p.InitYear != nil {
		base.InitYear = *p.InitYear
	}
	if p.EndYear != nil {
		base.EndYear = *p.EndYear
	}
	if p.TopN != nil {
		base.TopN = *p.TopN
	}
	if p.ReferenceCountry != nil {
		base.ReferenceCountry = *p.ReferenceCountry
	}
	if p.BenchmarkMissing != nil {
		base.BenchmarkMissing = contracts.MissingPolicy(*p.BenchmarkMissing)
	}
	return base
}

// Override returns p with every field set in o replacing the one in p
func (p ParamsRequest) Override(o ParamsRequest) ParamsRequest {
	if o.InitYear != nil {
		p.InitYear = o.InitYear
	}
	if o.EndYear != nil {
		p.EndYear = o.EndYear
	}
	if o.TopN != nil {
		p.TopN = o.TopN
	}
	if o.ReferenceCountry != nil {
		p.ReferenceCountry = o.ReferenceCountry
	}
	if o.BenchmarkMissing != nil {
		p.BenchmarkMissing = o.BenchmarkMissing
	}
	return p
}

// paramsFromQuery reads init_year, end_year, top_n, reference (or
// reference_country) and benchmark_missing from the query string
func paramsFromQuery(r *http.Request) (ParamsRequest, error) {
	var req ParamsRequest
	var err error

	if req.InitYear, err = queryInt(r, "init_year"); err != nil {
		return req, err
	}
	if req.EndYear, err = queryInt(r, "end_year"); err != nil {
		return req, err
	}
	if req.TopN, err = queryInt(r, "top_n"); err != nil {
		return req, err
	}
	q := r.URL.Query()
	if ref := q.Get("reference"); ref != "" {
		req.ReferenceCountry = &ref
	} else if ref := q.Get("reference_country"); ref != "" {
		req.ReferenceCountry = &ref
	}
	if policy := q.Get("benchmark_missing"); policy != "" {
		req.BenchmarkMissing = &policy
	}
	return req, nil
}
