package contracts

import "math"

// ReferenceCountry is the default benchmark / risk-free country
const ReferenceCountry = "USA"

// PanelRecord is one cleaned country-year observation
// ⭐ SSOT: Panel → Engine/Benchmark 입력 계약
//
// Numeric fields are optional; nil (or NaN) means missing.
type PanelRecord struct {
	Year    int    `json:"year"`
	Country string `json:"country"`

	TermPremium *float64 `json:"term_premium"` // bond_rate - bill_rate
	BondTR      *float64 `json:"bond_tr"`      // local-currency bond total return
	BondRate    *float64 `json:"bond_rate"`
	BillRate    *float64 `json:"bill_rate"`
	FXReturn    *float64 `json:"fx_return"` // lagged / current USD rate, 1.0 for USD
	EqTR        *float64 `json:"eq_tr"`     // carried, unused by selection
}

// Float returns a pointer to v, for building records
func Float(v float64) *float64 {
	return &v
}

// Present reports whether an optional value is set and not NaN
func Present(v *float64) bool {
	return v != nil && !math.IsNaN(*v)
}

// ValueOr returns the value or def when missing
func ValueOr(v *float64, def float64) float64 {
	if !Present(v) {
		return def
	}
	return *v
}

// HasRequired reports whether all fields needed for selection are present
func (r *PanelRecord) HasRequired() bool {
	return Present(r.TermPremium) &&
		Present(r.BondTR) &&
		Present(r.BillRate) &&
		Present(r.FXReturn)
}

// ExcessReturn returns bond_tr - bill_rate (local currency)
func (r *PanelRecord) ExcessReturn() (float64, bool) {
	if !Present(r.BondTR) || !Present(r.BillRate) {
		return 0, false
	}
	return *r.BondTR - *r.BillRate, true
}

// USDExcessReturn returns (bond_tr - bill_rate) * fx_return
func (r *PanelRecord) USDExcessReturn() (float64, bool) {
	excess, ok := r.ExcessReturn()
	if !ok || !Present(r.FXReturn) {
		return 0, false
	}
	return excess * *r.FXReturn, true
}

// RawRecord is one row of the raw country-year dataset before derivation
type RawRecord struct {
	Year     int
	Country  string
	BondTR   *float64
	BondRate *float64
	BillRate *float64
	XRUSD    *float64 // local currency per USD
	EqTR     *float64
}
