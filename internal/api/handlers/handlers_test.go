package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/termpremium/internal/audit"
	"github.com/wonny/termpremium/internal/backtest"
	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/report"
	"github.com/wonny/termpremium/pkg/logger"
	"github.com/wonny/termpremium/pkg/metrics"
)

type memSource struct {
	records []contracts.PanelRecord
	err     error
}

func (m *memSource) Load(ctx context.Context) ([]contracts.PanelRecord, error) {
	return m.records, m.err
}

type memRuns struct {
	saved map[string]*contracts.Report
	order []string
}

func newMemRuns() *memRuns {
	return &memRuns{saved: make(map[string]*contracts.Report)}
}

func (m *memRuns) SaveRun(ctx context.Context, rep *contracts.Report) error {
	m.saved[rep.RunID] = rep
	m.order = append(m.order, rep.RunID)
	return nil
}

func (m *memRuns) GetRun(ctx context.Context, runID string) (*contracts.Report, error) {
	rep, ok := m.saved[runID]
	if !ok {
		return nil, audit.ErrRunNotFound
	}
	return rep, nil
}

func (m *memRuns) ListRuns(ctx context.Context, limit int) ([]audit.RunSummary, error) {
	out := make([]audit.RunSummary, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		rep := m.saved[m.order[i]]
		out = append(out, audit.RunSummary{RunID: rep.RunID, Params: rep.Params, FinalIndex: rep.FinalIndex()})
	}
	return out, nil
}

func rec(year int, country string, tp, bondTR, bill float64) contracts.PanelRecord {
	return contracts.PanelRecord{
		Year:        year,
		Country:     country,
		TermPremium: contracts.Float(tp),
		BondTR:      contracts.Float(bondTR),
		BillRate:    contracts.Float(bill),
		FXReturn:    contracts.Float(1.0),
	}
}

func testPanel() []contracts.PanelRecord {
	return []contracts.PanelRecord{
		rec(1, "AAA", 0.03, 0.12, 0.02),
		rec(1, "USA", 0.01, 0.05, 0.01),
		rec(2, "AAA", 0.03, 0.02, 0.02),
		rec(2, "USA", 0.01, 0.02, 0.02),
		rec(3, "AAA", 0.03, 0.08, 0.02),
		rec(3, "USA", 0.01, 0.03, 0.03),
		rec(4, "USA", 0.01, 0.04, 0.02),
	}
}

func testDefaults() contracts.Params {
	return contracts.Params{InitYear: 1, EndYear: 4, TopN: 2, ReferenceCountry: "USA"}
}

func newTestBacktestHandler(src contracts.PanelSource, runs RunStore, reg *metrics.Registry) *BacktestHandler {
	log := logger.Nop()
	return NewBacktestHandler(BacktestDeps{
		Source:   src,
		Runner:   backtest.NewRunner(src, reg, log),
		Runs:     runs,
		Defaults: testDefaults(),
		Metrics:  reg,
	}, log)
}

func postRun(h *BacktestHandler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Run(rr, req)
	return rr
}

func TestBacktestHandler_Run(t *testing.T) {
	runs := newMemRuns()
	reg := metrics.New()
	h := newTestBacktestHandler(&memSource{records: testPanel()}, runs, reg)

	rr := postRun(h, "/api/backtest/run", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Cached)
	require.NotNil(t, resp.Report)
	assert.Len(t, resp.Report.Strategy, 3)
	assert.Len(t, resp.Report.Skipped, 1)
	assert.Len(t, runs.order, 1)

	// Redis 비활성: 항상 miss
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RunsTotal.WithLabelValues(backtest.TriggerAPI, metrics.StatusSuccess)))
}

func TestBacktestHandler_RunOverrides(t *testing.T) {
	h := newTestBacktestHandler(&memSource{records: testPanel()}, nil, nil)

	rr := postRun(h, "/api/backtest/run", `{"init_year":2,"end_year":3}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Report.Params.InitYear)
	assert.Equal(t, 3, resp.Report.Params.EndYear)
	assert.Len(t, resp.Report.Strategy, 2)
}

func TestBacktestHandler_RunQueryParams(t *testing.T) {
	h := newTestBacktestHandler(&memSource{records: testPanel()}, nil, nil)
	h.defaults.TopN = 1

	rr := postRun(h, "/api/backtest/run?top_n=2&end_year=3&benchmark_missing=exclude", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Report.Params.TopN)
	assert.Equal(t, 3, resp.Report.Params.EndYear)
	assert.Equal(t, 1, resp.Report.Params.InitYear, "unset fields keep the defaults")
	assert.Equal(t, contracts.PolicyExclude, resp.Report.Params.BenchmarkMissing)
	assert.Len(t, resp.Report.Strategy, 3)

	rr = postRun(h, "/api/backtest/run?top_n=abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "top_n")
}

func TestBacktestHandler_RunBodyOverridesQuery(t *testing.T) {
	h := newTestBacktestHandler(&memSource{records: testPanel()}, nil, nil)

	rr := postRun(h, "/api/backtest/run?init_year=1&end_year=2", `{"init_year":2,"end_year":3}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Report.Params.InitYear)
	assert.Equal(t, 3, resp.Report.Params.EndYear)
}

func TestBacktestHandler_RunUndefinedSummary(t *testing.T) {
	runs := newMemRuns()
	reg := metrics.New()
	h := newTestBacktestHandler(&memSource{records: testPanel()}, runs, reg)

	rr := postRun(h, "/api/backtest/run?end_year=1", "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "need at least 2 observations")
	require.NotNil(t, resp.Report)
	assert.Len(t, resp.Report.Combined, 1)
	assert.Nil(t, resp.Report.Summary)
	assert.Len(t, runs.order, 1, "partial report is still saved")
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RunsTotal.WithLabelValues(backtest.TriggerAPI, metrics.StatusPartial)))
}

func TestParamsRequest_Override(t *testing.T) {
	one, two := 1, 2
	usa, gbr := "USA", "GBR"

	base := ParamsRequest{InitYear: &one, TopN: &one, ReferenceCountry: &usa}
	got := base.Override(ParamsRequest{TopN: &two, ReferenceCountry: &gbr})

	assert.Equal(t, 1, *got.InitYear)
	assert.Equal(t, 2, *got.TopN)
	assert.Equal(t, "GBR", *got.ReferenceCountry)
	assert.Nil(t, got.EndYear)
	assert.Nil(t, got.BenchmarkMissing)
}

func TestParamsFromQuery(t *testing.T) {
	req, err := paramsFromQuery(httptest.NewRequest(http.MethodGet,
		"/x?init_year=1950&reference_country=GBR&benchmark_missing=zero_fill", nil))
	require.NoError(t, err)
	assert.Equal(t, 1950, *req.InitYear)
	assert.Equal(t, "GBR", *req.ReferenceCountry)
	assert.Equal(t, "zero_fill", *req.BenchmarkMissing)
	assert.Nil(t, req.TopN)

	req, err = paramsFromQuery(httptest.NewRequest(http.MethodGet, "/x?reference=USA&reference_country=GBR", nil))
	require.NoError(t, err)
	assert.Equal(t, "USA", *req.ReferenceCountry, "reference wins over reference_country")

	_, err = paramsFromQuery(httptest.NewRequest(http.MethodGet, "/x?top_n=abc", nil))
	assert.True(t, contracts.IsConfigurationError(err))
}

func TestBacktestHandler_RunErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    *memSource
		body   string
		status int
	}{
		{"invalid json", &memSource{records: testPanel()}, `{`, http.StatusBadRequest},
		{"top_n zero", &memSource{records: testPanel()}, `{"top_n":0}`, http.StatusBadRequest},
		{"inverted range", &memSource{records: testPanel()}, `{"init_year":5,"end_year":1}`, http.StatusBadRequest},
		{"unknown policy", &memSource{records: testPanel()}, `{"benchmark_missing":"drop"}`, http.StatusBadRequest},
		{"single year summary", &memSource{records: testPanel()}, `{"end_year":1}`, http.StatusUnprocessableEntity},
		{"load failure", &memSource{err: errors.New("disk")}, ``, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestBacktestHandler(tt.src, nil, nil)
			rr := postRun(h, "/api/backtest/run", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Contains(t, rr.Body.String(), `"error"`)
		})
	}
}

func TestBacktestHandler_RunCSV(t *testing.T) {
	h := newTestBacktestHandler(&memSource{records: testPanel()}, nil, nil)

	rr := postRun(h, "/api/backtest/run?format=csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))

	rows, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, report.Header(2), rows[0])
	assert.Equal(t, "1", rows[1][0])
}

func TestBacktestHandler_Runs(t *testing.T) {
	runs := newMemRuns()
	h := newTestBacktestHandler(&memSource{records: testPanel()}, runs, nil)

	require.Equal(t, http.StatusOK, postRun(h, "/api/backtest/run", "").Code)
	require.Equal(t, http.StatusOK, postRun(h, "/api/backtest/run", `{"init_year":2}`).Code)

	t.Run("list", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ListRuns(rr, httptest.NewRequest(http.MethodGet, "/api/backtest/runs?limit=1", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Runs  []audit.RunSummary `json:"runs"`
			Count int                `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, runs.order[1], body.Runs[0].RunID)
	})

	t.Run("bad limit", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ListRuns(rr, httptest.NewRequest(http.MethodGet, "/api/backtest/runs?limit=abc", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = httptest.NewRecorder()
		h.ListRuns(rr, httptest.NewRequest(http.MethodGet, "/api/backtest/runs?limit=500", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("get", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/backtest/runs/x", nil), map[string]string{"id": runs.order[0]})
		rr := httptest.NewRecorder()
		h.GetRun(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var rep contracts.Report
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rep))
		assert.Equal(t, runs.order[0], rep.RunID)
	})

	t.Run("not found", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/backtest/runs/x", nil), map[string]string{"id": "missing"})
		rr := httptest.NewRecorder()
		h.GetRun(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestBacktestHandler_RunsWithoutStore(t *testing.T) {
	h := newTestBacktestHandler(&memSource{records: testPanel()}, nil, nil)

	rr := httptest.NewRecorder()
	h.ListRuns(rr, httptest.NewRequest(http.MethodGet, "/api/backtest/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	h.GetRun(rr, httptest.NewRequest(http.MethodGet, "/api/backtest/runs/x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestPanelHandler_GetQuality(t *testing.T) {
	h := NewPanelHandler(&memSource{records: testPanel()}, nil, testDefaults(), nil, logger.Nop())

	rr := httptest.NewRecorder()
	h.GetQuality(rr, httptest.NewRequest(http.MethodGet, "/api/panel/quality", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var q contracts.PanelQuality
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &q))
	assert.Equal(t, 3, q.AcceptedYears)
	assert.Equal(t, 2, q.Countries)
	require.Len(t, q.Years, 4)
	assert.False(t, q.Years[3].Accepted)
}

func TestPanelHandler_GetQualityQuery(t *testing.T) {
	h := NewPanelHandler(&memSource{records: testPanel()}, nil, testDefaults(), nil, logger.Nop())

	rr := httptest.NewRecorder()
	h.GetQuality(rr, httptest.NewRequest(http.MethodGet, "/api/panel/quality?top_n=1&init_year=4", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var q contracts.PanelQuality
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &q))
	assert.Equal(t, 1, q.AcceptedYears)

	rr = httptest.NewRecorder()
	h.GetQuality(rr, httptest.NewRequest(http.MethodGet, "/api/panel/quality?top_n=x", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientKey(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientKey(req))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&contracts.ConfigurationError{Field: "top_n"}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&contracts.ComputationError{Metric: "sharpe"}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(contracts.ErrJoinKey))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("x")))
}
