package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/termpremium/internal/audit"
	"github.com/wonny/termpremium/internal/backtest"
	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/panel"
	"github.com/wonny/termpremium/internal/report"
	"github.com/wonny/termpremium/pkg/logger"
	"github.com/wonny/termpremium/pkg/metrics"
	"github.com/wonny/termpremium/pkg/redis"
)

// RunStore persists and lists backtest runs
type RunStore interface {
	SaveRun(ctx context.Context, report *contracts.Report) error
	GetRun(ctx context.Context, runID string) (*contracts.Report, error)
	ListRuns(ctx context.Context, limit int) ([]audit.RunSummary, error)
}

// BacktestHandler handles backtest API endpoints
// ⭐ SSOT: 백테스트 API 핸들러는 이 구조체에서만
type BacktestHandler struct {
	source   contracts.PanelSource
	runner   *backtest.Runner
	runs     RunStore // nil when no database is configured
	cache    *redis.Cache
	limiter  *redis.RateLimiter
	cacheTTL time.Duration
	defaults contracts.Params
	metrics  *metrics.Registry
	logger   *logger.Logger
}

// BacktestDeps groups the collaborators of BacktestHandler
type BacktestDeps struct {
	Source   contracts.PanelSource
	Runner   *backtest.Runner
	Runs     RunStore
	Redis    *redis.Client
	Defaults contracts.Params
	Metrics  *metrics.Registry
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(deps BacktestDeps, log *logger.Logger) *BacktestHandler {
	rc := deps.Redis
	if rc == nil {
		rc = redis.Disabled()
	}
	ttl := rc.TTL()
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}

	return &BacktestHandler{
		source:   deps.Source,
		runner:   deps.Runner,
		runs:     deps.Runs,
		cache:    redis.NewCache(rc, "termpremium"),
		limiter:  redis.NewRateLimiter(rc, "termpremium"),
		cacheTTL: ttl,
		defaults: deps.Defaults,
		metrics:  deps.Metrics,
		logger:   log,
	}
}

// RunResponse wraps a report with cache metadata.
// Error is set (with status 422) when a summary is undefined.
type RunResponse struct {
	Cached bool              `json:"cached"`
	Report *contracts.Report `json:"report"`
	Error  string            `json:"error,omitempty"`
}

// Run executes a backtest with the request parameters.
// Parameters come from the query string and the JSON body; a field set in
// both takes the body value.
// POST /api/backtest/run[?format=csv][&init_year=&end_year=&top_n=&reference=&benchmark_missing=]
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	allowed, remaining, err := h.limiter.Allow(ctx, redis.BacktestRunLimit.ForClient(clientKey(r)))
	if err != nil {
		// 리밋 저장소 장애 시 요청은 통과
		h.logger.WithError(err).Warn("Rate limiter unavailable")
	} else if !allowed {
		respondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	} else {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	}

	// Parse request (no query and empty body keep all defaults)
	query, err := paramsFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body ParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	params := query.Override(body).Apply(h.defaults)
	if err := params.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, cached, err := h.run(ctx, params)
	if err != nil && rep != nil && r.URL.Query().Get("format") != "csv" {
		// 요약 계산 불가: 트랙은 유효하므로 리포트와 함께 422
		respondJSON(w, http.StatusUnprocessableEntity, RunResponse{Report: rep, Error: err.Error()})
		return
	}
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).Error("Backtest run failed")
			respondError(w, status, "Backtest run failed")
			return
		}
		respondError(w, status, err.Error())
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename="+report.DefaultFileName)
		if err := report.WriteCSV(w, rep.Combined, rep.Params.TopN); err != nil {
			h.logger.WithError(err).Error("Failed to write report CSV")
		}
		return
	}

	respondJSON(w, http.StatusOK, RunResponse{Cached: cached, Report: rep})
}

// run loads the panel and returns a cached or fresh report. A fresh report
// with an undefined summary comes back together with its ComputationError.
func (h *BacktestHandler) run(ctx context.Context, params contracts.Params) (*contracts.Report, bool, error) {
	records, err := h.source.Load(ctx)
	if err != nil {
		return nil, false, err
	}

	key := redis.ReportKey(panel.Fingerprint(records),
		params.InitYear, params.EndYear, params.TopN, params.ReferenceCountry, string(params.BenchmarkPolicy()))

	var cachedReport contracts.Report
	hit, err := h.cache.Get(ctx, key, &cachedReport)
	if err != nil {
		h.logger.WithError(err).Warn("Report cache read failed")
	}
	h.metrics.ObserveCache(hit)
	if hit {
		return &cachedReport, true, nil
	}

	rep, runErr := h.runner.RunRecords(ctx, params, records, backtest.Options{Trigger: backtest.TriggerAPI})
	if rep == nil {
		return nil, false, runErr
	}

	// reports without a summary are saved but never cached
	if runErr == nil {
		if err := h.cache.Set(ctx, key, rep, h.cacheTTL); err != nil {
			h.logger.WithError(err).Warn("Report cache write failed")
		}
	}

	if h.runs != nil {
		if err := h.runs.SaveRun(ctx, rep); err != nil {
			h.logger.WithError(err).WithField("run_id", rep.RunID).Warn("Failed to save backtest run")
		}
	}

	return rep, false, runErr
}

// ListRuns returns the most recent saved runs
// GET /api/backtest/runs?limit=20
func (h *BacktestHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "Run storage is not configured")
		return
	}

	limit := 20
	if v, err := queryInt(r, "limit"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	} else if v != nil {
		limit = *v
	}
	if limit <= 0 || limit > 100 {
		respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list backtest runs")
		respondError(w, http.StatusInternalServerError, "Failed to list backtest runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun returns one saved run
// GET /api/backtest/runs/{id}
func (h *BacktestHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "Run storage is not configured")
		return
	}

	runID := mux.Vars(r)["id"]
	rep, err := h.runs.GetRun(r.Context(), runID)
	if errors.Is(err, audit.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Backtest run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get backtest run")
		respondError(w, http.StatusInternalServerError, "Failed to get backtest run")
		return
	}

	respondJSON(w, http.StatusOK, rep)
}
