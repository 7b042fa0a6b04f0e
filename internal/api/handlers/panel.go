package handlers

import (
	"net/http"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/internal/panel"
	"github.com/wonny/termpremium/internal/panel/quality"
	"github.com/wonny/termpremium/pkg/logger"
	"github.com/wonny/termpremium/pkg/metrics"
	"github.com/wonny/termpremium/pkg/redis"
)

// PanelHandler handles panel inspection endpoints
type PanelHandler struct {
	source   contracts.PanelSource
	cache    *redis.Cache
	defaults contracts.Params
	metrics  *metrics.Registry
	logger   *logger.Logger
}

// NewPanelHandler creates a new panel handler. rc may be nil.
func NewPanelHandler(source contracts.PanelSource, rc *redis.Client, defaults contracts.Params, reg *metrics.Registry, log *logger.Logger) *PanelHandler {
	if rc == nil {
		rc = redis.Disabled()
	}
	return &PanelHandler{
		source:   source,
		cache:    redis.NewCache(rc, "termpremium"),
		defaults: defaults,
		metrics:  reg,
		logger:   log,
	}
}

// GetQuality returns the per-year coverage report of the panel
// GET /api/panel/quality?init_year=&end_year=&top_n=&reference=
func (h *PanelHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := paramsFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	params := req.Apply(h.defaults)
	if err := params.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.source.Load(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load panel")
		respondError(w, http.StatusInternalServerError, "Failed to load panel")
		return
	}

	key := redis.QualityKey(panel.Fingerprint(records), params.InitYear, params.EndYear, params.TopN, params.ReferenceCountry)

	var cached contracts.PanelQuality
	hit, err := h.cache.Get(ctx, key, &cached)
	if err != nil {
		h.logger.WithError(err).Warn("Quality cache read failed")
	}
	h.metrics.ObserveCache(hit)
	if hit {
		respondJSON(w, http.StatusOK, &cached)
		return
	}

	result := quality.NewGate(params, h.logger).Check(records)
	if err := h.cache.Set(ctx, key, result, redis.TTLShort); err != nil {
		h.logger.WithError(err).Warn("Quality cache write failed")
	}

	respondJSON(w, http.StatusOK, result)
}
