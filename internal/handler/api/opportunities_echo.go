package api

import (
	"encoding/json"
	"fmt"
	"time"

	"OppRadar/internal/domain/models"
	icache "OppRadar/internal/service/cache"
	imetrics "OppRadar/internal/service/metrics"
	"OppRadar/internal/service/ratelimit"
	"OppRadar/internal/usecase"
	xhttp "OppRadar/pkg/http"
	applogger "OppRadar/pkg/logger"

	"github.com/labstack/echo/v4"
)

// OpportunitiesHandler exposes the consumer-facing query surface over Echo.
type OpportunitiesHandler struct {
	logger  *applogger.Logger
	queries *usecase.QueryService
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
	health  func() map[string]string
}

func NewOpportunitiesHandler(logger *applogger.Logger, queries *usecase.QueryService) *OpportunitiesHandler {
	imetrics.Register()
	return &OpportunitiesHandler{logger: logger, queries: queries, rl: ratelimit.New()}
}

// SetCache enables short-TTL response caching on the list endpoints.
func (h *OpportunitiesHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetHealthCheck injects the infrastructure health probe.
func (h *OpportunitiesHandler) SetHealthCheck(fn func() map[string]string) { h.health = fn }

func (h *OpportunitiesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/opportunities", h.Recent)
	g.GET("/opportunities/stats", h.Stats)
	g.GET("/opportunities/:symbol", h.BySymbol)
	g.GET("/symbols", h.Symbols)
	g.POST("/analyze/:symbol", h.Analyze)
	g.GET("/health", h.Health)
	g.GET("/errors", h.Errors)
}

func (h *OpportunitiesHandler) Recent(c echo.Context) error {
	start := time.Now()
	defer func() {
		imetrics.APILatency.WithLabelValues("opportunities").Observe(time.Since(start).Seconds())
	}()

	req := &models.RecentOpportunitiesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":opportunities", 10, 5) {
		return xhttp.TooManyRequestsResponse(c)
	}

	key := fmt.Sprintf("opps:%d:%v:%s:%v:%s", req.Limit, req.MinScore, req.Signal, req.MinConfidence, req.Since)
	if b, ok := h.cached(key); ok {
		return c.JSONBlob(200, b)
	}

	opps, err := h.queries.Recent(c.Request().Context(), *req)
	if err != nil {
		imetrics.APIErrors.WithLabelValues("opportunities").Inc()
		h.logger.Error("recent opportunities error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.store(key, opps, 10*time.Second)
	return xhttp.SuccessResponse(c, opps)
}

func (h *OpportunitiesHandler) BySymbol(c echo.Context) error {
	req := &models.SymbolOpportunitiesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	opps, err := h.queries.BySymbol(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		imetrics.APIErrors.WithLabelValues("opportunities_symbol").Inc()
		h.logger.Error("symbol opportunities error",
			applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, opps)
}

func (h *OpportunitiesHandler) Stats(c echo.Context) error {
	if b, ok := h.cached("opps:stats"); ok {
		return c.JSONBlob(200, b)
	}
	st, err := h.queries.Stats(c.Request().Context())
	if err != nil {
		imetrics.APIErrors.WithLabelValues("stats").Inc()
		h.logger.Error("stats error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.store("opps:stats", st, 15*time.Second)
	return xhttp.SuccessResponse(c, st)
}

func (h *OpportunitiesHandler) Symbols(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.queries.MonitoredSymbols())
}

// Analyze triggers an out-of-band analysis cycle. The data-sufficiency and
// volume gates still apply, so a young or thin symbol returns no
// opportunity.
func (h *OpportunitiesHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":analyze", 3, 1) {
		return xhttp.TooManyRequestsResponse(c)
	}

	opp, err := h.queries.Analyze(c.Request().Context(), req.Symbol)
	if err != nil {
		imetrics.APIErrors.WithLabelValues("analyze").Inc()
		h.logger.Error("manual analysis error",
			applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if opp == nil {
		return xhttp.SuccessResponse(c, map[string]string{
			"symbol": req.Symbol,
			"result": "no opportunity",
		})
	}
	return xhttp.SuccessResponse(c, opp)
}

func (h *OpportunitiesHandler) Health(c echo.Context) error {
	if h.health == nil {
		return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
	}
	return xhttp.SuccessResponse(c, h.health())
}

// Errors serves the recent aggregated error-log entries for diagnostics.
func (h *OpportunitiesHandler) Errors(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.logger.RecentErrors())
}

func (h *OpportunitiesHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("cache get error", applogger.Error(err))
		return nil, false
	}
	return b, ok
}

func (h *OpportunitiesHandler) store(key string, v interface{}, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(xhttp.APIResponse{Status: 200, Message: "OK", Data: v})
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, ttl); err != nil {
		h.logger.Warn("cache set error", applogger.Error(err))
	}
}
