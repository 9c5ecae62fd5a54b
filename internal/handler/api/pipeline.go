package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"SigForge/internal/domain/models"
	domrepo "SigForge/internal/domain/repository"
	"SigForge/internal/service/metrics"
	"SigForge/internal/service/ratelimit"
	"SigForge/internal/usecase"
	pkgcache "SigForge/pkg/cache"
	xhttp "SigForge/pkg/http"
	applogger "SigForge/pkg/logger"
	"SigForge/pkg/util"

	"github.com/labstack/echo/v4"
)

// Table responses change only when a pipeline run overwrites the table, and
// runs invalidate their scope, so a short TTL is just a safety net.
const tableCacheTTL = 30 * time.Second

// PipelineHandler serves the pipeline HTTP API: generate endpoints run the
// pipelines synchronously, read endpoints serve persisted tables.
type PipelineHandler struct {
	features *usecase.FeaturePipeline
	signals  *usecase.SignalPipeline
	queries  *usecase.TableQueries
	cache    pkgcache.Service
	rl       *ratelimit.Limiter
	l        *applogger.Logger
}

func NewPipelineHandler(features *usecase.FeaturePipeline, signals *usecase.SignalPipeline, queries *usecase.TableQueries) *PipelineHandler {
	metrics.Register()
	return &PipelineHandler{features: features, signals: signals, queries: queries, rl: ratelimit.New()}
}

func (h *PipelineHandler) SetCache(c pkgcache.Service) { h.cache = c }

// SetLogger injects a structured logger.
func (h *PipelineHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *PipelineHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/features/generate", h.GenerateFeatures)
	g.GET("/features/:symbol/:date", h.Features)
	g.POST("/signals/generate", h.GenerateSignals)
	g.GET("/signals/:symbol/:date", h.Signals)
	g.GET("/signals/:symbol/:date/summary", h.SignalSummary)
}

func (h *PipelineHandler) GenerateFeatures(c echo.Context) error {
	start := time.Now()
	endpoint := "features_generate"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.GenerateFeaturesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":generate", 5, 2) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", http.StatusTooManyRequests))
	}

	res, err := h.features.Generate(c.Request().Context(), req.Symbol, req.Date)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no market data for %s", req.Symbol))
		}
		h.logError("features generate error", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PipelineHandler) GenerateSignals(c echo.Context) error {
	start := time.Now()
	endpoint := "signals_generate"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.GenerateSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":generate", 5, 2) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", http.StatusTooManyRequests))
	}

	res, err := h.signals.Generate(c.Request().Context(), req.Symbol, req.Date)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no features for %s %s, generate them first", req.Symbol, req.Date))
		}
		h.logError("signals generate error", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PipelineHandler) Features(c echo.Context) error {
	start := time.Now()
	endpoint := "features_read"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.TableRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Symbol = util.NormalizeSymbol(req.Symbol)

	key := pkgcache.GenerateKeyWithParams(usecase.FeatureCacheScope(req.Symbol, req.Date), req.Limit)
	if done, err := h.respondFromCache(c, endpoint, key); done {
		return err
	}

	rows, err := h.queries.Features(c.Request().Context(), req.Symbol, req.Date, req.Limit)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no features for %s %s", req.Symbol, req.Date))
		}
		h.logError("features read error", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return h.respondAndCache(c, key, rows)
}

func (h *PipelineHandler) Signals(c echo.Context) error {
	start := time.Now()
	endpoint := "signals_read"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.TableRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Symbol = util.NormalizeSymbol(req.Symbol)

	key := pkgcache.GenerateKeyWithParams(usecase.SignalCacheScope(req.Symbol, req.Date), req.Limit)
	if done, err := h.respondFromCache(c, endpoint, key); done {
		return err
	}

	rows, err := h.queries.Signals(c.Request().Context(), req.Symbol, req.Date, req.Limit)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no signals for %s %s", req.Symbol, req.Date))
		}
		h.logError("signals read error", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return h.respondAndCache(c, key, rows)
}

func (h *PipelineHandler) SignalSummary(c echo.Context) error {
	start := time.Now()
	endpoint := "signals_summary"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.TableRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Symbol = util.NormalizeSymbol(req.Symbol)

	key := pkgcache.GenerateKeyWithParams(usecase.SignalCacheScope(req.Symbol, req.Date), "summary")
	if done, err := h.respondFromCache(c, endpoint, key); done {
		return err
	}

	summary, err := h.queries.SignalSummary(c.Request().Context(), req.Symbol, req.Date)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no signals for %s %s", req.Symbol, req.Date))
		}
		h.logError("signal summary error", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return h.respondAndCache(c, key, summary)
}

// respondFromCache serves a previously marshaled response body. Cache
// problems degrade to a normal read, they are never surfaced to the client.
func (h *PipelineHandler) respondFromCache(c echo.Context, endpoint, key string) (bool, error) {
	if h.cache == nil {
		return false, nil
	}
	var b []byte
	if err := h.cache.Get(c.Request().Context(), key, &b); err != nil {
		if !errors.Is(err, pkgcache.ErrCacheMiss) && h.l != nil {
			h.l.Warn("cache get failed", applogger.String("key", key), applogger.Error(err))
		}
		return false, nil
	}
	metrics.APICacheHits.WithLabelValues(endpoint).Inc()
	if h.l != nil {
		h.l.Debug("cache hit", applogger.String("key", key))
	}
	return true, c.JSONBlob(http.StatusOK, b)
}

// respondAndCache marshals the standard envelope once and stores the exact
// bytes it sends, so cached responses are byte-identical to fresh ones and
// non-finite cells keep their null encoding.
func (h *PipelineHandler) respondAndCache(c echo.Context, key string, data interface{}) error {
	b, err := json.Marshal(xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    data,
	})
	if err != nil {
		h.logError("response marshal error", err)
		return xhttp.InternalServerErrorResponse(c)
	}
	if h.cache != nil {
		if err := h.cache.Set(c.Request().Context(), key, b, tableCacheTTL); err != nil && h.l != nil {
			h.l.Warn("cache set failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, b)
}

func (h *PipelineHandler) logError(msg string, err error) {
	if h.l != nil {
		h.l.Error(msg, applogger.Error(err))
	}
}
