package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SigForge/internal/domain/models"
	domrepo "SigForge/internal/domain/repository"
	"SigForge/internal/service/quality"
	"SigForge/internal/services/features"
	"SigForge/internal/services/signals"
	"SigForge/internal/usecase"
	pkgcache "SigForge/pkg/cache"
	applogger "SigForge/pkg/logger"
)

// ----------------------------------------------------------------
// Fakes
// ----------------------------------------------------------------

type stubSource struct {
	bars    []models.MarketBar
	barsErr error
}

func (s *stubSource) LoadBars(ctx context.Context, symbol, date string) ([]models.MarketBar, error) {
	if s.barsErr != nil {
		return nil, s.barsErr
	}
	return s.bars, nil
}

func (s *stubSource) LoadEvents(ctx context.Context, symbol, date string) ([]models.AltEvent, error) {
	return nil, nil
}

type stubFeatureStore struct {
	tables map[string][]models.FeatureRow
}

func (s *stubFeatureStore) Save(ctx context.Context, symbol, date string, rows []models.FeatureRow) error {
	s.tables[symbol+":"+date] = rows
	return nil
}

func (s *stubFeatureStore) Load(ctx context.Context, symbol, date string) ([]models.FeatureRow, error) {
	rows, ok := s.tables[symbol+":"+date]
	if !ok {
		return nil, fmt.Errorf("features %s %s: %w", symbol, date, domrepo.ErrNotFound)
	}
	return rows, nil
}

type stubSignalStore struct {
	tables map[string][]models.SignalRow
}

func (s *stubSignalStore) Save(ctx context.Context, symbol, date string, rows []models.SignalRow) error {
	s.tables[symbol+":"+date] = rows
	return nil
}

func (s *stubSignalStore) Load(ctx context.Context, symbol, date string) ([]models.SignalRow, error) {
	rows, ok := s.tables[symbol+":"+date]
	if !ok {
		return nil, fmt.Errorf("signals %s %s: %w", symbol, date, domrepo.ErrNotFound)
	}
	return rows, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(stage, symbol, result string)        {}
func (nopMetrics) RecordRows(stage, symbol string, rows int)     {}
func (nopMetrics) RecordDuration(op string, seconds float64)     {}
func (nopMetrics) RecordQualityIssue(stage, kind string, c int)  {}
func (nopMetrics) RecordAction(symbol, action string)            {}
func (nopMetrics) RecordCombinedSignal(symbol string, v float64) {}
func (nopMetrics) RecordError(kind string)                       {}

// ----------------------------------------------------------------
// Harness
// ----------------------------------------------------------------

type handlerEnv struct {
	source       *stubSource
	featureStore *stubFeatureStore
	signalStore  *stubSignalStore
	handler      *PipelineHandler
	router       *echo.Echo
}

func newHandlerEnv(source *stubSource) *handlerEnv {
	env := &handlerEnv{
		source:       source,
		featureStore: &stubFeatureStore{tables: make(map[string][]models.FeatureRow)},
		signalStore:  &stubSignalStore{tables: make(map[string][]models.SignalRow)},
	}
	nop := applogger.Nop()
	m := nopMetrics{}
	scanner := quality.NewScanner(nop, m, nil)

	fp := usecase.NewFeaturePipeline(
		source, env.featureStore,
		features.NewEngine(features.DefaultParams(), nil),
		scanner, nil, m, nop,
	)
	sp := usecase.NewSignalPipeline(
		env.featureStore, env.signalStore,
		signals.NewEngine(signals.DefaultParams(), nil),
		scanner, nil, usecase.NewRunEventPublisher(nil, "", nil), m, nop,
	)
	queries := usecase.NewTableQueries(env.featureStore, env.signalStore)

	env.handler = NewPipelineHandler(fp, sp, queries)
	env.handler.SetLogger(nop)
	env.router = echo.New()
	env.handler.RegisterRoutes(env.router)
	return env
}

func (env *handlerEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, "the envelope always travels on HTTP 200")
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type errorItem struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func decodeErrors(t *testing.T, env envelope) []errorItem {
	t.Helper()
	var items []errorItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.NotEmpty(t, items)
	return items
}

func seedBars(symbol string, start time.Time, closes ...float64) []models.MarketBar {
	bars := make([]models.MarketBar, len(closes))
	for i, c := range closes {
		bars[i] = models.MarketBar{
			Timestamp: start.AddDate(0, 0, i),
			Symbol:    symbol,
			Open:      c - 1,
			High:      c + 2,
			Low:       c - 2,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

// ----------------------------------------------------------------
// Generate endpoints
// ----------------------------------------------------------------

func TestGenerateFeaturesEndpoint(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env := newHandlerEnv(&stubSource{bars: seedBars("AAPL", start, 100, 101, 102)})

	rec := env.do(http.MethodPost, "/api/v1/features/generate", `{"symbol":"aapl"}`)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, resp.Status)

	var res struct {
		Symbol string `json:"symbol"`
		Date   string `json:"date"`
		Rows   int    `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &res))
	assert.Equal(t, "AAPL", res.Symbol)
	assert.Equal(t, "2024-01-01", res.Date)
	assert.Equal(t, 3, res.Rows)

	_, ok := env.featureStore.tables["AAPL:2024-01-01"]
	assert.True(t, ok, "the run persisted its table")
}

func TestGenerateFeaturesValidation(t *testing.T) {
	env := newHandlerEnv(&stubSource{})

	rec := env.do(http.MethodPost, "/api/v1/features/generate", `{}`)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	items := decodeErrors(t, resp)
	assert.Equal(t, "ERR_REQUIRED", items[0].Code)
	assert.Equal(t, "Symbol", items[0].Field)
}

func TestGenerateFeaturesNoData(t *testing.T) {
	env := newHandlerEnv(&stubSource{
		barsErr: fmt.Errorf("bars AAPL: %w", domrepo.ErrNotFound),
	})

	rec := env.do(http.MethodPost, "/api/v1/features/generate", `{"symbol":"AAPL"}`)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	items := decodeErrors(t, resp)
	assert.Equal(t, "ERR_NOT_FOUND", items[0].Code)
	assert.Contains(t, items[0].Message, "no market data")
}

func TestGenerateSignalsEndpoint(t *testing.T) {
	env := newHandlerEnv(&stubSource{})
	env.featureStore.tables["AAPL:2024-01-01"] = []models.FeatureRow{
		{RSI14: 100, SentimentMean: 1},
		{RSI14: 50},
	}

	rec := env.do(http.MethodPost, "/api/v1/signals/generate", `{"symbol":"AAPL","date":"2024-01-01"}`)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, resp.Status)

	var res struct {
		Rows    int                 `json:"rows"`
		Actions models.ActionCounts `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &res))
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, models.ActionCounts{Buy: 1, Hold: 1}, res.Actions)
}

func TestGenerateSignalsRequiresDate(t *testing.T) {
	env := newHandlerEnv(&stubSource{})

	rec := env.do(http.MethodPost, "/api/v1/signals/generate", `{"symbol":"AAPL"}`)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	items := decodeErrors(t, resp)
	assert.Equal(t, "ERR_REQUIRED", items[0].Code)
	assert.Equal(t, "Date", items[0].Field)
}

func TestGenerateSignalsMissingFeatures(t *testing.T) {
	env := newHandlerEnv(&stubSource{})

	rec := env.do(http.MethodPost, "/api/v1/signals/generate", `{"symbol":"AAPL","date":"2024-01-01"}`)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	items := decodeErrors(t, resp)
	assert.Contains(t, items[0].Message, "generate them first")
}

// ----------------------------------------------------------------
// Read endpoints
// ----------------------------------------------------------------

func TestFeaturesReadEndpoint(t *testing.T) {
	env := newHandlerEnv(&stubSource{})
	rows := make([]models.FeatureRow, 5)
	for i := range rows {
		rows[i].Symbol = "AAPL"
		rows[i].Close = float64(100 + i)
	}
	env.featureStore.tables["AAPL:2024-01-01"] = rows

	rec := env.do(http.MethodGet, "/api/v1/features/AAPL/2024-01-01?limit=2", "")

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, resp.Status)

	var got []json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Len(t, got, 2)
}

func TestFeaturesReadNotFound(t *testing.T) {
	env := newHandlerEnv(&stubSource{})

	rec := env.do(http.MethodGet, "/api/v1/features/AAPL/2024-01-01", "")

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	items := decodeErrors(t, resp)
	assert.Equal(t, "ERR_NOT_FOUND", items[0].Code)
}

func TestSignalSummaryEndpoint(t *testing.T) {
	env := newHandlerEnv(&stubSource{})
	env.signalStore.tables["AAPL:2024-01-01"] = []models.SignalRow{
		{CombinedSignal: 0.8, Action: models.ActionBuy},
		{CombinedSignal: -0.2, Action: models.ActionHold},
	}

	rec := env.do(http.MethodGet, "/api/v1/signals/AAPL/2024-01-01/summary", "")

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, resp.Status)

	var s struct {
		Rows       int           `json:"rows"`
		LastAction models.Action `json:"last_action"`
		Mean       *float64      `json:"mean_combined_signal"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &s))
	assert.Equal(t, 2, s.Rows)
	assert.Equal(t, models.ActionHold, s.LastAction)
	require.NotNil(t, s.Mean)
	assert.InDelta(t, 0.3, *s.Mean, 1e-12)
}

func TestTableReadsServeFromCache(t *testing.T) {
	env := newHandlerEnv(&stubSource{})
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	env.handler.SetCache(mem)

	env.signalStore.tables["AAPL:2024-01-01"] = []models.SignalRow{
		{CombinedSignal: 0.1, Action: models.ActionHold},
	}

	first := env.do(http.MethodGet, "/api/v1/signals/AAPL/2024-01-01", "")
	require.Equal(t, http.StatusOK, first.Code)

	// Mutate the store; the cached body must still be served.
	env.signalStore.tables["AAPL:2024-01-01"] = nil

	second := env.do(http.MethodGet, "/api/v1/signals/AAPL/2024-01-01", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String(), "cache hits are byte-identical")
}

func TestGenerateRateLimited(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env := newHandlerEnv(&stubSource{bars: seedBars("AAPL", start, 100)})

	var limited bool
	for i := 0; i < 6; i++ {
		rec := env.do(http.MethodPost, "/api/v1/features/generate", `{"symbol":"AAPL"}`)
		resp := decodeEnvelope(t, rec)
		if i < 5 {
			require.Equal(t, http.StatusOK, resp.Status, "request %d inside the budget", i)
			continue
		}
		if resp.Status == http.StatusTooManyRequests {
			limited = true
			items := decodeErrors(t, resp)
			assert.Equal(t, "ERR_RATE_LIMITED", items[0].Code)
		}
	}
	assert.True(t, limited, "the sixth rapid request exceeds the bucket")
}
