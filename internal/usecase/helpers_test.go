package usecase

import (
	"context"
	"fmt"
	"sync"

	"SigForge/internal/domain/models"
	domrepo "SigForge/internal/domain/repository"
	"SigForge/internal/service/quality"
	"SigForge/internal/services/features"
	"SigForge/internal/services/signals"
	applogger "SigForge/pkg/logger"
)

// ----------------------------------------------------------------
// Fakes
// ----------------------------------------------------------------

type fakeSource struct {
	bars      []models.MarketBar
	events    []models.AltEvent
	barsErr   error
	eventsErr error
}

func (s *fakeSource) LoadBars(ctx context.Context, symbol, date string) ([]models.MarketBar, error) {
	if s.barsErr != nil {
		return nil, s.barsErr
	}
	return s.bars, nil
}

func (s *fakeSource) LoadEvents(ctx context.Context, symbol, date string) ([]models.AltEvent, error) {
	if s.eventsErr != nil {
		return nil, s.eventsErr
	}
	return s.events, nil
}

type fakeFeatureStore struct {
	mu      sync.Mutex
	tables  map[string][]models.FeatureRow
	saveErr error
}

func newFakeFeatureStore() *fakeFeatureStore {
	return &fakeFeatureStore{tables: make(map[string][]models.FeatureRow)}
}

func (s *fakeFeatureStore) Save(ctx context.Context, symbol, date string, rows []models.FeatureRow) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[symbol+":"+date] = rows
	return nil
}

func (s *fakeFeatureStore) Load(ctx context.Context, symbol, date string) ([]models.FeatureRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[symbol+":"+date]
	if !ok {
		return nil, fmt.Errorf("features %s %s: %w", symbol, date, domrepo.ErrNotFound)
	}
	return rows, nil
}

type fakeSignalStore struct {
	mu      sync.Mutex
	tables  map[string][]models.SignalRow
	saveErr error
}

func newFakeSignalStore() *fakeSignalStore {
	return &fakeSignalStore{tables: make(map[string][]models.SignalRow)}
}

func (s *fakeSignalStore) Save(ctx context.Context, symbol, date string, rows []models.SignalRow) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[symbol+":"+date] = rows
	return nil
}

func (s *fakeSignalStore) Load(ctx context.Context, symbol, date string) ([]models.SignalRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[symbol+":"+date]
	if !ok {
		return nil, fmt.Errorf("signals %s %s: %w", symbol, date, domrepo.ErrNotFound)
	}
	return rows, nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	runs     map[string]int
	rows     map[string]int
	actions  map[string]int
	errors   map[string]int
	combined []float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		runs:    make(map[string]int),
		rows:    make(map[string]int),
		actions: make(map[string]int),
		errors:  make(map[string]int),
	}
}

func (m *fakeMetrics) RecordRun(stage, symbol, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[stage+"/"+symbol+"/"+result]++
}

func (m *fakeMetrics) RecordRows(stage, symbol string, rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[stage+"/"+symbol] += rows
}

func (m *fakeMetrics) RecordDuration(op string, seconds float64) {}

func (m *fakeMetrics) RecordQualityIssue(stage, kind string, cells int) {}

func (m *fakeMetrics) RecordAction(symbol, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[symbol+"/"+action]++
}

func (m *fakeMetrics) RecordCombinedSignal(symbol string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.combined = append(m.combined, value)
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) runCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[key]
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func (m *fakeMetrics) actionCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.actions[key]
}

func (m *fakeMetrics) lastCombined() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.combined) == 0 {
		return 0, false
	}
	return m.combined[len(m.combined)-1], true
}

// ----------------------------------------------------------------
// Wiring helpers
// ----------------------------------------------------------------

// testEnv wires real engines and a real scanner around the fakes, the same
// shape the DI layer assembles in production.
type testEnv struct {
	source       *fakeSource
	featureStore *fakeFeatureStore
	signalStore  *fakeSignalStore
	metrics      *fakeMetrics

	features *FeaturePipeline
	signals  *SignalPipeline
	runner   *PipelineRunner
}

func newTestEnv(source *fakeSource) *testEnv {
	env := &testEnv{
		source:       source,
		featureStore: newFakeFeatureStore(),
		signalStore:  newFakeSignalStore(),
		metrics:      newFakeMetrics(),
	}
	nop := applogger.Nop()
	scanner := quality.NewScanner(nop, env.metrics, nil)

	env.features = NewFeaturePipeline(
		source,
		env.featureStore,
		features.NewEngine(features.DefaultParams(), nil),
		scanner,
		nil,
		env.metrics,
		nop,
	)
	env.signals = NewSignalPipeline(
		env.featureStore,
		env.signalStore,
		signals.NewEngine(signals.DefaultParams(), nil),
		scanner,
		nil,
		NewRunEventPublisher(nil, "", nil),
		env.metrics,
		nop,
	)
	env.runner = NewPipelineRunner(env.features, env.signals)
	return env
}
