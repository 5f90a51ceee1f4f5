package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"EpiCast/internal/domain/models"
)

// fakeSeriesStore is an in-memory SeriesStore for wiring tests.
type fakeSeriesStore struct {
	mu    sync.Mutex
	lab   []models.LabTest
	sales []models.MedicineSale
	err   error
}

func (f *fakeSeriesStore) Init(context.Context) error { return nil }

func (f *fakeSeriesStore) StoreLabTests(_ context.Context, tests []models.LabTest) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lab = append(f.lab, tests...)
	return nil
}

func (f *fakeSeriesStore) StoreSales(_ context.Context, sales []models.MedicineSale) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales = append(f.sales, sales...)
	return nil
}

func (f *fakeSeriesStore) LabTests(_ context.Context, disease models.Disease, from, to time.Time) ([]models.LabTest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LabTest
	for _, t := range f.lab {
		if t.Disease != disease || !inRange(t.Date, from, to) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeSeriesStore) Sales(_ context.Context, medicines []string, from, to time.Time) ([]models.MedicineSale, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[string]bool, len(medicines))
	for _, m := range medicines {
		want[m] = true
	}
	var out []models.MedicineSale
	for _, s := range f.sales {
		if !want[s.Medicine] || !inRange(s.Date, from, to) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeSeriesStore) LabRange(ctx context.Context, disease models.Disease) (time.Time, time.Time, error) {
	lab, err := f.LabTests(ctx, disease, time.Time{}, time.Time{})
	if err != nil || len(lab) == 0 {
		return time.Time{}, time.Time{}, err
	}
	return lab[0].Date, lab[len(lab)-1].Date, nil
}

func (f *fakeSeriesStore) SalesRange(ctx context.Context, medicines []string) (time.Time, time.Time, error) {
	sales, err := f.Sales(ctx, medicines, time.Time{}, time.Time{})
	if err != nil || len(sales) == 0 {
		return time.Time{}, time.Time{}, err
	}
	return sales[0].Date, sales[len(sales)-1].Date, nil
}

func (f *fakeSeriesStore) Health(context.Context) error { return f.err }
func (f *fakeSeriesStore) Close() error                 { return nil }

func inRange(d, from, to time.Time) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

// fakeForecastStore records stores and replacements.
type fakeForecastStore struct {
	mu       sync.Mutex
	stored   []models.ForecastRecord
	replaced map[models.Disease][]models.ForecastRecord
}

func (f *fakeForecastStore) Store(_ context.Context, records []models.ForecastRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, records...)
	return nil
}

func (f *fakeForecastStore) ReplaceForDisease(_ context.Context, disease models.Disease, records []models.ForecastRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaced == nil {
		f.replaced = make(map[models.Disease][]models.ForecastRecord)
	}
	f.replaced[disease] = records
	return nil
}

func (f *fakeForecastStore) ByDisease(_ context.Context, disease models.Disease, from, to time.Time, limit int) ([]models.ForecastRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ForecastRecord
	for _, r := range append(f.stored, f.replaced[disease]...) {
		if r.Disease == disease && inRange(r.Date, from, to) {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeSessionStore keeps sessions in a map.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.TrainingSession
}

func (f *fakeSessionStore) Create(_ context.Context, s *models.TrainingSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessions == nil {
		f.sessions = make(map[string]models.TrainingSession)
	}
	f.sessions[s.ID] = *s
	return nil
}

func (f *fakeSessionStore) Update(ctx context.Context, s *models.TrainingSession) error {
	return f.Create(ctx, s)
}

func (f *fakeSessionStore) Get(_ context.Context, id string) (*models.TrainingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("session not found")
	}
	return &s, nil
}

func (f *fakeSessionStore) List(_ context.Context, limit int) ([]models.TrainingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.TrainingSession, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, s)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeMetaStore keeps catalog rows in insertion order.
type fakeMetaStore struct {
	mu    sync.Mutex
	metas []models.ModelMeta
}

func (f *fakeMetaStore) Store(_ context.Context, meta *models.ModelMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metas = append(f.metas, *meta)
	return nil
}

func (f *fakeMetaStore) Latest(_ context.Context, disease models.Disease) (*models.ModelMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.metas) - 1; i >= 0; i-- {
		if f.metas[i].Disease == disease {
			m := f.metas[i]
			return &m, nil
		}
	}
	return nil, errors.New("no model meta")
}

func (f *fakeMetaStore) List(_ context.Context, disease models.Disease, limit int) ([]models.ModelMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ModelMeta
	for _, m := range f.metas {
		if disease == "" || m.Disease == disease {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// noopMetrics satisfies the Metrics interface; counts training runs so
// pipeline tests can assert outcome labels.
type noopMetrics struct {
	mu   sync.Mutex
	runs map[string]int
}

func (m *noopMetrics) RecordRecordsStored(string, string, int) {}
func (m *noopMetrics) RecordError(string)                      {}
func (m *noopMetrics) RecordPredictedCases(string, float64)    {}
func (m *noopMetrics) RecordLatency(string, float64)           {}

func (m *noopMetrics) RecordTrainingRun(disease, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		m.runs = make(map[string]int)
	}
	m.runs[disease+"/"+status]++
}
