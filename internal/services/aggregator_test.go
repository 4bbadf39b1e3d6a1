package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sincov/airmon-go/internal/logging"
	"github.com/sincov/airmon-go/internal/models"
)

type fakeReportStore struct {
	reports  []models.Report
	failures int
	calls    int
}

func (f *fakeReportStore) FetchReports(_ context.Context, _ int64, _, _ time.Time) ([]models.Report, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection reset")
	}
	return f.reports, nil
}

func testLogger() *logging.Logger {
	return logging.New("error", "test")
}

func fptr(v float64) *float64 { return &v }

func report(stationID int64, ts time.Time, value *float64, source string) models.Report {
	return models.Report{StationID: stationID, Timestamp: ts, PM25: value, Source: source}
}

func TestAggregatorWindowValidation(t *testing.T) {
	agg := NewAggregator(&fakeReportStore{}, testLogger())
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		from   time.Time
		to     time.Time
		bucket time.Duration
	}{
		{"from equals to", base, base, time.Hour},
		{"from after to", base.Add(time.Hour), base, time.Hour},
		{"zero bucket", base, base.Add(time.Hour), 0},
		{"negative bucket", base, base.Add(time.Hour), -time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agg.Window(context.Background(), 1, tt.from, tt.to, tt.bucket)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestAggregatorWindowEmpty(t *testing.T) {
	agg := NewAggregator(&fakeReportStore{}, testLogger())
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := agg.Window(context.Background(), 1, base, base.Add(4*time.Hour), time.Hour)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAggregatorWindowNilValuesOnly(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeReportStore{reports: []models.Report{
		report(1, base.Add(10*time.Minute), nil, "rmcab"),
		report(1, base.Add(70*time.Minute), nil, "rmcab"),
	}}
	agg := NewAggregator(store, testLogger())

	_, err := agg.Window(context.Background(), 1, base, base.Add(2*time.Hour), time.Hour)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAggregatorWindowDenseSeries(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeReportStore{reports: []models.Report{
		report(1, base.Add(5*time.Minute), fptr(10), "rmcab"),
		report(1, base.Add(30*time.Minute), fptr(20), "rmcab"),
		report(1, base.Add(90*time.Minute), fptr(30), "rmcab"),
		report(1, base.Add(150*time.Minute), fptr(40), "rmcab"),
	}}
	agg := NewAggregator(store, testLogger())

	points, err := agg.Window(context.Background(), 1, base, base.Add(3*time.Hour), time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, 15.0, points[0].Value)
	assert.Equal(t, 2, points[0].SampleCount)
	assert.Equal(t, 30.0, points[1].Value)
	assert.Equal(t, 40.0, points[2].Value)

	for i, pt := range points {
		assert.Equal(t, base.Add(time.Duration(i)*time.Hour), pt.Timestamp)
		assert.False(t, pt.Interpolated)
		assert.Equal(t, int64(1), pt.StationID)
	}
}

func TestAggregatorWindowOutOfOrderArrival(t *testing.T) {
	// Event timestamps decide buckets; arrival order must not matter.
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeReportStore{reports: []models.Report{
		report(1, base.Add(30*time.Minute), fptr(10), "rmcab"),
		report(1, base.Add(90*time.Minute), fptr(20), "rmcab"),
	}}
	agg := NewAggregator(store, testLogger())

	points, err := agg.Window(context.Background(), 1, base, base.Add(2*time.Hour), time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 10.0, points[0].Value)
	assert.Equal(t, 20.0, points[1].Value)
}

func TestAggregatorDedupeLastWriteWins(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	ts := base.Add(30 * time.Minute)
	// Fetch order is timestamp then ingestion order, so the corrected
	// retransmission arrives after the original reading.
	store := &fakeReportStore{reports: []models.Report{
		report(1, ts, fptr(100), "rmcab"),
		report(1, ts, fptr(12), "rmcab"),
	}}
	agg := NewAggregator(store, testLogger())

	points, err := agg.Window(context.Background(), 1, base, base.Add(time.Hour), time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 12.0, points[0].Value)
	assert.Equal(t, 1, points[0].SampleCount)
}

func TestAggregatorDedupeDistinctSources(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	ts := base.Add(30 * time.Minute)
	store := &fakeReportStore{reports: []models.Report{
		report(1, ts, fptr(10), "rmcab"),
		report(1, ts, fptr(20), "manual"),
	}}
	agg := NewAggregator(store, testLogger())

	points, err := agg.Window(context.Background(), 1, base, base.Add(time.Hour), time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 15.0, points[0].Value)
	assert.Equal(t, 2, points[0].SampleCount)
}

func TestAggregatorGapFill(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	// Samples only in buckets 1 and 4 of six.
	store := &fakeReportStore{reports: []models.Report{
		report(1, base.Add(90*time.Minute), fptr(10), "rmcab"),
		report(1, base.Add(270*time.Minute), fptr(40), "rmcab"),
	}}
	agg := NewAggregator(store, testLogger())

	points, err := agg.Window(context.Background(), 1, base, base.Add(6*time.Hour), time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 6)

	// Leading gap carries the first known value flat.
	assert.Equal(t, 10.0, points[0].Value)
	assert.True(t, points[0].Interpolated)

	assert.Equal(t, 10.0, points[1].Value)
	assert.False(t, points[1].Interpolated)

	// Interior gaps are linear between buckets 1 and 4.
	assert.Equal(t, 20.0, points[2].Value)
	assert.True(t, points[2].Interpolated)
	assert.Equal(t, 30.0, points[3].Value)
	assert.True(t, points[3].Interpolated)

	assert.Equal(t, 40.0, points[4].Value)
	assert.False(t, points[4].Interpolated)

	// Trailing gap carries the last known value flat.
	assert.Equal(t, 40.0, points[5].Value)
	assert.True(t, points[5].Interpolated)
}

func TestAggregatorSingleSample(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeReportStore{reports: []models.Report{
		report(1, base.Add(150*time.Minute), fptr(25), "rmcab"),
	}}
	agg := NewAggregator(store, testLogger())

	points, err := agg.Window(context.Background(), 1, base, base.Add(5*time.Hour), time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 5)

	for i, pt := range points {
		assert.Equal(t, 25.0, pt.Value)
		assert.Equal(t, i != 2, pt.Interpolated)
	}
}

func TestAggregatorExcludesOutsideWindow(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeReportStore{reports: []models.Report{
		report(1, base.Add(-time.Minute), fptr(999), "rmcab"),
		report(1, base.Add(30*time.Minute), fptr(10), "rmcab"),
		report(1, base.Add(2*time.Hour+time.Minute), fptr(999), "rmcab"),
	}}
	agg := NewAggregator(store, testLogger())

	points, err := agg.Window(context.Background(), 1, base, base.Add(2*time.Hour), time.Hour)
	require.NoError(t, err)
	for _, pt := range points {
		assert.Equal(t, 10.0, pt.Value)
	}
}

func TestAggregatorRetriesTransientFailure(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeReportStore{
		failures: 1,
		reports: []models.Report{
			report(1, base.Add(30*time.Minute), fptr(10), "rmcab"),
		},
	}
	agg := NewAggregator(store, testLogger())

	points, err := agg.Window(context.Background(), 1, base, base.Add(time.Hour), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, 10.0, points[0].Value)
}

func TestAggregatorStoreUnavailable(t *testing.T) {
	store := &fakeReportStore{failures: 10}
	agg := NewAggregator(store, testLogger())
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := agg.Window(context.Background(), 1, base, base.Add(time.Hour), time.Hour)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 2, store.calls)
}

func TestAggregatorCancelledContext(t *testing.T) {
	store := &fakeReportStore{failures: 10}
	agg := NewAggregator(store, testLogger())
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.Window(ctx, 1, base, base.Add(time.Hour), time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
