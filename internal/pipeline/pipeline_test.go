package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/airquality-report-service/internal/domain"
	"github.com/couchcryptid/airquality-report-service/internal/observability"
	"github.com/couchcryptid/airquality-report-service/internal/pipeline"
)

// --- mocks ---

type mockAcquirer struct {
	paths []string
	err   error
	calls int
}

func (m *mockAcquirer) Acquire(_ context.Context, _ domain.Region, _ domain.TimeRange) ([]string, error) {
	m.calls++
	return m.paths, m.err
}

type mockReader struct {
	dataset *domain.CombinedDataset
	err     error
}

func (m *mockReader) OpenAndConcat(_ context.Context, _ []string) (*domain.CombinedDataset, error) {
	return m.dataset, m.err
}

// --- helpers ---

// testGrid has cell centers at 0..3 lat, 0..5 lon.
func testGrid() domain.GridSpec {
	return domain.GridSpec{NLat: 4, NLon: 6, LatMin: 0, LatMax: 3, LonMin: 0, LonMax: 5}
}

func testRegion() domain.Region {
	return domain.Region{West: 0, South: 0, East: 5, North: 3}
}

func testWindow() domain.TimeRange {
	return domain.TimeRange{
		Start: time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
	}
}

// uniformDataset fills one time slice with a constant value.
func uniformDataset(t *testing.T, value float64) *domain.CombinedDataset {
	t.Helper()
	grid := testGrid()
	data := sparse.ZerosDense(1, grid.NLat, grid.NLon)
	for i := range data.Elements {
		data.Elements[i] = value
	}
	ds, err := domain.NewCombinedDataset(grid, data)
	require.NoError(t, err)
	return ds
}

func newPipeline(a pipeline.Acquirer, r pipeline.DatasetReader, threshold float64) *pipeline.Pipeline {
	return pipeline.New(a, r, testRegion(), testWindow(), threshold,
		slog.Default(), observability.NewMetricsForTesting())
}

// --- tests ---

func TestProduceReport_LiveHighRisk(t *testing.T) {
	acq := &mockAcquirer{paths: []string{"g1.nc"}}
	rdr := &mockReader{dataset: uniformDataset(t, 2e-9)}

	p := newPipeline(acq, rdr, domain.DefaultHighRiskThreshold)
	report, err := p.ProduceReport(context.Background())
	require.NoError(t, err)

	assert.True(t, report.IsLiveData)
	assert.Equal(t, domain.RiskHigh, report.RiskLevel)
	assert.Contains(t, report.Summary, "2.00e-09")
	assert.Equal(t, 1, acq.calls)
}

func TestProduceReport_LiveLowRisk(t *testing.T) {
	acq := &mockAcquirer{paths: []string{"g1.nc"}}
	rdr := &mockReader{dataset: uniformDataset(t, 1e-9)}

	p := newPipeline(acq, rdr, domain.DefaultHighRiskThreshold)
	report, err := p.ProduceReport(context.Background())
	require.NoError(t, err)

	assert.True(t, report.IsLiveData)
	assert.Equal(t, domain.RiskLowModerate, report.RiskLevel)
}

func TestProduceReport_ThresholdBoundaryIsHigh(t *testing.T) {
	acq := &mockAcquirer{paths: []string{"g1.nc"}}
	rdr := &mockReader{dataset: uniformDataset(t, 1.6e-9)}

	p := newPipeline(acq, rdr, 1.6e-9)
	report, err := p.ProduceReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RiskHigh, report.RiskLevel, "inclusive boundary")
}

func TestProduceReport_AcquireFailure(t *testing.T) {
	acq := &mockAcquirer{err: errors.New("credentials not configured")}
	p := newPipeline(acq, &mockReader{}, domain.DefaultHighRiskThreshold)

	_, err := p.ProduceReport(context.Background())
	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageAcquire, stageErr.Stage)
}

func TestProduceReport_ReadFailure(t *testing.T) {
	acq := &mockAcquirer{paths: []string{"g1.nc"}}
	rdr := &mockReader{err: errors.New("open netcdf: not a netcdf file")}
	p := newPipeline(acq, rdr, domain.DefaultHighRiskThreshold)

	_, err := p.ProduceReport(context.Background())
	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageRead, stageErr.Stage)
}

func TestProduceReport_AllMissingSubset(t *testing.T) {
	acq := &mockAcquirer{paths: []string{"g1.nc"}}
	rdr := &mockReader{dataset: uniformDataset(t, math.NaN())}
	p := newPipeline(acq, rdr, domain.DefaultHighRiskThreshold)

	_, err := p.ProduceReport(context.Background())
	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageReduce, stageErr.Stage)
	assert.ErrorIs(t, err, pipeline.ErrAllMissing)
}

func TestProduceReport_EmptyRegionSelection(t *testing.T) {
	acq := &mockAcquirer{paths: []string{"g1.nc"}}
	rdr := &mockReader{dataset: uniformDataset(t, 1e-9)}

	// Region entirely outside the dataset grid.
	p := pipeline.New(acq, rdr,
		domain.Region{West: 50, South: 50, East: 60, North: 60},
		testWindow(), domain.DefaultHighRiskThreshold,
		slog.Default(), observability.NewMetricsForTesting())

	_, err := p.ProduceReport(context.Background())
	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageReduce, stageErr.Stage)
}

func TestCheckReadiness(t *testing.T) {
	p := newPipeline(&mockAcquirer{}, &mockReader{}, domain.DefaultHighRiskThreshold)
	assert.NoError(t, p.CheckReadiness(context.Background()))

	bad := pipeline.New(&mockAcquirer{}, &mockReader{},
		testRegion(), testWindow(), 0,
		slog.Default(), observability.NewMetricsForTesting())
	assert.Error(t, bad.CheckReadiness(context.Background()))
}
