// Package pipeline orchestrates the acquire-read-reduce-classify sequence
// that turns OMNO2d granules into an air-quality report.
//
// The pipeline never constructs the simulated fallback itself: it returns a
// *StageError describing where the live path failed, and the request handler
// one layer up decides to serve the mock report. This keeps the pipeline
// testable without simulating presentation concerns.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/airquality-report-service/internal/domain"
	"github.com/couchcryptid/airquality-report-service/internal/observability"
)

// Pipeline stages, used as error and metric labels.
const (
	StageAcquire = "acquire"
	StageRead    = "read"
	StageReduce  = "reduce"
)

// ErrAllMissing indicates the region subset reduced to NaN: every selected
// cell carried the fill value.
var ErrAllMissing = errors.New("region subset contains no usable values")

// StageError reports which pipeline stage failed. All stages collapse into
// the same fallback outcome; the stage only drives logging and metrics.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Acquirer resolves local granule file paths for a region and time window.
type Acquirer interface {
	Acquire(ctx context.Context, region domain.Region, window domain.TimeRange) ([]string, error)
}

// DatasetReader opens granule files and concatenates them along a time axis.
type DatasetReader interface {
	OpenAndConcat(ctx context.Context, paths []string) (*domain.CombinedDataset, error)
}

// Pipeline produces a live report for one fixed region and time window.
type Pipeline struct {
	acquirer  Acquirer
	reader    DatasetReader
	region    domain.Region
	window    domain.TimeRange
	threshold float64
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline. Region, window, and threshold are fixed at
// construction so tests can use synthetic values.
func New(a Acquirer, r DatasetReader, region domain.Region, window domain.TimeRange, threshold float64, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		acquirer:  a,
		reader:    r,
		region:    region,
		window:    window,
		threshold: threshold,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness reports whether the pipeline is wired with a usable
// configuration.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if err := p.region.Validate(); err != nil {
		return err
	}
	if err := p.window.Validate(); err != nil {
		return err
	}
	if p.threshold <= 0 {
		return fmt.Errorf("risk threshold must be positive, got %g", p.threshold)
	}
	return nil
}

// ProduceReport runs one acquire-read-reduce-classify cycle and shapes the
// live report. On failure it returns a *StageError; the caller owns the
// decision to fall back to the simulated report.
func (p *Pipeline) ProduceReport(ctx context.Context) (domain.Report, error) {
	start := time.Now()

	paths, err := p.acquirer.Acquire(ctx, p.region, p.window)
	if err != nil {
		return domain.Report{}, p.fail(StageAcquire, err)
	}

	dataset, err := p.reader.OpenAndConcat(ctx, paths)
	if err != nil {
		return domain.Report{}, p.fail(StageRead, err)
	}

	subset, err := dataset.Subset(p.region)
	if err != nil {
		return domain.Report{}, p.fail(StageReduce, err)
	}

	mean := subset.Mean()
	if math.IsNaN(mean) {
		return domain.Report{}, p.fail(StageReduce, ErrAllMissing)
	}

	report := domain.NewLiveReport(mean, p.threshold)
	p.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("live report computed",
		"granules", dataset.TimeSteps(),
		"mean_no2", domain.FormatColumnDensity(mean),
		"risk_level", report.RiskLevel,
	)
	return report, nil
}

func (p *Pipeline) fail(stage string, err error) error {
	p.metrics.PipelineErrors.WithLabelValues(stage).Inc()
	return &StageError{Stage: stage, Err: err}
}
