// Package netcdf reads and writes OMNO2d granule files in NetCDF classic
// format via github.com/ctessum/cdf.
//
// The OMNO2d archive distributes HDF5-EOS files; this service expects them
// converted to NetCDF classic (e.g. with `nccopy -k classic`), preserving the
// product's layout: the data fields stored under generic grid dimensions
// (phony_dim_0 × phony_dim_1) with no coordinate variables.
package netcdf

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/couchcryptid/airquality-report-service/internal/domain"
	"github.com/couchcryptid/airquality-report-service/internal/observability"
)

// Field names in OMNO2d granules.
const (
	// NO2Field is the tropospheric NO2 column density, in moles/cm².
	NO2Field = "ColumnAmountNO2Trop"

	// WeightField is an auxiliary averaging-weight field. It is written by
	// the product but discarded when reading.
	WeightField = "Weight"
)

// Reader opens granule files, normalizes each one against the expected grid,
// and concatenates them along a synthetic leading time axis.
//
// Normalization per granule: select the NO2 field under the generic grid
// dimensions (the rename to lat/lon is implicit in the grid descriptor),
// ignore the Weight field, map fill values to NaN, and treat the granule as
// one time slice.
type Reader struct {
	grid    domain.GridSpec
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewReader creates a Reader that validates every granule against grid.
func NewReader(grid domain.GridSpec, metrics *observability.Metrics, logger *slog.Logger) *Reader {
	return &Reader{grid: grid, metrics: metrics, logger: logger}
}

// OpenAndConcat reads every granule and stacks them in input order into a
// (time, lat, lon) dataset with the Reader's grid coordinates. Input order is
// the caller's responsibility (the Acquirer sorts chronologically).
func (r *Reader) OpenAndConcat(ctx context.Context, paths []string) (*domain.CombinedDataset, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no granule files to read")
	}

	data := sparse.ZerosDense(len(paths), r.grid.NLat, r.grid.NLon)
	sliceLen := r.grid.NLat * r.grid.NLon

	for t, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values, err := r.readGranule(path)
		if err != nil {
			return nil, fmt.Errorf("granule %s: %w", path, err)
		}
		copy(data.Elements[t*sliceLen:(t+1)*sliceLen], values)
		r.metrics.GranulesRead.Inc()
	}

	r.logger.Info("granules concatenated", "count", len(paths), "grid", fmt.Sprintf("%dx%d", r.grid.NLat, r.grid.NLon))
	return domain.NewCombinedDataset(r.grid, data)
}

// readGranule reads the NO2 field of one file as a flat (lat, lon) slice with
// fill values replaced by NaN.
func (r *Reader) readGranule(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("open netcdf: %w", err)
	}

	dims := cf.Header.Lengths(NO2Field)
	if len(dims) != 2 {
		return nil, fmt.Errorf("field %s has %d dimensions, want 2", NO2Field, len(dims))
	}
	if err := r.grid.CheckDims(dims[0], dims[1]); err != nil {
		return nil, err
	}

	values, err := readFloat64s(cf, NO2Field)
	if err != nil {
		return nil, err
	}

	if fill, ok := fillValue(cf, NO2Field); ok {
		for i, v := range values {
			if v == fill {
				values[i] = math.NaN()
			}
		}
	}
	return values, nil
}

// readFloat64s reads a whole variable as float64 regardless of its stored
// floating-point width.
func readFloat64s(cf *cdf.File, name string) ([]float64, error) {
	reader := cf.Reader(name, nil, nil)
	buf := reader.Zero(-1)
	if _, err := reader.Read(buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	switch vals := buf.(type) {
	case []float64:
		return vals, nil
	case []float32:
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %s has unsupported type %T", name, buf)
	}
}

// fillValue extracts the _FillValue attribute when present.
func fillValue(cf *cdf.File, name string) (float64, bool) {
	attr := cf.Header.GetAttribute(name, "_FillValue")
	if attr == nil {
		return 0, false
	}
	switch v := attr.(type) {
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	case []float32:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	return 0, false
}
