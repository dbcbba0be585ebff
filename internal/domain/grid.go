package domain

import (
	"errors"
	"fmt"
	"time"
)

// Region is a geographic bounding box in decimal degrees.
type Region struct {
	West  float64
	South float64
	East  float64
	North float64
}

// Validate checks the bounding-box invariants: west < east, south < north,
// and all bounds within valid degree ranges.
func (r Region) Validate() error {
	if r.West < -180 || r.East > 180 || r.South < -90 || r.North > 90 {
		return fmt.Errorf("region out of range: west=%g south=%g east=%g north=%g", r.West, r.South, r.East, r.North)
	}
	if r.West >= r.East {
		return fmt.Errorf("region west (%g) must be less than east (%g)", r.West, r.East)
	}
	if r.South >= r.North {
		return fmt.Errorf("region south (%g) must be less than north (%g)", r.South, r.North)
	}
	return nil
}

// TimeRange is a closed date interval [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Validate checks that Start does not come after End.
func (tr TimeRange) Validate() error {
	if tr.Start.After(tr.End) {
		return fmt.Errorf("time range start (%s) after end (%s)",
			tr.Start.Format("2006-01-02"), tr.End.Format("2006-01-02"))
	}
	return nil
}

// GridSpec describes a regular lat/lon grid by its dimension lengths and the
// cell-center coordinates of its corners. It is the explicit contract between
// the granule reader and spatial subsetting: granules whose dimensions do not
// match the descriptor are rejected instead of silently misaligned.
type GridSpec struct {
	NLat   int
	NLon   int
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// OMIL3Grid returns the fixed 0.25° global grid of the OMNO2d product.
func OMIL3Grid() GridSpec {
	return GridSpec{
		NLat:   720,
		NLon:   1440,
		LatMin: -89.875,
		LatMax: 89.875,
		LonMin: -179.875,
		LonMax: 179.875,
	}
}

// Validate checks that the descriptor describes a non-degenerate grid.
func (g GridSpec) Validate() error {
	if g.NLat < 2 || g.NLon < 2 {
		return fmt.Errorf("grid needs at least 2 steps per axis, got %dx%d", g.NLat, g.NLon)
	}
	if g.LatMin >= g.LatMax || g.LonMin >= g.LonMax {
		return fmt.Errorf("grid corner coordinates out of order: lat %g..%g lon %g..%g",
			g.LatMin, g.LatMax, g.LonMin, g.LonMax)
	}
	return nil
}

// ErrGridMismatch indicates a granule whose dimensions disagree with the
// expected grid descriptor. Such granules abort the read rather than being
// skipped, since a silently dropped granule would bias the period mean.
var ErrGridMismatch = errors.New("grid dimension mismatch")

// CheckDims verifies that a granule's reported dimension lengths match the
// grid before coordinates are assigned.
func (g GridSpec) CheckDims(nLat, nLon int) error {
	if nLat != g.NLat || nLon != g.NLon {
		return fmt.Errorf("%w: granule grid %dx%d does not match expected %dx%d",
			ErrGridMismatch, nLat, nLon, g.NLat, g.NLon)
	}
	return nil
}

// Lats returns the latitude cell-center coordinate vector, south to north.
func (g GridSpec) Lats() []float64 {
	return linspace(g.LatMin, g.LatMax, g.NLat)
}

// Lons returns the longitude cell-center coordinate vector, west to east.
func (g GridSpec) Lons() []float64 {
	return linspace(g.LonMin, g.LonMax, g.NLon)
}

// LatIndexRange returns the half-open index range [lo, hi) of latitude cells
// whose centers fall inside [south, north]. Bounds are inclusive; ok is false
// when no cell center falls inside the interval.
func (g GridSpec) LatIndexRange(south, north float64) (lo, hi int, ok bool) {
	return indexRange(g.Lats(), south, north)
}

// LonIndexRange is the longitude counterpart of LatIndexRange.
func (g GridSpec) LonIndexRange(west, east float64) (lo, hi int, ok bool) {
	return indexRange(g.Lons(), west, east)
}

// linspace returns n evenly spaced values from minVal to maxVal inclusive.
// A single-cell axis, as produced by narrow region subsets, yields just its
// one cell center.
func linspace(minVal, maxVal float64, n int) []float64 {
	if n == 1 {
		return []float64{minVal}
	}
	step := (maxVal - minVal) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = minVal + step*float64(i)
	}
	return out
}

// indexRange scans an ascending coordinate vector for the half-open index
// range of values within [low, high].
func indexRange(coords []float64, low, high float64) (lo, hi int, ok bool) {
	lo = -1
	for i, c := range coords {
		if c < low {
			continue
		}
		if c > high {
			break
		}
		if lo == -1 {
			lo = i
		}
		hi = i + 1
	}
	if lo == -1 {
		return 0, 0, false
	}
	return lo, hi, true
}
