package domain

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// CombinedDataset holds NO2 column density granules concatenated along a
// leading time axis, with coordinates described by Grid. Data has shape
// (time, lat, lon); missing cells are NaN.
type CombinedDataset struct {
	Grid GridSpec
	Data *sparse.DenseArray
}

// NewCombinedDataset wraps a (time, lat, lon) array, checking that the
// spatial dimensions agree with the grid descriptor.
func NewCombinedDataset(grid GridSpec, data *sparse.DenseArray) (*CombinedDataset, error) {
	if len(data.Shape) != 3 {
		return nil, fmt.Errorf("combined dataset must be 3-dimensional (time, lat, lon), got %d dims", len(data.Shape))
	}
	if err := grid.CheckDims(data.Shape[1], data.Shape[2]); err != nil {
		return nil, err
	}
	return &CombinedDataset{Grid: grid, Data: data}, nil
}

// TimeSteps returns the number of concatenated granules.
func (d *CombinedDataset) TimeSteps() int {
	return d.Data.Shape[0]
}

// Subset restricts the dataset to the cells whose centers fall inside the
// region (inclusive bounds on both axes). The returned dataset carries a grid
// descriptor covering only the selected cells; a narrow region may select a
// single cell per axis, so the sub-descriptor can be smaller than Validate
// permits for a source grid.
func (d *CombinedDataset) Subset(region Region) (*CombinedDataset, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}

	latLo, latHi, ok := d.Grid.LatIndexRange(region.South, region.North)
	if !ok {
		return nil, fmt.Errorf("no grid cells between latitudes %g and %g", region.South, region.North)
	}
	lonLo, lonHi, ok := d.Grid.LonIndexRange(region.West, region.East)
	if !ok {
		return nil, fmt.Errorf("no grid cells between longitudes %g and %g", region.West, region.East)
	}

	nt := d.Data.Shape[0]
	out := sparse.ZerosDense(nt, latHi-latLo, lonHi-lonLo)
	for t := 0; t < nt; t++ {
		for i := latLo; i < latHi; i++ {
			for j := lonLo; j < lonHi; j++ {
				out.Set(d.Data.Get(t, i, j), t, i-latLo, j-lonLo)
			}
		}
	}

	lats := d.Grid.Lats()
	lons := d.Grid.Lons()
	sub := &CombinedDataset{
		Grid: GridSpec{
			NLat:   latHi - latLo,
			NLon:   lonHi - lonLo,
			LatMin: lats[latLo],
			LatMax: lats[latHi-1],
			LonMin: lons[lonLo],
			LonMax: lons[lonHi-1],
		},
		Data: out,
	}
	return sub, nil
}

// Mean reduces the dataset to a scalar: the arithmetic mean over all time,
// lat, and lon points, skipping NaN cells. Returns NaN when every cell is
// missing.
func (d *CombinedDataset) Mean() float64 {
	var sum float64
	var n int
	for _, v := range d.Data.Elements {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
