package netcdf

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"

	"github.com/couchcryptid/airquality-report-service/internal/domain"
)

// Grid dimension names, matching the generic dimensions of the source product.
const (
	latDim = "phony_dim_0"
	lonDim = "phony_dim_1"
)

// WriteGranule writes one OMNO2d-style granule: the NO2 field (with the given
// flat lat-major values, NaN for missing cells) and a unit Weight field under
// generic grid dimensions. Used by cmd/genmock and tests to fabricate
// granules the Reader accepts.
func WriteGranule(path string, grid domain.GridSpec, no2 []float64) error {
	if want := grid.NLat * grid.NLon; len(no2) != want {
		return fmt.Errorf("values length %d does not match grid %dx%d", len(no2), grid.NLat, grid.NLon)
	}

	h := cdf.NewHeader([]string{latDim, lonDim}, []int{grid.NLat, grid.NLon})
	h.AddVariable(NO2Field, []string{latDim, lonDim}, []float64{0})
	h.AddAttribute(NO2Field, "units", "molec/cm2")
	h.AddVariable(WeightField, []string{latDim, lonDim}, []float64{0})
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cf, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("write netcdf header: %w", err)
	}

	if _, err := cf.Writer(NO2Field, nil, nil).Write(no2); err != nil {
		return fmt.Errorf("write %s: %w", NO2Field, err)
	}

	weights := make([]float64, len(no2))
	for i := range weights {
		weights[i] = 1
	}
	if _, err := cf.Writer(WeightField, nil, nil).Write(weights); err != nil {
		return fmt.Errorf("write %s: %w", WeightField, err)
	}

	return nil
}
