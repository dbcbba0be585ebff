// Command genmock writes synthetic OMNO2d granules in NetCDF classic format
// for local development and test fixtures. Each granule covers the full OMI
// 0.25 degree global grid with a ramped NO2 field, so the region mean over any
// bounding box is analytically computable. It prints the California region
// mean for updating test assertions.
//
// Usage:
//
//	go run ./cmd/genmock -out granule_data -days 3 -base 1.0e-9
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/airquality-report-service/internal/adapter/netcdf"
	"github.com/couchcryptid/airquality-report-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "granule_data", "output directory for synthetic granules")
	days := flag.Int("days", 3, "number of daily granules to generate")
	base := flag.Float64("base", 1.0e-9, "base NO2 column density in moles/cm²")
	startDate := flag.String("start", "2025-09-01", "date of the first granule (YYYY-MM-DD)")
	flag.Parse()

	if *days < 1 {
		return fmt.Errorf("-days must be at least 1")
	}
	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	grid := domain.OMIL3Grid()
	for day := 0; day < *days; day++ {
		date := start.AddDate(0, 0, day)
		name := fmt.Sprintf("OMI-Aura_L3-OMNO2d_%sm%s_v003.nc",
			date.Format("2006"), date.Format("0102"))
		path := filepath.Join(*outDir, name)

		if err := netcdf.WriteGranule(path, grid, granuleField(grid, *base, day)); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		log.Printf("wrote %s", path)
	}

	printRegionMean(grid, *base, *days)
	return nil
}

// granuleField fills the global grid with base + small per-cell and per-day
// ramps. The ramps keep every cell distinct so index bugs show up as mean
// shifts rather than silent passes.
func granuleField(grid domain.GridSpec, base float64, day int) []float64 {
	field := make([]float64, grid.NLat*grid.NLon)
	for i := 0; i < grid.NLat; i++ {
		for j := 0; j < grid.NLon; j++ {
			field[i*grid.NLon+j] = cellValue(base, day, i, j)
		}
	}
	return field
}

func cellValue(base float64, day, i, j int) float64 {
	return base + float64(day)*1e-11 + float64(i)*1e-14 + float64(j)*1e-15
}

// printRegionMean computes the exact spatial and temporal mean over the
// default California bounding box for the generated granules.
func printRegionMean(grid domain.GridSpec, base float64, days int) {
	region := domain.Region{West: -124.48, South: 32.53, East: -114.13, North: 42.01}

	latLo, latHi, ok := grid.LatIndexRange(region.South, region.North)
	if !ok {
		log.Print("region selects no latitude cells")
		return
	}
	lonLo, lonHi, ok := grid.LonIndexRange(region.West, region.East)
	if !ok {
		log.Print("region selects no longitude cells")
		return
	}

	var sum float64
	var n int
	for day := 0; day < days; day++ {
		for i := latLo; i < latHi; i++ {
			for j := lonLo; j < lonHi; j++ {
				sum += cellValue(base, day, i, j)
				n++
			}
		}
	}
	mean := sum / float64(n)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Granules: %d\n", days)
	fmt.Printf("California cells per granule: %d (lat %d:%d, lon %d:%d)\n",
		(latHi-latLo)*(lonHi-lonLo), latLo, latHi, lonLo, lonHi)
	fmt.Printf("Region mean: %s moles/cm²\n", domain.FormatColumnDensity(mean))
	level, _ := domain.ClassifyRisk(mean, domain.DefaultHighRiskThreshold)
	fmt.Printf("Risk at default threshold (%s): %s\n",
		domain.FormatColumnDensity(domain.DefaultHighRiskThreshold), level)
}
