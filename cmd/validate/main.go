// Command validate performs integrity checks over a directory of OMNO2d
// granules in NetCDF classic format. It verifies that every granule matches
// the OMI 0.25 degree global grid, reports missing-cell coverage, and computes
// the California region mean so cached data can be sanity-checked before the
// service serves reports from it.
//
// Usage:
//
//	go run ./cmd/validate -dir granule_data
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/airquality-report-service/internal/adapter/netcdf"
	"github.com/couchcryptid/airquality-report-service/internal/domain"
	"github.com/couchcryptid/airquality-report-service/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dir := flag.String("dir", "granule_data", "granule cache directory to validate")
	west := flag.Float64("west", -124.48, "region west bound")
	south := flag.Float64("south", 32.53, "region south bound")
	east := flag.Float64("east", -114.13, "region east bound")
	north := flag.Float64("north", 42.01, "region north bound")
	flag.Parse()

	paths, err := filepath.Glob(filepath.Join(*dir, "OMI-Aura_L3-*"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no granules found in %s", *dir)
	}
	sort.Strings(paths)

	region := domain.Region{West: *west, South: *south, East: *east, North: *north}
	if err := region.Validate(); err != nil {
		return err
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	reader := netcdf.NewReader(domain.OMIL3Grid(), observability.NewMetrics(), quiet)

	ds, err := reader.OpenAndConcat(context.Background(), paths)
	if err != nil {
		return fmt.Errorf("granule validation failed: %w", err)
	}

	fmt.Printf("Granules: %d\n", ds.TimeSteps())
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		fmt.Printf("  %s (%d bytes)\n", filepath.Base(p), info.Size())
	}

	total := len(ds.Data.Elements)
	var missing int
	for _, v := range ds.Data.Elements {
		if math.IsNaN(v) {
			missing++
		}
	}
	fmt.Printf("Global cells: %d, missing: %d (%.1f%%)\n",
		total, missing, 100*float64(missing)/float64(total))

	sub, err := ds.Subset(region)
	if err != nil {
		return fmt.Errorf("region subset: %w", err)
	}
	mean := sub.Mean()
	if math.IsNaN(mean) {
		return fmt.Errorf("region contains no valid observations")
	}

	fmt.Printf("Region mean: %s moles/cm²\n", domain.FormatColumnDensity(mean))
	level, _ := domain.ClassifyRisk(mean, domain.DefaultHighRiskThreshold)
	fmt.Printf("Risk at default threshold: %s\n", level)
	return nil
}
