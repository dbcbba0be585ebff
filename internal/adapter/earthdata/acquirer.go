package earthdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/airquality-report-service/internal/domain"
	"github.com/couchcryptid/airquality-report-service/internal/observability"
)

// ErrNoGranules indicates the query matched nothing, or matched granules that
// produced no usable files.
var ErrNoGranules = errors.New("no granules found for query")

// Acquirer resolves granule files for a region and time range, preferring the
// local cache directory over the network. Acquisition is idempotent: when
// files matching the collection's naming pattern already exist in the cache,
// no login, search, or download is issued.
//
// The cache short-circuit trusts any matching files without checking coverage
// against a fresh search, so a failed download batch must not leave partial
// results behind: Client.Download removes already written files on error,
// keeping the next request on the network path instead of serving a mean
// biased by an incomplete granule set.
//
// The cache directory is shared across requests without locking; concurrent
// requests racing to populate it may download the same file twice.
type Acquirer struct {
	client    *Client
	cacheDir  string
	shortName string
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewAcquirer creates an Acquirer over the given client and cache directory.
func NewAcquirer(client *Client, cacheDir, shortName string, metrics *observability.Metrics, logger *slog.Logger) *Acquirer {
	return &Acquirer{
		client:    client,
		cacheDir:  cacheDir,
		shortName: shortName,
		metrics:   metrics,
		logger:    logger,
	}
}

// pattern returns the cache filename glob for the collection, e.g.
// "OMI-Aura_L3-OMNO2d_*" for short name OMNO2d.
func (a *Acquirer) pattern() string {
	return filepath.Join(a.cacheDir, fmt.Sprintf("OMI-Aura_L3-%s_*", a.shortName))
}

// Acquire returns local granule file paths for the region and window, sorted
// lexically by filename. OMNO2d filenames embed the observation date
// (OMI-Aura_L3-OMNO2d_YYYYmMMDD...), so lexical order is chronological order
// for the concatenation axis.
func (a *Acquirer) Acquire(ctx context.Context, region domain.Region, window domain.TimeRange) ([]string, error) {
	files, err := filepath.Glob(a.pattern())
	if err != nil {
		return nil, fmt.Errorf("glob cache dir: %w", err)
	}
	if len(files) > 0 {
		a.metrics.AcquisitionCache.WithLabelValues("hit").Inc()
		a.logger.Info("using cached granules", "count", len(files), "dir", a.cacheDir)
		sort.Strings(files)
		return files, nil
	}
	a.metrics.AcquisitionCache.WithLabelValues("miss").Inc()

	if err := a.client.Login(ctx); err != nil {
		return nil, err
	}

	refs, err := a.client.SearchGranules(ctx, a.shortName, region, window)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: short_name=%s", ErrNoGranules, a.shortName)
	}
	a.logger.Info("granule search complete", "count", len(refs))

	if _, err := a.client.Download(ctx, refs, a.cacheDir); err != nil {
		return nil, err
	}

	files, err = filepath.Glob(a.pattern())
	if err != nil {
		return nil, fmt.Errorf("glob cache dir: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: download produced no usable files", ErrNoGranules)
	}

	sort.Strings(files)
	return files, nil
}
