// Package domain models NASA OMI/Aura Level 3 tropospheric NO2 data and the
// air-quality report derived from it.
//
// # Data Source
//
// Granules come from the OMI-Aura_L3-OMNO2d collection (short name "OMNO2d"):
// daily global grids of tropospheric NO2 column density in moles/cm²,
// distributed through NASA Earthdata. Each granule covers one day on a fixed
// 0.25° global grid (720 latitude rows, 1440 longitude columns).
//
// # Grid Conventions
//
// The OMNO2d product stores the data field under generic grid dimensions with
// no coordinate variables attached. Coordinates are therefore assigned from a
// GridSpec descriptor rather than read from file metadata:
//
//	latitude cell centers:  -89.875 .. 89.875   (720 steps of 0.25°)
//	longitude cell centers: -179.875 .. 179.875 (1440 steps of 0.25°)
//
// A granule whose dimension lengths disagree with the descriptor is rejected
// outright; assigning the fixed coordinate vectors to a mismatched grid would
// silently shift every subsequent spatial selection.
//
// # Missing Values
//
// Ocean cells, cloud-masked cells, and off-swath cells carry the product's
// fill value and are represented here as NaN. Reductions skip NaN; a subset
// containing only NaN cells reduces to NaN, which callers must treat as "no
// usable data" rather than a number.
//
// # Risk Classification
//
// The period/region mean is compared against a high-risk threshold
// (1.6e-9 moles/cm² by default). The comparison is inclusive: a mean exactly
// at the threshold classifies as HIGH RISK. Values are displayed in
// scientific notation with a two-digit mantissa, e.g. "1.60e-09".
package domain
