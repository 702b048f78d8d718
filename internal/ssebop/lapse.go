package ssebop

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/ssebop-etl/internal/raster"
)

// Default parameters of the two lapse corrections. The elevation threshold
// and smoothing radius come from the operational CONUS deployment.
const (
	// LapseThreshold is the elevation [m] above which the fixed-rate
	// correction applies.
	LapseThreshold = 1500.0
	// LapseRate is the fixed correction rate [K m-1] above the threshold.
	LapseRate = 0.003
	// SmoothedLapseRadius is the focal window radius [pixels] of the
	// terrain-relative correction.
	SmoothedLapseRadius = 80
)

// LapseMode selects which elevation correction is applied to the maximum
// air temperature.
type LapseMode int

const (
	// LapseNone applies no correction.
	LapseNone LapseMode = iota
	// LapseFixed applies the fixed rate above the elevation threshold.
	LapseFixed
	// LapseSmoothed applies the terrain-relative correction.
	LapseSmoothed
)

// ParseLapseMode maps a configuration string onto a LapseMode. The empty
// string means no correction.
func ParseLapseMode(s string) (LapseMode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return LapseNone, nil
	case "fixed":
		return LapseFixed, nil
	case "smoothed":
		return LapseSmoothed, nil
	default:
		return 0, fmt.Errorf(`ssebop: lapse mode must be "none", "fixed", or "smoothed", got %q`, s)
	}
}

func (m LapseMode) String() string {
	switch m {
	case LapseFixed:
		return "fixed"
	case LapseSmoothed:
		return "smoothed"
	default:
		return "none"
	}
}

// ApplyLapse runs the configured correction with the operational defaults.
func ApplyLapse(mode LapseMode, tmax, elev *raster.Grid) *raster.Grid {
	switch mode {
	case LapseFixed:
		return LapseAdjust(tmax, elev, LapseThreshold)
	case LapseSmoothed:
		return SmoothedLapseAdjust(tmax, elev, SmoothedLapseRadius)
	default:
		return tmax
	}
}

// LapseAdjust lowers the maximum air temperature over high terrain, where
// coarse weather grids overstate tmax relative to the cold mountain surface.
// Cells at or below the threshold elevation pass through unchanged.
func LapseAdjust(tmax, elev *raster.Grid, threshold float64) *raster.Grid {
	corrected := tmax.Sub(elev.AddScalar(-threshold).MulScalar(LapseRate))
	return tmax.Where(elev.GtScalar(threshold), corrected)
}

// SmoothedLapseAdjust lowers tmax where a cell stands more than 100 m above
// the median elevation of its neighborhood, correcting for sharp local
// relief rather than absolute elevation. Cells at or below the local median
// pass through unchanged.
func SmoothedLapseAdjust(tmax, elev *raster.Grid, radius int) *raster.Grid {
	rise := elev.Sub(elev.FocalMedian(radius)).AddScalar(-100)
	correction := rise.MulScalar(0.005)
	return tmax.Where(correction.GtScalar(0), tmax.Sub(correction))
}
