// Package weather normalizes vendor-shaped reanalysis and forecast data into
// the daily driver stack consumed by the reference ET engine and the dT
// model.
//
// Three interchangeable sources are supported, each with its own band
// naming, time cadence, and unit conventions:
//
//	nasa   GLDAS-2.1 NOAH land reanalysis, 3-hourly
//	gfs    NOAA GFS global forecast, 6-hourly
//	ecmwf  ERA5-Land reanalysis, hourly
//
// A raw day is an ordered list of per-step band grids; Normalize reduces it
// to daily values: tmax/tmin as max/min of instantaneous temperature,
// humidity converted to actual vapor pressure (specific-humidity based for
// the gridded reanalysis sources, dewpoint based for ECMWF), solar radiation
// in MJ m-2 day-1, wind speed as scalar magnitude, and precipitation as a
// daily total in mm.
package weather

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/ssebop-etl/internal/raster"
	"github.com/couchcryptid/ssebop-etl/internal/refet"
)

// ErrNoData marks a data-availability gap: the requested day has no source
// steps. Callers surface it as a missing output, never a fabricated zero.
var ErrNoData = errors.New("weather: no source data for day")

// Source identifies a weather data provider.
type Source int

const (
	// NASA is the GLDAS-2.1 3-hourly land reanalysis.
	NASA Source = iota
	// GFS is the NOAA 6-hourly global forecast.
	GFS
	// ECMWF is the ERA5-Land hourly reanalysis.
	ECMWF
)

// ParseSource maps a configuration string onto a Source.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(s) {
	case "nasa":
		return NASA, nil
	case "gfs":
		return GFS, nil
	case "ecmwf":
		return ECMWF, nil
	default:
		return 0, fmt.Errorf(`weather: model source must be "nasa", "gfs", or "ecmwf", got %q`, s)
	}
}

func (s Source) String() string {
	switch s {
	case GFS:
		return "gfs"
	case ECMWF:
		return "ecmwf"
	default:
		return "nasa"
	}
}

// Step is one time step of raw source bands, all sharing one grid geometry.
type Step struct {
	Time  time.Time
	Bands map[string]*raster.Grid
}

// RawDay is one calendar day of source data in the vendor's native shape.
type RawDay struct {
	Date  time.Time
	Steps []Step
}

// Ancillary carries the static per-deployment grids that the daily sources
// do not ship themselves.
type Ancillary struct {
	Elev *raster.Grid // elevation [m]
	Lat  *raster.Grid // latitude [deg]
}

// Stack is the normalized weather driver stack for one day.
type Stack struct {
	Tmax *raster.Grid // [C]
	Tmin *raster.Grid // [C]
	Ea   *raster.Grid // actual vapor pressure [kPa]
	Rs   *raster.Grid // shortwave radiation [MJ m-2 day-1]
	Wind *raster.Grid // scalar wind speed [m s-1]
	Rain *raster.Grid // precipitation total [mm]
	Elev *raster.Grid // [m]
	Lat  *raster.Grid // [deg]
	Zw   float64      // wind measurement height [m]
	Doy  int
}

// Normalize reduces a raw source day to the driver stack. A missing band in
// any step is reported against the day rather than zero-filled.
func Normalize(src Source, day RawDay, anc Ancillary, method refet.Method) (*Stack, error) {
	if len(day.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNoData, src, day.Date.Format("2006-01-02"))
	}
	var (
		st  *Stack
		err error
	)
	switch src {
	case NASA:
		st, err = normalizeNASA(day, anc, method)
	case GFS:
		st, err = normalizeGFS(day, anc, method)
	case ECMWF:
		st, err = normalizeECMWF(day, anc)
	default:
		return nil, fmt.Errorf("weather: unknown source %d", src)
	}
	if err != nil {
		return nil, fmt.Errorf("weather: %s %s: %w", src, day.Date.Format("2006-01-02"), err)
	}
	st.Elev = anc.Elev
	st.Lat = anc.Lat
	st.Doy = day.Date.YearDay()
	return st, nil
}

// aggregation of a named band over a day's steps

type reduction int

const (
	reduceMax reduction = iota
	reduceMin
	reduceMean
	reduceSum
)

func reduceBand(steps []Step, name string, how reduction) (*raster.Grid, error) {
	var acc *raster.Grid
	for i, s := range steps {
		g, ok := s.Bands[name]
		if !ok {
			return nil, fmt.Errorf("step %d missing band %q", i, name)
		}
		if acc == nil {
			acc = g
			continue
		}
		switch how {
		case reduceMax:
			acc = acc.Max(g)
		case reduceMin:
			acc = acc.Min(g)
		default:
			acc = acc.Add(g)
		}
	}
	if how == reduceMean {
		acc = acc.DivScalar(float64(len(steps)))
	}
	return acc, nil
}
