package refet

import (
	"fmt"
	"math"
	"strings"

	"github.com/couchcryptid/ssebop-etl/internal/raster"
)

// RsoType selects the clear-sky solar radiation model.
type RsoType int

const (
	// RsoDefault derives the Rso model from the calculation method:
	// simple under ASCE, full under RefET.
	RsoDefault RsoType = iota
	// RsoSimple uses the elevation-only formulation.
	RsoSimple
	// RsoFull uses the humidity- and pressure-aware formulation.
	RsoFull
	// RsoArray uses a caller-supplied Rso grid.
	RsoArray
)

// ParseRsoType maps a configuration string onto an RsoType. The empty string
// is the one sanctioned default and resolves to RsoDefault.
func ParseRsoType(s string) (RsoType, error) {
	switch strings.ToLower(s) {
	case "":
		return RsoDefault, nil
	case "simple":
		return RsoSimple, nil
	case "full":
		return RsoFull, nil
	case "array":
		return RsoArray, nil
	default:
		return 0, fmt.Errorf(`refet: rso_type must be unset, "simple", "full", or "array", got %q`, s)
	}
}

// Surface names the reference crop surface.
type Surface int

const (
	// Alfalfa is the tall reference (ETr).
	Alfalfa Surface = iota
	// Grass is the short reference (ET0).
	Grass
)

// ParseSurface maps a configuration string onto a Surface. All the aliases
// in common use are accepted; anything else is a configuration error.
func ParseSurface(s string) (Surface, error) {
	switch strings.ToLower(s) {
	case "alfalfa", "etr", "tall":
		return Alfalfa, nil
	case "grass", "eto", "et0", "short":
		return Grass, nil
	default:
		return 0, fmt.Errorf("refet: unsupported reference surface %q", s)
	}
}

func (s Surface) String() string {
	if s == Grass {
		return "grass"
	}
	return "alfalfa"
}

// DailyInput carries one day's weather drivers for the reference ET
// calculation. All grids must share one geometry; latitude is degrees.
type DailyInput struct {
	Tmax *raster.Grid // maximum daily temperature [C]
	Tmin *raster.Grid // minimum daily temperature [C]
	Ea   *raster.Grid // actual vapor pressure [kPa]
	Rs   *raster.Grid // incoming shortwave radiation [MJ m-2 day-1]
	Uz   *raster.Grid // wind speed at height Zw [m s-1]
	Zw   float64      // wind measurement height [m]
	Elev *raster.Grid // elevation [m]
	Lat  *raster.Grid // latitude [deg]
	Doy  int          // day of year, 1-based

	Method  Method
	RsoType RsoType
	Rso     *raster.Grid // only read when RsoType == RsoArray
}

// Daily holds the shared intermediate terms of the standardized reference ET
// equation for one day, ready to be closed over a surface's Cn/Cd pair.
type Daily struct {
	in      DailyInput
	psy     *raster.Grid // psychrometric constant
	tmean   *raster.Grid
	esSlope *raster.Grid
	es      *raster.Grid
	vpd     *raster.Grid
	ra      *raster.Grid
	rso     *raster.Grid
	rn      *raster.Grid
	u2      *raster.Grid
}

// NewDaily validates the configuration and evaluates the shared term stack.
// Physically implausible inputs (tmax < tmin, negative radiation) are not
// rejected here; they flow through as implausible but well-defined outputs,
// since input quality is the caller's responsibility.
func NewDaily(in DailyInput) (*Daily, error) {
	if in.RsoType == RsoArray && in.Rso == nil {
		return nil, fmt.Errorf(`refet: rso_type "array" requires an rso grid`)
	}

	latRad := in.Lat.MulScalar(math.Pi / 180)
	pair := AirPressure(in.Elev, in.Method)

	d := &Daily{in: in}
	d.psy = pair.MulScalar(0.000665)
	d.tmean = in.Tmax.Add(in.Tmin).MulScalar(0.5)
	d.esSlope = esSlope(d.tmean, in.Method)
	d.es = SatVaporPressure(in.Tmax).Add(SatVaporPressure(in.Tmin)).MulScalar(0.5)
	d.vpd = vpd(d.es, in.Ea)
	d.ra = raDaily(latRad, in.Doy, in.Method)

	switch in.RsoType {
	case RsoSimple:
		d.rso = rsoSimple(d.ra, in.Elev)
	case RsoFull:
		d.rso = rsoDaily(in.Ea, d.ra, pair, latRad, in.Doy)
	case RsoArray:
		d.rso = in.Rso
	case RsoDefault:
		if in.Method == ASCE {
			d.rso = rsoSimple(d.ra, in.Elev)
		} else {
			d.rso = rsoDaily(in.Ea, d.ra, pair, latRad, in.Doy)
		}
	}

	fcd := fcdDaily(in.Rs, d.rso)
	rnl := rnlDaily(in.Tmax, in.Tmin, in.Ea, fcd)
	d.rn = rn(in.Rs, rnl)
	d.u2 = windHeightAdjust(in.Uz, in.Zw)
	return d, nil
}

// etsz evaluates the standardized reference ET equation (ASCE-EWRI Eq. 1)
// for a surface's numerator/denominator constants.
func (d *Daily) etsz(cn, cd float64) *raster.Grid {
	num := d.psy.MulScalar(cn).Mul(d.u2).Mul(d.vpd).Div(d.tmean.AddScalar(273)).
		Add(d.esSlope.Mul(d.rn).MulScalar(0.408))
	den := d.esSlope.Add(d.psy.Mul(d.u2.MulScalar(cd).AddScalar(1)))
	return num.Div(den)
}

// ETo returns short (grass) reference ET [mm day-1].
func (d *Daily) ETo() *raster.Grid { return d.etsz(900, 0.34) }

// ETr returns tall (alfalfa) reference ET [mm day-1].
func (d *Daily) ETr() *raster.Grid { return d.etsz(1600, 0.38) }

// ETsz returns the reference ET for the given surface.
func (d *Daily) ETsz(s Surface) *raster.Grid {
	if s == Grass {
		return d.ETo()
	}
	return d.ETr()
}

// ETw returns Priestley-Taylor evaporation (alpha = 1.26) [mm day-1].
func (d *Daily) ETw() *raster.Grid {
	return d.esSlope.Mul(d.rn).MulScalar(1.26 * 1000).
		Div(d.esSlope.Add(d.psy).MulScalar(2453))
}

// EToFS1 returns the UF-IFAS FS1 radiation term of ET0 [mm day-1].
func (d *Daily) EToFS1() *raster.Grid {
	den := d.esSlope.Add(d.psy.Mul(d.u2.MulScalar(0.34).AddScalar(1)))
	return d.esSlope.Div(den).Mul(d.rn.MulScalar(0.408))
}

// EToFS2 returns the UF-IFAS FS2 wind term of ET0 [mm day-1].
func (d *Daily) EToFS2() *raster.Grid {
	tt := d.u2.MulScalar(900).Div(d.tmean.AddScalar(273))
	pt := d.psy.Div(d.esSlope.Add(d.psy.Mul(d.u2.MulScalar(0.34).AddScalar(1))))
	return pt.Mul(tt).Mul(d.es.Sub(d.in.Ea))
}

// PETHargreaves returns Hargreaves potential ET [mm day-1].
func (d *Daily) PETHargreaves() *raster.Grid {
	return d.tmean.AddScalar(17.8).
		Mul(d.in.Tmax.Sub(d.in.Tmin).Sqrt()).
		Mul(d.ra).
		MulScalar(0.0023 * 0.408)
}
