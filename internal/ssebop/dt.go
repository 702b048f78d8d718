// Package ssebop implements the operational simplified surface energy
// balance: the temperature difference (dT) surface, elevation lapse
// corrections for the maximum air temperature, the FANO cold-reference
// temperature correction, and the fraction of reference ET.
package ssebop

import (
	"github.com/couchcryptid/ssebop-etl/internal/raster"
	"github.com/couchcryptid/ssebop-etl/internal/refet"
)

// dT bounds in Kelvin. The energy balance occasionally produces near-zero or
// extreme differences over snow, water, and steep terrain; values outside
// this range are not physically meaningful for the model.
const (
	dtMin = 1.0
	dtMax = 25.0
)

// DTInput carries the drivers of the temperature-difference surface.
// Temperatures are Kelvin here, unlike the reference ET engine, because dT
// is differenced against Kelvin land surface temperature downstream.
//
// Rs, Ea, and Lat are optional. A nil Rs substitutes clear-sky radiation
// (a cloud-free assumption), a nil Ea substitutes saturation vapor pressure
// at tmin (a near-saturated dawn assumption), and a nil Lat derives latitude
// from the elevation grid's georeferencing.
type DTInput struct {
	Tmax *raster.Grid // daily maximum air temperature [K]
	Tmin *raster.Grid // daily minimum air temperature [K]
	Elev *raster.Grid // elevation [m]
	Doy  int

	Rs  *raster.Grid // incoming shortwave radiation [MJ m-2 day-1]
	Ea  *raster.Grid // actual vapor pressure [kPa]
	Lat *raster.Grid // latitude [deg]
}

// DT computes the predicted temperature difference between a bare, dry
// surface and the air above it [K], following the FAO56 net radiation
// budget and an air-density scaling (Senay 2018). The result is clamped to
// [1, 25] K so the downstream ET fraction denominator stays well-behaved.
func DT(in DTInput) *raster.Grid {
	lat := in.Lat
	if lat == nil {
		lat = in.Elev.Latitude()
	}

	ra := refet.ExtraterrestrialRadiation(lat, in.Doy, refet.ASCE)
	rso := refet.ClearSkyRadiation(ra, in.Elev)

	// With measured solar radiation the cloudiness term follows from the
	// Rs/Rso ratio; without it the day is assumed clear.
	rs := in.Rs
	var fcd *raster.Grid
	if rs == nil {
		rs = rso
		fcd = raster.Const(1, rso)
	} else {
		fcd = refet.CloudinessFraction(rs, rso)
	}

	ea := in.Ea
	if ea == nil {
		ea = refet.SatVaporPressure(in.Tmin.AddScalar(-273.15))
	}

	// Net radiation: shortwave at albedo 0.23 minus long-wave loss, with the
	// Stefan-Boltzmann term on the Kelvin inputs directly.
	t4 := in.Tmax.Pow(4).Add(in.Tmin.Pow(4)).MulScalar(0.5)
	rnl := fcd.Mul(ea.Sqrt().MulScalar(-0.14).AddScalar(0.34)).Mul(t4).MulScalar(4.901e-9)
	rn := rs.MulScalar(0.77).Sub(rnl)

	// Air density from pressure and mean virtual temperature (FAO56 Eq. 3-5).
	pair := refet.AirPressure(in.Elev, refet.ASCE)
	tmean := in.Tmax.Add(in.Tmin).MulScalar(0.5)
	den := pair.MulScalar(3.486).Div(tmean.MulScalar(1.01))

	// dT = Rn / (rho * cp), with Rn converted from MJ m-2 day-1 to W m-2
	// and cp = 1.013e-3 MJ kg-1 K-1 folded into the constant.
	dt := rn.Div(den).MulScalar(110 / (1.013 / 1000 * 86400))
	return dt.Clamp(dtMin, dtMax)
}
