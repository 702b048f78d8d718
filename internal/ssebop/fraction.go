package ssebop

import "github.com/couchcryptid/ssebop-etl/internal/raster"

// etfUpperBound is where a fraction stops being a plausible wet-surface
// overshoot and becomes a retrieval artifact. Values above it are masked
// out, not clamped, so artifacts never masquerade as saturated ET.
const etfUpperBound = 2.0

// ETFraction computes the fraction of reference ET from the surface energy
// balance: a cell at the cold reference temperature evaporates at the
// reference rate (fraction 1), a cell a full dT warmer does not evaporate at
// all (fraction 0). Cells where dT is zero are masked, values above 2 are
// masked as artifacts, and the remainder is clamped to [0, 1].
func ETFraction(lst, tmax, tcorr, dt *raster.Grid) *raster.Grid {
	etf := tmax.Mul(tcorr).Add(dt).Sub(lst).Div(dt)
	etf = etf.UpdateMask(etf.GtScalar(etfUpperBound).Not())
	return etf.Clamp(0, 1)
}

// ActualET scales a reference ET grid by the ET fraction [mm day-1].
func ActualET(fraction, refET *raster.Grid) *raster.Grid {
	return fraction.Mul(refET)
}
