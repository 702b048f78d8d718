package ssebop

import (
	"github.com/couchcryptid/ssebop-etl/internal/raster"
	"github.com/couchcryptid/ssebop-etl/internal/scene"
)

// Params tunes the FANO temperature correction.
type Params struct {
	// DtCoeff scales the NDVI-conditioned dT term of the FANO equation.
	DtCoeff float64
	// HighNDVI is the NDVI above which a cell counts as fully vegetated and
	// its surface temperature is already the cold reference.
	HighNDVI float64
	// WaterPct is the percent of water pixels in a coarse cell above which
	// the cell is wet-dominated and falls back to the regional estimate.
	WaterPct float64
	// NDWIThreshold bounds the water index of the combined land mask.
	NDWIThreshold float64
	// CoarseFactor is the number of native pixels per coarse aggregation
	// cell along each axis (5 km of 30 m pixels by default).
	CoarseFactor int
	// RegionFactor is the number of coarse cells per regional cell along
	// each axis (100 km regions over 5 km cells by default).
	RegionFactor int
}

// DefaultParams returns the operational parameter set.
func DefaultParams() Params {
	return Params{
		DtCoeff:       0.125,
		HighNDVI:      0.9,
		WaterPct:      10,
		NDWIThreshold: -0.15,
		CoarseFactor:  167,
		RegionFactor:  20,
	}
}

// Tcorr is the temperature correction surface for one acquisition.
type Tcorr struct {
	// Coarse is the correction ratio at the aggregation resolution where it
	// is estimated.
	Coarse *raster.Grid
	// Native is Coarse interpolated back to the acquisition's geometry.
	Native *raster.Grid
	// ColdTemp is the coarse cold reference temperature [K] the ratio was
	// derived from, kept for diagnostics.
	ColdTemp *raster.Grid
}

// TcorrFANO estimates the cold-reference temperature correction with the
// Forcing And Normalizing Operation: for every coarse cell the cold surface
// temperature a fully vegetated, well-watered canopy would have is predicted
// from the cell's NDVI-conditioned surface temperature, then normalized by
// the maximum air temperature. tmax and dt must already be on the
// acquisition's native geometry.
func TcorrFANO(b *scene.Bundle, tmax, dt *raster.Grid, p Params) *Tcorr {
	ndvi := b.NDVI.Clamp(-1, 1)

	// QA-flagged water that still shows positive NDVI (algal or shallow
	// water) is pushed negative so every downstream vegetation test treats
	// it as water.
	qaWater := b.QAWater.EqScalar(1)
	ndvi = ndvi.Where(qaWater.And(ndvi.GtScalar(0)), ndvi.Neg())

	// Combined land mask: dry by water index and clear of the QA water flag.
	land := b.NDWI.LtScalar(p.NDWIThreshold).And(b.QAWater.EqScalar(0))
	ndviMasked := ndvi.UpdateMask(land)
	lstMasked := b.LST.UpdateMask(land)

	// Land-pixel fraction per coarse cell. A cell with no land pixels has a
	// masked land count; falling back to the total count defines the
	// fraction as 1.0 there, and the negative-NDVI override below resolves
	// those all-water cells instead.
	landCount := lstMasked.Coarsen(p.CoarseFactor, raster.Count)
	totalCount := b.LST.Coarsen(p.CoarseFactor, raster.Count)
	landFraction := landCount.FirstNonNull(totalCount).Div(totalCount)
	wet := landFraction.LteScalar(1 - p.WaterPct/100)

	ndviM5 := ndviMasked.Coarsen(p.CoarseFactor, raster.Mean)
	lstM5 := lstMasked.Coarsen(p.CoarseFactor, raster.Mean)
	ndviU5 := ndvi.Coarsen(p.CoarseFactor, raster.Mean)
	lstU5 := b.LST.Coarsen(p.CoarseFactor, raster.Mean)
	dt5 := dt.Coarsen(p.CoarseFactor, raster.Mean)
	tmax5 := tmax.Coarsen(p.CoarseFactor, raster.Mean)

	// Regional (100 km) means of the same masked inputs, projected back to
	// the coarse geometry for the wet-cell fallback.
	ndviM100 := ndviM5.Coarsen(p.RegionFactor, raster.Mean).ResampleNearest(ndviM5)
	lstM100 := lstM5.Coarsen(p.RegionFactor, raster.Mean).ResampleNearest(lstM5)
	dt100 := dt5.Coarsen(p.RegionFactor, raster.Mean).ResampleNearest(dt5)

	fano5 := fanoColdTemp(lstM5, ndviM5, dt5, p)
	fano100 := fanoColdTemp(lstM100, ndviM100, dt100, p)

	// Ordered override chain on the unmasked LST mean; later conditions win
	// where they overlap, and a masked condition leaves the cell alone.
	cold := lstU5.
		Where(ndviM5.GteScalar(0).And(ndviM5.LteScalar(p.HighNDVI)), fano5).
		Where(ndviM5.GtScalar(p.HighNDVI), lstM5).
		Where(wet, fano100).
		Where(ndviU5.LtScalar(0), lstU5)

	coarse := cold.Div(tmax5)
	return &Tcorr{
		Coarse:   coarse,
		Native:   coarse.ResampleBilinear(b.NDVI),
		ColdTemp: cold,
	}
}

// fanoColdTemp predicts the cold reference temperature a cell would have at
// full canopy by extrapolating its surface temperature along the NDVI axis.
func fanoColdTemp(lst, ndvi, dt *raster.Grid, p Params) *raster.Grid {
	return lst.Sub(
		dt.MulScalar(p.DtCoeff).
			Mul(ndvi.Neg().AddScalar(p.HighNDVI)).
			MulScalar(10))
}
