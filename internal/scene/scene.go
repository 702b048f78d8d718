// Package scene derives the per-acquisition input bundle (land surface
// temperature, vegetation and water indices, QA water mask) from a satellite
// sensor image.
package scene

import (
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/ssebop-etl/internal/raster"
)

// Sensor enumerates the supported satellite platforms.
type Sensor int

const (
	Landsat5 Sensor = iota
	Landsat7
	Landsat8
	Landsat9
)

// ParseSensor maps a platform identifier (as carried in scene metadata,
// e.g. "LANDSAT_8") onto a Sensor. Unknown platforms are a configuration
// error, never silently mapped to a default coefficient set.
func ParseSensor(s string) (Sensor, error) {
	switch strings.ToUpper(s) {
	case "LANDSAT_5":
		return Landsat5, nil
	case "LANDSAT_7":
		return Landsat7, nil
	case "LANDSAT_8":
		return Landsat8, nil
	case "LANDSAT_9":
		return Landsat9, nil
	default:
		return 0, fmt.Errorf("scene: unsupported sensor %q", s)
	}
}

func (s Sensor) String() string {
	switch s {
	case Landsat5:
		return "LANDSAT_5"
	case Landsat7:
		return "LANDSAT_7"
	case Landsat9:
		return "LANDSAT_9"
	default:
		return "LANDSAT_8"
	}
}

// thermalCoeffs are the per-sensor constants of the single-channel LST
// retrieval: Planck calibration constants K1/K2 plus the path radiance,
// narrowband transmissivity, and sky radiance of the atmospheric correction.
type thermalCoeffs struct {
	K1    float64 // [W m-2 sr-1 um-1]
	K2    float64 // [K]
	Rp    float64
	TauNB float64
	RSky  float64
}

var sensorCoeffs = map[Sensor]thermalCoeffs{
	Landsat5: {K1: 607.76, K2: 1260.56, Rp: 0.91, TauNB: 0.866, RSky: 1.32},
	Landsat7: {K1: 666.09, K2: 1282.71, Rp: 0.91, TauNB: 0.866, RSky: 1.32},
	Landsat8: {K1: 774.8853, K2: 1321.0789, Rp: 0.91, TauNB: 0.866, RSky: 1.32},
	Landsat9: {K1: 799.0284, K2: 1329.2405, Rp: 0.91, TauNB: 0.866, RSky: 1.32},
}

// RawImage is a single acquisition's calibrated bands, already
// cloud-screened upstream: surface reflectance plus thermal brightness
// temperature and the QA-derived water flag.
type RawImage struct {
	ID     string
	Index  int
	Time   time.Time
	Sensor Sensor

	Green   *raster.Grid // surface reflectance
	Red     *raster.Grid
	NIR     *raster.Grid
	SWIR1   *raster.Grid
	TB      *raster.Grid // thermal brightness temperature [K]
	QAWater *raster.Grid // 0/1 QA water flag
}

// Bundle is the derived per-acquisition input set for the ET model.
type Bundle struct {
	ID     string
	Index  int
	Time   time.Time
	Sensor Sensor

	LST     *raster.Grid // emissivity-corrected land surface temperature [K]
	NDVI    *raster.Grid
	NDWI    *raster.Grid
	QAWater *raster.Grid // 0/1
}

// Derive computes the model inputs from a raw acquisition.
func Derive(img RawImage) (*Bundle, error) {
	tc, ok := sensorCoeffs[img.Sensor]
	if !ok {
		return nil, fmt.Errorf("scene: no thermal coefficients for sensor %d", img.Sensor)
	}

	ndvi := normalizedDifference(img.NIR, img.Red)
	ndwi := normalizedDifference(img.Green, img.SWIR1)
	lst := lst(img.TB, ndvi, tc)

	return &Bundle{
		ID:      img.ID,
		Index:   img.Index,
		Time:    img.Time,
		Sensor:  img.Sensor,
		LST:     lst,
		NDVI:    ndvi,
		NDWI:    ndwi,
		QAWater: img.QAWater,
	}, nil
}

func normalizedDifference(a, b *raster.Grid) *raster.Grid {
	return a.Sub(b).Div(a.Add(b))
}

// emissivity estimates narrowband surface emissivity from the NDVI-derived
// vegetation proportion, with a fixed water value below zero NDVI.
func emissivity(ndvi *raster.Grid) *raster.Grid {
	pv := ndvi.AddScalar(-0.2).DivScalar(0.3).Pow(2).Clamp(0, 1)
	// Soil/vegetation mix plus a cavity term for the soil fraction.
	em := pv.MulScalar(0.99).
		Add(pv.Neg().AddScalar(1).MulScalar(0.97)).
		Add(pv.Neg().AddScalar(1).MulScalar((1 - 0.97) * 0.55 * 0.99))
	return em.WhereScalar(ndvi.LtScalar(0), 0.985)
}

// lst inverts the sensor's Planck calibration to at-surface temperature:
// brightness temperature to radiance, atmospheric and emissivity
// correction, and back through the Planck relation.
func lst(tb, ndvi *raster.Grid, tc thermalCoeffs) *raster.Grid {
	em := emissivity(ndvi)
	rad := tb.Pow(-1).MulScalar(tc.K2).Exp().AddScalar(-1).Pow(-1).MulScalar(tc.K1)
	rc := rad.AddScalar(-tc.Rp).DivScalar(tc.TauNB).
		Sub(em.Neg().AddScalar(1).MulScalar(tc.RSky))
	return em.MulScalar(tc.K1).Div(rc).AddScalar(1).Log().Pow(-1).MulScalar(tc.K2)
}
