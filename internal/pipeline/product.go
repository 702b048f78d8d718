package pipeline

import (
	"time"

	"github.com/couchcryptid/ssebop-etl/internal/raster"
)

// Product is one scene's finished ET estimate plus the provenance a consumer
// needs to interpret it: which scene, which weather model, which calculation
// variants, and when it was produced.
type Product struct {
	SceneID    string
	SceneIndex int
	SceneTime  time.Time
	Date       time.Time
	Sensor     string

	// Model configuration provenance.
	Source  string
	Method  string
	Surface string

	Fraction *raster.Grid // fraction of reference ET [0..1]
	ET       *raster.Grid // actual ET [mm day-1]
	Tcorr    *raster.Grid // temperature correction ratio, native resolution

	// Summary statistics over unmasked cells, for monitoring and validation
	// without decoding the grids.
	FractionStats raster.Stats
	ETStats       raster.Stats
	TcorrStats    raster.Stats

	// Diagnostics carries the intermediate model surfaces (lst, ndvi, dt,
	// cold reference and so on) when the pipeline runs in verbose mode. Nil
	// in normal operation; the payload is several times the product size.
	Diagnostics map[string]*raster.Grid

	ProcessedAt time.Time
}
