// Command genmock generates a synthetic fixture dataset for the ET pipeline:
// ancillary grids, raw weather days, and raw satellite scenes, in the JSON
// asset layout the fixture store reads. Output is deterministic for a given
// seed so test assertions stay stable.
//
// The generated scene grids are 60x60 at roughly 1 km, so runs against this
// data should set COARSE_FACTOR=10 and REGION_FACTOR=3.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -start 2024-07-01 -days 16 -seed 7
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/ssebop-etl/internal/asset"
	"github.com/couchcryptid/ssebop-etl/internal/raster"
	"github.com/couchcryptid/ssebop-etl/internal/scene"
	"github.com/couchcryptid/ssebop-etl/internal/weather"
)

const srs = "+proj=longlat +datum=WGS84 +no_defs"

// Scene grid: 60x60 cells of 0.01 degrees anchored in the central valley of
// California; weather grid: 12x12 cells of 0.05 degrees over the same box.
var (
	sceneTr   = raster.Transform{-120.0, 0.01, 0, 38.0, 0, -0.01}
	weatherTr = raster.Transform{-120.0, 0.05, 0, 38.0, 0, -0.05}
)

const (
	sceneN   = 60
	weatherN = 12
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output fixture directory")
	startStr := flag.String("start", "2024-07-01", "first day (YYYY-MM-DD)")
	days := flag.Int("days", 16, "number of days to generate")
	sceneEvery := flag.Int("scene-every", 8, "generate scenes every N days")
	seed := flag.Int64("seed", 7, "PRNG seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	if err := writeAncillary(*out); err != nil {
		return err
	}
	log.Printf("wrote ancillary grids")

	var sceneDays int
	for i := 0; i < *days; i++ {
		date := start.AddDate(0, 0, i)
		for _, src := range []weather.Source{weather.NASA, weather.GFS, weather.ECMWF} {
			if err := writeWeatherDay(*out, src, date, rng); err != nil {
				return err
			}
		}
		if i%*sceneEvery == 0 {
			if err := writeScenes(*out, date, sceneDays, rng); err != nil {
				return err
			}
			sceneDays++
		}
	}

	log.Printf("wrote %d weather days (3 sources each), %d scene days", *days, sceneDays)
	return nil
}

// mkGrid builds a grid by evaluating f at each cell.
func mkGrid(n int, tr raster.Transform, f func(r, c int) float64) *raster.Grid {
	vals := make([]float64, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			vals[r*n+c] = f(r, c)
		}
	}
	g, err := raster.New(vals, n, n, nil, tr)
	if err != nil {
		panic(err)
	}
	return g
}

// writeAncillary emits elevation rising eastward with a ridge, plus the
// matching latitude grid, on the weather geometry.
func writeAncillary(dir string) error {
	elev := mkGrid(weatherN, weatherTr, func(r, c int) float64 {
		ridge := 1800 * math.Exp(-math.Pow(float64(c-9)/1.5, 2))
		return 50 + 12*float64(c) + ridge
	})
	lat := elev.Latitude()

	doc := asset.Ancillary{
		Elev: asset.EncodeGrid(elev, srs),
		Lat:  asset.EncodeGrid(lat, srs),
	}
	return writeJSON(filepath.Join(dir, "ancillary.json"), doc)
}

// sourceBands maps each source to its band schema and step cadence.
func writeWeatherDay(dir string, src weather.Source, date time.Time, rng *rand.Rand) error {
	var steps []asset.Step
	switch src {
	case weather.NASA:
		steps = genSteps(date, 8, 3*time.Hour, rng, nasaBands)
	case weather.GFS:
		steps = genSteps(date, 4, 6*time.Hour, rng, gfsBands)
	case weather.ECMWF:
		steps = genSteps(date, 24, time.Hour, rng, ecmwfBands)
	}
	doc := asset.WeatherDay{Date: date.Format("2006-01-02"), Steps: steps}
	path := filepath.Join(dir, "weather", src.String(), date.Format("2006-01-02")+".json")
	return writeJSON(path, doc)
}

func genSteps(date time.Time, n int, dt time.Duration, rng *rand.Rand, bands func(hour float64, rng *rand.Rand) map[string]*raster.Grid) []asset.Step {
	steps := make([]asset.Step, n)
	for i := 0; i < n; i++ {
		t := date.Add(time.Duration(i) * dt)
		hour := t.Sub(date).Hours()
		raw := bands(hour, rng)
		enc := make(map[string]asset.Grid, len(raw))
		for name, g := range raw {
			enc[name] = asset.EncodeGrid(g, srs)
		}
		steps[i] = asset.Step{Time: t, Bands: enc}
	}
	return steps
}

// diurnal is a simple temperature cycle peaking mid-afternoon [K].
func diurnal(hour float64, rng *rand.Rand) func(r, c int) float64 {
	base := 288 + 14*math.Sin((hour-9)*math.Pi/12)
	return func(r, c int) float64 {
		return base - 0.25*float64(c) + rng.Float64()
	}
}

// solarCycle is shortwave flux, zero at night [W m-2].
func solarCycle(hour float64, rng *rand.Rand) func(r, c int) float64 {
	flux := 900 * math.Max(0, math.Sin((hour-6)*math.Pi/12))
	return func(r, c int) float64 { return flux * (0.9 + 0.1*rng.Float64()) }
}

func nasaBands(hour float64, rng *rand.Rand) map[string]*raster.Grid {
	return map[string]*raster.Grid{
		"Tair_f_inst": mkGrid(weatherN, weatherTr, diurnal(hour, rng)),
		"Qair_f_inst": mkGrid(weatherN, weatherTr, func(r, c int) float64 { return 0.008 + 0.001*rng.Float64() }),
		"Swnet_tavg":  mkGrid(weatherN, weatherTr, solarCycle(hour, rng)),
		"Wind_f_inst": mkGrid(weatherN, weatherTr, func(r, c int) float64 { return 1.5 + 2*rng.Float64() }),
		"Rainf_f_tavg": mkGrid(weatherN, weatherTr, func(r, c int) float64 {
			if rng.Float64() < 0.95 {
				return 0
			}
			return 2e-5 * rng.Float64()
		}),
	}
}

func gfsBands(hour float64, rng *rand.Rand) map[string]*raster.Grid {
	return map[string]*raster.Grid{
		"temperature_2m_above_ground":         mkGrid(weatherN, weatherTr, diurnal(hour, rng)),
		"specific_humidity_2m_above_ground":   mkGrid(weatherN, weatherTr, func(r, c int) float64 { return 0.008 + 0.001*rng.Float64() }),
		"u_component_of_wind_10m_above_ground": mkGrid(weatherN, weatherTr, func(r, c int) float64 { return rng.NormFloat64() * 2 }),
		"v_component_of_wind_10m_above_ground": mkGrid(weatherN, weatherTr, func(r, c int) float64 { return rng.NormFloat64() * 2 }),
		"downward_shortwave_radiation_flux":    mkGrid(weatherN, weatherTr, solarCycle(hour, rng)),
		"total_precipitation_surface":          mkGrid(weatherN, weatherTr, func(r, c int) float64 { return 0 }),
	}
}

func ecmwfBands(hour float64, rng *rand.Rand) map[string]*raster.Grid {
	return map[string]*raster.Grid{
		"temperature_2m":          mkGrid(weatherN, weatherTr, diurnal(hour, rng)),
		"dewpoint_temperature_2m": mkGrid(weatherN, weatherTr, func(r, c int) float64 { return 281 + rng.Float64() }),
		"u_component_of_wind_10m": mkGrid(weatherN, weatherTr, func(r, c int) float64 { return rng.NormFloat64() * 2 }),
		"v_component_of_wind_10m": mkGrid(weatherN, weatherTr, func(r, c int) float64 { return rng.NormFloat64() * 2 }),
		"surface_solar_radiation_downwards": mkGrid(weatherN, weatherTr, func(r, c int) float64 {
			return 3600 * 900 * math.Max(0, math.Sin((hour-6)*math.Pi/12))
		}),
		"total_precipitation_hourly": mkGrid(weatherN, weatherTr, func(r, c int) float64 { return 0 }),
	}
}

// writeScenes emits one Landsat-like acquisition: a vegetation gradient from
// bare soil in the west to dense canopy in the east, a lake in the
// northeast, and surface temperature anticorrelated with vegetation.
func writeScenes(dir string, date time.Time, index int, rng *rand.Rand) error {
	inLake := func(r, c int) bool { return r < 14 && c > 44 }
	veg := func(r, c int) float64 { return float64(c) / sceneN } // 0 bare .. 1 canopy

	green := mkGrid(sceneN, sceneTr, func(r, c int) float64 {
		if inLake(r, c) {
			return 0.10 + 0.01*rng.Float64()
		}
		return 0.06 + 0.02*veg(r, c) + 0.005*rng.Float64()
	})
	red := mkGrid(sceneN, sceneTr, func(r, c int) float64 {
		if inLake(r, c) {
			return 0.06 + 0.01*rng.Float64()
		}
		return 0.12 - 0.08*veg(r, c) + 0.005*rng.Float64()
	})
	nir := mkGrid(sceneN, sceneTr, func(r, c int) float64 {
		if inLake(r, c) {
			return 0.03 + 0.01*rng.Float64()
		}
		return 0.15 + 0.30*veg(r, c) + 0.01*rng.Float64()
	})
	swir1 := mkGrid(sceneN, sceneTr, func(r, c int) float64 {
		if inLake(r, c) {
			return 0.02 + 0.005*rng.Float64()
		}
		return 0.20 - 0.05*veg(r, c) + 0.01*rng.Float64()
	})
	tb := mkGrid(sceneN, sceneTr, func(r, c int) float64 {
		if inLake(r, c) {
			return 295 + rng.Float64()
		}
		return 318 - 14*veg(r, c) + 0.5*rng.Float64()
	})
	qa := mkGrid(sceneN, sceneTr, func(r, c int) float64 {
		if inLake(r, c) {
			return 1
		}
		return 0
	})

	img := scene.RawImage{
		ID:      fmt.Sprintf("LC08_044033_%s", date.Format("20060102")),
		Index:   index,
		Time:    date.Add(18*time.Hour + 30*time.Minute),
		Sensor:  scene.Landsat8,
		Green:   green,
		Red:     red,
		NIR:     nir,
		SWIR1:   swir1,
		TB:      tb,
		QAWater: qa,
	}
	doc := []asset.Scene{asset.EncodeScene(img, srs)}
	path := filepath.Join(dir, "scenes", date.Format("2006-01-02")+".json")
	return writeJSON(path, doc)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
