// Package asset defines the JSON wire format for grid assets: weather days,
// scene acquisitions, ancillary grids, and finished ET products. The same
// schema is served by the catalog service, written by genmock, and read back
// by validate, so every adapter round-trips through one codec.
package asset

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ctessum/geom/proj"

	"github.com/couchcryptid/ssebop-etl/internal/raster"
	"github.com/couchcryptid/ssebop-etl/internal/scene"
	"github.com/couchcryptid/ssebop-etl/internal/weather"
)

// Grid is a georeferenced raster in transit. Masked cells serialize as JSON
// null, since NaN is not representable in JSON.
type Grid struct {
	Ny        int        `json:"ny"`
	Nx        int        `json:"nx"`
	Transform [6]float64 `json:"transform"`
	SRS       string     `json:"srs,omitempty"` // proj4 string; empty means unreferenced
	Values    []*float64 `json:"values"`
}

// EncodeGrid converts a raster grid to its wire form.
func EncodeGrid(g *raster.Grid, srs string) Grid {
	vals := g.Values()
	out := make([]*float64, len(vals))
	for i := range vals {
		if !math.IsNaN(vals[i]) {
			v := vals[i]
			out[i] = &v
		}
	}
	return Grid{
		Ny:        g.Ny(),
		Nx:        g.Nx(),
		Transform: g.GeoTransform(),
		SRS:       srs,
		Values:    out,
	}
}

// Decode converts a wire grid back to a raster grid.
func (a Grid) Decode() (*raster.Grid, error) {
	if len(a.Values) != a.Ny*a.Nx {
		return nil, fmt.Errorf("asset: grid has %d values for %dx%d shape", len(a.Values), a.Ny, a.Nx)
	}
	var sr *proj.SR
	if a.SRS != "" {
		var err error
		sr, err = proj.Parse(a.SRS)
		if err != nil {
			return nil, fmt.Errorf("asset: parse srs: %w", err)
		}
	}
	vals := make([]float64, len(a.Values))
	for i, v := range a.Values {
		if v == nil {
			vals[i] = math.NaN()
		} else {
			vals[i] = *v
		}
	}
	return raster.New(vals, a.Ny, a.Nx, sr, raster.Transform(a.Transform))
}

// Step is one time step of raw weather bands.
type Step struct {
	Time  time.Time       `json:"time"`
	Bands map[string]Grid `json:"bands"`
}

// WeatherDay is one calendar day of raw weather steps.
type WeatherDay struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Steps []Step `json:"steps"`
}

// DecodeWeatherDay parses a weather day document.
func DecodeWeatherDay(data []byte) (weather.RawDay, error) {
	var doc WeatherDay
	if err := json.Unmarshal(data, &doc); err != nil {
		return weather.RawDay{}, fmt.Errorf("asset: weather day: %w", err)
	}
	date, err := time.Parse("2006-01-02", doc.Date)
	if err != nil {
		return weather.RawDay{}, fmt.Errorf("asset: weather day date %q: %w", doc.Date, err)
	}
	day := weather.RawDay{Date: date, Steps: make([]weather.Step, len(doc.Steps))}
	for i, s := range doc.Steps {
		bands := make(map[string]*raster.Grid, len(s.Bands))
		for name, g := range s.Bands {
			grid, err := g.Decode()
			if err != nil {
				return weather.RawDay{}, fmt.Errorf("asset: step %d band %q: %w", i, name, err)
			}
			bands[name] = grid
		}
		day.Steps[i] = weather.Step{Time: s.Time, Bands: bands}
	}
	return day, nil
}

// Scene band names in a scene document.
const (
	BandGreen   = "green"
	BandRed     = "red"
	BandNIR     = "nir"
	BandSWIR1   = "swir1"
	BandThermal = "tb"
	BandQAWater = "qa_water"
)

// Scene is one raw acquisition.
type Scene struct {
	ID     string          `json:"id"`
	Index  int             `json:"index"`
	Time   time.Time       `json:"time"`
	Sensor string          `json:"sensor"`
	Bands  map[string]Grid `json:"bands"`
}

// DecodeScenes parses a scene list document into raw images.
func DecodeScenes(data []byte) ([]scene.RawImage, error) {
	var docs []Scene
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("asset: scenes: %w", err)
	}
	imgs := make([]scene.RawImage, 0, len(docs))
	for _, doc := range docs {
		img, err := doc.Decode()
		if err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	return imgs, nil
}

// Decode converts a scene document into a raw image.
func (s Scene) Decode() (scene.RawImage, error) {
	sensor, err := scene.ParseSensor(s.Sensor)
	if err != nil {
		return scene.RawImage{}, fmt.Errorf("asset: scene %s: %w", s.ID, err)
	}
	img := scene.RawImage{ID: s.ID, Index: s.Index, Time: s.Time, Sensor: sensor}
	for _, b := range []struct {
		name string
		dst  **raster.Grid
	}{
		{BandGreen, &img.Green},
		{BandRed, &img.Red},
		{BandNIR, &img.NIR},
		{BandSWIR1, &img.SWIR1},
		{BandThermal, &img.TB},
		{BandQAWater, &img.QAWater},
	} {
		g, ok := s.Bands[b.name]
		if !ok {
			return scene.RawImage{}, fmt.Errorf("asset: scene %s missing band %q", s.ID, b.name)
		}
		grid, err := g.Decode()
		if err != nil {
			return scene.RawImage{}, fmt.Errorf("asset: scene %s band %q: %w", s.ID, b.name, err)
		}
		*b.dst = grid
	}
	return img, nil
}

// EncodeScene converts a raw image to its wire form.
func EncodeScene(img scene.RawImage, srs string) Scene {
	return Scene{
		ID:     img.ID,
		Index:  img.Index,
		Time:   img.Time,
		Sensor: img.Sensor.String(),
		Bands: map[string]Grid{
			BandGreen:   EncodeGrid(img.Green, srs),
			BandRed:     EncodeGrid(img.Red, srs),
			BandNIR:     EncodeGrid(img.NIR, srs),
			BandSWIR1:   EncodeGrid(img.SWIR1, srs),
			BandThermal: EncodeGrid(img.TB, srs),
			BandQAWater: EncodeGrid(img.QAWater, srs),
		},
	}
}

// Ancillary carries the static deployment grids.
type Ancillary struct {
	Elev Grid `json:"elev"`
	Lat  Grid `json:"lat"`
}

// DecodeAncillary parses an ancillary document.
func DecodeAncillary(data []byte) (weather.Ancillary, error) {
	var doc Ancillary
	if err := json.Unmarshal(data, &doc); err != nil {
		return weather.Ancillary{}, fmt.Errorf("asset: ancillary: %w", err)
	}
	elev, err := doc.Elev.Decode()
	if err != nil {
		return weather.Ancillary{}, fmt.Errorf("asset: ancillary elev: %w", err)
	}
	lat, err := doc.Lat.Decode()
	if err != nil {
		return weather.Ancillary{}, fmt.Errorf("asset: ancillary lat: %w", err)
	}
	return weather.Ancillary{Elev: elev, Lat: lat}, nil
}
