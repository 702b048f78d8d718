package asset

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/ssebop-etl/internal/pipeline"
	"github.com/couchcryptid/ssebop-etl/internal/raster"
)

// Stats mirrors raster.Stats on the wire.
type Stats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Product is a finished ET product document.
type Product struct {
	SceneID    string    `json:"scene_id"`
	SceneIndex int       `json:"scene_index"`
	SceneTime  time.Time `json:"scene_time"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Sensor     string    `json:"sensor"`

	Source  string `json:"source"`
	Method  string `json:"method"`
	Surface string `json:"surface"`

	Fraction Grid `json:"fraction"`
	ET       Grid `json:"et"`
	Tcorr    Grid `json:"tcorr"`

	FractionStats Stats `json:"fraction_stats"`
	ETStats       Stats `json:"et_stats"`
	TcorrStats    Stats `json:"tcorr_stats"`

	// Diagnostics is only present on verbose-mode products.
	Diagnostics map[string]Grid `json:"diagnostics,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

func encodeStats(s raster.Stats) Stats {
	return Stats{Count: s.Count, Mean: s.Mean, Min: s.Min, Max: s.Max}
}

// EncodeProduct converts a pipeline product to its wire form.
func EncodeProduct(p *pipeline.Product) Product {
	var diags map[string]Grid
	if len(p.Diagnostics) > 0 {
		diags = make(map[string]Grid, len(p.Diagnostics))
		for name, g := range p.Diagnostics {
			diags[name] = EncodeGrid(g, "")
		}
	}
	return Product{
		SceneID:       p.SceneID,
		SceneIndex:    p.SceneIndex,
		SceneTime:     p.SceneTime,
		Date:          p.Date.Format("2006-01-02"),
		Sensor:        p.Sensor,
		Source:        p.Source,
		Method:        p.Method,
		Surface:       p.Surface,
		Fraction:      EncodeGrid(p.Fraction, ""),
		ET:            EncodeGrid(p.ET, ""),
		Tcorr:         EncodeGrid(p.Tcorr, ""),
		FractionStats: encodeStats(p.FractionStats),
		ETStats:       encodeStats(p.ETStats),
		TcorrStats:    encodeStats(p.TcorrStats),
		Diagnostics:   diags,
		ProcessedAt:   p.ProcessedAt,
	}
}

// DecodeProduct parses a product document without converting the grids; the
// validate tooling decodes individual grids as it checks them.
func DecodeProduct(data []byte) (Product, error) {
	var doc Product
	if err := json.Unmarshal(data, &doc); err != nil {
		return Product{}, fmt.Errorf("asset: product: %w", err)
	}
	return doc, nil
}
