// Package fixture implements the pipeline's sources and sink against a
// directory of JSON asset files. It backs local runs, tests, and the
// genmock/validate tooling. Layout under the root directory:
//
//	ancillary.json                 static elevation and latitude grids
//	weather/<source>/<date>.json   one raw weather day per file
//	scenes/<date>.json             the day's raw acquisitions
//	products/                      written by the sink, one file per product
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/ssebop-etl/internal/asset"
	"github.com/couchcryptid/ssebop-etl/internal/pipeline"
	"github.com/couchcryptid/ssebop-etl/internal/scene"
	"github.com/couchcryptid/ssebop-etl/internal/weather"
)

const dateLayout = "2006-01-02"

// Store reads pipeline inputs from a fixture directory. It implements
// pipeline.WeatherSource and pipeline.SceneCatalog.
type Store struct {
	dir string
}

// NewStore creates a fixture store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Ancillary loads the static elevation and latitude grids.
func (s *Store) Ancillary(_ context.Context) (weather.Ancillary, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, "ancillary.json"))
	if err != nil {
		return weather.Ancillary{}, fmt.Errorf("fixture: %w", err)
	}
	return asset.DecodeAncillary(data)
}

// Day loads one raw weather day. A missing file is a data gap, reported as
// pipeline.ErrNotAvailable.
func (s *Store) Day(_ context.Context, src weather.Source, date time.Time) (weather.RawDay, error) {
	path := filepath.Join(s.dir, "weather", src.String(), date.Format(dateLayout)+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return weather.RawDay{}, fmt.Errorf("%w: %s", pipeline.ErrNotAvailable, path)
	}
	if err != nil {
		return weather.RawDay{}, fmt.Errorf("fixture: %w", err)
	}
	return asset.DecodeWeatherDay(data)
}

// Scenes loads the day's acquisitions. A missing file means no overpasses
// that day, which is normal, so it returns an empty list.
func (s *Store) Scenes(_ context.Context, date time.Time) ([]scene.RawImage, error) {
	path := filepath.Join(s.dir, "scenes", date.Format(dateLayout)+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	return asset.DecodeScenes(data)
}

// ProductWriter stores products as JSON files under a directory. It
// implements pipeline.ProductSink; file names are unique per scene so
// concurrent stores never collide.
type ProductWriter struct {
	dir string
}

// NewProductWriter creates the output directory and returns a writer into it.
func NewProductWriter(dir string) (*ProductWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fixture: create product dir: %w", err)
	}
	return &ProductWriter{dir: dir}, nil
}

// Store writes one product file.
func (w *ProductWriter) Store(_ context.Context, p *pipeline.Product) error {
	doc := asset.EncodeProduct(p)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("fixture: encode product %s: %w", p.SceneID, err)
	}
	name := fmt.Sprintf("%s_%s.json", p.Date.Format(dateLayout), p.SceneID)
	return os.WriteFile(filepath.Join(w.dir, name), data, 0o600)
}
