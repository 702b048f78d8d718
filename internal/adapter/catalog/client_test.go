package catalog_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ssebop-etl/internal/adapter/catalog"
	"github.com/couchcryptid/ssebop-etl/internal/asset"
	"github.com/couchcryptid/ssebop-etl/internal/observability"
	"github.com/couchcryptid/ssebop-etl/internal/pipeline"
	"github.com/couchcryptid/ssebop-etl/internal/raster"
	"github.com/couchcryptid/ssebop-etl/internal/weather"
)

var testDate = time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mk(t *testing.T, vals []float64) *raster.Grid {
	t.Helper()
	g, err := raster.New(vals, 2, 2, nil, raster.Transform{-120, 0.01, 0, 38, 0, -0.01})
	require.NoError(t, err)
	return g
}

func newClient(t *testing.T, baseURL string) *catalog.Client {
	t.Helper()
	return catalog.NewClient(baseURL, 5*time.Second, 8,
		discardLogger(), observability.NewMetricsForTesting())
}

func serveJSON(t *testing.T, docs map[string]any) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		doc, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClient_Ancillary(t *testing.T) {
	elev := mk(t, []float64{100, 150, 200, 250})
	srv, _ := serveJSON(t, map[string]any{
		"/ancillary.json": asset.Ancillary{
			Elev: asset.EncodeGrid(elev, ""),
			Lat:  asset.EncodeGrid(elev.Latitude(), ""),
		},
	})

	anc, err := newClient(t, srv.URL).Ancillary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, anc.Elev.At(0, 0))
}

func TestClient_DayCachesDocuments(t *testing.T) {
	day := asset.WeatherDay{
		Date: "2024-07-01",
		Steps: []asset.Step{{
			Time: testDate,
			Bands: map[string]asset.Grid{
				"Tair_f_inst": asset.EncodeGrid(mk(t, []float64{290, 291, 292, 293}), ""),
			},
		}},
	}
	srv, hits := serveJSON(t, map[string]any{
		"/weather/nasa/2024-07-01.json": day,
	})
	client := newClient(t, srv.URL)

	for i := 0; i < 3; i++ {
		got, err := client.Day(context.Background(), weather.NASA, testDate)
		require.NoError(t, err)
		assert.Equal(t, 290.0, got.Steps[0].Bands["Tair_f_inst"].At(0, 0))
	}
	assert.Equal(t, int64(1), hits.Load(), "repeat fetches are served from cache")
}

func TestClient_MissingDay(t *testing.T) {
	srv, _ := serveJSON(t, nil)
	_, err := newClient(t, srv.URL).Day(context.Background(), weather.NASA, testDate)
	assert.ErrorIs(t, err, pipeline.ErrNotAvailable)
}

func TestClient_MissingScenesIsEmpty(t *testing.T) {
	srv, _ := serveJSON(t, nil)
	imgs, err := newClient(t, srv.URL).Scenes(context.Background(), testDate)
	require.NoError(t, err)
	assert.Empty(t, imgs, "no scene document means no overpasses, not an error")
}

func TestClient_ServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backing store down", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, srv.URL).Day(context.Background(), weather.NASA, testDate)
	require.Error(t, err)
	assert.NotErrorIs(t, err, pipeline.ErrNotAvailable,
		"a server failure must not be mistaken for a data gap")
	assert.Contains(t, err.Error(), "500")
}

func TestClient_Unreachable(t *testing.T) {
	_, err := newClient(t, "http://127.0.0.1:1").Day(context.Background(), weather.NASA, testDate)
	assert.Error(t, err)
}
