package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ssebop-etl/internal/observability"
	"github.com/couchcryptid/ssebop-etl/internal/pipeline"
	"github.com/couchcryptid/ssebop-etl/internal/raster"
	"github.com/couchcryptid/ssebop-etl/internal/refet"
	"github.com/couchcryptid/ssebop-etl/internal/scene"
	"github.com/couchcryptid/ssebop-etl/internal/ssebop"
	"github.com/couchcryptid/ssebop-etl/internal/weather"
)

var (
	day1 = time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, time.July, 2, 0, 0, 0, 0, time.UTC)

	weatherTr = raster.Transform{-120, 0.04, 0, 38, 0, -0.04}
	sceneTr   = raster.Transform{-120, 0.01, 0, 38, 0, -0.01}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fill(t *testing.T, n int, tr raster.Transform, f func(r, c int) float64) *raster.Grid {
	t.Helper()
	vals := make([]float64, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			vals[r*n+c] = f(r, c)
		}
	}
	g, err := raster.New(vals, n, n, nil, tr)
	require.NoError(t, err)
	return g
}

func flat(t *testing.T, n int, tr raster.Transform, v float64) *raster.Grid {
	return fill(t, n, tr, func(int, int) float64 { return v })
}

// fakeWeather serves synthetic GLDAS-shaped days, with per-date error
// injection.
type fakeWeather struct {
	t       *testing.T
	ancErr  error
	dayErrs map[string]error
}

func (f *fakeWeather) Ancillary(context.Context) (weather.Ancillary, error) {
	if f.ancErr != nil {
		return weather.Ancillary{}, f.ancErr
	}
	elev := flat(f.t, 4, weatherTr, 150)
	return weather.Ancillary{Elev: elev, Lat: elev.Latitude()}, nil
}

func (f *fakeWeather) Day(_ context.Context, _ weather.Source, date time.Time) (weather.RawDay, error) {
	if err := f.dayErrs[date.Format("2006-01-02")]; err != nil {
		return weather.RawDay{}, err
	}
	steps := make([]weather.Step, 8)
	for i := range steps {
		temp := 293.0 + 15*float64(i%4)/3 // swings 293..308 K
		steps[i] = weather.Step{
			Time: date.Add(time.Duration(i) * 3 * time.Hour),
			Bands: map[string]*raster.Grid{
				"Tair_f_inst":  flat(f.t, 4, weatherTr, temp),
				"Qair_f_inst":  flat(f.t, 4, weatherTr, 0.009),
				"Swnet_tavg":   flat(f.t, 4, weatherTr, 300),
				"Wind_f_inst":  flat(f.t, 4, weatherTr, 2.5),
				"Rainf_f_tavg": flat(f.t, 4, weatherTr, 0),
			},
		}
	}
	return weather.RawDay{Date: date, Steps: steps}, nil
}

// fakeCatalog serves fixed scenes per date.
type fakeCatalog struct {
	scenes map[string][]scene.RawImage
	err    error
}

func (f *fakeCatalog) Scenes(_ context.Context, date time.Time) ([]scene.RawImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scenes[date.Format("2006-01-02")], nil
}

func testScene(t *testing.T, date time.Time) scene.RawImage {
	veg := func(r, c int) float64 { return float64(c) / 8 }
	return scene.RawImage{
		ID:      "LC08_044033_" + date.Format("20060102"),
		Time:    date.Add(18 * time.Hour),
		Sensor:  scene.Landsat8,
		Green:   flat(t, 8, sceneTr, 0.07),
		Red:     fill(t, 8, sceneTr, func(r, c int) float64 { return 0.12 - 0.08*veg(r, c) }),
		NIR:     fill(t, 8, sceneTr, func(r, c int) float64 { return 0.15 + 0.3*veg(r, c) }),
		SWIR1:   flat(t, 8, sceneTr, 0.2),
		TB:      fill(t, 8, sceneTr, func(r, c int) float64 { return 314 - 10*veg(r, c) }),
		QAWater: flat(t, 8, sceneTr, 0),
	}
}

// memSink collects products, optionally failing for one scene ID.
type memSink struct {
	mu       sync.Mutex
	products []*pipeline.Product
	failID   string
}

func (s *memSink) Store(_ context.Context, p *pipeline.Product) error {
	if p.SceneID == s.failID && s.failID != "" {
		return errors.New("sink unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
	return nil
}

func (s *memSink) byID(id string) *pipeline.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.SceneID == id {
			return p
		}
	}
	return nil
}

func newPipeline(w pipeline.WeatherSource, c pipeline.SceneCatalog, s pipeline.ProductSink,
	end time.Time, m *observability.Metrics) *pipeline.Pipeline {
	params := ssebop.DefaultParams()
	params.CoarseFactor = 4
	params.RegionFactor = 2
	return pipeline.New(w, c, s, pipeline.Options{
		Source:  weather.NASA,
		Method:  refet.ASCE,
		Surface: refet.Alfalfa,
		Params:  params,
		Start:   day1,
		End:     end,
		Workers: 2,
	}, discardLogger(), m)
}

func TestRun_ProducesProducts(t *testing.T) {
	fixed := time.Date(2024, time.July, 3, 12, 0, 0, 0, time.UTC)
	pipeline.SetClock(clockwork.NewFakeClockAt(fixed))
	defer pipeline.SetClock(nil)

	sink := &memSink{}
	catalog := &fakeCatalog{scenes: map[string][]scene.RawImage{
		"2024-07-01": {testScene(t, day1)},
		"2024-07-02": {testScene(t, day2)},
	}}
	metrics := observability.NewMetricsForTesting()
	p := newPipeline(&fakeWeather{t: t}, catalog, sink, day2, metrics)

	require.NoError(t, p.Run(context.Background()))
	require.Len(t, sink.products, 2)

	prod := sink.byID("LC08_044033_20240701")
	require.NotNil(t, prod)
	assert.Equal(t, day1, prod.Date)
	assert.Equal(t, "LANDSAT_8", prod.Sensor)
	assert.Equal(t, "nasa", prod.Source)
	assert.Equal(t, "asce", prod.Method)
	assert.Equal(t, "alfalfa", prod.Surface)
	assert.True(t, prod.ProcessedAt.Equal(fixed), "product is stamped with the injected clock")
	assert.Nil(t, prod.Diagnostics, "diagnostics are verbose-mode only")

	if prod.FractionStats.Count > 0 {
		assert.GreaterOrEqual(t, prod.FractionStats.Min, 0.0)
		assert.LessOrEqual(t, prod.FractionStats.Max, 1.0)
	}

	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DaysProcessed))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ProductsStored))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.DayErrors))
}

func TestRun_VerboseAttachesDiagnostics(t *testing.T) {
	sink := &memSink{}
	catalog := &fakeCatalog{scenes: map[string][]scene.RawImage{
		"2024-07-01": {testScene(t, day1)},
	}}
	params := ssebop.DefaultParams()
	params.CoarseFactor = 4
	params.RegionFactor = 2
	p := pipeline.New(&fakeWeather{t: t}, catalog, sink, pipeline.Options{
		Source:  weather.NASA,
		Method:  refet.ASCE,
		Surface: refet.Alfalfa,
		Params:  params,
		Start:   day1,
		End:     day1,
		Verbose: true,
	}, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, p.Run(context.Background()))
	require.Len(t, sink.products, 1)

	diags := sink.products[0].Diagnostics
	require.NotNil(t, diags)
	for _, name := range []string{"lst", "ndvi", "ndwi", "qa_water", "tmax", "dt", "ref_et", "cold_temp", "tcorr_coarse"} {
		assert.Contains(t, diags, name)
	}
	// Diagnostics on the scene geometry match the product grids.
	assert.Equal(t, sink.products[0].Fraction.Ny(), diags["lst"].Ny())
}

func TestRun_MissingWeatherDaySkipped(t *testing.T) {
	sink := &memSink{}
	w := &fakeWeather{t: t, dayErrs: map[string]error{
		"2024-07-01": pipeline.ErrNotAvailable,
	}}
	catalog := &fakeCatalog{scenes: map[string][]scene.RawImage{
		"2024-07-02": {testScene(t, day2)},
	}}
	metrics := observability.NewMetricsForTesting()
	p := newPipeline(w, catalog, sink, day2, metrics)

	require.NoError(t, p.Run(context.Background()))
	assert.Len(t, sink.products, 1, "the available day still runs")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DaysSkipped))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.DayErrors))
}

func TestRun_DayErrorIsolated(t *testing.T) {
	sink := &memSink{}
	w := &fakeWeather{t: t, dayErrs: map[string]error{
		"2024-07-01": errors.New("upstream timeout"),
	}}
	catalog := &fakeCatalog{scenes: map[string][]scene.RawImage{
		"2024-07-02": {testScene(t, day2)},
	}}
	metrics := observability.NewMetricsForTesting()
	p := newPipeline(w, catalog, sink, day2, metrics)

	require.NoError(t, p.Run(context.Background()))
	assert.Len(t, sink.products, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DayErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DaysProcessed))
}

func TestRun_SceneErrorIsolated(t *testing.T) {
	bad := testScene(t, day1)
	bad.ID = "LC00_BAD"
	bad.Sensor = scene.Sensor(42) // no thermal coefficients

	sink := &memSink{}
	catalog := &fakeCatalog{scenes: map[string][]scene.RawImage{
		"2024-07-01": {bad, testScene(t, day1)},
	}}
	metrics := observability.NewMetricsForTesting()
	p := newPipeline(&fakeWeather{t: t}, catalog, sink, day1, metrics)

	require.NoError(t, p.Run(context.Background()))
	require.Len(t, sink.products, 1)
	assert.Equal(t, "LC08_044033_20240701", sink.products[0].SceneID)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SceneErrors))
}

func TestRun_SinkErrorCountsAsSceneError(t *testing.T) {
	sink := &memSink{failID: "LC08_044033_20240701"}
	catalog := &fakeCatalog{scenes: map[string][]scene.RawImage{
		"2024-07-01": {testScene(t, day1)},
	}}
	metrics := observability.NewMetricsForTesting()
	p := newPipeline(&fakeWeather{t: t}, catalog, sink, day1, metrics)

	require.NoError(t, p.Run(context.Background()))
	assert.Empty(t, sink.products)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SceneErrors))
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestRun_AncillaryFailureIsFatal(t *testing.T) {
	w := &fakeWeather{t: t, ancErr: errors.New("catalog unreachable")}
	metrics := observability.NewMetricsForTesting()
	p := newPipeline(w, &fakeCatalog{}, &memSink{}, day1, metrics)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ancillary")
}

func TestRun_EmptySceneDay(t *testing.T) {
	sink := &memSink{}
	metrics := observability.NewMetricsForTesting()
	p := newPipeline(&fakeWeather{t: t}, &fakeCatalog{}, sink, day1, metrics)

	require.NoError(t, p.Run(context.Background()))
	assert.Empty(t, sink.products)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DaysProcessed))
	assert.Error(t, p.CheckReadiness(context.Background()),
		"no products means not ready")
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &memSink{}
	catalog := &fakeCatalog{scenes: map[string][]scene.RawImage{
		"2024-07-01": {testScene(t, day1)},
	}}
	p := newPipeline(&fakeWeather{t: t}, catalog, sink, day2, observability.NewMetricsForTesting())

	require.NoError(t, p.Run(ctx), "cancellation is a clean stop, not a failure")
	assert.Empty(t, sink.products)
}
