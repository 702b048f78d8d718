// Package pipeline orchestrates the daily ET production run: fetch and
// normalize one day of weather, evaluate reference ET and the dT surface,
// then fan the day's satellite scenes out to workers that each produce one
// ET product. A failed day or scene is logged, counted, and skipped so one
// bad input never stalls the rest of the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/ssebop-etl/internal/observability"
	"github.com/couchcryptid/ssebop-etl/internal/raster"
	"github.com/couchcryptid/ssebop-etl/internal/refet"
	"github.com/couchcryptid/ssebop-etl/internal/scene"
	"github.com/couchcryptid/ssebop-etl/internal/ssebop"
	"github.com/couchcryptid/ssebop-etl/internal/weather"
)

// ErrNotAvailable marks an input that a source does not have, as opposed to
// a source that failed. Missing days are expected during operational runs
// and are skipped, not retried.
var ErrNotAvailable = errors.New("input not available")

// WeatherSource provides raw weather days and the static ancillary grids.
type WeatherSource interface {
	Ancillary(ctx context.Context) (weather.Ancillary, error)
	Day(ctx context.Context, src weather.Source, date time.Time) (weather.RawDay, error)
}

// SceneCatalog lists the raw satellite acquisitions for a day. A day with no
// acquisitions returns an empty slice, not an error.
type SceneCatalog interface {
	Scenes(ctx context.Context, date time.Time) ([]scene.RawImage, error)
}

// ProductSink stores finished ET products. Store may be called concurrently.
type ProductSink interface {
	Store(ctx context.Context, p *Product) error
}

// Options carries the model configuration of a run.
type Options struct {
	Source  weather.Source
	Method  refet.Method
	RsoType refet.RsoType
	Surface refet.Surface
	Lapse   ssebop.LapseMode
	Params  ssebop.Params

	Start   time.Time
	End     time.Time
	Workers int

	// Verbose attaches the intermediate model surfaces to every product.
	Verbose bool
}

// Pipeline drives the day loop and per-scene fan-out.
type Pipeline struct {
	weather WeatherSource
	catalog SceneCatalog
	sink    ProductSink
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given sources, sink, and observability.
func New(w WeatherSource, c SceneCatalog, s ProductSink, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		weather: w,
		catalog: c,
		sink:    s,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once the pipeline has stored at least one
// product, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not produced any products yet")
	}
	return nil
}

// Run processes every day in [Start, End] and returns when the range is
// exhausted or the context is cancelled. Only a missing ancillary dataset is
// fatal; per-day and per-scene failures are isolated.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"source", p.opts.Source.String(),
		"method", p.opts.Method.String(),
		"surface", p.opts.Surface.String(),
		"start", p.opts.Start.Format("2006-01-02"),
		"end", p.opts.End.Format("2006-01-02"),
		"workers", p.opts.Workers,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	anc, err := p.weather.Ancillary(ctx)
	if err != nil {
		return fmt.Errorf("load ancillary grids: %w", err)
	}

	for d := p.opts.Start; !d.After(p.opts.End); d = d.AddDate(0, 0, 1) {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if err := p.processDay(ctx, d, anc); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("day failed, skipping", "date", d.Format("2006-01-02"), "error", err)
			p.metrics.DayErrors.Inc()
			continue
		}
		p.metrics.DaysProcessed.Inc()
	}

	p.logger.Info("pipeline finished")
	return nil
}

// dayContext is the weather-derived state shared by every scene of one day,
// on the weather grid's geometry.
type dayContext struct {
	date  time.Time
	tmaxK *raster.Grid // lapse-correctable daily maximum [K]
	dt    *raster.Grid
	refET *raster.Grid
	elev  *raster.Grid
}

func (p *Pipeline) processDay(ctx context.Context, date time.Time, anc weather.Ancillary) error {
	raw, err := p.weather.Day(ctx, p.opts.Source, date)
	if errors.Is(err, ErrNotAvailable) || errors.Is(err, weather.ErrNoData) {
		p.logger.Warn("no weather data, skipping day", "date", date.Format("2006-01-02"))
		p.metrics.DaysSkipped.Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch weather: %w", err)
	}

	stack, err := weather.Normalize(p.opts.Source, raw, anc, p.opts.Method)
	if err != nil {
		return err
	}

	daily, err := refet.NewDaily(refet.DailyInput{
		Tmax:    stack.Tmax,
		Tmin:    stack.Tmin,
		Ea:      stack.Ea,
		Rs:      stack.Rs,
		Uz:      stack.Wind,
		Zw:      stack.Zw,
		Elev:    stack.Elev,
		Lat:     stack.Lat,
		Doy:     stack.Doy,
		Method:  p.opts.Method,
		RsoType: p.opts.RsoType,
	})
	if err != nil {
		return fmt.Errorf("reference ET: %w", err)
	}

	day := dayContext{
		date:  date,
		tmaxK: stack.Tmax.AddScalar(273.15),
		refET: daily.ETsz(p.opts.Surface),
		elev:  stack.Elev,
	}
	day.dt = ssebop.DT(ssebop.DTInput{
		Tmax: day.tmaxK,
		Tmin: stack.Tmin.AddScalar(273.15),
		Elev: stack.Elev,
		Doy:  stack.Doy,
		Rs:   stack.Rs,
		Ea:   stack.Ea,
		Lat:  stack.Lat,
	})

	imgs, err := p.catalog.Scenes(ctx, date)
	if err != nil {
		return fmt.Errorf("list scenes: %w", err)
	}
	if len(imgs) == 0 {
		p.logger.Debug("no scenes for day", "date", date.Format("2006-01-02"))
		return nil
	}

	// Scenes are independent; fan them out and isolate failures per scene.
	sem := make(chan struct{}, p.opts.Workers)
	var wg sync.WaitGroup
	for _, img := range imgs {
		wg.Add(1)
		sem <- struct{}{}
		go func(img scene.RawImage) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := p.processScene(ctx, day, img); err != nil {
				p.logger.Warn("scene failed, skipping",
					"date", day.date.Format("2006-01-02"),
					"scene", img.ID,
					"error", err,
				)
				p.metrics.SceneErrors.Inc()
			}
		}(img)
	}
	wg.Wait()
	return nil
}

func (p *Pipeline) processScene(ctx context.Context, day dayContext, img scene.RawImage) error {
	start := time.Now()

	b, err := scene.Derive(img)
	if err != nil {
		return err
	}

	// The weather-grid terms move onto the scene's geometry once, up front;
	// everything after is same-shape algebra.
	tmax := day.tmaxK.ResampleBilinear(b.NDVI)
	dt := day.dt.ResampleBilinear(b.NDVI)
	refET := day.refET.ResampleBilinear(b.NDVI)
	elev := day.elev.ResampleBilinear(b.NDVI)

	tmax = ssebop.ApplyLapse(p.opts.Lapse, tmax, elev)

	tc := ssebop.TcorrFANO(b, tmax, dt, p.opts.Params)
	fraction := ssebop.ETFraction(b.LST, tmax, tc.Native, dt)
	et := ssebop.ActualET(fraction, refET)

	prod := &Product{
		SceneID:       b.ID,
		SceneIndex:    b.Index,
		SceneTime:     b.Time,
		Date:          day.date,
		Sensor:        b.Sensor.String(),
		Source:        p.opts.Source.String(),
		Method:        p.opts.Method.String(),
		Surface:       p.opts.Surface.String(),
		Fraction:      fraction,
		ET:            et,
		Tcorr:         tc.Native,
		FractionStats: fraction.Stats(),
		ETStats:       et.Stats(),
		TcorrStats:    tc.Native.Stats(),
		ProcessedAt:   clock.Now().UTC(),
	}
	if p.opts.Verbose {
		prod.Diagnostics = map[string]*raster.Grid{
			"lst":          b.LST,
			"ndvi":         b.NDVI,
			"ndwi":         b.NDWI,
			"qa_water":     b.QAWater,
			"tmax":         tmax,
			"dt":           dt,
			"ref_et":       refET,
			"cold_temp":    tc.ColdTemp,
			"tcorr_coarse": tc.Coarse,
		}
	}

	if err := p.sink.Store(ctx, prod); err != nil {
		return fmt.Errorf("store product: %w", err)
	}

	p.metrics.ScenesProcessed.Inc()
	p.metrics.ProductsStored.Inc()
	p.metrics.SceneDuration.Observe(time.Since(start).Seconds())
	if prod.FractionStats.Count > 0 {
		p.metrics.ETFractionMean.Observe(prod.FractionStats.Mean)
	}
	p.ready.Store(true)
	return nil
}
