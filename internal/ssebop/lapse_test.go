package ssebop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ssebop-etl/internal/ssebop"
)

func TestParseLapseMode(t *testing.T) {
	for s, want := range map[string]ssebop.LapseMode{
		"":         ssebop.LapseNone,
		"none":     ssebop.LapseNone,
		"fixed":    ssebop.LapseFixed,
		"smoothed": ssebop.LapseSmoothed,
	} {
		got, err := ssebop.ParseLapseMode(s)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%q", s)
	}

	_, err := ssebop.ParseLapseMode("adiabatic")
	assert.Error(t, err)
}

func TestLapseAdjust(t *testing.T) {
	tmax := uniform(t, 1, 3, 310)
	elev := gridOf(t, 1, 3, []float64{500, 1500, 2500})

	out := ssebop.LapseAdjust(tmax, elev, ssebop.LapseThreshold)

	assert.Equal(t, 310.0, out.At(0, 0), "low terrain passes through")
	assert.Equal(t, 310.0, out.At(0, 1), "the threshold itself is not corrected")
	// 1000 m above the threshold at 0.003 K/m.
	assert.InDelta(t, 307.0, out.At(0, 2), 1e-9)
}

func TestSmoothedLapseAdjust(t *testing.T) {
	// A single peak standing far above the local median gets corrected; the
	// flat surroundings do not.
	tmax := uniform(t, 3, 3, 310)
	elev := gridOf(t, 3, 3, []float64{
		1000, 1000, 1000,
		1000, 1400, 1000,
		1000, 1000, 1000,
	})

	out := ssebop.SmoothedLapseAdjust(tmax, elev, 1)

	assert.Equal(t, 310.0, out.At(0, 0))
	// Peak rises 400 m over the 1000 m median; correction 0.005*(400-100).
	assert.InDelta(t, 310-1.5, out.At(1, 1), 1e-9)
}

func TestSmoothedLapseAdjust_SmallRiseUntouched(t *testing.T) {
	tmax := uniform(t, 3, 3, 310)
	elev := gridOf(t, 3, 3, []float64{
		1000, 1000, 1000,
		1000, 1080, 1000,
		1000, 1000, 1000,
	})

	// 80 m over the median is inside the 100 m dead band.
	out := ssebop.SmoothedLapseAdjust(tmax, elev, 1)
	assert.Equal(t, 310.0, out.At(1, 1))
}

func TestApplyLapse_ModeDispatch(t *testing.T) {
	tmax := uniform(t, 1, 2, 310)
	elev := gridOf(t, 1, 2, []float64{500, 2500})

	none := ssebop.ApplyLapse(ssebop.LapseNone, tmax, elev)
	assert.Same(t, tmax, none)

	fixed := ssebop.ApplyLapse(ssebop.LapseFixed, tmax, elev)
	assert.InDelta(t, 307.0, fixed.At(0, 1), 1e-9)
}
