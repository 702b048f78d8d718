package scene_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ssebop-etl/internal/raster"
	"github.com/couchcryptid/ssebop-etl/internal/scene"
)

func grid(t *testing.T, v float64) *raster.Grid {
	t.Helper()
	g, err := raster.New([]float64{v, v, v, v}, 2, 2, nil,
		raster.Transform{-120, 0.01, 0, 38, 0, -0.01})
	require.NoError(t, err)
	return g
}

func rawImage(t *testing.T) scene.RawImage {
	return scene.RawImage{
		ID:      "LC08_044033_20240701",
		Time:    time.Date(2024, time.July, 1, 18, 30, 0, 0, time.UTC),
		Sensor:  scene.Landsat8,
		Green:   grid(t, 0.07),
		Red:     grid(t, 0.10),
		NIR:     grid(t, 0.40),
		SWIR1:   grid(t, 0.20),
		TB:      grid(t, 300),
		QAWater: grid(t, 0),
	}
}

func TestParseSensor(t *testing.T) {
	for name, want := range map[string]scene.Sensor{
		"LANDSAT_5": scene.Landsat5,
		"LANDSAT_7": scene.Landsat7,
		"landsat_8": scene.Landsat8,
		"LANDSAT_9": scene.Landsat9,
	} {
		got, err := scene.ParseSensor(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	_, err := scene.ParseSensor("SENTINEL_2")
	assert.Error(t, err, "unknown platforms must not fall back to a default")
}

func TestDerive_Indices(t *testing.T) {
	b, err := scene.Derive(rawImage(t))
	require.NoError(t, err)

	assert.InDelta(t, (0.40-0.10)/(0.40+0.10), b.NDVI.At(0, 0), 1e-12)
	assert.InDelta(t, (0.07-0.20)/(0.07+0.20), b.NDWI.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, b.QAWater.At(0, 0))
	assert.Equal(t, "LC08_044033_20240701", b.ID)
	assert.Equal(t, scene.Landsat8, b.Sensor)
}

func TestDerive_LSTPlausible(t *testing.T) {
	b, err := scene.Derive(rawImage(t))
	require.NoError(t, err)

	lst := b.LST.At(0, 0)
	assert.False(t, b.LST.Masked(0, 0))
	// The atmospheric and emissivity correction shifts the brightness
	// temperature by a few kelvin, not more.
	assert.InDelta(t, 300.0, lst, 8.0)
}

func TestDerive_LSTMonotonicInTB(t *testing.T) {
	cool := rawImage(t)
	warm := rawImage(t)
	warm.TB = grid(t, 310)

	bc, err := scene.Derive(cool)
	require.NoError(t, err)
	bw, err := scene.Derive(warm)
	require.NoError(t, err)

	assert.Greater(t, bw.LST.At(0, 0), bc.LST.At(0, 0))
}

func TestDerive_WaterEmissivityPath(t *testing.T) {
	// Water has negative NDVI (red exceeds NIR) and its own emissivity, so
	// the retrieved LST differs from a land pixel at the same brightness
	// temperature.
	land := rawImage(t)
	water := rawImage(t)
	water.Red = grid(t, 0.05)
	water.NIR = grid(t, 0.02)

	bl, err := scene.Derive(land)
	require.NoError(t, err)
	bw, err := scene.Derive(water)
	require.NoError(t, err)

	assert.Negative(t, bw.NDVI.At(0, 0))
	assert.NotEqual(t, bl.LST.At(0, 0), bw.LST.At(0, 0))
	assert.InDelta(t, 300.0, bw.LST.At(0, 0), 8.0)
}

func TestDerive_SensorCoefficientsDiffer(t *testing.T) {
	l8 := rawImage(t)
	l5 := rawImage(t)
	l5.Sensor = scene.Landsat5

	b8, err := scene.Derive(l8)
	require.NoError(t, err)
	b5, err := scene.Derive(l5)
	require.NoError(t, err)

	assert.NotEqual(t, b8.LST.At(0, 0), b5.LST.At(0, 0),
		"each platform has its own Planck calibration")
}

func TestDerive_UnknownSensor(t *testing.T) {
	img := rawImage(t)
	img.Sensor = scene.Sensor(42)
	_, err := scene.Derive(img)
	assert.Error(t, err)
}
