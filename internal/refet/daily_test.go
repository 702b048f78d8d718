package refet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ssebop-etl/internal/raster"
	"github.com/couchcryptid/ssebop-etl/internal/refet"
)

func grid(t *testing.T, v float64) *raster.Grid {
	t.Helper()
	g, err := raster.New([]float64{v, v, v, v}, 2, 2, nil,
		raster.Transform{-120, 0.01, 0, 38, 0, -0.01})
	require.NoError(t, err)
	return g
}

// midsummer semi-arid day, the kind of conditions the model runs over
func testInput(t *testing.T) refet.DailyInput {
	return refet.DailyInput{
		Tmax:   grid(t, 34),
		Tmin:   grid(t, 16),
		Ea:     grid(t, 1.2),
		Rs:     grid(t, 26),
		Uz:     grid(t, 2.5),
		Zw:     2,
		Elev:   grid(t, 300),
		Lat:    grid(t, 38),
		Doy:    182,
		Method: refet.ASCE,
	}
}

func TestParseMethod(t *testing.T) {
	m, err := refet.ParseMethod("asce")
	require.NoError(t, err)
	assert.Equal(t, refet.ASCE, m)

	m, err = refet.ParseMethod("refet")
	require.NoError(t, err)
	assert.Equal(t, refet.RefET, m)

	_, err = refet.ParseMethod("penman")
	assert.Error(t, err)
}

func TestParseRsoType(t *testing.T) {
	rt, err := refet.ParseRsoType("")
	require.NoError(t, err)
	assert.Equal(t, refet.RsoDefault, rt)

	_, err = refet.ParseRsoType("fancy")
	assert.Error(t, err)
}

func TestParseSurface_Aliases(t *testing.T) {
	for _, alias := range []string{"alfalfa", "etr", "tall"} {
		s, err := refet.ParseSurface(alias)
		require.NoError(t, err)
		assert.Equal(t, refet.Alfalfa, s, alias)
	}
	for _, alias := range []string{"grass", "eto", "et0", "short"} {
		s, err := refet.ParseSurface(alias)
		require.NoError(t, err)
		assert.Equal(t, refet.Grass, s, alias)
	}
	_, err := refet.ParseSurface("corn")
	assert.Error(t, err)
}

func TestAirPressure_SeaLevel(t *testing.T) {
	p := refet.AirPressure(grid(t, 0), refet.ASCE)
	assert.InDelta(t, 101.3, p.At(0, 0), 1e-9)

	// Pressure falls with elevation and the two methods stay close.
	pa := refet.AirPressure(grid(t, 1500), refet.ASCE).At(0, 0)
	pr := refet.AirPressure(grid(t, 1500), refet.RefET).At(0, 0)
	assert.Less(t, pa, 101.3)
	assert.InDelta(t, pa, pr, 0.5)
}

func TestSatVaporPressure_KnownValue(t *testing.T) {
	// FAO56 Table 2.3 gives e(20 C) = 2.338 kPa.
	es := refet.SatVaporPressure(grid(t, 20))
	assert.InDelta(t, 2.338, es.At(0, 0), 0.001)
}

func TestDaily_PlausibleMagnitudes(t *testing.T) {
	d, err := refet.NewDaily(testInput(t))
	require.NoError(t, err)

	eto := d.ETo().At(0, 0)
	etr := d.ETr().At(0, 0)

	assert.Greater(t, eto, 3.0, "summer ETo should be several mm")
	assert.Less(t, eto, 12.0)
	assert.Greater(t, etr, eto, "alfalfa reference exceeds grass reference")
	assert.Less(t, etr, 1.5*eto)
}

func TestDaily_ETszSelectsSurface(t *testing.T) {
	d, err := refet.NewDaily(testInput(t))
	require.NoError(t, err)
	assert.Equal(t, d.ETo().At(0, 0), d.ETsz(refet.Grass).At(0, 0))
	assert.Equal(t, d.ETr().At(0, 0), d.ETsz(refet.Alfalfa).At(0, 0))
}

func TestDaily_MoreSolarMoreET(t *testing.T) {
	lo := testInput(t)
	lo.Rs = grid(t, 18)
	hi := testInput(t)
	hi.Rs = grid(t, 26)

	dlo, err := refet.NewDaily(lo)
	require.NoError(t, err)
	dhi, err := refet.NewDaily(hi)
	require.NoError(t, err)

	assert.Greater(t, dhi.ETo().At(0, 0), dlo.ETo().At(0, 0))
}

func TestDaily_MoreHumidityLessET(t *testing.T) {
	dry := testInput(t)
	humid := testInput(t)
	humid.Ea = grid(t, 2.4)

	ddry, err := refet.NewDaily(dry)
	require.NoError(t, err)
	dhum, err := refet.NewDaily(humid)
	require.NoError(t, err)

	assert.Greater(t, ddry.ETo().At(0, 0), dhum.ETo().At(0, 0))
}

func TestDaily_RsoArrayRequiresGrid(t *testing.T) {
	in := testInput(t)
	in.RsoType = refet.RsoArray
	_, err := refet.NewDaily(in)
	assert.Error(t, err)

	in.Rso = grid(t, 30)
	_, err = refet.NewDaily(in)
	assert.NoError(t, err)
}

func TestDaily_RsoVariantsAgreeRoughly(t *testing.T) {
	simple := testInput(t)
	simple.RsoType = refet.RsoSimple
	full := testInput(t)
	full.RsoType = refet.RsoFull

	ds, err := refet.NewDaily(simple)
	require.NoError(t, err)
	df, err := refet.NewDaily(full)
	require.NoError(t, err)

	// Same day, same drivers; the clear-sky models differ by a few percent
	// at most, so ET stays within a tight band.
	assert.InDelta(t, ds.ETo().At(0, 0), df.ETo().At(0, 0), 0.5)
}

func TestDaily_FS1PlusFS2EqualsETo(t *testing.T) {
	d, err := refet.NewDaily(testInput(t))
	require.NoError(t, err)
	sum := d.EToFS1().Add(d.EToFS2())
	assert.InDelta(t, d.ETo().At(0, 0), sum.At(0, 0), 1e-9,
		"radiation and wind terms partition ETo exactly")
}

func TestDaily_AuxiliaryVariantsPositive(t *testing.T) {
	d, err := refet.NewDaily(testInput(t))
	require.NoError(t, err)
	assert.Positive(t, d.ETw().At(0, 0))
	assert.Positive(t, d.PETHargreaves().At(0, 0))
}

func TestDaily_ImplausibleInputsPassThrough(t *testing.T) {
	in := testInput(t)
	in.Tmax = grid(t, 10) // colder than tmin
	d, err := refet.NewDaily(in)
	require.NoError(t, err, "input plausibility is the caller's concern")
	assert.False(t, d.ETo().Masked(0, 0))
}
