// Package raster is an eager, in-memory grid algebra used by the ET pipeline.
//
// A Grid is an immutable 2-D array of float64 samples backed by a
// sparse.DenseArray, tagged with a coordinate reference system and a
// GDAL-style affine transform. Cells may be masked; a masked cell is stored
// as NaN and every operation treats it as absent rather than letting NaN
// leak through arithmetic silently. All operations return new Grids.
//
// Binary operations require both operands to share the same shape. Combining
// grids of different resolutions is always an explicit Coarsen or Resample
// step first; a shape mismatch panics, since it is a programming error and
// never a data condition.
package raster

import (
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
)

// Transform is a GDAL-style affine geotransform:
//
//	x = tr[0] + col*tr[1] + row*tr[2]
//	y = tr[3] + col*tr[4] + row*tr[5]
//
// tr[1] is the cell width and tr[5] the (usually negative) cell height.
type Transform [6]float64

// Geo returns the projected coordinate of the center of cell (row, col).
func (tr Transform) Geo(row, col int) (x, y float64) {
	cx := float64(col) + 0.5
	cy := float64(row) + 0.5
	return tr[0] + cx*tr[1] + cy*tr[2], tr[3] + cx*tr[4] + cy*tr[5]
}

// Cell returns the fractional (row, col) pixel coordinate of a projected
// point, inverting the affine transform.
func (tr Transform) Cell(x, y float64) (row, col float64) {
	det := tr[1]*tr[5] - tr[2]*tr[4]
	dx := x - tr[0]
	dy := y - tr[3]
	col = (dx*tr[5] - dy*tr[2]) / det
	row = (dy*tr[1] - dx*tr[4]) / det
	return row - 0.5, col - 0.5
}

// CellWidth returns the absolute x extent of one cell.
func (tr Transform) CellWidth() float64 { return math.Abs(tr[1]) }

// CellHeight returns the absolute y extent of one cell.
func (tr Transform) CellHeight() float64 { return math.Abs(tr[5]) }

// Scaled returns the transform of a grid coarsened by the given block factor.
func (tr Transform) Scaled(factor int) Transform {
	f := float64(factor)
	return Transform{tr[0], tr[1] * f, tr[2] * f, tr[3], tr[4] * f, tr[5] * f}
}

// Grid is a masked 2-D raster with georeferencing.
type Grid struct {
	data *sparse.DenseArray // shape [ny, nx]; NaN marks a masked cell
	sr   *proj.SR
	tr   Transform
}

// New wraps row-major data as an ny-by-nx Grid. The slice is copied so the
// Grid owns its storage.
func New(data []float64, ny, nx int, sr *proj.SR, tr Transform) (*Grid, error) {
	if len(data) != ny*nx {
		return nil, fmt.Errorf("raster: data length %d does not match %dx%d", len(data), ny, nx)
	}
	d := sparse.ZerosDense(ny, nx)
	copy(d.Elements, data)
	return &Grid{data: d, sr: sr, tr: tr}, nil
}

// Const returns a grid with the geometry of ref and every cell set to v.
func Const(v float64, ref *Grid) *Grid {
	d := sparse.ZerosDense(ref.Ny(), ref.Nx())
	for i := range d.Elements {
		d.Elements[i] = v
	}
	return &Grid{data: d, sr: ref.sr, tr: ref.tr}
}

// empty returns an all-masked grid with the geometry of ref.
func empty(ref *Grid) *Grid {
	return Const(math.NaN(), ref)
}

// Ny returns the number of rows.
func (g *Grid) Ny() int { return g.data.Shape[0] }

// Nx returns the number of columns.
func (g *Grid) Nx() int { return g.data.Shape[1] }

// SR returns the grid's spatial reference.
func (g *Grid) SR() *proj.SR { return g.sr }

// GeoTransform returns the grid's affine transform.
func (g *Grid) GeoTransform() Transform { return g.tr }

// At returns the value of cell (row, col); NaN if masked.
func (g *Grid) At(row, col int) float64 { return g.data.Get(row, col) }

// Masked reports whether cell (row, col) is masked.
func (g *Grid) Masked(row, col int) bool { return math.IsNaN(g.data.Get(row, col)) }

// Values returns a copy of the raw cell values (NaN = masked), row-major.
func (g *Grid) Values() []float64 {
	out := make([]float64, len(g.data.Elements))
	copy(out, g.data.Elements)
	return out
}

// Latitude builds a per-cell latitude grid from the transform's y
// coordinates. It assumes a geographic spatial reference where y is degrees
// latitude; grids in a projected reference must supply latitude explicitly.
func (g *Grid) Latitude() *Grid {
	out := g.clone()
	for r := 0; r < g.Ny(); r++ {
		_, y := g.tr.Geo(r, 0)
		for c := 0; c < g.Nx(); c++ {
			// sparse.DenseArray.Set drops zero values, so write the
			// backing slice directly; the equator row is a valid 0.
			out.data.Elements[r*g.Nx()+c] = y
		}
	}
	return out
}

// Stats summarizes the unmasked cells of a grid.
type Stats struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
}

// Stats reduces the grid to summary statistics over unmasked cells.
// A fully masked grid reports Count 0 and NaN moments.
func (g *Grid) Stats() Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for _, v := range g.data.Elements {
		if math.IsNaN(v) {
			continue
		}
		s.Count++
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if s.Count == 0 {
		return Stats{Mean: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	}
	s.Mean = sum / float64(s.Count)
	return s
}

func (g *Grid) clone() *Grid {
	return &Grid{data: g.data.Copy(), sr: g.sr, tr: g.tr}
}

func (g *Grid) checkShape(o *Grid) {
	if g.Ny() != o.Ny() || g.Nx() != o.Nx() {
		panic(fmt.Sprintf("raster: shape mismatch %dx%d vs %dx%d; resample before combining",
			g.Ny(), g.Nx(), o.Ny(), o.Nx()))
	}
}
