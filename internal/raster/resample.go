package raster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Reducer names the aggregation applied to each block during Coarsen.
type Reducer int

const (
	// Mean averages the unmasked cells of a block.
	Mean Reducer = iota
	// Sum totals the unmasked cells of a block.
	Sum
	// Count counts the unmasked cells of a block. A block with no unmasked
	// cells reduces to a masked cell, not zero; callers that need a defined
	// value fall back with FirstNonNull.
	Count
	// Median takes the middle unmasked value of a block.
	Median
)

func reduce(vals []float64, r Reducer) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	switch r {
	case Mean:
		return floats.Sum(vals) / float64(len(vals))
	case Sum:
		return floats.Sum(vals)
	case Count:
		return float64(len(vals))
	case Median:
		sort.Float64s(vals)
		n := len(vals)
		if n%2 == 1 {
			return vals[n/2]
		}
		return (vals[n/2-1] + vals[n/2]) / 2
	}
	return math.NaN()
}

// Coarsen aggregates factor-by-factor pixel blocks into single cells.
// Partial blocks at the right and bottom edges aggregate whatever pixels
// they cover. A block containing only masked pixels reduces to a masked cell
// for every reducer, including Count.
func (g *Grid) Coarsen(factor int, r Reducer) *Grid {
	if factor < 1 {
		panic("raster: coarsen factor must be >= 1")
	}
	ny := (g.Ny() + factor - 1) / factor
	nx := (g.Nx() + factor - 1) / factor
	out, _ := New(make([]float64, ny*nx), ny, nx, g.sr, g.tr.Scaled(factor))

	vals := make([]float64, 0, factor*factor)
	for br := 0; br < ny; br++ {
		for bc := 0; bc < nx; bc++ {
			vals = vals[:0]
			for r0 := br * factor; r0 < min((br+1)*factor, g.Ny()); r0++ {
				for c0 := bc * factor; c0 < min((bc+1)*factor, g.Nx()); c0++ {
					if v := g.At(r0, c0); !math.IsNaN(v) {
						vals = append(vals, v)
					}
				}
			}
			// sparse.DenseArray.Set drops zero values, so write the
			// backing slice directly.
			out.data.Elements[br*nx+bc] = reduce(vals, r)
		}
	}
	return out
}

// ResampleBilinear interpolates g onto the geometry of ref. Each output cell
// center is mapped through the transforms into source pixel space and
// blended from its four neighbors; masked neighbors drop out and the weights
// renormalize over the rest. A cell with no unmasked neighbors is masked.
func (g *Grid) ResampleBilinear(ref *Grid) *Grid {
	out := empty(ref)
	for r := 0; r < ref.Ny(); r++ {
		for c := 0; c < ref.Nx(); c++ {
			x, y := ref.tr.Geo(r, c)
			sr, sc := g.tr.Cell(x, y)
			out.data.Elements[r*ref.Nx()+c] = g.sampleBilinear(sr, sc)
		}
	}
	return out
}

func (g *Grid) sampleBilinear(row, col float64) float64 {
	r0 := int(math.Floor(row))
	c0 := int(math.Floor(col))
	fr := row - float64(r0)
	fc := col - float64(c0)

	var num, den float64
	for _, p := range [4]struct {
		r, c int
		w    float64
	}{
		{r0, c0, (1 - fr) * (1 - fc)},
		{r0, c0 + 1, (1 - fr) * fc},
		{r0 + 1, c0, fr * (1 - fc)},
		{r0 + 1, c0 + 1, fr * fc},
	} {
		if p.r < 0 || p.r >= g.Ny() || p.c < 0 || p.c >= g.Nx() || p.w == 0 {
			continue
		}
		v := g.At(p.r, p.c)
		if math.IsNaN(v) {
			continue
		}
		num += p.w * v
		den += p.w
	}
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// ResampleNearest samples g onto the geometry of ref with nearest-neighbor
// lookup. Points falling outside g are masked.
func (g *Grid) ResampleNearest(ref *Grid) *Grid {
	out := empty(ref)
	for r := 0; r < ref.Ny(); r++ {
		for c := 0; c < ref.Nx(); c++ {
			x, y := ref.tr.Geo(r, c)
			sr, sc := g.tr.Cell(x, y)
			ri := int(math.Round(sr))
			ci := int(math.Round(sc))
			if ri < 0 || ri >= g.Ny() || ci < 0 || ci >= g.Nx() {
				continue
			}
			out.data.Elements[r*ref.Nx()+c] = g.At(ri, ci)
		}
	}
	return out
}

// FocalMedian replaces each cell with the median of the unmasked cells in a
// square window of the given pixel radius. Masked centers stay masked if the
// whole window is masked.
func (g *Grid) FocalMedian(radius int) *Grid {
	if radius < 1 {
		panic("raster: focal radius must be >= 1")
	}
	out := empty(g)
	vals := make([]float64, 0, (2*radius+1)*(2*radius+1))
	for r := 0; r < g.Ny(); r++ {
		for c := 0; c < g.Nx(); c++ {
			vals = vals[:0]
			for wr := max(r-radius, 0); wr <= min(r+radius, g.Ny()-1); wr++ {
				for wc := max(c-radius, 0); wc <= min(c+radius, g.Nx()-1); wc++ {
					if v := g.At(wr, wc); !math.IsNaN(v) {
						vals = append(vals, v)
					}
				}
			}
			out.data.Elements[r*g.Nx()+c] = reduce(vals, Median)
		}
	}
	return out
}
