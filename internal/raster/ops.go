package raster

import "math"

// apply runs f over every unmasked cell; masked cells stay masked.
func (g *Grid) apply(f func(float64) float64) *Grid {
	out := g.clone()
	for i, v := range out.data.Elements {
		if !math.IsNaN(v) {
			out.data.Elements[i] = f(v)
		}
	}
	return out
}

// combine runs f cellwise over two grids of the same shape. A masked cell in
// either operand masks the result cell.
func (g *Grid) combine(o *Grid, f func(a, b float64) float64) *Grid {
	g.checkShape(o)
	out := g.clone()
	for i, a := range out.data.Elements {
		b := o.data.Elements[i]
		if math.IsNaN(a) || math.IsNaN(b) {
			out.data.Elements[i] = math.NaN()
			continue
		}
		out.data.Elements[i] = f(a, b)
	}
	return out
}

// Add returns g + o.
func (g *Grid) Add(o *Grid) *Grid { return g.combine(o, func(a, b float64) float64 { return a + b }) }

// Sub returns g - o.
func (g *Grid) Sub(o *Grid) *Grid { return g.combine(o, func(a, b float64) float64 { return a - b }) }

// Mul returns g * o.
func (g *Grid) Mul(o *Grid) *Grid { return g.combine(o, func(a, b float64) float64 { return a * b }) }

// Div returns g / o. Cells where the divisor is zero come back masked rather
// than infinite.
func (g *Grid) Div(o *Grid) *Grid {
	return g.combine(o, func(a, b float64) float64 {
		if b == 0 {
			return math.NaN()
		}
		return a / b
	})
}

// AddScalar returns g + v.
func (g *Grid) AddScalar(v float64) *Grid { return g.apply(func(a float64) float64 { return a + v }) }

// SubScalar returns g - v.
func (g *Grid) SubScalar(v float64) *Grid { return g.apply(func(a float64) float64 { return a - v }) }

// MulScalar returns g * v.
func (g *Grid) MulScalar(v float64) *Grid { return g.apply(func(a float64) float64 { return a * v }) }

// DivScalar returns g / v; v == 0 masks every cell.
func (g *Grid) DivScalar(v float64) *Grid {
	if v == 0 {
		return empty(g)
	}
	return g.apply(func(a float64) float64 { return a / v })
}

// Pow returns g**p.
func (g *Grid) Pow(p float64) *Grid {
	return g.apply(func(a float64) float64 { return math.Pow(a, p) })
}

// Sqrt returns the elementwise square root; negative cells come back masked.
func (g *Grid) Sqrt() *Grid { return g.apply(math.Sqrt) }

// Exp returns e**g.
func (g *Grid) Exp() *Grid { return g.apply(math.Exp) }

// Log returns the natural log; non-positive cells come back masked.
func (g *Grid) Log() *Grid {
	return g.apply(func(a float64) float64 {
		if a <= 0 {
			return math.NaN()
		}
		return math.Log(a)
	})
}

// Abs returns |g|.
func (g *Grid) Abs() *Grid { return g.apply(math.Abs) }

// Sin returns the elementwise sine (radians).
func (g *Grid) Sin() *Grid { return g.apply(math.Sin) }

// Cos returns the elementwise cosine (radians).
func (g *Grid) Cos() *Grid { return g.apply(math.Cos) }

// Tan returns the elementwise tangent (radians).
func (g *Grid) Tan() *Grid { return g.apply(math.Tan) }

// Acos returns the elementwise arccosine. Cells outside [-1, 1] come back
// masked; for sunset-hour-angle inputs that is polar day or night.
func (g *Grid) Acos() *Grid { return g.apply(math.Acos) }

// Neg returns -g.
func (g *Grid) Neg() *Grid { return g.MulScalar(-1) }

// Clamp limits every unmasked cell to [lo, hi].
func (g *Grid) Clamp(lo, hi float64) *Grid {
	return g.apply(func(a float64) float64 { return math.Min(math.Max(a, lo), hi) })
}

// Min returns the cellwise minimum of two grids.
func (g *Grid) Min(o *Grid) *Grid { return g.combine(o, math.Min) }

// Max returns the cellwise maximum of two grids.
func (g *Grid) Max(o *Grid) *Grid { return g.combine(o, math.Max) }

// MinScalar returns min(g, v) cellwise.
func (g *Grid) MinScalar(v float64) *Grid {
	return g.apply(func(a float64) float64 { return math.Min(a, v) })
}

// MaxScalar returns max(g, v) cellwise.
func (g *Grid) MaxScalar(v float64) *Grid {
	return g.apply(func(a float64) float64 { return math.Max(a, v) })
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Lt returns a 0/1 grid of g < o.
func (g *Grid) Lt(o *Grid) *Grid {
	return g.combine(o, func(a, b float64) float64 { return boolVal(a < b) })
}

// Gt returns a 0/1 grid of g > o.
func (g *Grid) Gt(o *Grid) *Grid {
	return g.combine(o, func(a, b float64) float64 { return boolVal(a > b) })
}

// LtScalar returns a 0/1 grid of g < v.
func (g *Grid) LtScalar(v float64) *Grid {
	return g.apply(func(a float64) float64 { return boolVal(a < v) })
}

// LteScalar returns a 0/1 grid of g <= v.
func (g *Grid) LteScalar(v float64) *Grid {
	return g.apply(func(a float64) float64 { return boolVal(a <= v) })
}

// GtScalar returns a 0/1 grid of g > v.
func (g *Grid) GtScalar(v float64) *Grid {
	return g.apply(func(a float64) float64 { return boolVal(a > v) })
}

// GteScalar returns a 0/1 grid of g >= v.
func (g *Grid) GteScalar(v float64) *Grid {
	return g.apply(func(a float64) float64 { return boolVal(a >= v) })
}

// EqScalar returns a 0/1 grid of g == v.
func (g *Grid) EqScalar(v float64) *Grid {
	return g.apply(func(a float64) float64 { return boolVal(a == v) })
}

// And combines two 0/1 grids with logical and.
func (g *Grid) And(o *Grid) *Grid {
	return g.combine(o, func(a, b float64) float64 { return boolVal(a != 0 && b != 0) })
}

// Or combines two 0/1 grids with logical or.
func (g *Grid) Or(o *Grid) *Grid {
	return g.combine(o, func(a, b float64) float64 { return boolVal(a != 0 || b != 0) })
}

// Not inverts a 0/1 grid.
func (g *Grid) Not() *Grid {
	return g.apply(func(a float64) float64 { return boolVal(a == 0) })
}

// Where substitutes cells from src wherever cond is unmasked and nonzero.
// Cells where cond is masked or zero keep their current value, so chained
// Where calls form an ordered override sequence in which later calls win.
func (g *Grid) Where(cond, src *Grid) *Grid {
	g.checkShape(cond)
	g.checkShape(src)
	out := g.clone()
	for i := range out.data.Elements {
		c := cond.data.Elements[i]
		if !math.IsNaN(c) && c != 0 {
			out.data.Elements[i] = src.data.Elements[i]
		}
	}
	return out
}

// WhereScalar substitutes the scalar v wherever cond is unmasked and nonzero.
func (g *Grid) WhereScalar(cond *Grid, v float64) *Grid {
	g.checkShape(cond)
	out := g.clone()
	for i := range out.data.Elements {
		c := cond.data.Elements[i]
		if !math.IsNaN(c) && c != 0 {
			out.data.Elements[i] = v
		}
	}
	return out
}

// UpdateMask masks every cell where mask is masked or zero.
func (g *Grid) UpdateMask(mask *Grid) *Grid {
	g.checkShape(mask)
	out := g.clone()
	for i := range out.data.Elements {
		m := mask.data.Elements[i]
		if math.IsNaN(m) || m == 0 {
			out.data.Elements[i] = math.NaN()
		}
	}
	return out
}

// Mask returns a 0/1 grid that is 1 where g is unmasked.
func (g *Grid) Mask() *Grid {
	out := g.clone()
	for i, v := range out.data.Elements {
		out.data.Elements[i] = boolVal(!math.IsNaN(v))
	}
	return out
}

// IsMasked returns a 0/1 grid that is 1 where g is masked. Unlike most
// operations the output has no masked cells, so it can drive Where.
func (g *Grid) IsMasked() *Grid { return g.Mask().Not() }

// FirstNonNull fills masked cells of g from o, keeping unmasked cells of g.
func (g *Grid) FirstNonNull(o *Grid) *Grid {
	g.checkShape(o)
	out := g.clone()
	for i, v := range out.data.Elements {
		if math.IsNaN(v) {
			out.data.Elements[i] = o.data.Elements[i]
		}
	}
	return out
}
