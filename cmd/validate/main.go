// Command validate checks a directory of ET product files for integrity:
// schema and provenance fields, grid geometry consistency, the physical
// invariants of the model outputs, and agreement between the stored summary
// statistics and the grids themselves.
//
// Usage:
//
//	go run ./cmd/validate -products data/mock/products
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/ssebop-etl/internal/asset"
	"github.com/couchcryptid/ssebop-etl/internal/raster"
	"github.com/couchcryptid/ssebop-etl/internal/refet"
	"github.com/couchcryptid/ssebop-etl/internal/weather"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	productsDir := flag.String("products", "", "directory of product JSON files")
	flag.Parse()

	if *productsDir == "" {
		flag.Usage()
		os.Exit(1)
	}
	if code := run(*productsDir); code != 0 {
		os.Exit(code)
	}
}

// loaded pairs a product document with its decoded grids.
type loaded struct {
	file     string
	doc      asset.Product
	fraction *raster.Grid
	et       *raster.Grid
	tcorr    *raster.Grid
}

func run(dir string) int {
	fmt.Println("=== ET Product Integrity Validation ===")
	fmt.Println()

	products, err := loadProducts(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	if len(products) == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no product files in %s\n", dir)
		return 1
	}

	phases := []*phase{
		validateProvenance(products),
		validateGeometry(products),
		validatePhysical(products),
		validateStats(products),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Products: %d\n", len(products))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadProducts(dir string) ([]loaded, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []loaded
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		doc, err := asset.DecodeProduct(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		l := loaded{file: filepath.Base(path), doc: doc}
		if l.fraction, err = doc.Fraction.Decode(); err != nil {
			return nil, fmt.Errorf("%s: fraction: %w", path, err)
		}
		if l.et, err = doc.ET.Decode(); err != nil {
			return nil, fmt.Errorf("%s: et: %w", path, err)
		}
		if l.tcorr, err = doc.Tcorr.Decode(); err != nil {
			return nil, fmt.Errorf("%s: tcorr: %w", path, err)
		}
		out = append(out, l)
	}
	return out, nil
}

// ── Phase 1: Provenance ──
// Every product carries valid enum provenance and identity fields.

func validateProvenance(products []loaded) *phase {
	p := &phase{name: "Phase 1: Provenance (identity, enums)"}
	seen := map[string]string{}

	for _, l := range products {
		d := &l.doc
		if d.SceneID == "" {
			p.errorf("%s: scene_id is empty", l.file)
		}
		if d.ProcessedAt.IsZero() {
			p.errorf("%s: processed_at is zero", l.file)
		}
		if _, err := weather.ParseSource(d.Source); err != nil {
			p.errorf("%s: %v", l.file, err)
		}
		if _, err := refet.ParseMethod(d.Method); err != nil {
			p.errorf("%s: %v", l.file, err)
		}
		if _, err := refet.ParseSurface(d.Surface); err != nil {
			p.errorf("%s: %v", l.file, err)
		}
		if !strings.HasPrefix(l.file, d.Date+"_") {
			p.errorf("%s: file name does not match product date %s", l.file, d.Date)
		}

		key := d.Date + "|" + d.SceneID
		if prev, ok := seen[key]; ok {
			p.errorf("%s: duplicate product for %s (also in %s)", l.file, key, prev)
			continue
		}
		seen[key] = l.file
	}
	return p
}

// ── Phase 2: Geometry ──
// All three grids of a product share one shape and transform.

func validateGeometry(products []loaded) *phase {
	p := &phase{name: "Phase 2: Geometry (shape, transform)"}

	for _, l := range products {
		grids := []struct {
			name string
			g    *raster.Grid
		}{{"fraction", l.fraction}, {"et", l.et}, {"tcorr", l.tcorr}}

		ref := grids[0].g
		for _, gr := range grids[1:] {
			if gr.g.Ny() != ref.Ny() || gr.g.Nx() != ref.Nx() {
				p.errorf("%s: %s shape %dx%d differs from fraction %dx%d",
					l.file, gr.name, gr.g.Ny(), gr.g.Nx(), ref.Ny(), ref.Nx())
			}
			if gr.g.GeoTransform() != ref.GeoTransform() {
				p.errorf("%s: %s transform differs from fraction", l.file, gr.name)
			}
		}
	}
	return p
}

// ── Phase 3: Physical invariants ──
// Fractions bounded, ET nonnegative and masked in lockstep with the
// fraction, correction ratio near one.

func validatePhysical(products []loaded) *phase {
	p := &phase{name: "Phase 3: Physical invariants"}

	for _, l := range products {
		fs := l.fraction.Stats()
		if fs.Count > 0 && (fs.Min < 0 || fs.Max > 1) {
			p.errorf("%s: fraction outside [0,1]: min=%g max=%g", l.file, fs.Min, fs.Max)
		}

		es := l.et.Stats()
		if es.Count > 0 && es.Min < 0 {
			p.errorf("%s: negative ET: min=%g", l.file, es.Min)
		}

		ts := l.tcorr.Stats()
		if ts.Count > 0 && (ts.Min < 0.7 || ts.Max > 1.2) {
			p.errorf("%s: implausible tcorr range: min=%g max=%g", l.file, ts.Min, ts.Max)
		}

		// ET is fraction times reference ET, so it can only be unmasked
		// where the fraction is.
		for r := 0; r < l.fraction.Ny(); r++ {
			for c := 0; c < l.fraction.Nx(); c++ {
				if l.fraction.Masked(r, c) && !l.et.Masked(r, c) {
					p.errorf("%s: et unmasked at (%d,%d) where fraction is masked", l.file, r, c)
				}
			}
		}
	}
	return p
}

// ── Phase 4: Stats agreement ──
// Stored summary statistics match the shipped grids.

func validateStats(products []loaded) *phase {
	p := &phase{name: "Phase 4: Stats agreement"}

	for _, l := range products {
		checkStats(p, l.file, "fraction", l.fraction, l.doc.FractionStats)
		checkStats(p, l.file, "et", l.et, l.doc.ETStats)
		checkStats(p, l.file, "tcorr", l.tcorr, l.doc.TcorrStats)
	}
	return p
}

func checkStats(p *phase, file, name string, g *raster.Grid, want asset.Stats) {
	got := g.Stats()
	if got.Count != want.Count {
		p.errorf("%s: %s count: stored %d, recomputed %d", file, name, want.Count, got.Count)
		return
	}
	if got.Count == 0 {
		return
	}
	for _, m := range []struct {
		label    string
		got, exp float64
	}{{"mean", got.Mean, want.Mean}, {"min", got.Min, want.Min}, {"max", got.Max, want.Max}} {
		if !floatEq(m.got, m.exp) {
			p.errorf("%s: %s %s: stored %g, recomputed %g", file, name, m.label, m.exp, m.got)
		}
	}
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
