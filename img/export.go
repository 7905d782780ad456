package img

import (
	"github.com/pkg/errors"

	"github.com/demtools/demflow/grid"
	"github.com/demtools/demflow/tem"
)

// Export renders g through cm and writes the result to fp. Cell values
// are min-max normalised before lookup; a constant grid maps every
// pixel to the ramp's first colour.
func Export(g *grid.Grid[float64], fp string, cm *Colourmap) error {
	if g == nil || g.IsEmpty() {
		return errors.Errorf("img.Export %s: empty grid", fp)
	}
	lo, hi := g.MinMax()
	rng := hi - lo
	w, h := g.Dims()
	b := NewBMP(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u := 0.0
			if rng > 0 {
				u = (g.Value(x, y) - lo) / rng
			}
			b.SetPixel(x, y, cm.Lookup(u))
		}
	}
	return b.Write(fp)
}

// ExportDirections renders a direction map through a discrete ramp.
// The sentinel code is excluded from the value range and always drawn
// with the ramp's first colour.
func ExportDirections(g *grid.Grid[int32], fp string, cm *Colourmap) error {
	if g == nil || g.IsEmpty() {
		return errors.Errorf("img.ExportDirections %s: empty grid", fp)
	}
	w, h := g.Dims()
	lo, hi := int32(0), int32(0)
	first := true
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := g.Value(x, y)
			if v == tem.NoDirection {
				continue
			}
			if first || v < lo {
				lo = v
			}
			if first || v > hi {
				hi = v
			}
			first = false
		}
	}
	rng := float64(hi - lo)
	b := NewBMP(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := g.Value(x, y)
			if v == tem.NoDirection {
				b.SetPixel(x, y, cm.Colours[0])
				continue
			}
			u := 0.0
			if rng > 0 {
				u = float64(v-lo) / rng
			}
			b.SetPixel(x, y, cm.Lookup(u))
		}
	}
	return b.Write(fp)
}
