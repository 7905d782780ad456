package flow

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/demtools/demflow/grid"
	"github.com/demtools/demflow/tem"
)

// Method selects a flow-routing model.
type Method int

const (
	D8 Method = iota
	Dinf
	MDF
)

// ParseMethod maps a method code (d8, dinf, mdf) to its Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "d8":
		return D8, nil
	case "dinf":
		return Dinf, nil
	case "mdf":
		return MDF, nil
	default:
		return 0, fmt.Errorf("flow.ParseMethod: unknown method %q", s)
	}
}

func (m Method) String() string {
	switch m {
	case D8:
		return "d8"
	case Dinf:
		return "dinf"
	default:
		return "mdf"
	}
}

// Accumulator routes per-cell unit contributions downslope. The
// elevation grid is required; each model additionally needs the
// collaborator maps listed on Accumulate.
type Accumulator struct {
	DEM      *grid.Grid[float64]
	Aspect   *grid.Grid[float64] // Dinf
	Gradient *grid.Grid[float64] // Dinf, MDF
	D8       *grid.Grid[int32]   // D8
}

// NewAccumulator binds an accumulator to an elevation grid.
// Collaborator maps are attached by the caller as needed.
func NewAccumulator(dem *grid.Grid[float64]) *Accumulator {
	return &Accumulator{DEM: dem}
}

type cellRef struct {
	z    float64
	x, y int
}

// Accumulate runs the selected model and returns the accumulation
// map. D8 requires the direction map; Dinf the aspect and gradient
// maps; MDF the gradient map. A missing collaborator diagnoses and
// returns an empty grid.
func (a *Accumulator) Accumulate(method Method) *grid.Grid[float64] {
	if a.DEM == nil || a.DEM.IsEmpty() {
		fmt.Fprintln(os.Stderr, " flow.Accumulate: empty elevation grid")
		return grid.New[float64](0, 0)
	}
	switch method {
	case D8:
		if a.D8 == nil || a.D8.IsEmpty() {
			fmt.Fprintln(os.Stderr, " flow.Accumulate: d8 requires a direction map")
			return grid.New[float64](0, 0)
		}
	case Dinf:
		if a.Aspect == nil || a.Aspect.IsEmpty() || a.Gradient == nil || a.Gradient.IsEmpty() {
			fmt.Fprintln(os.Stderr, " flow.Accumulate: dinf requires aspect and gradient maps")
			return grid.New[float64](0, 0)
		}
	case MDF:
		if a.Gradient == nil || a.Gradient.IsEmpty() {
			fmt.Fprintln(os.Stderr, " flow.Accumulate: mdf requires a gradient map")
			return grid.New[float64](0, 0)
		}
	default:
		fmt.Fprintf(os.Stderr, " flow.Accumulate: unknown method %d\n", method)
		return grid.New[float64](0, 0)
	}

	w, h := a.DEM.Dims()
	order := make([]cellRef, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			order = append(order, cellRef{a.DEM.Value(x, y), x, y})
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].z > order[j].z })

	out := grid.New[float64](w, h)
	switch method {
	case D8:
		a.accumulateD8(order, out)
	case Dinf:
		a.accumulateDinf(order, out)
	case MDF:
		a.accumulateMDF(order, out)
	}
	return out
}

func (a *Accumulator) accumulateD8(order []cellRef, out *grid.Grid[float64]) {
	for _, c := range order {
		v := out.Value(c.x, c.y) + 1
		out.SetValue(c.x, c.y, v)
		code := a.D8.Value(c.x, c.y)
		if code == tem.NoDirection {
			continue
		}
		nx, ny := c.x+tem.Dx[code], c.y+tem.Dy[code]
		if !out.InBounds(nx, ny) {
			continue
		}
		out.SetValue(nx, ny, out.Value(nx, ny)+v)
	}
}

func (a *Accumulator) accumulateDinf(order []cellRef, out *grid.Grid[float64]) {
	// destinations sit in the unprocessed tail, so writes land on a
	// scratch copy swapped back at the end
	scratch := out.Clone()
	for _, c := range order {
		v := scratch.Value(c.x, c.y) + 1
		scratch.SetValue(c.x, c.y, v)
		asp := a.Aspect.Value(c.x, c.y)
		if asp < 0 || asp != asp {
			continue
		}
		d1, d2, w1, w2 := NearestTwoDirections(asp)
		x1, y1 := c.x+d1.Dx, c.y+d1.Dy
		x2, y2 := c.x+d2.Dx, c.y+d2.Dy
		if !scratch.InBounds(x1, y1) || a.DEM.Value(x1, y1) >= c.z {
			w1 = 0
		}
		if !scratch.InBounds(x2, y2) || a.DEM.Value(x2, y2) >= c.z {
			w2 = 0
		}
		if w1+w2 == 0 {
			continue
		}
		sum := w1 + w2
		w1 /= sum
		w2 /= sum
		if w1 > 0 {
			scratch.SetValue(x1, y1, scratch.Value(x1, y1)+v*w1)
		}
		if w2 > 0 {
			scratch.SetValue(x2, y2, scratch.Value(x2, y2)+v*w2)
		}
	}
	*out = *scratch
}

func (a *Accumulator) accumulateMDF(order []cellRef, out *grid.Grid[float64]) {
	for _, c := range order {
		v := out.Value(c.x, c.y) + 1
		out.SetValue(c.x, c.y, v)
		var sum float64
		var lower [8]bool
		for d := 0; d < 8; d++ {
			nx, ny := c.x+tem.Dx[d], c.y+tem.Dy[d]
			if out.InBounds(nx, ny) && a.DEM.Value(nx, ny) < c.z {
				lower[d] = true
				sum += a.Gradient.Value(nx, ny)
			}
		}
		if sum == 0 {
			continue
		}
		for d := 0; d < 8; d++ {
			if !lower[d] {
				continue
			}
			nx, ny := c.x+tem.Dx[d], c.y+tem.Dy[d]
			out.SetValue(nx, ny, out.Value(nx, ny)+v*a.Gradient.Value(nx, ny)/sum)
		}
	}
}
