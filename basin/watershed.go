package basin

import (
	"fmt"
	"os"

	"github.com/demtools/demflow/flow"
	"github.com/demtools/demflow/grid"
	"github.com/demtools/demflow/tem"
)

// Watershed traces the catchment draining to p and returns a grid of
// the DEM's dimensions carrying each member cell's accumulation value
// and 0 elsewhere. The Dinf pour point itself is seeded with 1.0.
func (a *Analyser) Watershed(p Point, method flow.Method) *grid.Grid[float64] {
	if a.DEM == nil || a.DEM.IsEmpty() || a.Flow == nil || a.Flow.IsEmpty() {
		fmt.Fprintln(os.Stderr, " basin.Watershed: empty elevation or accumulation grid")
		return grid.New[float64](0, 0)
	}
	if !a.DEM.InBounds(p.X, p.Y) {
		fmt.Fprintf(os.Stderr, " basin.Watershed: pour point (%d,%d) out of bounds\n", p.X, p.Y)
		return grid.New[float64](0, 0)
	}

	var admit func(nx, ny, cx, cy int) bool
	switch method {
	case flow.D8:
		if a.D8 == nil || a.D8.IsEmpty() {
			fmt.Fprintln(os.Stderr, " basin.Watershed: d8 requires a direction map")
			return grid.New[float64](0, 0)
		}
		admit = func(nx, ny, cx, cy int) bool {
			code := a.D8.Value(nx, ny)
			if code == tem.NoDirection {
				return false
			}
			return nx+tem.Dx[code] == cx && ny+tem.Dy[code] == cy
		}
	case flow.Dinf:
		if a.Aspect == nil || a.Aspect.IsEmpty() {
			fmt.Fprintln(os.Stderr, " basin.Watershed: dinf requires an aspect map")
			return grid.New[float64](0, 0)
		}
		admit = func(nx, ny, cx, cy int) bool {
			asp := a.Aspect.Value(nx, ny)
			if asp < 0 || asp != asp {
				return false
			}
			d1, d2, _, _ := flow.NearestTwoDirections(asp)
			if nx+d1.Dx == cx && ny+d1.Dy == cy {
				return true
			}
			return nx+d2.Dx == cx && ny+d2.Dy == cy
		}
	case flow.MDF:
		admit = func(nx, ny, cx, cy int) bool {
			return a.DEM.Value(nx, ny) > a.DEM.Value(cx, cy)
		}
	default:
		fmt.Fprintf(os.Stderr, " basin.Watershed: unknown method %d\n", method)
		return grid.New[float64](0, 0)
	}

	w, h := a.DEM.Dims()
	out := grid.New[float64](w, h)
	if method == flow.Dinf {
		out.SetValue(p.X, p.Y, 1)
	} else {
		out.SetValue(p.X, p.Y, a.Flow.Value(p.X, p.Y))
	}

	stack := []Point{p}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for d := 0; d < 8; d++ {
			nx, ny := c.X+tem.Dx[d], c.Y+tem.Dy[d]
			if !out.InBounds(nx, ny) || out.Value(nx, ny) != 0 {
				continue
			}
			if !admit(nx, ny, c.X, c.Y) {
				continue
			}
			out.SetValue(nx, ny, a.Flow.Value(nx, ny))
			stack = append(stack, Point{nx, ny})
		}
	}
	return out
}
