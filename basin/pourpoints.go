// Package basin selects pour points and delineates the catchment
// draining to them under the D8, Dinf and MDF models.
package basin

import (
	"container/heap"
	"fmt"
	"os"

	"github.com/demtools/demflow/flow"
	"github.com/demtools/demflow/grid"
	"github.com/demtools/demflow/tem"
)

// Point addresses a candidate outlet cell.
type Point struct {
	X, Y int
}

// Analyser traces watersheds over an elevation grid. Flow is the
// accumulation map for the model in use; D8 and Aspect are the
// model-specific collaborator maps.
type Analyser struct {
	DEM    *grid.Grid[float64]
	Flow   *grid.Grid[float64]
	D8     *grid.Grid[int32]   // D8
	Aspect *grid.Grid[float64] // Dinf
}

// NewAnalyser binds an analyser to an elevation grid and its
// accumulation map. Collaborator maps are attached by the caller.
func NewAnalyser(dem, fa *grid.Grid[float64]) *Analyser {
	return &Analyser{DEM: dem, Flow: fa}
}

type rankedPoint struct {
	p Point
	v float64
}

// minHeap keeps the K largest candidates by evicting its smallest.
type minHeap []rankedPoint

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].v < h[j].v }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(rankedPoint)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// PourPoints returns the k candidate outlets with the largest
// accumulation values, in ascending order of flow. D8 candidacy needs
// the direction map; MDF candidacy needs only the elevation grid.
func (a *Analyser) PourPoints(k int, method flow.Method) []Point {
	if a.DEM == nil || a.DEM.IsEmpty() || a.Flow == nil || a.Flow.IsEmpty() {
		fmt.Fprintln(os.Stderr, " basin.PourPoints: empty elevation or accumulation grid")
		return nil
	}
	if k <= 0 {
		return nil
	}
	var candidate func(x, y int) bool
	switch method {
	case flow.D8:
		if a.D8 == nil || a.D8.IsEmpty() {
			fmt.Fprintln(os.Stderr, " basin.PourPoints: d8 requires a direction map")
			return nil
		}
		candidate = func(x, y int) bool {
			code := a.D8.Value(x, y)
			if code == tem.NoDirection {
				return true
			}
			return !a.DEM.InBounds(x+tem.Dx[code], y+tem.Dy[code])
		}
	case flow.MDF:
		candidate = func(x, y int) bool {
			z := a.DEM.Value(x, y)
			for d := 0; d < 8; d++ {
				nx, ny := x+tem.Dx[d], y+tem.Dy[d]
				if a.DEM.InBounds(nx, ny) && a.DEM.Value(nx, ny) > z {
					return true
				}
			}
			return false
		}
	default:
		fmt.Fprintf(os.Stderr, " basin.PourPoints: unsupported method %s\n", method)
		return nil
	}

	h := &minHeap{}
	heap.Init(h)
	w, ht := a.DEM.Dims()
	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			if !candidate(x, y) {
				continue
			}
			heap.Push(h, rankedPoint{Point{x, y}, a.Flow.Value(x, y)})
			if h.Len() > k {
				heap.Pop(h)
			}
		}
	}
	out := make([]Point, 0, h.Len())
	for h.Len() > 0 {
		out = append(out, heap.Pop(h).(rankedPoint).p)
	}
	return out
}
