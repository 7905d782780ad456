package tem

import (
	"fmt"
	"math/rand"
	"os"

	mrg63k3a "github.com/maseology/pnrg/MRG63k3a"

	"github.com/demtools/demflow/grid"
)

// D8Analyser assigns each cell the direction code of its steepest
// strictly-lower neighbour. Ties among equally low neighbours are
// broken by a fair coin flip per tied candidate, so two runs agree
// only when the random source is seeded identically.
type D8Analyser struct {
	dem *grid.Grid[float64]
	rng *rand.Rand
}

// NewD8Analyser binds the analyser to an elevation grid with the
// default generator.
func NewD8Analyser(dem *grid.Grid[float64]) *D8Analyser {
	return &D8Analyser{dem: dem, rng: rand.New(mrg63k3a.New())}
}

// NewD8AnalyserRNG binds the analyser to an elevation grid with a
// caller-supplied generator.
func NewD8AnalyserRNG(dem *grid.Grid[float64], rng *rand.Rand) *D8Analyser {
	return &D8Analyser{dem: dem, rng: rng}
}

// ComputeDirections returns the per-cell direction-code map. Cells
// with no strictly-lower neighbour carry NoDirection.
func (da *D8Analyser) ComputeDirections() *grid.Grid[int32] {
	if da.dem.IsEmpty() {
		fmt.Fprintln(os.Stderr, " tem.ComputeDirections: empty elevation grid")
		return grid.New[int32](0, 0)
	}
	w, h := da.dem.Dims()
	out := grid.New[int32](w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			z := da.dem.Value(x, y)
			best, bestDir := z, NoDirection
			for d := 0; d < 8; d++ {
				nx, ny := x+Dx[d], y+Dy[d]
				if !da.dem.InBounds(nx, ny) {
					continue
				}
				n := da.dem.Value(nx, ny)
				if n >= z {
					continue
				}
				switch {
				case bestDir == NoDirection || n < best:
					best, bestDir = n, int32(d)
				case n == best:
					if da.rng.Intn(2) == 0 {
						bestDir = int32(d)
					}
				}
			}
			out.SetValue(x, y, bestDir)
		}
	}
	return out
}
