package tem

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/demtools/demflow/grid"
)

// SlopeKind selects which Sobel response ComputeSlope reports.
type SlopeKind int

const (
	SlopeGx       SlopeKind = iota // |Gx|
	SlopeGy                        // |Gy|
	SlopeCombined                  // sqrt(Gx²+Gy²)
)

// ParseSlopeKind maps a kind code (gx, gy, combined) to its SlopeKind.
func ParseSlopeKind(s string) (SlopeKind, error) {
	switch strings.ToLower(s) {
	case "gx":
		return SlopeGx, nil
	case "gy":
		return SlopeGy, nil
	case "combined":
		return SlopeCombined, nil
	default:
		return 0, fmt.Errorf("tem.ParseSlopeKind: unknown kind %q", s)
	}
}

// SlopeAnalyser derives gradient and aspect maps from an elevation
// grid using 3x3 Sobel kernels with reflect-without-repeat edges.
type SlopeAnalyser struct {
	dem *grid.Grid[float64]
}

// NewSlopeAnalyser binds the analyser to an elevation grid.
func NewSlopeAnalyser(dem *grid.Grid[float64]) *SlopeAnalyser {
	return &SlopeAnalyser{dem: dem}
}

var sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
var sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

// reflect mirrors an out-of-range coordinate about the grid edge
// without repeating the border sample.
func reflect(i, n int) int {
	if i < 0 {
		i = -i
	} else if i >= n {
		i = 2*n - i - 2
	}
	if i < 0 { // single row or column
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i
}

func (sa *SlopeAnalyser) gradient(x, y int) (gx, gy float64) {
	w, h := sa.dem.Dims()
	for ky := -1; ky <= 1; ky++ {
		for kx := -1; kx <= 1; kx++ {
			v := sa.dem.Value(reflect(x+kx, w), reflect(y+ky, h))
			gx += sobelX[ky+1][kx+1] * v
			gy += sobelY[ky+1][kx+1] * v
		}
	}
	return
}

// ComputeSlope returns the requested Sobel response magnitude per
// cell. An empty source grid diagnoses and returns an empty grid.
func (sa *SlopeAnalyser) ComputeSlope(kind SlopeKind) *grid.Grid[float64] {
	if sa.dem.IsEmpty() {
		fmt.Fprintln(os.Stderr, " tem.ComputeSlope: empty elevation grid")
		return grid.New[float64](0, 0)
	}
	w, h := sa.dem.Dims()
	out := grid.New[float64](w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx, gy := sa.gradient(x, y)
			var s float64
			switch kind {
			case SlopeGx:
				s = math.Sqrt(gx * gx)
			case SlopeGy:
				s = math.Sqrt(gy * gy)
			default:
				s = math.Sqrt(gx*gx + gy*gy)
			}
			out.SetValue(x, y, s)
		}
	}
	return out
}

// ComputeAspect returns per-cell atan2(Gy, Gx) of the Sobel responses
// in degrees, measured from the +x (column) axis toward +y (row) and
// normalised into [0,360). Cells whose response magnitude falls below
// the flat threshold carry FlatAspect.
func (sa *SlopeAnalyser) ComputeAspect() *grid.Grid[float64] {
	if sa.dem.IsEmpty() {
		fmt.Fprintln(os.Stderr, " tem.ComputeAspect: empty elevation grid")
		return grid.New[float64](0, 0)
	}
	w, h := sa.dem.Dims()
	out := grid.New[float64](w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx, gy := sa.gradient(x, y)
			if math.Sqrt(gx*gx+gy*gy) < flatTol {
				out.SetValue(x, y, FlatAspect)
				continue
			}
			deg := math.Atan2(gy, gx) * 180 / math.Pi
			if deg < 0 {
				deg += 360
			}
			deg = math.Mod(deg, 360)
			out.SetValue(x, y, deg)
		}
	}
	return out
}
