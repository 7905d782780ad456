package tem_test

import (
	"math/rand"
	"testing"

	"github.com/demtools/demflow/grid"
	"github.com/demtools/demflow/tem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demFrom(rows [][]float64) *grid.Grid[float64] {
	g := grid.New[float64](len(rows[0]), len(rows))
	for y, row := range rows {
		for x, v := range row {
			g.SetValue(x, y, v)
		}
	}
	return g
}

// keepFirst drives rand.Intn(2) to 1 so D8 ties always keep the
// earliest-scanned candidate.
type keepFirst struct{}

func (keepFirst) Int63() int64 { return 1 << 32 }
func (keepFirst) Seed(int64)   {}

func TestDirectionTable(t *testing.T) {
	// east first, clockwise
	assert.Equal(t, [8]int{1, 1, 0, -1, -1, -1, 0, 1}, tem.Dx)
	assert.Equal(t, [8]int{0, 1, 1, 1, 0, -1, -1, -1}, tem.Dy)
}

func TestComputeDirections_WestEastRamp(t *testing.T) {
	dem := demFrom([][]float64{
		{3, 2, 1},
		{3, 2, 1},
		{3, 2, 1},
	})
	da := tem.NewD8AnalyserRNG(dem, rand.New(keepFirst{}))
	d8 := da.ComputeDirections()
	require.Equal(t, 3, d8.Width())
	require.Equal(t, 3, d8.Height())
	for y := 0; y < 3; y++ {
		assert.Equal(t, int32(0), d8.Value(0, y), "column 0 drains east")
		assert.Equal(t, int32(0), d8.Value(1, y), "column 1 drains east")
		assert.Equal(t, tem.NoDirection, d8.Value(2, y), "column 2 has no lower neighbour")
	}
}

func TestComputeDirections_CodeDomain(t *testing.T) {
	dem := demFrom([][]float64{
		{9, 3, 7, 1},
		{2, 8, 4, 6},
		{5, 1, 9, 2},
		{7, 6, 3, 8},
	})
	d8 := tem.NewD8Analyser(dem).ComputeDirections()
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := d8.Value(x, y)
			assert.True(t, c == tem.NoDirection || (c >= 0 && c < 8), "code %d at (%d,%d)", c, x, y)
		}
	}
}

func TestComputeDirections_SingleCell(t *testing.T) {
	dem := demFrom([][]float64{{5}})
	d8 := tem.NewD8Analyser(dem).ComputeDirections()
	assert.Equal(t, tem.NoDirection, d8.Value(0, 0))
}

func TestComputeDirections_TieBreakSeeded(t *testing.T) {
	dem := demFrom([][]float64{
		{2, 2, 2},
		{2, 2, 2},
		{1, 1, 1},
	})
	a := tem.NewD8AnalyserRNG(dem, rand.New(rand.NewSource(42))).ComputeDirections()
	b := tem.NewD8AnalyserRNG(dem, rand.New(rand.NewSource(42))).ComputeDirections()
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, a.Value(x, y), b.Value(x, y), "identical seeds must agree at (%d,%d)", x, y)
		}
	}
}

func TestComputeSlope_Flat(t *testing.T) {
	dem := demFrom([][]float64{
		{4, 4, 4},
		{4, 4, 4},
		{4, 4, 4},
	})
	sa := tem.NewSlopeAnalyser(dem)
	for _, kind := range []tem.SlopeKind{tem.SlopeGx, tem.SlopeGy, tem.SlopeCombined} {
		s := sa.ComputeSlope(kind)
		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				assert.Equal(t, 0.0, s.Value(x, y))
			}
		}
	}
}

func TestComputeSlope_Components(t *testing.T) {
	dem := demFrom([][]float64{
		{5, 4, 3},
		{6, 5, 4},
		{7, 6, 5},
	})
	sa := tem.NewSlopeAnalyser(dem)
	assert.Equal(t, 8.0, sa.ComputeSlope(tem.SlopeGx).Value(1, 1))
	assert.Equal(t, 8.0, sa.ComputeSlope(tem.SlopeGy).Value(1, 1))
	assert.InDelta(t, 11.3137, sa.ComputeSlope(tem.SlopeCombined).Value(1, 1), 1e-4)
}

func TestComputeSlope_SingleCell(t *testing.T) {
	dem := demFrom([][]float64{{7}})
	s := tem.NewSlopeAnalyser(dem).ComputeSlope(tem.SlopeCombined)
	assert.Equal(t, 0.0, s.Value(0, 0), "1x1 reflection degenerates to the cell itself")
}

func TestComputeAspect_TiltedPlane(t *testing.T) {
	dem := demFrom([][]float64{
		{5, 4, 3},
		{6, 5, 4},
		{7, 6, 5},
	})
	a := tem.NewSlopeAnalyser(dem).ComputeAspect()
	assert.InDelta(t, 135.0, a.Value(1, 1), 1e-9)
}

func TestComputeAspect_Domain(t *testing.T) {
	dem := demFrom([][]float64{
		{9, 3, 7, 1},
		{2, 8, 4, 6},
		{5, 1, 9, 2},
		{7, 6, 3, 8},
	})
	a := tem.NewSlopeAnalyser(dem).ComputeAspect()
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := a.Value(x, y)
			assert.True(t, v == tem.FlatAspect || (v >= 0 && v < 360), "aspect %f at (%d,%d)", v, x, y)
		}
	}
}

func TestComputeAspect_FlatSentinel(t *testing.T) {
	dem := demFrom([][]float64{
		{2, 2, 2},
		{2, 2, 2},
		{2, 2, 2},
	})
	a := tem.NewSlopeAnalyser(dem).ComputeAspect()
	assert.Equal(t, tem.FlatAspect, a.Value(1, 1))
}

func TestParseSlopeKind(t *testing.T) {
	cases := []struct {
		in   string
		want tem.SlopeKind
		ok   bool
	}{
		{"gx", tem.SlopeGx, true},
		{"gy", tem.SlopeGy, true},
		{"combined", tem.SlopeCombined, true},
		{"laplace", 0, false},
	}
	for _, tc := range cases {
		k, err := tem.ParseSlopeKind(tc.in)
		if tc.ok {
			require.NoError(t, err)
			assert.Equal(t, tc.want, k)
		} else {
			assert.Error(t, err)
		}
	}
}
