package grid

import "math"

// FillSinks raises interior pit cells until no sinks remain. A sink is
// an interior cell whose eight neighbours are all strictly higher; it
// is raised to the minimum strictly-positive neighbour elevation + 1.
// Values only rise, so the pass loop terminates; a second call is a
// no-op. Cells surrounded entirely by non-positive neighbours are left
// as-is.
func (g *Grid[T]) FillSinks() {
	if g.IsEmpty() || g.w < 3 || g.h < 3 {
		return
	}
	dx := [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	dy := [8]int{0, 1, 1, 1, 0, -1, -1, -1}
	for {
		changed := false
		for y := 1; y < g.h-1; y++ {
			for x := 1; x < g.w-1; x++ {
				v := g.data[y*g.w+x]
				sink := true
				minPos := math.MaxFloat64
				for i := 0; i < 8; i++ {
					n := g.data[(y+dy[i])*g.w+(x+dx[i])]
					if n <= v {
						sink = false
						break
					}
					if f := float64(n); f > 0 && f < minPos {
						minPos = f
					}
				}
				if sink && minPos < math.MaxFloat64 {
					g.data[y*g.w+x] = T(minPos) + 1
					changed = true
				}
			}
		}
		if !changed {
			return
		}
	}
}
