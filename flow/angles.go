// Package flow accumulates upslope contributing area over an
// elevation grid under the D8, Dinf and MDF models.
package flow

import "math"

// Direction is a neighbour offset produced by the angle oracle.
type Direction struct {
	Dx, Dy int
}

var cardinalAngle = [8]float64{0, 45, 90, 135, 180, 225, 270, 315}

var cardinalDir = [8]Direction{
	{0, -1},  // 0 N
	{1, -1},  // 45 NE
	{1, 0},   // 90 E
	{1, 1},   // 135 SE
	{0, 1},   // 180 S
	{-1, 1},  // 225 SW
	{-1, 0},  // 270 W
	{-1, -1}, // 315 NW
}

// NearestTwoDirections brackets an azimuth between its two nearest
// cardinal neighbours and splits a unit weight linearly between them.
// An azimuth within 1e-6 of one of the cardinals 45 to 270 returns
// that cardinal twice with weights (1,0). Azimuths of 315 and above use
// the wrap segment (N, NW), so exactly 315 returns (N, NW, 0, 1); an
// azimuth of exactly 0 is bracketed as (NE, N, 1, 0).
func NearestTwoDirections(aspect float64) (dir1, dir2 Direction, w1, w2 float64) {
	aspect = math.Mod(aspect, 360)
	if aspect < 0 {
		aspect += 360
	}
	if aspect >= 315 {
		w1 = (aspect - 315) / 45
		return cardinalDir[0], cardinalDir[7], w1, 1 - w1
	}
	for i := 1; i < 8; i++ {
		if math.Abs(aspect-cardinalAngle[i]) < 1e-6 {
			return cardinalDir[i], cardinalDir[i], 1, 0
		}
		if aspect < cardinalAngle[i] {
			w1 = (aspect - cardinalAngle[i-1]) / 45
			return cardinalDir[i], cardinalDir[i-1], 1 - w1, w1
		}
	}
	// unreachable: aspect < 315 always brackets above
	return cardinalDir[0], cardinalDir[0], 1, 0
}
