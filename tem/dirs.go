package tem

// Eight-neighbour offsets indexed by direction code, east first,
// proceeding clockwise. Shared by the flow and basin analysers.
var (
	Dx = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	Dy = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// NoDirection marks a cell with no defined flow direction.
const NoDirection int32 = -1

// FlatAspect marks a cell whose gradient magnitude falls below the
// flat threshold.
const FlatAspect float64 = -1

// flat threshold on the Sobel response magnitude
const flatTol = 0.01
