package img

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/crazy3lf/colorconv"
	"github.com/maseology/mmaths"
	"github.com/maseology/mmio"
	"github.com/pkg/errors"
)

// Colourmap is a colour ramp with either continuous (piecewise
// linear) or discrete (binned) lookup.
type Colourmap struct {
	Colours  []RGB
	Discrete bool
}

var greyscale = func() []RGB {
	ramp := make([]RGB, 256)
	for i := range ramp {
		v := uint8(i)
		ramp[i] = RGB{v, v, v}
	}
	return ramp
}()

var inverseGreyscale = func() []RGB {
	ramp := make([]RGB, 256)
	for i := range ramp {
		v := uint8(255 - i)
		ramp[i] = RGB{v, v, v}
	}
	return ramp
}()

var dryWet = []RGB{
	{77, 137, 168}, {120, 204, 226}, {144, 232, 199}, {201, 236, 139},
	{232, 192, 93}, {224, 106, 255}, {183, 28, 30}, {133, 30, 20},
}

var d8Colours = []RGB{
	{255, 255, 255}, {103, 184, 103}, {54, 123, 54}, {169, 211, 169},
	{72, 165, 72}, {56, 133, 56}, {196, 157, 196}, {221, 84, 221}, {244, 181, 224},
}

var seaFloor = []RGB{
	{248, 233, 206}, {240, 197, 139}, {232, 167, 93}, {221, 128, 55},
	{214, 97, 51}, {204, 55, 73}, {198, 36, 93}, {183, 26, 103},
}

// hueSweep builds a 256-step ramp sweeping hue from 0 to 300 degrees
// at full saturation and value.
func hueSweep() []RGB {
	ramp := make([]RGB, 256)
	for i := range ramp {
		u := float64(i) / 255
		hue := mmaths.LinearTransform(0, 300, u)
		r, g, b, err := colorconv.HSVToRGB(hue, 1, 1)
		if err != nil {
			continue
		}
		ramp[i] = RGB{b, g, r}
	}
	return ramp
}

// ByCode resolves a built-in colourmap shortcode. Unknown codes fall
// back to LoadColourmap against dataRoot.
func ByCode(code, dataRoot string) (*Colourmap, error) {
	switch strings.ToLower(code) {
	case "g1", "greyscale1":
		return &Colourmap{Colours: greyscale}, nil
	case "g2", "greyscale2":
		return &Colourmap{Colours: inverseGreyscale}, nil
	case "dw", "drywet":
		return &Colourmap{Colours: dryWet}, nil
	case "d8":
		return &Colourmap{Colours: d8Colours, Discrete: true}, nil
	case "sf", "seafloor":
		return &Colourmap{Colours: seaFloor}, nil
	case "hs", "huesweep":
		return &Colourmap{Colours: hueSweep()}, nil
	default:
		return LoadColourmap(filepath.Join(dataRoot, "colourmaps", code+".txt"))
	}
}

// LoadColourmap reads a ramp file of one "B G R" triple per line.
func LoadColourmap(fp string) (*Colourmap, error) {
	if _, ok := mmio.FileExists(fp); !ok {
		return nil, errors.Errorf("img.LoadColourmap: file not found: %s", fp)
	}
	var colours []RGB
	for ln, line := range mmio.ReadTextLines(fp) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, errors.Errorf("img.LoadColourmap %s line %d: want 3 channels, got %d", fp, ln+1, len(fields))
		}
		var bgr [3]uint8
		for i, f := range fields {
			v, err := strconv.ParseUint(f, 10, 8)
			if err != nil {
				return nil, errors.Wrapf(err, "img.LoadColourmap %s line %d", fp, ln+1)
			}
			bgr[i] = uint8(v)
		}
		colours = append(colours, RGB{bgr[0], bgr[1], bgr[2]})
	}
	if len(colours) == 0 {
		return nil, errors.Errorf("img.LoadColourmap %s: no colours", fp)
	}
	return &Colourmap{Colours: colours}, nil
}

// Lookup maps a normalised value in [0,1] to a ramp colour.
// Continuous ramps interpolate linearly between the bracketing stops;
// discrete ramps bin the range evenly.
func (cm *Colourmap) Lookup(u float64) RGB {
	n := len(cm.Colours)
	if n == 1 || u <= 0 {
		return cm.Colours[0]
	}
	if u >= 1 {
		return cm.Colours[n-1]
	}
	if cm.Discrete {
		i := int(u * float64(n))
		if i >= n {
			i = n - 1
		}
		return cm.Colours[i]
	}
	seg := 1.0 / float64(n-1)
	i := int(u / seg)
	if i >= n-1 {
		i = n - 2
	}
	t := (u - float64(i)*seg) / seg
	return lerp(cm.Colours[i], cm.Colours[i+1], t)
}

func lerp(a, b RGB, t float64) RGB {
	return RGB{
		B: uint8(float64(a.B) + t*(float64(b.B)-float64(a.B))),
		G: uint8(float64(a.G) + t*(float64(b.G)-float64(a.G))),
		R: uint8(float64(a.R) + t*(float64(b.R)-float64(a.R))),
	}
}

func (cm *Colourmap) String() string {
	kind := "continuous"
	if cm.Discrete {
		kind = "discrete"
	}
	return fmt.Sprintf("%d-colour %s ramp", len(cm.Colours), kind)
}
