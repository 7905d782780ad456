package grid

import (
	"strconv"
	"strings"

	"github.com/maseology/mmio"
	"github.com/pkg/errors"
)

// VectorGrid is a raster holding a short real-valued vector per cell.
// Only the text layout is supported: cells separated by spaces,
// components within a cell separated by commas.
type VectorGrid struct {
	data [][]float64
	w, h int
}

// NewVectorGrid builds a w-by-h vector grid with nil cells.
func NewVectorGrid(w, h int) *VectorGrid {
	if w <= 0 || h <= 0 {
		return &VectorGrid{}
	}
	return &VectorGrid{data: make([][]float64, w*h), w: w, h: h}
}

func (vg *VectorGrid) Width() int    { return vg.w }
func (vg *VectorGrid) Height() int   { return vg.h }
func (vg *VectorGrid) IsEmpty() bool { return vg.w == 0 || vg.h == 0 }

// Value returns the vector at (x,y), or nil when out of bounds.
func (vg *VectorGrid) Value(x, y int) []float64 {
	if x < 0 || x >= vg.w || y < 0 || y >= vg.h {
		return nil
	}
	return vg.data[y*vg.w+x]
}

// SetValue stores v at (x,y); out-of-bounds writes are ignored.
func (vg *VectorGrid) SetValue(x, y int, v []float64) {
	if x < 0 || x >= vg.w || y < 0 || y >= vg.h {
		return
	}
	vg.data[y*vg.w+x] = v
}

// LoadFrom reads the text layout from fp.
func (vg *VectorGrid) LoadFrom(fp string) error {
	if _, ok := mmio.FileExists(fp); !ok {
		return errors.Errorf("grid.VectorGrid.LoadFrom: file not found: %s", fp)
	}
	lines := mmio.ReadTextLines(fp)
	rows := make([][][]float64, 0, len(lines))
	w := -1
	for ln, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cells := strings.Fields(line)
		row := make([][]float64, len(cells))
		for i, c := range cells {
			comps := strings.Split(c, ",")
			vec := make([]float64, len(comps))
			for j, s := range comps {
				f, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return errors.Wrapf(err, "grid.VectorGrid.LoadFrom %s line %d", fp, ln+1)
				}
				vec[j] = f
			}
			row[i] = vec
		}
		if w == -1 {
			w = len(row)
		} else if len(row) != w {
			return errors.Errorf("grid.VectorGrid.LoadFrom %s: ragged row at line %d", fp, ln+1)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return errors.Wrapf(ErrEmptyGrid, "grid.VectorGrid.LoadFrom %s", fp)
	}
	nvg := NewVectorGrid(w, len(rows))
	for y, row := range rows {
		copy(nvg.data[y*w:(y+1)*w], row)
	}
	*vg = *nvg
	return nil
}

// SaveTo writes the text layout to fp.
func (vg *VectorGrid) SaveTo(fp string) error {
	if vg.IsEmpty() {
		return errors.Wrap(ErrEmptyGrid, "grid.VectorGrid.SaveTo")
	}
	tw, err := mmio.NewTXTwriter(fp)
	if err != nil {
		return errors.Wrapf(err, "grid.VectorGrid.SaveTo %s", fp)
	}
	defer tw.Close()
	cells := make([]string, vg.w)
	for y := 0; y < vg.h; y++ {
		for x := 0; x < vg.w; x++ {
			vec := vg.data[y*vg.w+x]
			comps := make([]string, len(vec))
			for j, f := range vec {
				comps[j] = strconv.FormatFloat(f, 'g', -1, 64)
			}
			cells[x] = strings.Join(comps, ",")
		}
		tw.WriteLine(strings.Join(cells, " "))
	}
	return nil
}
