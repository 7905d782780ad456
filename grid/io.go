package grid

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/maseology/mmio"
	"github.com/pkg/errors"
)

// Format identifies a grid file layout.
type Format int

const (
	FormatTXT Format = iota // space-separated rows
	FormatCSV               // comma-separated rows
	FormatBin               // int32 LE height, width header then raw cells
)

var (
	ErrEmptyGrid     = errors.New("grid is empty")
	ErrUnknownFormat = errors.New("unknown grid format")
)

// ParseFormat maps a file extension or format code (txt, csv, bin,
// with or without a leading dot) to its Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "txt":
		return FormatTXT, nil
	case "csv":
		return FormatCSV, nil
	case "bin":
		return FormatBin, nil
	default:
		return 0, errors.Wrapf(ErrUnknownFormat, "%q", s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatTXT:
		return "txt"
	case FormatCSV:
		return "csv"
	case FormatBin:
		return "bin"
	default:
		return "unknown"
	}
}

// LoadFrom reads a grid from fp in the given format. On failure the
// receiver is left untouched.
func (g *Grid[T]) LoadFrom(fp string, format Format) error {
	if _, ok := mmio.FileExists(fp); !ok {
		return errors.Errorf("grid.LoadFrom: file not found: %s", fp)
	}
	switch format {
	case FormatTXT:
		return g.loadText(fp, " ")
	case FormatCSV:
		return g.loadText(fp, ",")
	case FormatBin:
		return g.loadBinary(fp)
	default:
		return errors.Wrapf(ErrUnknownFormat, "grid.LoadFrom %s", fp)
	}
}

func (g *Grid[T]) loadText(fp, sep string) error {
	lines := mmio.ReadTextLines(fp)
	rows := make([][]T, 0, len(lines))
	w := -1
	for ln, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var fields []string
		if sep == " " {
			fields = strings.Fields(line)
		} else {
			fields = strings.Split(line, sep)
		}
		row := make([]T, len(fields))
		for i, f := range fields {
			v, err := parseCell[T](strings.TrimSpace(f))
			if err != nil {
				return errors.Wrapf(err, "grid.loadText %s line %d", fp, ln+1)
			}
			row[i] = v
		}
		if w == -1 {
			w = len(row)
		} else if len(row) != w {
			return errors.Errorf("grid.loadText %s: ragged row at line %d (%d cells, want %d)", fp, ln+1, len(row), w)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return errors.Wrapf(ErrEmptyGrid, "grid.loadText %s", fp)
	}
	ng := New[T](w, len(rows))
	for y, row := range rows {
		copy(ng.data[y*w:(y+1)*w], row)
	}
	*g = *ng
	return nil
}

func (g *Grid[T]) loadBinary(fp string) error {
	buf := mmio.OpenBinary(fp)
	var h32, w32 int32
	if err := binary.Read(buf, binary.LittleEndian, &h32); err != nil {
		return errors.Wrapf(err, "grid.loadBinary %s: height", fp)
	}
	if err := binary.Read(buf, binary.LittleEndian, &w32); err != nil {
		return errors.Wrapf(err, "grid.loadBinary %s: width", fp)
	}
	if h32 <= 0 || w32 <= 0 {
		return errors.Errorf("grid.loadBinary %s: invalid dimensions %dx%d", fp, w32, h32)
	}
	data := make([]T, int(w32)*int(h32))
	if err := binary.Read(buf, binary.LittleEndian, data); err != nil {
		return errors.Wrapf(err, "grid.loadBinary %s: cells", fp)
	}
	*g = Grid[T]{data: data, w: int(w32), h: int(h32)}
	return nil
}

// SaveTo writes the grid to fp in the given format.
func (g *Grid[T]) SaveTo(fp string, format Format) error {
	if g.IsEmpty() {
		return errors.Wrap(ErrEmptyGrid, "grid.SaveTo")
	}
	switch format {
	case FormatTXT:
		return g.saveText(fp, " ")
	case FormatCSV:
		return g.saveText(fp, ",")
	case FormatBin:
		return g.saveBinary(fp)
	default:
		return errors.Wrapf(ErrUnknownFormat, "grid.SaveTo %s", fp)
	}
}

func (g *Grid[T]) saveText(fp, sep string) error {
	tw, err := mmio.NewTXTwriter(fp)
	if err != nil {
		return errors.Wrapf(err, "grid.saveText %s", fp)
	}
	defer tw.Close()
	cells := make([]string, g.w)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			cells[x] = formatCell(g.data[y*g.w+x])
		}
		tw.WriteLine(strings.Join(cells, sep))
	}
	return nil
}

func (g *Grid[T]) saveBinary(fp string) error {
	f, err := os.Create(fp)
	if err != nil {
		return errors.Wrapf(err, "grid.saveBinary %s", fp)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, int32(g.h)); err != nil {
		return errors.Wrapf(err, "grid.saveBinary %s: height", fp)
	}
	if err := binary.Write(f, binary.LittleEndian, int32(g.w)); err != nil {
		return errors.Wrapf(err, "grid.saveBinary %s: width", fp)
	}
	if err := binary.Write(f, binary.LittleEndian, g.data); err != nil {
		return errors.Wrapf(err, "grid.saveBinary %s: cells", fp)
	}
	return nil
}

func parseCell[T Cell](s string) (T, error) {
	var zero T
	switch any(zero).(type) {
	case int32:
		i, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			// text exports of real rasters may carry decimals
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return zero, fmt.Errorf("parse %q: %v", s, err)
			}
			return T(f), nil
		}
		return T(i), nil
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return zero, fmt.Errorf("parse %q: %v", s, err)
		}
		return T(f), nil
	}
}

func formatCell[T Cell](v T) string {
	switch t := any(v).(type) {
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	default:
		return strconv.FormatFloat(any(v).(float64), 'g', -1, 64)
	}
}
