// Package img renders grids to 24-bit BMP images through colourmaps.
package img

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// RGB is a pixel in BMP channel order.
type RGB struct {
	B, G, R uint8
}

// BMP is a write-only 24-bit bitmap. Pixels are addressed with y=0 at
// the top; rows are flipped to the bottom-up file order on Write.
type BMP struct {
	w, h int
	data []RGB
}

// NewBMP builds a black w-by-h bitmap.
func NewBMP(w, h int) *BMP {
	return &BMP{w: w, h: h, data: make([]RGB, w*h)}
}

// SetPixel writes a pixel; out-of-range coordinates are ignored.
func (b *BMP) SetPixel(x, y int, p RGB) {
	if x < 0 || x >= b.w || y < 0 || y >= b.h {
		return
	}
	b.data[y*b.w+x] = p
}

type fileHeader struct {
	Type     uint16
	Size     uint32
	Res1     uint16
	Res2     uint16
	OffBits  uint32
}

type infoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// Write emits the bitmap to fp: 14-byte file header, 40-byte info
// header, then bottom-up BGR rows padded to 4-byte multiples.
func (b *BMP) Write(fp string) error {
	rowSize := (b.w*3 + 3) &^ 3
	imageSize := rowSize * b.h

	f, err := os.Create(fp)
	if err != nil {
		return errors.Wrapf(err, "img.BMP.Write %s", fp)
	}
	defer f.Close()

	fh := fileHeader{
		Type:    0x4d42, // BM
		Size:    uint32(54 + imageSize),
		OffBits: 54,
	}
	ih := infoHeader{
		Size:          40,
		Width:         int32(b.w),
		Height:        int32(b.h),
		Planes:        1,
		BitCount:      24,
		SizeImage:     uint32(imageSize),
		XPelsPerMeter: 2835,
		YPelsPerMeter: 2835,
	}
	if err := binary.Write(f, binary.LittleEndian, fh); err != nil {
		return errors.Wrapf(err, "img.BMP.Write %s", fp)
	}
	if err := binary.Write(f, binary.LittleEndian, ih); err != nil {
		return errors.Wrapf(err, "img.BMP.Write %s", fp)
	}

	pad := make([]byte, rowSize-b.w*3)
	row := make([]byte, 0, rowSize)
	for y := b.h - 1; y >= 0; y-- {
		row = row[:0]
		for x := 0; x < b.w; x++ {
			p := b.data[y*b.w+x]
			row = append(row, p.B, p.G, p.R)
		}
		row = append(row, pad...)
		if _, err := f.Write(row); err != nil {
			return errors.Wrapf(err, "img.BMP.Write %s", fp)
		}
	}
	return nil
}
