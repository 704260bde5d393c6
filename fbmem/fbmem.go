package fbmem

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/flavioheleno/packedfb"
)

var (
	// ErrOutOfRange is returned for runs that do not fit in the buffer.
	ErrOutOfRange = errors.New("fbmem: run out of range")
	// ErrShortBuffer is returned when a run buffer is smaller than the run.
	ErrShortBuffer = errors.New("fbmem: buffer too short for run")
)

// Buffer is a framebuffer held in memory.
type Buffer struct {
	Pix    []byte          // Pixel data, row after row
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
	Depth  packedfb.Depth
	Order  packedfb.Order

	plane *packedfb.Plane
}

var (
	_ packedfb.RowAccessor = (*Buffer)(nil)
	_ draw.Image           = (*Buffer)(nil)
)

// New allocates a Buffer covering r.
//
// For packed depths r.Min.X must sit on a byte boundary so that column
// numbers and bit positions agree. Rows are padded to whole bytes.
func New(r image.Rectangle, d packedfb.Depth, o packedfb.Order) (*Buffer, error) {
	if r.Dx() < 0 || r.Dy() < 0 {
		return nil, fmt.Errorf("fbmem: invalid bounds %v", r)
	}
	if d.Packed() && r.Min.X%d.PixelsPerByte() != 0 {
		return nil, fmt.Errorf("fbmem: min x %d not aligned to %d pixels per byte", r.Min.X, d.PixelsPerByte())
	}
	b := &Buffer{Rect: r, Depth: d, Order: o}
	plane, err := packedfb.NewPlane(b, packedfb.Config{Depth: d, Order: o})
	if err != nil {
		return nil, err
	}
	b.plane = plane
	b.Stride = d.RunBytes(r.Dx())
	b.Pix = make([]byte, b.Stride*r.Dy())
	return b, nil
}

// runOffset returns the index in Pix of the first byte of a run and the
// number of bytes it covers.
func (b *Buffer) runOffset(row, col, npixels int) (int, int, error) {
	if npixels < 1 || !(image.Point{X: col, Y: row}.In(b.Rect)) {
		return 0, 0, fmt.Errorf("%w: row %d col %d count %d in %v", ErrOutOfRange, row, col, npixels, b.Rect)
	}
	x := col - b.Rect.Min.X
	var start, n int
	if b.Depth.Packed() {
		start = x / b.Depth.PixelsPerByte()
		n = b.Depth.RunBytes(npixels)
	} else {
		start = x * b.Depth.BytesPerPixel()
		n = npixels * b.Depth.BytesPerPixel()
	}
	if start+n > b.Stride {
		return 0, 0, fmt.Errorf("%w: %d bytes at byte %d of a %d byte row", ErrOutOfRange, n, start, b.Stride)
	}
	return (row-b.Rect.Min.Y)*b.Stride + start, n, nil
}

// ReadRun implements packedfb.RowAccessor.
func (b *Buffer) ReadRun(row, col int, buf []byte, npixels int) error {
	off, n, err := b.runOffset(row, col, npixels)
	if err != nil {
		return err
	}
	if len(buf) < n {
		return fmt.Errorf("%w: have %d, need %d", ErrShortBuffer, len(buf), n)
	}
	copy(buf, b.Pix[off:off+n])
	return nil
}

// WriteRun implements packedfb.RowAccessor.
func (b *Buffer) WriteRun(row, col int, buf []byte, npixels int) error {
	off, n, err := b.runOffset(row, col, npixels)
	if err != nil {
		return err
	}
	if len(buf) < n {
		return fmt.Errorf("%w: have %d, need %d", ErrShortBuffer, len(buf), n)
	}
	copy(b.Pix[off:off+n], buf)
	return nil
}

// Row returns the bytes of row y, or nil when y is out of bounds.
func (b *Buffer) Row(y int) []byte {
	if y < b.Rect.Min.Y || y >= b.Rect.Max.Y {
		return nil
	}
	off := (y - b.Rect.Min.Y) * b.Stride
	return b.Pix[off : off+b.Stride]
}

// Plane returns the plane writing into b.
func (b *Buffer) Plane() *packedfb.Plane {
	return b.plane
}

// PixelAt returns the raw value at (x, y), or 0 out of bounds.
func (b *Buffer) PixelAt(x, y int) packedfb.Color {
	if !(image.Point{X: x, Y: y}.In(b.Rect)) {
		return 0
	}
	v, _ := b.plane.GetPixel(packedfb.Point{X: x, Y: y})
	return v
}

// SetPixel stores the raw value v at (x, y). Out of bounds writes are
// ignored.
func (b *Buffer) SetPixel(x, y int, v packedfb.Color) {
	if !(image.Point{X: x, Y: y}.In(b.Rect)) {
		return
	}
	_ = b.plane.SetPixel(packedfb.Point{X: x, Y: y}, v)
}

// Clear sets every pixel to v.
func (b *Buffer) Clear(v packedfb.Color) {
	var pattern []byte
	if b.Depth.Packed() {
		l, _ := packedfb.NewLayout(b.Depth, b.Order)
		var p byte
		for i := 0; i < b.Depth.PixelsPerByte(); i++ {
			p = l.Merge(p, i, v)
		}
		pattern = []byte{p}
	} else {
		var raw [4]byte
		binary.LittleEndian.PutUint32(raw[:], uint32(v&b.Depth.Mask()))
		pattern = raw[:b.Depth.BytesPerPixel()]
	}
	for i := range b.Pix {
		b.Pix[i] = pattern[i%len(pattern)]
	}
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model {
	return b.Depth.Model()
}

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle {
	return b.Rect
}

// At implements image.Image.
func (b *Buffer) At(x, y int) color.Color {
	return packedfb.Pixel{V: b.PixelAt(x, y), D: b.Depth}
}

// Set implements draw.Image.
func (b *Buffer) Set(x, y int, c color.Color) {
	b.SetPixel(x, y, b.Depth.Encode(c))
}

// Opaque implements the optional image/draw fast path check.
func (b *Buffer) Opaque() bool {
	return true
}
