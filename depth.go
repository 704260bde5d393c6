package packedfb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedDepth is returned when a bits-per-pixel value is not one
	// of 1, 2, 4, 8, 16, 24 or 32, or when a packed-only component is
	// configured with a byte-wide depth.
	ErrUnsupportedDepth = errors.New("packedfb: unsupported pixel depth")
	// ErrUnsupportedOrder is returned for an unknown packing order.
	ErrUnsupportedOrder = errors.New("packedfb: unsupported packing order")
)

// Depth is the number of bits encoding one pixel.
type Depth uint8

// Supported depths.
const (
	Depth1  Depth = 1
	Depth2  Depth = 2
	Depth4  Depth = 4
	Depth8  Depth = 8
	Depth16 Depth = 16
	Depth24 Depth = 24
	Depth32 Depth = 32
)

// ParseDepth converts a bits-per-pixel count into a Depth.
func ParseDepth(bpp int) (Depth, error) {
	d := Depth(bpp)
	if bpp < 0 || bpp > 32 || !d.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedDepth, bpp)
	}
	return d, nil
}

// Valid reports whether d is one of the supported depths.
func (d Depth) Valid() bool {
	switch d {
	case Depth1, Depth2, Depth4, Depth8, Depth16, Depth24, Depth32:
		return true
	}
	return false
}

// Packed reports whether several pixels share one byte.
func (d Depth) Packed() bool {
	return d == Depth1 || d == Depth2 || d == Depth4
}

// PixelsPerByte returns the cluster size for packed depths and 1 otherwise.
func (d Depth) PixelsPerByte() int {
	if d.Packed() {
		return 8 / int(d)
	}
	return 1
}

// BytesPerPixel returns the number of bytes of one pixel for byte-wide
// depths and 0 for packed depths.
func (d Depth) BytesPerPixel() int {
	if d.Packed() {
		return 0
	}
	return int(d) / 8
}

// Mask returns the significant bits of a Color at this depth.
func (d Depth) Mask() Color {
	if d >= 32 {
		return 0xFFFFFFFF
	}
	return Color(1)<<d - 1
}

// RunBytes returns how many bytes a run of n pixels occupies.
func (d Depth) RunBytes(n int) int {
	return (n*int(d) + 7) / 8
}

func (d Depth) String() string {
	return strconv.Itoa(int(d)) + "bpp"
}

// Order is the packing order of the pixels sharing one byte.
type Order uint8

const (
	// MSFirst places the lowest column of a cluster in the most significant
	// bits of the byte.
	MSFirst Order = iota
	// LSFirst places the lowest column of a cluster in the least significant
	// bits of the byte.
	LSFirst
)

// ParseOrder accepts "msb", "msfirst", "lsb" and "lsfirst", case
// insensitive. An empty string selects MSFirst.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "msb", "msfirst", "ms-first":
		return MSFirst, nil
	case "lsb", "lsfirst", "ls-first":
		return LSFirst, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedOrder, s)
}

// Valid reports whether o is a known packing order.
func (o Order) Valid() bool {
	return o == MSFirst || o == LSFirst
}

func (o Order) String() string {
	switch o {
	case MSFirst:
		return "MSFirst"
	case LSFirst:
		return "LSFirst"
	}
	return "Order(" + strconv.Itoa(int(o)) + ")"
}
