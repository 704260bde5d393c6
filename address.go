package packedfb

import "fmt"

// Locate returns the bit shift of the pixel at column col inside the byte
// holding it, and the mask of the bits belonging to that pixel.
//
// Only packed depths have an answer; any other depth returns (0, 0). Use
// NewLayout to reject such depths when a device is configured.
func Locate(col int, d Depth, o Order) (shift uint8, mask byte) {
	switch d {
	case Depth1:
		shift = uint8(col & 7)
		if o == MSFirst {
			shift = 7 - shift
		}
		return shift, 0x01 << shift
	case Depth2:
		shift = uint8(col&3) << 1
		if o == MSFirst {
			shift = 6 - shift
		}
		return shift, 0x03 << shift
	case Depth4:
		shift = uint8(col&1) << 2
		if o == MSFirst {
			shift = 4 - shift
		}
		return shift, 0x0F << shift
	}
	return 0, 0
}

// Layout is the pixel address calculator of one packed depth and order.
//
// The (shift, mask) pair of every slot of a cluster is computed once, so
// Locate never looks at the depth or the order again.
type Layout struct {
	depth Depth
	order Order
	// slot is col & (PixelsPerByte-1).
	slot  uint8
	shift [8]uint8
	mask  [8]byte
}

// NewLayout returns the Layout for a packed depth. Byte-wide and unknown
// depths are configuration errors.
func NewLayout(d Depth, o Order) (Layout, error) {
	if !d.Packed() {
		return Layout{}, fmt.Errorf("%w: %s has no sub-byte layout", ErrUnsupportedDepth, d)
	}
	if !o.Valid() {
		return Layout{}, fmt.Errorf("%w: %s", ErrUnsupportedOrder, o)
	}
	l := Layout{depth: d, order: o, slot: uint8(d.PixelsPerByte() - 1)}
	for i := 0; i < d.PixelsPerByte(); i++ {
		l.shift[i], l.mask[i] = Locate(i, d, o)
	}
	return l, nil
}

// Depth returns the depth the layout was built for.
func (l Layout) Depth() Depth { return l.depth }

// Order returns the packing order the layout was built for.
func (l Layout) Order() Order { return l.order }

// Locate returns the shift and mask of column col.
func (l Layout) Locate(col int) (shift uint8, mask byte) {
	i := uint8(col) & l.slot
	return l.shift[i], l.mask[i]
}

// Merge writes c into the bit-group of col inside b and returns the new
// byte. All other bits of b are kept.
func (l Layout) Merge(b byte, col int, c Color) byte {
	shift, mask := l.Locate(col)
	return b&^mask | byte(c<<shift)&mask
}

// Extract returns the value of the bit-group of col inside b.
func (l Layout) Extract(b byte, col int) Color {
	shift, mask := l.Locate(col)
	return Color((b & mask) >> shift)
}
