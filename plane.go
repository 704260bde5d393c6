package packedfb

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Point is a pixel position. X is the column and Y the row.
type Point struct {
	X, Y int
}

// Color is a raw pixel value. Only the low Depth bits are significant.
type Color uint32

// RowAccessor reads and writes runs of consecutive pixels of one row.
//
// It is implemented by the framebuffer device. Buffers hold pixels packed
// with the device's depth and order. A packed run starts with the byte that
// holds column col and spans Depth.RunBytes(npixels) bytes; a byte-wide run
// starts at byte col*BytesPerPixel.
type RowAccessor interface {
	ReadRun(row, col int, buf []byte, npixels int) error
	WriteRun(row, col int, buf []byte, npixels int) error
}

// Config is the fixed pixel format of a device.
type Config struct {
	Depth Depth
	Order Order
	// Lock, when set, is held from the read to the write of a packed
	// SetPixel. Leave it nil when drawing is confined to one goroutine.
	Lock sync.Locker
}

// Plane sets and gets single pixels through a RowAccessor.
//
// For packed depths SetPixel is a read-modify-write of the byte holding the
// pixel and is not atomic: if another write lands on the same byte between
// the read and the write, one of the two updates is lost. Callers must make
// sure no two SetPixel calls addressing the same byte run concurrently,
// either by drawing from a single goroutine or by setting Config.Lock.
type Plane struct {
	acc    RowAccessor
	depth  Depth
	order  Order
	layout Layout
	lock   sync.Locker
	set    func(p Point, c Color) error
	get    func(p Point) (Color, error)
}

// NewPlane binds acc to a pixel format. An unsupported depth or order is
// rejected here, never by SetPixel.
func NewPlane(acc RowAccessor, cfg Config) (*Plane, error) {
	if acc == nil {
		return nil, fmt.Errorf("packedfb: nil row accessor")
	}
	if !cfg.Depth.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDepth, cfg.Depth)
	}
	if !cfg.Order.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOrder, cfg.Order)
	}
	p := &Plane{acc: acc, depth: cfg.Depth, order: cfg.Order, lock: cfg.Lock}
	if cfg.Depth.Packed() {
		l, err := NewLayout(cfg.Depth, cfg.Order)
		if err != nil {
			return nil, err
		}
		p.layout = l
		p.set, p.get = p.setMasked, p.getMasked
	} else {
		p.set, p.get = p.setDirect, p.getDirect
	}
	return p, nil
}

// Depth returns the plane's bits per pixel.
func (p *Plane) Depth() Depth { return p.depth }

// Order returns the plane's packing order.
func (p *Plane) Order() Order { return p.order }

// SetPixel writes c at pt. Bits of c above the depth are ignored.
//
// Packed depths issue exactly one ReadRun and one WriteRun of the byte
// holding the pixel; byte-wide depths issue a single WriteRun. Accessor
// errors are returned as is; a failed read skips the write.
func (p *Plane) SetPixel(pt Point, c Color) error {
	return p.set(pt, c)
}

// GetPixel reads the pixel at pt with a single ReadRun.
func (p *Plane) GetPixel(pt Point) (Color, error) {
	return p.get(pt)
}

func (p *Plane) setMasked(pt Point, c Color) error {
	if p.lock != nil {
		p.lock.Lock()
		defer p.lock.Unlock()
	}
	var buf [1]byte
	n := p.depth.PixelsPerByte()
	if err := p.acc.ReadRun(pt.Y, pt.X, buf[:], n); err != nil {
		return err
	}
	buf[0] = p.layout.Merge(buf[0], pt.X, c)
	return p.acc.WriteRun(pt.Y, pt.X, buf[:], n)
}

func (p *Plane) setDirect(pt Point, c Color) error {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], uint32(c&p.depth.Mask()))
	return p.acc.WriteRun(pt.Y, pt.X, raw[:p.depth.BytesPerPixel()], 1)
}

func (p *Plane) getMasked(pt Point) (Color, error) {
	var buf [1]byte
	if err := p.acc.ReadRun(pt.Y, pt.X, buf[:], p.depth.PixelsPerByte()); err != nil {
		return 0, err
	}
	return p.layout.Extract(buf[0], pt.X), nil
}

func (p *Plane) getDirect(pt Point) (Color, error) {
	var raw [4]byte
	if err := p.acc.ReadRun(pt.Y, pt.X, raw[:p.depth.BytesPerPixel()], 1); err != nil {
		return 0, err
	}
	return Color(binary.LittleEndian.Uint32(raw[:])), nil
}
