// Package ezio drives the 128x64 monochrome front panel LCD found on
// Portwell EZIO-G500 network appliances, attached to a serial port.
//
// The panel has no pixel-addressed RAM: every update is a full 1024 byte
// frame of vertical bytes. Dev keeps a 1 bit per pixel shadow frame,
// leftmost pixel in the most significant bit, and implements
// packedfb.RowAccessor on top of it.
//
//	dev, _ := ezio.Open("/dev/ttyS1", &ezio.Opts{Deferred: true})
//	defer dev.Close()
//	plane := dev.Plane()
//	_ = plane.SetPixel(packedfb.Point{X: 3, Y: 7}, 1)
//	_ = dev.Flush()
package ezio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"github.com/flavioheleno/packedfb"
	"github.com/flavioheleno/packedfb/fbmem"
)

// Panel geometry.
const (
	Width     = 128
	Height    = 64
	FrameSize = Width * Height / 8
)

// Depth and Order are the pixel format of the shadow frame.
const (
	Depth = packedfb.Depth1
	Order = packedfb.MSFirst
)

// BaudRate is the line speed of the panel.
const BaudRate = 115200

var (
	cmdReset   = []byte{0x1B, 0x40}
	cmdHome    = []byte{0x0B}
	cmdClear   = []byte{0x0C}
	cmdGraphic = []byte{0x1B, 0x47}
)

// ErrNoKey is returned by ReadKey when no key was pressed before the timeout.
var ErrNoKey = errors.New("ezio: no key pressed")

// Key is a front panel button code.
type Key byte

// Front panel buttons.
const (
	KeyHelp  Key = 0x41
	KeyLeft  Key = 0x42
	KeyEsc   Key = 0x43
	KeyUp    Key = 0x44
	KeyEnter Key = 0x45
	KeyDown  Key = 0x46
	KeyRight Key = 0x47
)

func (k Key) String() string {
	switch k {
	case KeyHelp:
		return "help"
	case KeyLeft:
		return "left"
	case KeyEsc:
		return "esc"
	case KeyUp:
		return "up"
	case KeyEnter:
		return "enter"
	case KeyDown:
		return "down"
	case KeyRight:
		return "right"
	}
	return fmt.Sprintf("Key(0x%02X)", byte(k))
}

// Opts is the configuration for the panel.
type Opts struct {
	// Deferred keeps pixel writes in the shadow frame until Flush.
	Deferred bool
	// Delay is the pause after each initialization command.
	// Defaults to 5ms.
	Delay time.Duration
	// Logger receives debug output. nil disables logging.
	Logger *zerolog.Logger
}

// Dev is a handle to the panel. It is not safe for concurrent use.
type Dev struct {
	rw     io.ReadWriter
	shadow *fbmem.Buffer
	plane  *packedfb.Plane

	deferred bool
	dirty    bool
	delay    time.Duration
	frame    [FrameSize]byte
	log      zerolog.Logger
}

var _ packedfb.RowAccessor = (*Dev)(nil)

// Open opens the serial device at 115200 8N1 and initializes the panel.
func Open(device string, opts *Opts) (*Dev, error) {
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("ezio: open %s: %w", device, err)
	}
	d, err := New(port, opts)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return d, nil
}

// New initializes a panel reachable through rw. Key presses are read from
// rw as well.
func New(rw io.ReadWriter, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	shadow, err := fbmem.New(image.Rect(0, 0, Width, Height), Depth, Order)
	if err != nil {
		return nil, err
	}
	d := &Dev{
		rw:       rw,
		shadow:   shadow,
		deferred: opts.Deferred,
		delay:    opts.Delay,
		log:      zerolog.Nop(),
	}
	if d.delay == 0 {
		d.delay = 5 * time.Millisecond
	}
	if opts.Logger != nil {
		d.log = opts.Logger.With().Str("dev", "ezio").Logger()
	}
	if d.plane, err = packedfb.NewPlane(d, packedfb.Config{Depth: Depth, Order: Order}); err != nil {
		return nil, err
	}
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

// Init resets the panel, homes the cursor and clears the screen.
func (d *Dev) Init() error {
	for _, cmd := range [][]byte{cmdReset, cmdHome, cmdClear} {
		if err := d.write(cmd); err != nil {
			return err
		}
		time.Sleep(d.delay)
	}
	d.log.Debug().Msg("initialized")
	return nil
}

func (d *Dev) write(b []byte) error {
	n, err := d.rw.Write(b)
	if err != nil {
		return fmt.Errorf("ezio: write: %w", err)
	}
	if n < len(b) {
		return fmt.Errorf("ezio: wrote %d of %d bytes: %w", n, len(b), io.ErrShortWrite)
	}
	return nil
}

// ReadRun implements packedfb.RowAccessor.
func (d *Dev) ReadRun(row, col int, buf []byte, npixels int) error {
	return d.shadow.ReadRun(row, col, buf, npixels)
}

// WriteRun implements packedfb.RowAccessor. Unless the panel is deferred
// the whole frame is sent after each run.
func (d *Dev) WriteRun(row, col int, buf []byte, npixels int) error {
	if err := d.shadow.WriteRun(row, col, buf, npixels); err != nil {
		return err
	}
	d.dirty = true
	if d.deferred {
		return nil
	}
	return d.Flush()
}

// Flush sends the shadow frame if it changed since the last flush.
func (d *Dev) Flush() error {
	if !d.dirty {
		return nil
	}
	d.encode()
	if err := d.write(cmdGraphic); err != nil {
		return err
	}
	if err := d.write(d.frame[:]); err != nil {
		return err
	}
	d.dirty = false
	d.log.Debug().Msg("flush")
	return nil
}

// encode converts the shadow frame to the panel format. Each byte holds
// 8 rows of one column, top row in bit 0. The left 64 columns of every
// 8-row band come first, then the right 64 columns.
func (d *Dev) encode() {
	const half = Width / 2
	for y := 0; y < Height; y++ {
		row := d.shadow.Row(y)
		band, bit := y/8, byte(1)<<(y%8)
		for x := 0; x < Width; x++ {
			idx := (x/half)*FrameSize/2 + band*half + x%half
			if y%8 == 0 {
				d.frame[idx] = 0
			}
			_, mask := packedfb.Locate(x, Depth, Order)
			if row[x/8]&mask != 0 {
				d.frame[idx] |= bit
			}
		}
	}
}

// Plane returns a pixel plane drawing on the panel.
func (d *Dev) Plane() *packedfb.Plane {
	return d.plane
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return Depth.Model()
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.shadow.Rect
}

// Draw draws src onto the shadow frame and, unless deferred, sends it.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	dst = dst.Intersect(d.shadow.Rect)
	if dst.Empty() {
		return nil
	}
	draw.Draw(d.shadow, dst, src, sp, draw.Src)
	d.dirty = true
	if d.deferred {
		return nil
	}
	return d.Flush()
}

// ReadKey waits up to timeout for a front panel button. The timeout only
// applies when the panel was opened on a serial port.
func (d *Dev) ReadKey(timeout time.Duration) (Key, error) {
	if p, ok := d.rw.(serial.Port); ok {
		if err := p.SetReadTimeout(timeout); err != nil {
			return 0, fmt.Errorf("ezio: %w", err)
		}
	}
	var b [1]byte
	n, err := d.rw.Read(b[:])
	if n == 1 {
		return Key(b[0]), nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("ezio: read: %w", err)
	}
	return 0, ErrNoKey
}

// Close closes the underlying port when it can be closed.
func (d *Dev) Close() error {
	if c, ok := d.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ezio.Dev{%dx%d}", Width, Height)
}
