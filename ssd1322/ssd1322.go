package ssd1322

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/flavioheleno/packedfb"
	"github.com/flavioheleno/packedfb/fbmem"
)

var (
	// ErrHalted is returned by every operation after Halt.
	ErrHalted = errors.New("ssd1322: halted")
	// ErrBufferSize is returned by Write for a frame of the wrong length.
	ErrBufferSize = errors.New("ssd1322: invalid buffer size")
)

const (
	// ramWidth is the number of columns of the controller RAM.
	ramWidth = 480
	// columnGroup is the number of pixels behind one column address.
	columnGroup = 4
)

// Controller commands.
const (
	cmdSetColumn      = 0x15
	cmdWriteRAM       = 0x5C
	cmdSetRow         = 0x75
	cmdRemap          = 0xA0
	cmdStartLine      = 0xA1
	cmdOffset         = 0xA2
	cmdNormal         = 0xA6
	cmdInverse        = 0xA7
	cmdExitPartial    = 0xA9
	cmdFunction       = 0xAB
	cmdDisplayOff     = 0xAE
	cmdDisplayOn      = 0xAF
	cmdPhaseLength    = 0xB1
	cmdClockDivider   = 0xB3
	cmdVSL            = 0xB4
	cmdPrecharge2     = 0xB6
	cmdDefaultGray    = 0xB9
	cmdPrechargeVolt  = 0xBB
	cmdVCOMH          = 0xBE
	cmdContrast       = 0xC1
	cmdMasterContrast = 0xC7
	cmdMuxRatio       = 0xCA
	cmdEnhancement    = 0xD1
	cmdLock           = 0xFD
	cmdScrollLeft     = 0x26
	cmdScrollRight    = 0x27
	cmdScrollStop     = 0x2E
	cmdScrollStart    = 0x2F
)

// Depth and Order are the pixel format of the controller RAM: 4 bits per
// pixel, leftmost pixel in the high nibble.
const (
	Depth = packedfb.Depth4
	Order = packedfb.MSFirst
)

// Opts is the configuration for the SSD1322 display.
type Opts struct {
	// Display dimensions in pixels
	W int // Width (default: 256, must be a multiple of 4 and ≤480)
	H int // Height (default: 64, must be ≤128)

	// Rotation and mirroring
	Rotated       bool // 180° rotation
	Sequential    bool // Sequential COM pin configuration
	SwapTopBottom bool // Swap top/bottom display halves

	// Optional hardware reset pin
	RST gpio.PinIO // Reset pin (optional, nil if not used)

	// SPI clock, 10MHz when zero. The controller accepts up to 10MHz in
	// 4-wire mode.
	Speed physic.Frequency

	// Deferred keeps pixel writes in the shadow buffer until Flush is
	// called. Otherwise every WriteRun is sent to the panel immediately.
	Deferred bool

	// Logger receives debug output. nil disables logging.
	Logger *zerolog.Logger
}

// Dev is the device handle for the SSD1322 display.
//
// The controller RAM cannot be read back over SPI, so Dev keeps a shadow
// copy of the frame and serves ReadRun from it. Dev is not safe for
// concurrent use.
type Dev struct {
	// Communication
	c   conn.Conn   // SPI connection
	dc  gpio.PinOut // Data/Command pin
	rst gpio.PinIO  // Reset pin (optional)

	// Display geometry
	rect         image.Rectangle
	columnOffset int // Pixels to skip to center the panel in the 480-column RAM

	shadow *fbmem.Buffer
	plane  *packedfb.Plane

	// Region of the shadow not yet sent to the panel.
	dirty    image.Rectangle
	deferred bool

	log    zerolog.Logger
	halted bool
}

var _ packedfb.RowAccessor = (*Dev)(nil)

// NewSPI creates a new SSD1322 device connected via SPI.
//
// The SPI port is configured for Opts.Speed (10MHz by default), Mode0
// (CPOL=0, CPHA=0), 8-bit transfers.
// The dc (Data/Command) GPIO pin must be provided and configured as an output.
//
// opts can be nil to use defaults (256x64 display).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: 256, H: 64}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("ssd1322: dc pin is required")
	}

	// SSD1322 supports Mode0 (CPOL=0, CPHA=0) or Mode3 (CPOL=1, CPHA=1).
	speed := opts.Speed
	if speed == 0 {
		speed = 10 * physic.MegaHertz
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ssd1322: %w", err)
	}

	d, err := newDev(c, dc, opts)
	if err != nil {
		return nil, err
	}
	if err := d.init(opts); err != nil {
		return nil, err
	}
	return d, nil
}

func (o *Opts) validate() error {
	if o.W <= 0 || o.W%columnGroup != 0 || o.W > ramWidth {
		return errors.New("ssd1322: width must be a multiple of 4 between 4 and 480")
	}
	if o.H <= 0 || o.H > 128 {
		return errors.New("ssd1322: height must be between 1 and 128")
	}
	return nil
}

func newDev(c conn.Conn, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	rect := image.Rect(0, 0, opts.W, opts.H)
	shadow, err := fbmem.New(rect, Depth, Order)
	if err != nil {
		return nil, err
	}
	d := &Dev{
		c:            c,
		dc:           dc,
		rst:          opts.RST,
		rect:         rect,
		columnOffset: ((ramWidth - opts.W) / 2) &^ (columnGroup - 1),
		shadow:       shadow,
		deferred:     opts.Deferred,
		log:          zerolog.Nop(),
	}
	if opts.Logger != nil {
		d.log = opts.Logger.With().Str("dev", "ssd1322").Logger()
	}
	d.plane, err = packedfb.NewPlane(d, packedfb.Config{Depth: Depth, Order: Order})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// init sends the initialization sequence to the display.
func (d *Dev) init(opts *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ssd1322: failed to pull RST low: %w", err)
		}
		time.Sleep(200 * time.Millisecond)

		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ssd1322: failed to pull RST high: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	if err := d.sendCommands(initSequence(opts)); err != nil {
		return err
	}
	if err := d.clearRAM(); err != nil {
		return err
	}
	d.log.Debug().Int("w", d.rect.Dx()).Int("h", d.rect.Dy()).Int("offset", d.columnOffset).Msg("initialized")
	return d.sendCommand(cmdDisplayOn)
}

func initSequence(opts *Opts) []byte {
	cmds := []byte{
		cmdLock, 0x12, // Unlock command codes
		cmdDisplayOff,
		cmdClockDivider, 0xF2,
		cmdMuxRatio, byte(opts.H - 1),
		cmdOffset, 0x00,
		cmdStartLine, 0x00,
	}

	// Remap: nibble order, column/COM scan direction and dual COM mode.
	remap1, remap2 := byte(0x14), byte(0x11)
	if opts.Rotated {
		remap1 = 0x06
	}
	if opts.Sequential {
		remap2 |= 0x01
	}
	if opts.SwapTopBottom {
		remap2 |= 0x02
	}

	return append(cmds,
		cmdRemap, remap1, remap2,
		cmdFunction, 0x01, // Internal VDD
		cmdVSL, 0xA0, 0xFD,
		cmdContrast, 0xFF,
		cmdMasterContrast, 0x0F,
		cmdDefaultGray,
		cmdPhaseLength, 0xE2,
		cmdEnhancement, 0x82, 0x20,
		cmdPrechargeVolt, 0x1F,
		cmdPrecharge2, 0x08,
		cmdVCOMH, 0x07,
		cmdNormal,
		cmdExitPartial,
	)
}

// clearRAM clears all pixels in the display RAM.
func (d *Dev) clearRAM() error {
	return d.writeRect(d.rect, make([]byte, len(d.shadow.Pix)))
}

// sendCommand sends a single command byte.
func (d *Dev) sendCommand(cmd byte) error {
	return d.sendCommands([]byte{cmd})
}

// sendCommands sends a slice of command bytes.
func (d *Dev) sendCommands(cmds []byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("ssd1322: dc: %w", err)
	}
	if err := d.c.Tx(cmds, nil); err != nil {
		return fmt.Errorf("ssd1322: command: %w", err)
	}
	return nil
}

// sendData sends a slice of data bytes.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("ssd1322: dc: %w", err)
	}
	if err := d.c.Tx(data, nil); err != nil {
		return fmt.Errorf("ssd1322: data: %w", err)
	}
	return nil
}

// writeRect sends pixels for r, which must be aligned on column groups.
func (d *Dev) writeRect(r image.Rectangle, pixels []byte) error {
	colStart := byte((r.Min.X + d.columnOffset) / columnGroup)
	colEnd := byte((r.Max.X - 1 + d.columnOffset) / columnGroup)

	commands := []byte{
		cmdSetColumn, colStart, colEnd,
		cmdSetRow, byte(r.Min.Y), byte(r.Max.Y - 1),
		cmdWriteRAM,
	}
	if err := d.sendCommands(commands); err != nil {
		return err
	}
	return d.sendData(pixels)
}

// ReadRun implements packedfb.RowAccessor. Pixels come from the shadow
// frame.
func (d *Dev) ReadRun(row, col int, buf []byte, npixels int) error {
	if d.halted {
		return ErrHalted
	}
	return d.shadow.ReadRun(row, col, buf, npixels)
}

// WriteRun implements packedfb.RowAccessor. The run is stored in the shadow
// frame and, unless the device is deferred, sent to the panel.
func (d *Dev) WriteRun(row, col int, buf []byte, npixels int) error {
	if d.halted {
		return ErrHalted
	}
	if err := d.shadow.WriteRun(row, col, buf, npixels); err != nil {
		return err
	}
	x0 := col &^ 1
	x1 := x0 + 2*Depth.RunBytes(npixels)
	d.markDirty(image.Rect(x0, row, x1, row+1))
	if d.deferred {
		return nil
	}
	return d.Flush()
}

func (d *Dev) markDirty(r image.Rectangle) {
	r = r.Intersect(d.rect)
	if d.dirty.Empty() {
		d.dirty = r
		return
	}
	d.dirty = d.dirty.Union(r)
}

// Flush sends the part of the shadow frame changed since the last flush.
func (d *Dev) Flush() error {
	if d.halted {
		return ErrHalted
	}
	if d.dirty.Empty() {
		return nil
	}
	r := d.dirty
	r.Min.X &^= columnGroup - 1
	r.Max.X = (r.Max.X + columnGroup - 1) &^ (columnGroup - 1)
	r = r.Intersect(d.rect)

	if err := d.writeRect(r, d.extractRegion(r)); err != nil {
		return err
	}
	d.log.Debug().Stringer("rect", r).Msg("flush")
	d.dirty = image.Rectangle{}
	return nil
}

// extractRegion extracts the pixel data for a rectangular region.
func (d *Dev) extractRegion(r image.Rectangle) []byte {
	byteWidth := r.Dx() / 2
	result := make([]byte, 0, byteWidth*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := d.shadow.Row(y)
		result = append(result, row[r.Min.X/2:r.Min.X/2+byteWidth]...)
	}
	return result
}

// Plane returns a pixel plane drawing on the display.
func (d *Dev) Plane() *packedfb.Plane {
	return d.plane
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return Depth.Model()
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Write writes a raw frame, two pixels per byte with the left pixel in the
// high nibble. The frame must be exactly W*H/2 bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, ErrHalted
	}
	if len(pixels) != len(d.shadow.Pix) {
		return 0, ErrBufferSize
	}
	if err := d.writeRect(d.rect, pixels); err != nil {
		return 0, err
	}
	copy(d.shadow.Pix, pixels)
	d.dirty = image.Rectangle{}
	return len(pixels), nil
}

// Draw draws an image onto the display, sending only the bounding box of
// the pixels that changed.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}

	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}

	// Fast path: a full frame already in the panel format.
	if img, ok := src.(*fbmem.Buffer); ok && img.Depth == Depth && img.Order == Order {
		if dst == d.rect && sp == (image.Point{}) && img.Rect == d.rect {
			_, err := d.Write(img.Pix)
			return err
		}
	}

	prev := make([]byte, len(d.shadow.Pix))
	copy(prev, d.shadow.Pix)
	draw.Draw(d.shadow, dst, src, sp, draw.Src)

	if changed := d.calculateDiff(prev); !changed.Empty() {
		d.markDirty(changed)
	}
	if d.deferred {
		return nil
	}
	return d.Flush()
}

// calculateDiff compares prev with the shadow frame and returns the
// bounding box of the changed pixels.
func (d *Dev) calculateDiff(prev []byte) image.Rectangle {
	stride := d.shadow.Stride
	var changed image.Rectangle
	for y := 0; y < d.rect.Dy(); y++ {
		rowStart := y * stride
		before, after := prev[rowStart:rowStart+stride], d.shadow.Pix[rowStart:rowStart+stride]
		if bytes.Equal(before, after) {
			continue
		}
		first, last := -1, -1
		for x := range after {
			if before[x] != after[x] {
				if first < 0 {
					first = x
				}
				last = x
			}
		}
		// Each byte represents 2 pixels.
		r := image.Rect(first*2, y, last*2+2, y+1)
		if changed.Empty() {
			changed = r
		} else {
			changed = changed.Union(r)
		}
	}
	return changed
}

// SetContrast sets the display contrast (0-255).
func (d *Dev) SetContrast(contrast byte) error {
	if d.halted {
		return ErrHalted
	}
	return d.sendCommands([]byte{cmdContrast, contrast})
}

// Invert inverts the display colors (black becomes white and vice versa).
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return ErrHalted
	}
	mode := byte(cmdNormal)
	if invert {
		mode = cmdInverse
	}
	return d.sendCommand(mode)
}

// Halt powers off the display.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	d.log.Debug().Msg("halt")
	return d.sendCommand(cmdDisplayOff)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ssd1322.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

// ScrollSpeed defines the horizontal scroll frame rate.
type ScrollSpeed byte

const (
	// Scroll frame rates (in display refresh cycles)
	Speed6Frames   ScrollSpeed = 0x00
	Speed10Frames  ScrollSpeed = 0x01
	Speed100Frames ScrollSpeed = 0x02
	Speed200Frames ScrollSpeed = 0x03
)

// ScrollHorizontal starts horizontal scrolling on the display.
// startRow and endRow specify the scroll region (must be >= 0 and < height).
// If right is true, scrolls right; otherwise scrolls left.
func (d *Dev) ScrollHorizontal(startRow, endRow byte, speed ScrollSpeed, right bool) error {
	if d.halted {
		return ErrHalted
	}
	if int(startRow) >= d.rect.Dy() || int(endRow) >= d.rect.Dy() {
		return errors.New("ssd1322: scroll row out of range")
	}

	scrollCmd := byte(cmdScrollLeft)
	if right {
		scrollCmd = cmdScrollRight
	}
	return d.sendCommands([]byte{
		scrollCmd,
		0x00, // Dummy byte
		startRow,
		byte(speed),
		endRow,
		0x00, 0x00, // Dummy bytes
		cmdScrollStart,
	})
}

// StopScroll stops all scrolling and resets the display to normal operation.
func (d *Dev) StopScroll() error {
	if d.halted {
		return ErrHalted
	}
	return d.sendCommand(cmdScrollStop)
}
