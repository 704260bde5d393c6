package ezio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/packedfb"
)

// port is an in-memory panel: writes are recorded, reads come from keys.
type port struct {
	out  bytes.Buffer
	keys bytes.Buffer
	err  error
}

func (p *port) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.out.Write(b)
}

func (p *port) Read(b []byte) (int, error) {
	return p.keys.Read(b)
}

func newTestDev(t *testing.T, opts *Opts) (*Dev, *port) {
	t.Helper()
	p := &port{}
	if opts == nil {
		opts = &Opts{}
	}
	opts.Delay = 1
	d, err := New(p, opts)
	require.NoError(t, err)
	return d, p
}

func TestInit(t *testing.T) {
	_, p := newTestDev(t, nil)
	assert.Equal(t, []byte{0x1B, 0x40, 0x0B, 0x0C}, p.out.Bytes())
}

func TestInitWriteError(t *testing.T) {
	failure := errors.New("line down")
	_, err := New(&port{err: failure}, &Opts{Delay: 1})
	assert.ErrorIs(t, err, failure)
}

func TestSetPixelFrameLayout(t *testing.T) {
	tests := []struct {
		name string
		x, y int
		idx  int
		want byte
	}{
		{"top left", 0, 0, 0, 0x01},
		{"row 7 of first band", 0, 7, 0, 0x80},
		{"second band", 3, 9, 64 + 3, 0x02},
		{"right half", 64, 9, 512 + 64, 0x02},
		{"bottom right", 127, 63, 1023, 0x80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, p := newTestDev(t, nil)
			p.out.Reset()

			require.NoError(t, d.Plane().SetPixel(packedfb.Point{X: tt.x, Y: tt.y}, 1))

			got := p.out.Bytes()
			require.Len(t, got, 2+FrameSize)
			assert.Equal(t, []byte{0x1B, 0x47}, got[:2])
			frame := got[2:]
			assert.Equal(t, tt.want, frame[tt.idx])
			lit := 0
			for _, b := range frame {
				if b != 0 {
					lit++
				}
			}
			assert.Equal(t, 1, lit)
		})
	}
}

func TestShadowIsPackedMSFirst(t *testing.T) {
	d, _ := newTestDev(t, &Opts{Deferred: true})
	plane := d.Plane()
	require.NoError(t, plane.SetPixel(packedfb.Point{X: 1, Y: 0}, 1))
	require.NoError(t, plane.SetPixel(packedfb.Point{X: 7, Y: 0}, 1))

	assert.Equal(t, byte(0x41), d.shadow.Row(0)[0])
	v, err := plane.GetPixel(packedfb.Point{X: 7, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, packedfb.Color(1), v)
}

func TestDeferredFlush(t *testing.T) {
	d, p := newTestDev(t, &Opts{Deferred: true})
	p.out.Reset()

	require.NoError(t, d.Plane().SetPixel(packedfb.Point{X: 10, Y: 20}, 1))
	require.NoError(t, d.Plane().SetPixel(packedfb.Point{X: 100, Y: 60}, 1))
	assert.Zero(t, p.out.Len())

	require.NoError(t, d.Flush())
	assert.Len(t, p.out.Bytes(), 2+FrameSize)

	p.out.Reset()
	require.NoError(t, d.Flush())
	assert.Zero(t, p.out.Len(), "clean frame is not resent")
}

func TestFlushWriteError(t *testing.T) {
	d, p := newTestDev(t, nil)
	p.err = io.ErrClosedPipe

	err := d.Plane().SetPixel(packedfb.Point{X: 0, Y: 0}, 1)
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	p.err = nil
	require.NoError(t, d.Flush(), "frame stays dirty after a failed flush")
	assert.NotZero(t, p.out.Len())
}

func TestDraw(t *testing.T) {
	d, p := newTestDev(t, nil)
	p.out.Reset()

	require.NoError(t, d.Draw(image.Rect(0, 0, 8, 8), image.NewUniform(color.White), image.Point{}))
	frame := p.out.Bytes()[2:]
	for x := 0; x < 8; x++ {
		assert.Equal(t, byte(0xFF), frame[x], "column %d", x)
	}
	assert.Zero(t, frame[8])

	p.out.Reset()
	require.NoError(t, d.Draw(image.Rect(200, 0, 300, 8), image.NewUniform(color.White), image.Point{}))
	assert.Zero(t, p.out.Len())
}

func TestReadKey(t *testing.T) {
	d, p := newTestDev(t, nil)
	p.keys.Write([]byte{byte(KeyEnter)})

	k, err := d.ReadKey(0)
	require.NoError(t, err)
	assert.Equal(t, KeyEnter, k)
	assert.Equal(t, "enter", k.String())

	_, err = d.ReadKey(0)
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "help", KeyHelp.String())
	assert.Equal(t, "right", KeyRight.String())
	assert.Equal(t, "Key(0x30)", Key(0x30).String())
}

func TestBoundsAndString(t *testing.T) {
	d, _ := newTestDev(t, nil)
	assert.Equal(t, image.Rect(0, 0, 128, 64), d.Bounds())
	assert.Equal(t, "ezio.Dev{128x64}", d.String())
	assert.NoError(t, d.Close())
}
