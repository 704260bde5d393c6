package packedfb_test

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/flavioheleno/packedfb"
	"github.com/flavioheleno/packedfb/fbmem"
)

func TestCanvasDraw(t *testing.T) {
	rec := newRecorder(t, 16, 4, packedfb.Depth1, packedfb.MSFirst)
	p := newPlane(t, rec, packedfb.Depth1, packedfb.MSFirst)
	c := packedfb.NewCanvas(p, image.Rect(0, 0, 16, 4))

	draw.Draw(c, image.Rect(4, 1, 12, 2), image.NewUniform(color.White), image.Point{}, draw.Src)
	require.NoError(t, c.Err())

	assert.Equal(t, []byte{0x0F, 0xF0}, rec.fb.Row(1))
	assert.Equal(t, []byte{0x00, 0x00}, rec.fb.Row(0))
	assert.Equal(t, packedfb.Pixel{V: 1, D: packedfb.Depth1}, c.At(4, 1))
	assert.Equal(t, packedfb.Pixel{V: 0, D: packedfb.Depth1}, c.At(3, 1))
}

func TestCanvasClipsToBounds(t *testing.T) {
	rec := newRecorder(t, 8, 2, packedfb.Depth4, packedfb.MSFirst)
	p := newPlane(t, rec, packedfb.Depth4, packedfb.MSFirst)
	c := packedfb.NewCanvas(p, image.Rect(2, 0, 4, 1))

	c.Set(0, 0, color.White)
	c.Set(4, 0, color.White)
	c.Set(2, 1, color.White)
	assert.Empty(t, rec.calls)

	c.Set(3, 0, color.White)
	require.NoError(t, c.Err())
	assert.Equal(t, byte(0x0F), rec.fb.Pix[1])
	assert.Equal(t, packedfb.Pixel{D: packedfb.Depth4}, c.At(7, 1))
}

func TestCanvasKeepsFirstError(t *testing.T) {
	rec := newRecorder(t, 8, 1, packedfb.Depth2, packedfb.MSFirst)
	first := errors.New("panel unplugged")
	rec.writeErr = first
	p := newPlane(t, rec, packedfb.Depth2, packedfb.MSFirst)
	c := packedfb.NewCanvas(p, image.Rect(0, 0, 8, 1))

	c.Set(0, 0, color.White)
	rec.writeErr = errors.New("second failure")
	c.Set(1, 0, color.White)

	assert.Same(t, first, c.Err())
	// Set stops issuing runs once an error is kept.
	assert.Len(t, rec.calls, 2)
}

func TestCanvasText(t *testing.T) {
	fb, err := fbmem.New(image.Rect(0, 0, 64, 16), packedfb.Depth1, packedfb.MSFirst)
	require.NoError(t, err)
	c := packedfb.NewCanvas(fb.Plane(), fb.Bounds())

	d := &font.Drawer{
		Dst:  c,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(1, 12),
	}
	d.DrawString("Hi")
	require.NoError(t, c.Err())

	lit := 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 64; x++ {
			lit += int(fb.PixelAt(x, y))
		}
	}
	assert.Greater(t, lit, 10)
	for y := 0; y < 16; y++ {
		assert.Zero(t, fb.PixelAt(20, y), "glyphs end before column 20")
	}
}
