package packedfb

import (
	"image"
	"image/color"
	"image/draw"
)

// Canvas exposes a Plane as a draw.Image so that image/draw and font
// rendering can paint through SetPixel.
//
// draw.Image has no error returns; the first accessor error is kept and
// reported by Err. Once an error is recorded further Set calls are dropped.
type Canvas struct {
	p    *Plane
	rect image.Rectangle
	err  error
}

var _ draw.Image = (*Canvas)(nil)

// NewCanvas returns a Canvas covering bounds on p.
func NewCanvas(p *Plane, bounds image.Rectangle) *Canvas {
	return &Canvas{p: p, rect: bounds}
}

// ColorModel implements image.Image.
func (c *Canvas) ColorModel() color.Model {
	return c.p.depth.Model()
}

// Bounds implements image.Image.
func (c *Canvas) Bounds() image.Rectangle {
	return c.rect
}

// At implements image.Image. Out of bounds or unreadable pixels are zero.
func (c *Canvas) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(c.rect)) {
		return Pixel{D: c.p.depth}
	}
	v, err := c.p.GetPixel(Point{X: x, Y: y})
	if err != nil {
		c.keep(err)
		return Pixel{D: c.p.depth}
	}
	return Pixel{V: v, D: c.p.depth}
}

// Set implements draw.Image.
func (c *Canvas) Set(x, y int, col color.Color) {
	if c.err != nil || !(image.Point{X: x, Y: y}.In(c.rect)) {
		return
	}
	c.keep(c.p.SetPixel(Point{X: x, Y: y}, c.p.depth.Encode(col)))
}

// Err returns the first error met by At or Set.
func (c *Canvas) Err() error {
	return c.err
}

func (c *Canvas) keep(err error) {
	if c.err == nil {
		c.err = err
	}
}
