package packedfb

import (
	"image/color"
	"strconv"
)

// Pixel is a raw pixel value tagged with its depth. It implements
// color.Color.
//
// Depths up to 8 bits are gray levels, 16 bits is RGB565, 24 bits is RGB888
// and 32 bits is XRGB8888.
type Pixel struct {
	V Color
	D Depth
}

// RGBA implements color.Color.
func (p Pixel) RGBA() (r, g, b, a uint32) {
	v := uint32(p.V & p.D.Mask())
	switch p.D {
	case Depth16:
		r = (v >> 11) & 0x1F
		g = (v >> 5) & 0x3F
		b = v & 0x1F
		// Replicate the high bits into the low ones so full scale is 0xFFFF.
		r = r<<11 | r<<6 | r<<1 | r>>4
		g = g<<10 | g<<4 | g>>2
		b = b<<11 | b<<6 | b<<1 | b>>4
		return r, g, b, 0xFFFF
	case Depth24, Depth32:
		r = (v >> 16) & 0xFF
		g = (v >> 8) & 0xFF
		b = v & 0xFF
		return r * 0x101, g * 0x101, b * 0x101, 0xFFFF
	}
	top := uint32(p.D.Mask())
	if top == 0 {
		return 0, 0, 0, 0xFFFF
	}
	y := v * 0xFFFF / top
	return y, y, y, 0xFFFF
}

func (p Pixel) String() string {
	return "Pixel(" + strconv.FormatUint(uint64(p.V), 16) + "/" + p.D.String() + ")"
}

// Encode converts c to a raw value at depth d.
func (d Depth) Encode(c color.Color) Color {
	if p, ok := c.(Pixel); ok && p.D == d {
		return p.V & d.Mask()
	}
	r, g, b, _ := c.RGBA()
	switch d {
	case Depth16:
		return Color((r>>11)<<11 | (g>>10)<<5 | b>>11)
	case Depth24, Depth32:
		return Color((r>>8)<<16 | (g>>8)<<8 | b>>8)
	}
	if !d.Valid() {
		return 0
	}
	// 0.299R + 0.587G + 0.114B on 16-bit channels.
	y := (299*r + 587*g + 114*b + 500) / 1000
	return Color(y>>(16-uint32(d))) & d.Mask()
}

// Model returns the color model of depth d.
func (d Depth) Model() color.Model {
	return color.ModelFunc(func(c color.Color) color.Color {
		return Pixel{V: d.Encode(c), D: d}
	})
}
