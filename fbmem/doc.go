// Package fbmem provides an in-memory framebuffer for any pixel format
// supported by packedfb.
//
// Rows are stored one after the other, Stride bytes apart. Within a row,
// packed depths share bytes the way packedfb.Locate describes and byte-wide
// depths are stored little-endian.
//
// Memory layout example for a 4-pixel row at 4 bits per pixel, MSFirst:
//
//	Pixels: 0  1  2  3
//	Values: 5  10 3  12
//	Bytes:  0x5A     0x3C
//
// The same row with LSFirst is 0xA5 0xC3.
//
// Buffer implements packedfb.RowAccessor, which makes it usable as the
// shadow memory of a display driver, and draw.Image:
//
//	buf, _ := fbmem.New(image.Rect(0, 0, 256, 64), packedfb.Depth4, packedfb.MSFirst)
//	draw.Draw(buf, buf.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
package fbmem
