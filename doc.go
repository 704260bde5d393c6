// Package packedfb writes single pixels into packed framebuffers.
//
// A framebuffer with fewer than 8 bits per pixel stores several pixels in
// one byte. Setting one of them is a read-modify-write of that byte: the
// byte is fetched from the device, the bit-group of the addressed column is
// replaced, and the byte is written back. Every other bit of the byte is
// kept.
//
// # Pixel formats
//
// A device has a fixed Depth (1, 2, 4, 8, 16, 24 or 32 bits per pixel) and,
// for packed depths, a fixed Order:
//
//	Depth 2, MSFirst, one byte = columns 0..3
//
//	bit   7 6 | 5 4 | 3 2 | 1 0
//	col    0  |  1  |  2  |  3
//
//	Depth 2, LSFirst
//
//	bit   7 6 | 5 4 | 3 2 | 1 0
//	col    3  |  2  |  1  |  0
//
// Depths of 8 bits and more are written directly, little-endian, without a
// preceding read.
//
// # Devices
//
// The device is reached through a RowAccessor, which reads and writes runs
// of packed pixels of one row. Package fbmem provides an in-memory
// implementation; packages ssd1322 and ezio drive real displays.
//
// Basic usage:
//
//	buf, _ := fbmem.New(image.Rect(0, 0, 128, 64), packedfb.Depth1, packedfb.MSFirst)
//	plane, _ := packedfb.NewPlane(buf, packedfb.Config{Depth: packedfb.Depth1})
//	_ = plane.SetPixel(packedfb.Point{X: 5, Y: 3}, 1)
//
// # Concurrency
//
// A Plane does not lock. Two SetPixel calls touching pixels of the same byte
// must not run concurrently, or one update may be lost. Draw from a single
// goroutine, or set Config.Lock.
package packedfb
