// Package ssd1322 controls a SSD1322 OLED display via SPI.
//
// The SSD1322 is a 4-bit grayscale OLED controller supporting up to 480×128 pixels.
// Dev implements packedfb.RowAccessor, so single pixels can be drawn with a
// packedfb.Plane, and the periph.io display.Drawer methods for whole images.
//
// # Display Characteristics
//
// - 4-bit grayscale with 16 intensity levels (0-15)
// - Two pixels per byte, left pixel in the high nibble
// - Support for various resolutions (typically 256×64 or 128×64)
// - Hardware scrolling support (horizontal only)
// - Adjustable contrast (0-255)
// - Display inversion
// - 480-column internal RAM with automatic centering for smaller displays
//
// # Hardware Connection
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V (or 5V depending on display)
//	SCL/CLK     → SPI Clock (SCLK)
//	SDA/MOSI    → SPI Data (MOSI)
//	DC          → GPIO (any available pin)
//	CS          → SPI Chip Select (or GND if always selected)
//	RES         → Optional: GPIO for hardware reset
//
// # Basic Usage
//
//	host.Init()
//	spiBus, _ := spireg.Open("")
//	dcPin := gpioreg.ByName("GPIO25")
//
//	dev, _ := ssd1322.NewSPI(spiBus, dcPin, &ssd1322.Opts{W: 256, H: 64})
//	defer dev.Halt()
//
//	// Single pixels, read-modify-write of the shadow nibble pair
//	_ = dev.Plane().SetPixel(packedfb.Point{X: 10, Y: 20}, 15)
//
//	// Whole images
//	dev.Draw(dev.Bounds(), img, image.Point{})
//
// # Shadow Frame and Flushing
//
// The SSD1322 RAM cannot be read over SPI. Dev keeps a copy of the frame in
// an fbmem.Buffer; ReadRun is served from it and WriteRun updates it.
//
// By default every WriteRun is sent immediately, as a window of whole
// column groups (4 pixels, the unit of the column address). With
// Opts.Deferred set, writes accumulate in a dirty rectangle and Flush sends
// it in a single transfer:
//
//	dev, _ := ssd1322.NewSPI(spiBus, dcPin, &ssd1322.Opts{W: 256, H: 64, Deferred: true})
//	plane := dev.Plane()
//	for x := 0; x < 256; x++ {
//		_ = plane.SetPixel(packedfb.Point{X: x, Y: 32}, packedfb.Color(x/16))
//	}
//	_ = dev.Flush()
//
// # Full-Frame Update
//
// Write raw pixel data directly to the display:
//
//	pixels := make([]byte, 256*64/2) // 8192 bytes for 256×64
//	dev.Write(pixels)
//
// # Hardware Scrolling
//
//	dev.ScrollHorizontal(0, 63, ssd1322.Speed10Frames, false)
//	time.Sleep(5 * time.Second)
//	dev.StopScroll()
//
// # Display Resolution
//
//	Opts{W: 256, H: 64}  // 256×64 (most common)
//	Opts{W: 128, H: 64}  // 128×64 (smaller displays)
//	Opts{W: 256, H: 128} // 256×128 (extended height, if available)
//
// Width must be a multiple of 4 and ≤480. Height must be ≤128.
//
// # Datasheet
//
// https://www.displayfuture.com/Display/datasheet/controller/SSD1322.pdf
package ssd1322
