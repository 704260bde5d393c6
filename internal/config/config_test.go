package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/packedfb"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
driver: ssd1322
width: 128
depth: 4
order: msb
deferred: true
log_level: debug
spi:
  port: SPI0.0
  hz: 8000000
  dc: GPIO24
  rst: GPIO25
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSSD1322, c.Driver)
	assert.Equal(t, 128, c.Width)
	assert.Equal(t, 64, c.Height, "unset keys keep defaults")
	assert.True(t, c.Deferred)
	assert.Equal(t, SPI{Port: "SPI0.0", Hz: 8000000, DC: "GPIO24", RST: "GPIO25"}, c.SPI)
	assert.Equal(t, "/dev/ttyS1", c.Serial.Device)

	f, err := c.Format()
	require.NoError(t, err)
	assert.Equal(t, packedfb.Config{Depth: packedfb.Depth4, Order: packedfb.MSFirst}, f)

	lvl, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"depth 3", "depth: 3\n", packedfb.ErrUnsupportedDepth},
		{"depth 12", "depth: 12\n", packedfb.ErrUnsupportedDepth},
		{"order", "order: middle\n", packedfb.ErrUnsupportedOrder},
		{"driver", "driver: vga\n", nil},
		{"size", "width: 0\n", nil},
		{"log level", "log_level: loud\n", nil},
		{"yaml", "width: [\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Default()
	c.Driver = DriverEZIO
	c.Width, c.Height, c.Depth = 128, 64, 1
	c.Serial.Device = "/dev/ttyUSB0"

	require.NoError(t, Save(path, c))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
