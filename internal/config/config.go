// Package config loads the demo configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/flavioheleno/packedfb"
)

// Supported drivers.
const (
	DriverMem     = "mem"
	DriverSSD1322 = "ssd1322"
	DriverEZIO    = "ezio"
)

type SPI struct {
	Port string `yaml:"port"` // periph spireg name, "" for the first port
	Hz   int64  `yaml:"hz"`   // 0 keeps the driver default
	DC   string `yaml:"dc"`   // e.g. GPIO25
	RST  string `yaml:"rst"`  // optional reset pin
}

type Serial struct {
	Device string `yaml:"device"` // e.g. /dev/ttyS1
}

type Config struct {
	Driver   string `yaml:"driver"` // "mem" | "ssd1322" | "ezio"
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Depth    int    `yaml:"depth"`
	Order    string `yaml:"order"` // "msb" | "lsb"
	Deferred bool   `yaml:"deferred"`
	LogLevel string `yaml:"log_level"`

	SPI    SPI    `yaml:"spi,omitempty"`
	Serial Serial `yaml:"serial,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Driver:   DriverMem,
		Width:    256,
		Height:   64,
		Depth:    4,
		Order:    "msb",
		LogLevel: "info",
		SPI:      SPI{DC: "GPIO25"},
		Serial:   Serial{Device: "/dev/ttyS1"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate rejects unknown drivers, pixel formats and log levels.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMem, DriverSSD1322, DriverEZIO:
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", c.Width, c.Height)
	}
	if _, err := c.Format(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Format returns the pixel format of the configured plane.
func (c *Config) Format() (packedfb.Config, error) {
	d, err := packedfb.ParseDepth(c.Depth)
	if err != nil {
		return packedfb.Config{}, err
	}
	o, err := packedfb.ParseOrder(c.Order)
	if err != nil {
		return packedfb.Config{}, err
	}
	return packedfb.Config{Depth: d, Order: o}, nil
}

// Level returns the zerolog level, info when unset.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(c.LogLevel)
}
