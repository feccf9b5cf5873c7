// Package thermal exposes a Linux thermal zone as the analog
// temperature converter of a tag running on a host board.
//
// Raw conversions are in centikelvin so they fit an unsigned 16-bit
// value over the whole range a SoC sensor reports.
package thermal

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"wispsense.com/driver/adc"
)

// DefaultZone is the first thermal zone, usually the SoC sensor.
const DefaultZone = "/sys/class/thermal/thermal_zone0/temp"

type Zone struct {
	Path string
	buf  [32]byte
}

func Open(path string) (*Zone, error) {
	if path == "" {
		path = DefaultZone
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("thermal: %w", err)
	}
	return &Zone{Path: path}, nil
}

// Configure accepts only the temperature input; reference and precision
// are fixed by the kernel driver.
func (z *Zone) Configure(c adc.Config) error {
	if c.Input != adc.InputTemperature {
		return fmt.Errorf("thermal: input %d: %w", c.Input, adc.ErrUnsupported)
	}
	return nil
}

func (z *Zone) Read() (uint16, error) {
	f, err := os.Open(z.Path)
	if err != nil {
		return 0, fmt.Errorf("thermal: %w", err)
	}
	defer f.Close()
	n, err := f.Read(z.buf[:])
	if err != nil {
		return 0, fmt.Errorf("thermal: %w", err)
	}
	return parseMilliCelsius(z.buf[:n])
}

func parseMilliCelsius(b []byte) (uint16, error) {
	mC, err := strconv.Atoi(string(bytes.TrimSpace(b)))
	if err != nil {
		return 0, fmt.Errorf("thermal: %w", err)
	}
	cK := (mC + 273150) / 10
	if cK < 0 || cK > 0xffff {
		return 0, fmt.Errorf("thermal: %d m°C out of range", mC)
	}
	return uint16(cK), nil
}

// Temperature converts centikelvin to tenths of degrees Celsius.
func (z *Zone) Temperature(raw uint16) int16 {
	return int16((int(raw) - 27315) / 10)
}
