// Package adxl362 implements a driver for the Analog Devices [ADXL362]
// micropower 3-axis accelerometer.
//
// [ADXL362]: https://www.analog.com/media/en/technical-documentation/data-sheets/ADXL362.pdf
package adxl362

import (
	"fmt"
	"strings"
)

// Bus is a full-duplex SPI connection with the chip select handled by
// the implementation. Both periph.io's spi.Conn and TinyGo's
// machine.SPI (wrapped with a chip select) satisfy it.
type Bus interface {
	Tx(w, r []byte) error
}

type Device struct {
	bus Bus
	// Range is the measurement range applied by ConfigureRange.
	Range Range
	// scratch holds a command, an address and up to three data bytes.
	scratch [2 * (2 + 3)]byte
}

// Range is a measurement range, encoded as in FILTER_CTL.
type Range uint8

const (
	Range2G Range = 0b00 << 6
	Range4G Range = 0b01 << 6
	Range8G Range = 0b10 << 6
)

var rangeNames = map[Range]string{
	Range2G: "2g",
	Range4G: "4g",
	Range8G: "8g",
}

func (r Range) String() string {
	if n, ok := rangeNames[r]; ok {
		return n
	}
	return fmt.Sprintf("range(%#02x)", uint8(r))
}

// ParseRange parses a range name such as "4g". The empty string is the
// power-on range, 2g.
func ParseRange(s string) (Range, error) {
	if s == "" {
		return Range2G, nil
	}
	for r, n := range rangeNames {
		if strings.EqualFold(s, n) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("adxl362: unknown range %q", s)
}

// Axes is an 8-bit acceleration sample.
type Axes struct {
	X, Y, Z int8
}

// Temperature is a raw temperature sample, split as the chip reports
// it.
type Temperature struct {
	H, L byte
}

// Raw returns the sign extended 12-bit temperature value.
func (t Temperature) Raw() int16 {
	return int16(uint16(t.H)<<8|uint16(t.L)) << 4 >> 4
}

func New(bus Bus) *Device {
	return &Device{
		bus:   bus,
		Range: Range2G,
	}
}

// ReadID reads the Analog Devices ID register. A present and
// responsive chip returns DeviceID.
func (d *Device) ReadID() (byte, error) {
	v, err := d.readReg(regDEVID_AD)
	if err != nil {
		return 0, fmt.Errorf("adxl362: read id: %w", err)
	}
	return v, nil
}

// ReadStatus reads the status register.
func (d *Device) ReadStatus() (byte, error) {
	v, err := d.readReg(regSTATUS)
	if err != nil {
		return 0, fmt.Errorf("adxl362: read status: %w", err)
	}
	return v, nil
}

// ConfigureRange sets the measurement range and output data rate.
func (d *Device) ConfigureRange() error {
	if err := d.writeReg(regFILTER_CTL, byte(d.Range)|halfBW|odr100Hz); err != nil {
		return fmt.Errorf("adxl362: configure range: %w", err)
	}
	return nil
}

// Initialize starts measurement mode.
func (d *Device) Initialize() error {
	if err := d.writeReg(regPOWER_CTL, measureOn); err != nil {
		return fmt.Errorf("adxl362: initialize: %w", err)
	}
	return nil
}

// Reset issues a soft reset. The chip needs about half a millisecond
// before it accepts commands again.
func (d *Device) Reset() error {
	if err := d.writeReg(regSOFT_RESET, softResetKey); err != nil {
		return fmt.Errorf("adxl362: reset: %w", err)
	}
	return nil
}

// ReadSample reads the 8-bit acceleration registers in one burst.
func (d *Device) ReadSample() (Axes, error) {
	r, err := d.readRegs(regXDATA, 3)
	if err != nil {
		return Axes{}, fmt.Errorf("adxl362: read sample: %w", err)
	}
	return Axes{X: int8(r[0]), Y: int8(r[1]), Z: int8(r[2])}, nil
}

// ReadTemperature reads the temperature registers in one burst.
func (d *Device) ReadTemperature() (Temperature, error) {
	r, err := d.readRegs(regTEMP_L, 2)
	if err != nil {
		return Temperature{}, fmt.Errorf("adxl362: read temperature: %w", err)
	}
	return Temperature{H: r[1], L: r[0]}, nil
}

func (d *Device) readReg(reg byte) (byte, error) {
	r, err := d.readRegs(reg, 1)
	if err != nil {
		return 0, err
	}
	return r[0], nil
}

// readRegs reads n consecutive registers. The returned slice aliases
// the scratch buffer.
func (d *Device) readRegs(reg byte, n int) ([]byte, error) {
	half := len(d.scratch) / 2
	w, r := d.scratch[:2+n], d.scratch[half:half+2+n]
	clear(w)
	w[0], w[1] = cmdReadReg, reg
	if err := d.bus.Tx(w, r); err != nil {
		return nil, err
	}
	return r[2:], nil
}

func (d *Device) writeReg(reg, val byte) error {
	half := len(d.scratch) / 2
	w, r := d.scratch[:3], d.scratch[half:half+3]
	w[0], w[1], w[2] = cmdWriteReg, reg, val
	return d.bus.Tx(w, r)
}

// DeviceID is the content of the DEVID_AD register.
const DeviceID = 0xad

// Status register bits.
const (
	StatusDataReady   = 0b1 << 0
	StatusFIFOReady   = 0b1 << 1
	StatusFIFOWater   = 0b1 << 2
	StatusFIFOOverrun = 0b1 << 3
	StatusAct         = 0b1 << 4
	StatusInact       = 0b1 << 5
	StatusAwake       = 0b1 << 6
	StatusErrUserRegs = 0b1 << 7
)

const (
	cmdWriteReg = 0x0a
	cmdReadReg  = 0x0b
	cmdReadFIFO = 0x0d

	regDEVID_AD   = 0x00
	regDEVID_MST  = 0x01
	regPARTID     = 0x02
	regREVID      = 0x03
	regXDATA      = 0x08
	regYDATA      = 0x09
	regZDATA      = 0x0a
	regSTATUS     = 0x0b
	regTEMP_L     = 0x14
	regTEMP_H     = 0x15
	regSOFT_RESET = 0x1f
	regFILTER_CTL = 0x2c
	regPOWER_CTL  = 0x2d

	// FILTER_CTL settings.
	halfBW   = 0b1 << 4
	odr100Hz = 0b011

	// POWER_CTL settings.
	measureOn = 0b10

	softResetKey = 'R'

	numRegs = 0x2f
)
