// Package adc describes the analog conversion path used for the
// ambient temperature reading, and converts raw conversions of the
// internal temperature sensor to temperatures.
package adc

import (
	"errors"
	"fmt"
)

// Reference is a reference voltage in millivolts.
type Reference int

const (
	Ref1V2 Reference = 1200
	Ref2V0 Reference = 2000
	Ref2V5 Reference = 2500
)

// Precision is the conversion resolution in bits.
type Precision int

const (
	Precision8Bit  Precision = 8
	Precision10Bit Precision = 10
	Precision12Bit Precision = 12
)

type Input int

const (
	InputTemperature Input = iota
	InputA0
	InputA1
)

type Config struct {
	Reference Reference
	Precision Precision
	Input     Input
}

// TemperatureConfig is the configuration of the ambient temperature
// conversion.
var TemperatureConfig = Config{
	Reference: Ref2V0,
	Precision: Precision10Bit,
	Input:     InputTemperature,
}

var ErrUnsupported = errors.New("adc: unsupported configuration")

func (c Config) Validate() error {
	switch c.Reference {
	case Ref1V2, Ref2V0, Ref2V5:
	default:
		return fmt.Errorf("adc: reference %d mV: %w", c.Reference, ErrUnsupported)
	}
	switch c.Precision {
	case Precision8Bit, Precision10Bit, Precision12Bit:
	default:
		return fmt.Errorf("adc: %d bit precision: %w", c.Precision, ErrUnsupported)
	}
	return nil
}

// Calibration is a two-point calibration of the temperature sensor:
// the raw conversions at 30 °C and 85 °C.
type Calibration struct {
	Raw30, Raw85 uint16
}

// DefaultCalibration matches a typical sensor converted with
// TemperatureConfig. Parts with factory calibration data should use
// theirs.
var DefaultCalibration = Calibration{Raw30: 394, Raw85: 494}

// Temperature converts a raw conversion to tenths of degrees Celsius,
// saturating at the int16 range.
func (c Calibration) Temperature(raw uint16) int16 {
	span := int64(c.Raw85) - int64(c.Raw30)
	if span == 0 {
		return 300
	}
	t := 300 + (int64(raw)-int64(c.Raw30))*(850-300)/span
	return int16(min(max(t, -1<<15), 1<<15-1))
}

// Simulator is a converter returning a fixed raw value.
type Simulator struct {
	Raw         uint16
	Calibration Calibration
	Conf        Config
	Conversions int
}

func (s *Simulator) Configure(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.Conf = c
	return nil
}

func (s *Simulator) Read() (uint16, error) {
	s.Conversions++
	return s.Raw, nil
}

func (s *Simulator) Temperature(raw uint16) int16 {
	return s.Calibration.Temperature(raw)
}
