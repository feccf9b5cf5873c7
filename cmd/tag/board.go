package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"wispsense.com/cycle"
	"wispsense.com/driver/adxl362"
	"wispsense.com/info"
	"wispsense.com/rfid"
)

// Board describes the hardware the tag runs on.
type Board struct {
	// SPI names the sensor bus, such as "SPI0.0". Empty selects the
	// first bus.
	SPI   string `yaml:"spi"`
	SPIHz int64  `yaml:"spi_hz"`
	// Range is the sensor measurement range: 2g, 4g or 8g.
	Range string `yaml:"range"`
	// PowerPin names the GPIO switching the sensor supply. Without it
	// the sensor is assumed to be powered permanently.
	PowerPin string `yaml:"power_pin"`
	// Thermal is the sysfs file of the thermal zone standing in for the
	// analog temperature input.
	Thermal string `yaml:"thermal"`
	// Info is a file holding the information segment image.
	Info string `yaml:"info"`
	// Reader is the serial device of the bench reader.
	Reader string `yaml:"reader"`

	Reset       bool `yaml:"reset"`
	MaxAttempts int  `yaml:"max_attempts"`
	Timing      struct {
		PowerCycle time.Duration `yaml:"power_cycle"`
		Settle     time.Duration `yaml:"settle"`
		Retry      time.Duration `yaml:"retry"`
	} `yaml:"timing"`

	// Simulate replaces all hardware with simulators.
	Simulate bool `yaml:"simulate"`
	// Rounds is the number of simulated reader rounds.
	Rounds int `yaml:"rounds"`
	// TagID is programmed into the simulated information segment.
	TagID string `yaml:"tag_id"`
}

func DefaultBoard() Board {
	return Board{
		SPIHz:  1_000_000,
		Rounds: 10,
	}
}

// Cycle returns the controller configuration for the board.
func (b Board) Cycle() cycle.Config {
	c := cycle.DefaultConfig()
	if t := b.Timing.PowerCycle; t > 0 {
		c.Timing.PowerCycle = t
	}
	if t := b.Timing.Settle; t > 0 {
		c.Timing.Settle = t
	}
	if t := b.Timing.Retry; t > 0 {
		c.Timing.Retry = t
	}
	c.MaxAttempts = b.MaxAttempts
	c.ResetSensor = b.Reset
	return c
}

// sensor returns the accelerometer on bus, set to the board's range.
func (b Board) sensor(bus adxl362.Bus) (*adxl362.Device, error) {
	r, err := adxl362.ParseRange(b.Range)
	if err != nil {
		return nil, err
	}
	d := adxl362.New(bus)
	d.Range = r
	return d, nil
}

// describeInfo summarizes the information segment for the startup log.
func describeInfo(s *info.Segment) string {
	id, err := s.TagID()
	switch {
	case errors.Is(err, info.ErrNotProgrammed):
		return "unprogrammed tag"
	case err != nil:
		return err.Error()
	}
	rev, err := s.HWRev()
	switch {
	case err != nil:
		return fmt.Sprintf("tag %v: %v", id, err)
	case rev == 0xff:
		return fmt.Sprintf("tag %v", id)
	}
	return fmt.Sprintf("tag %v rev %d", id, rev)
}

// spinWait busy waits for d. Sensor timings are microseconds, below
// what a sleeping scheduler resolves.
func spinWait(d time.Duration) {
	for start := time.Now(); time.Since(start) < d; {
	}
}

// Platform is the hardware the controller drives.
type Platform struct {
	Engine  rfid.Engine
	Board   cycle.Board
	closers []io.Closer
}

func (p *Platform) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i].Close()
	}
	p.closers = nil
}
