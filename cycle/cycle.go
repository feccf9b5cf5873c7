// Package cycle implements the control loop of an RFID powered sensor
// tag: power up and probe the accelerometer, wait for fresh samples,
// encode them into the identification buffer and hand control to the
// protocol engine, forever.
//
// Everything runs on the caller's goroutine. Delays are literal waits
// and the only blocking call besides them is the engine transaction.
package cycle

import (
	"log"
	"time"

	"wispsense.com/driver/adc"
	"wispsense.com/driver/adxl362"
	"wispsense.com/info"
	"wispsense.com/rfid"
)

// Hardware is the board handle: the named pin and bus operations the
// controller needs, and a way to wait.
type Hardware interface {
	// SetSensorPower drives the sensor enable line.
	SetSensorPower(on bool) error
	// SelectPeripheralMode hands the sensor bus pins to the bus
	// peripheral.
	SelectPeripheralMode() error
	InitBus() error
	Delay(d time.Duration)
}

// Sensor is the accelerometer driver surface.
type Sensor interface {
	ReadID() (byte, error)
	ReadStatus() (byte, error)
	ConfigureRange() error
	Initialize() error
	ReadSample() (adxl362.Axes, error)
	ReadTemperature() (adxl362.Temperature, error)
}

// ADC is the analog conversion path for the ambient temperature.
type ADC interface {
	Configure(c adc.Config) error
	Read() (uint16, error)
	// Temperature converts a raw value. It must not touch the hardware.
	Temperature(raw uint16) int16
}

// Storage is the read-only configuration storage.
type Storage interface {
	TagID() (info.TagID, error)
}

// Board groups the collaborators below the controller.
type Board struct {
	Hardware Hardware
	Sensor   Sensor
	ADC      ADC
	Storage  Storage
}

// Timing holds the fixed delays of the cycle.
type Timing struct {
	// PowerCycle is how long the sensor enable line is held off.
	PowerCycle time.Duration
	// Settle separates the initialization steps and precedes sampling.
	Settle time.Duration
	// Retry is the wait between status polls.
	Retry time.Duration
}

type Config struct {
	Timing Timing
	// MaxAttempts bounds every status poll. Zero polls forever, which
	// leaves a missing or stuck sensor hanging the tag in place.
	// A positive bound makes a poll give up with a *PollError after
	// recording a fault code in the identification buffer.
	MaxAttempts int
	// ResetSensor issues a sensor soft reset during power up.
	ResetSensor bool
	Mode        rfid.Mode
	Abort       rfid.Command
	Callbacks   rfid.Callbacks
	// Logger receives phase transitions. Nil disables logging.
	Logger *log.Logger
}

// clockHz is the MCU clock the delay counts are expressed in.
const clockHz = 16_000_000

func cycles(n int) time.Duration {
	return time.Duration(n) * time.Second / clockHz
}

func DefaultConfig() Config {
	return Config{
		Timing: Timing{
			PowerCycle: cycles(100),
			Settle:     cycles(5),
			Retry:      cycles(5),
		},
		Mode:  rfid.ModeRead | rfid.ModeWrite | rfid.ModeUsesSel,
		Abort: rfid.CmdRead | rfid.CmdWrite | rfid.CmdAck,
	}
}
