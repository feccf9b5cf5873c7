//go:build tinygo && rp2040

package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"machine"
	"runtime"
	"time"

	"wispsense.com/cycle"
	"wispsense.com/driver/adc"
	"wispsense.com/driver/bridge"
	"wispsense.com/info"
)

const (
	SENSOR_EN  = machine.GPIO22
	SENSOR_CS  = machine.GPIO17
	SENSOR_SCK = machine.GPIO18
	SENSOR_SDO = machine.GPIO19
	SENSOR_SDI = machine.GPIO16

	READER_TX = machine.GPIO0
	READER_RX = machine.GPIO1
)

var (
	sensorSPI  = machine.SPI0
	readerUART = machine.UART0
)

func Init(b Board) (*Platform, error) {
	if b.Simulate {
		return newSim(b)
	}
	SENSOR_EN.Configure(machine.PinConfig{Mode: machine.PinOutput})
	if err := readerUART.Configure(machine.UARTConfig{BaudRate: 115200, TX: READER_TX, RX: READER_RX}); err != nil {
		return nil, fmt.Errorf("tag: reader: %w", err)
	}
	hw := &rpHardware{hz: uint32(b.SPIHz)}
	// The information segment is the last flash sector.
	sector := machine.Flash.EraseBlockSize()
	seg := info.New(io.NewSectionReader(machine.Flash, machine.Flash.Size()-sector, info.Size))
	log.Printf("tag: %s", describeInfo(seg))
	sensor, err := b.sensor(&hw.bus)
	if err != nil {
		return nil, err
	}
	return &Platform{
		Engine: bridge.New(&blockingUART{readerUART}),
		Board: cycle.Board{
			Hardware: hw,
			Sensor:   sensor,
			ADC:      new(rpADC),
			Storage:  seg,
		},
	}, nil
}

type rpHardware struct {
	hz  uint32
	bus csBus
}

func (h *rpHardware) SetSensorPower(on bool) error {
	SENSOR_EN.Set(on)
	return nil
}

func (h *rpHardware) SelectPeripheralMode() error {
	SENSOR_CS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	SENSOR_CS.High()
	return nil
}

func (h *rpHardware) InitBus() error {
	err := sensorSPI.Configure(machine.SPIConfig{
		Frequency: h.hz,
		SCK:       SENSOR_SCK,
		SDO:       SENSOR_SDO,
		SDI:       SENSOR_SDI,
		Mode:      0,
	})
	if err != nil {
		return fmt.Errorf("tag: spi: %w", err)
	}
	h.bus.spi = sensorSPI
	return nil
}

func (h *rpHardware) Delay(d time.Duration) {
	spinWait(d)
}

// csBus frames every transfer with the sensor chip select.
type csBus struct {
	spi *machine.SPI
}

func (b *csBus) Tx(w, r []byte) error {
	if b.spi == nil {
		return errors.New("tag: spi bus not initialized")
	}
	SENSOR_CS.Low()
	err := b.spi.Tx(w, r)
	SENSOR_CS.High()
	return err
}

// rpADC reads the on-chip temperature sensor in centikelvin.
type rpADC struct{}

func (a *rpADC) Configure(c adc.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Input != adc.InputTemperature {
		return fmt.Errorf("tag: adc input %d: %w", c.Input, adc.ErrUnsupported)
	}
	machine.InitADC()
	return nil
}

func (a *rpADC) Read() (uint16, error) {
	mC := machine.ReadTemperature()
	return uint16((mC + 273150) / 10), nil
}

func (a *rpADC) Temperature(raw uint16) int16 {
	return int16((int(raw) - 27315) / 10)
}

// blockingUART waits for data instead of returning empty reads.
type blockingUART struct {
	*machine.UART
}

func (u *blockingUART) Read(p []byte) (int, error) {
	for {
		n, err := u.UART.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
		runtime.Gosched()
	}
}
