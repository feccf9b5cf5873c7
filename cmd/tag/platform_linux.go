//go:build linux && !tinygo

package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/cpu"
	"wispsense.com/cycle"
	"wispsense.com/driver/bridge"
	"wispsense.com/driver/thermal"
	"wispsense.com/info"
)

func Init(b Board) (*Platform, error) {
	if b.Simulate {
		return newSim(b)
	}
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	// Keep the polling loops free of page faults. Locking requires
	// privileges the tag may not have during development.
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		log.Printf("tag: mlockall: %v", err)
	}
	p := new(Platform)
	hw := &linuxHardware{
		name: b.SPI,
		freq: physic.Frequency(b.SPIHz) * physic.Hertz,
	}
	if b.PowerPin != "" {
		hw.power = gpioreg.ByName(b.PowerPin)
		if hw.power == nil {
			return nil, fmt.Errorf("tag: unknown power pin %q", b.PowerPin)
		}
	}
	p.closers = append(p.closers, hw)
	zone, err := thermal.Open(b.Thermal)
	if err != nil {
		p.Close()
		return nil, err
	}
	storage, err := openInfo(b.Info)
	if err != nil {
		p.Close()
		return nil, err
	}
	log.Printf("tag: %s", describeInfo(storage))
	sensor, err := b.sensor(&hw.bus)
	if err != nil {
		p.Close()
		return nil, err
	}
	link, err := bridge.Open(b.Reader)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("tag: reader: %w", err)
	}
	p.closers = append(p.closers, link)
	p.Engine = bridge.New(link)
	p.Board = cycle.Board{
		Hardware: hw,
		Sensor:   sensor,
		ADC:      zone,
		Storage:  storage,
	}
	return p, nil
}

func openInfo(path string) (*info.Segment, error) {
	if path == "" {
		return info.New(info.NewImage()), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	img, err := info.LoadImage(b)
	if err != nil {
		return nil, fmt.Errorf("tag: %s: %w", path, err)
	}
	return info.New(img), nil
}

// linuxHardware drives the sensor through a spidev port.
type linuxHardware struct {
	name  string
	freq  physic.Frequency
	power gpio.PinIO
	port  spi.PortCloser
	bus   spiBus
}

func (h *linuxHardware) SetSensorPower(on bool) error {
	if h.power == nil {
		return nil
	}
	return h.power.Out(gpio.Level(on))
}

// SelectPeripheralMode claims the SPI port. The kernel driver owns the
// pin functions and the chip select.
func (h *linuxHardware) SelectPeripheralMode() error {
	if h.port != nil {
		return nil
	}
	p, err := spireg.Open(h.name)
	if err != nil {
		return fmt.Errorf("tag: %w", err)
	}
	h.port = p
	return nil
}

func (h *linuxHardware) InitBus() error {
	if h.port == nil {
		return errors.New("tag: spi port not open")
	}
	c, err := h.port.Connect(h.freq, spi.Mode0, 8)
	if err != nil {
		return fmt.Errorf("tag: %w", err)
	}
	h.bus.conn = c
	return nil
}

// Delay busy waits; the sensor timings are far below the scheduler's
// resolution.
func (h *linuxHardware) Delay(d time.Duration) {
	cpu.Nanospin(d)
}

func (h *linuxHardware) Close() error {
	if h.port == nil {
		return nil
	}
	err := h.port.Close()
	h.port = nil
	h.bus.conn = nil
	return err
}

// spiBus is the sensor bus, usable once the port is connected.
type spiBus struct {
	conn spi.Conn
}

func (b *spiBus) Tx(w, r []byte) error {
	if b.conn == nil {
		return errors.New("tag: spi bus not initialized")
	}
	return b.conn.Tx(w, r)
}
