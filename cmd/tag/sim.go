package main

import (
	"log"
	"time"

	"wispsense.com/cycle"
	"wispsense.com/driver/adc"
	"wispsense.com/driver/adxl362"
	"wispsense.com/info"
	"wispsense.com/rfid"
)

type simHardware struct{}

func (simHardware) SetSensorPower(on bool) error { return nil }
func (simHardware) SelectPeripheralMode() error  { return nil }
func (simHardware) InitBus() error               { return nil }
func (simHardware) Delay(d time.Duration)        { spinWait(d) }

// newSim returns a platform made of simulators, served by a scripted
// reader.
func newSim(b Board) (*Platform, error) {
	s := adxl362.NewSimulator()
	// 25 °C at rest, 1 g on the z axis.
	s.SetSample(adxl362.Axes{Z: 64}, adxl362.Temperature{H: 0x01, L: 0x5e})
	img := info.NewImage()
	if b.TagID != "" {
		id, err := info.ParseTagID(b.TagID)
		if err != nil {
			return nil, err
		}
		if err := img.SetTagID(id); err != nil {
			return nil, err
		}
	}
	sensor, err := b.sensor(s)
	if err != nil {
		return nil, err
	}
	seg := info.New(img)
	log.Printf("tag: simulated %s", describeInfo(seg))
	return &Platform{
		Engine: rfid.NewSimulator(rfid.Inventory(b.Rounds)...),
		Board: cycle.Board{
			Hardware: simHardware{},
			Sensor:   sensor,
			ADC: &adc.Simulator{
				Raw:         394,
				Calibration: adc.DefaultCalibration,
			},
			Storage: seg,
		},
	}, nil
}
