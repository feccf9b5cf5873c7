package cycle

import "fmt"

// Sequencer runs the one-time power and bus bring-up of the sensor.
type Sequencer struct {
	hw     Hardware
	sensor Sensor
	timing Timing
	reset  bool
}

func NewSequencer(hw Hardware, s Sensor, t Timing, reset bool) *Sequencer {
	return &Sequencer{hw: hw, sensor: s, timing: t, reset: reset}
}

// resetter is implemented by sensors supporting a soft reset.
type resetter interface {
	Reset() error
}

// PowerUp power cycles the sensor, brings up its bus and configures
// it. It does not check that the sensor answers; the identity poll
// does.
func (q *Sequencer) PowerUp() error {
	hw, s, t := q.hw, q.sensor, q.timing
	if err := hw.SetSensorPower(false); err != nil {
		return fmt.Errorf("cycle: power up: %w", err)
	}
	hw.Delay(t.PowerCycle)
	if err := hw.SetSensorPower(true); err != nil {
		return fmt.Errorf("cycle: power up: %w", err)
	}
	if err := hw.SelectPeripheralMode(); err != nil {
		return fmt.Errorf("cycle: power up: %w", err)
	}
	hw.Delay(t.Settle)
	if err := hw.InitBus(); err != nil {
		return fmt.Errorf("cycle: power up: %w", err)
	}
	hw.Delay(t.Settle)
	if r, ok := s.(resetter); ok && q.reset {
		if err := r.Reset(); err != nil {
			return fmt.Errorf("cycle: power up: %w", err)
		}
		// The reset takes ten times longer than the other steps.
		hw.Delay(10 * t.Settle)
	}
	if err := s.ConfigureRange(); err != nil {
		return fmt.Errorf("cycle: power up: %w", err)
	}
	hw.Delay(t.Settle)
	if err := s.Initialize(); err != nil {
		return fmt.Errorf("cycle: power up: %w", err)
	}
	hw.Delay(t.Settle)
	return nil
}
