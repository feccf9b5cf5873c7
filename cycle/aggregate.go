package cycle

import (
	"fmt"

	"wispsense.com/epc"
)

// Aggregate samples the sensor temperature and the analog temperature
// and stores them in buf. Both samples are taken before buf is written,
// so a failed read leaves buf as it was. Only the temperature fields
// are modified.
func Aggregate(buf epc.Buffer, s Sensor, a ADC) error {
	t, err := s.ReadTemperature()
	if err != nil {
		return fmt.Errorf("cycle: aggregate: %w", err)
	}
	raw, err := a.Read()
	if err != nil {
		return fmt.Errorf("cycle: aggregate: %w", err)
	}
	buf.SetSensorTemp(t.H, t.L)
	buf.SetADCTemp(a.Temperature(raw))
	return nil
}
