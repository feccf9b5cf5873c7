package cycle

import (
	"fmt"
	"time"

	"wispsense.com/driver/adc"
	"wispsense.com/driver/adxl362"
	"wispsense.com/info"
	"wispsense.com/rfid"
)

// recorder logs collaborator calls in order.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

type fakeHardware struct {
	rec    *recorder
	delays []time.Duration
}

func (h *fakeHardware) SetSensorPower(on bool) error {
	if on {
		h.rec.add("power on")
	} else {
		h.rec.add("power off")
	}
	return nil
}

func (h *fakeHardware) SelectPeripheralMode() error {
	h.rec.add("peripheral")
	return nil
}

func (h *fakeHardware) InitBus() error {
	h.rec.add("bus")
	return nil
}

func (h *fakeHardware) Delay(d time.Duration) {
	h.delays = append(h.delays, d)
}

// fakeSensor replays scripted identity and status values. The last
// value of a script repeats.
type fakeSensor struct {
	rec      *recorder
	ids      []byte
	statuses []byte
	temps    []adxl362.Temperature
	// onID, if set, runs before every identity read.
	onID func(reads int)

	idReads, statusReads, tempReads int
}

func next[T any](vals []T, n int) T {
	if n >= len(vals) {
		return vals[len(vals)-1]
	}
	return vals[n]
}

func (s *fakeSensor) ReadID() (byte, error) {
	if s.onID != nil {
		s.onID(s.idReads)
	}
	v := next(s.ids, s.idReads)
	s.idReads++
	s.rec.add("id %#02x", v)
	return v, nil
}

func (s *fakeSensor) ReadStatus() (byte, error) {
	v := next(s.statuses, s.statusReads)
	s.statusReads++
	s.rec.add("status %#02x", v)
	return v, nil
}

func (s *fakeSensor) ConfigureRange() error {
	s.rec.add("range")
	return nil
}

func (s *fakeSensor) Initialize() error {
	s.rec.add("measure")
	return nil
}

func (s *fakeSensor) Reset() error {
	s.rec.add("reset")
	return nil
}

func (s *fakeSensor) ReadSample() (adxl362.Axes, error) {
	s.rec.add("sample")
	return adxl362.Axes{X: 1, Y: 1, Z: 1}, nil
}

func (s *fakeSensor) ReadTemperature() (adxl362.Temperature, error) {
	t := next(s.temps, s.tempReads)
	s.tempReads++
	s.rec.add("temp")
	return t, nil
}

type fakeADC struct {
	rec  *recorder
	temp int16
	conf adc.Config
	err  error
}

func (a *fakeADC) Configure(c adc.Config) error {
	a.rec.add("adc configure")
	a.conf = c
	return nil
}

func (a *fakeADC) Read() (uint16, error) {
	a.rec.add("adc")
	return 0x1234, a.err
}

func (a *fakeADC) Temperature(raw uint16) int16 {
	return a.temp
}

type fakeStorage struct {
	id  info.TagID
	err error
}

func (s fakeStorage) TagID() (info.TagID, error) {
	return s.id, s.err
}

// recordingEngine logs engine calls around a simulated reader.
type recordingEngine struct {
	*rfid.Simulator
	rec   *recorder
	mode  rfid.Mode
	abort rfid.Command
}

func newRecordingEngine(rec *recorder, rounds int) *recordingEngine {
	e := &recordingEngine{
		Simulator: rfid.NewSimulator(rfid.Inventory(rounds)...),
		rec:       rec,
	}
	e.Simulator.OnTransaction = func(*rfid.Buffers) {
		rec.add("rfid")
	}
	return e
}

func (e *recordingEngine) Init() error {
	e.rec.add("engine init")
	return e.Simulator.Init()
}

func (e *recordingEngine) RegisterCallbacks(cb rfid.Callbacks) {
	e.rec.add("engine callbacks")
	e.Simulator.RegisterCallbacks(cb)
}

func (e *recordingEngine) SetMode(m rfid.Mode) {
	e.rec.add("engine mode")
	e.mode = m
	e.Simulator.SetMode(m)
}

func (e *recordingEngine) SetAbortConditions(c rfid.Command) {
	e.rec.add("engine abort")
	e.abort = c
	e.Simulator.SetAbortConditions(c)
}

type rig struct {
	rec     *recorder
	hw      *fakeHardware
	sensor  *fakeSensor
	adc     *fakeADC
	engine  *recordingEngine
	storage fakeStorage
}

func newRig(rounds int) *rig {
	rec := new(recorder)
	return &rig{
		rec: rec,
		hw:  &fakeHardware{rec: rec},
		sensor: &fakeSensor{
			rec:      rec,
			ids:      []byte{adxl362.DeviceID},
			statuses: []byte{0x40, 0x41},
			temps:    []adxl362.Temperature{{H: 0x12, L: 0x34}},
		},
		adc:     &fakeADC{rec: rec, temp: -5},
		engine:  newRecordingEngine(rec, rounds),
		storage: fakeStorage{id: info.TagID{0xbe, 0xef}},
	}
}

func (r *rig) controller(conf Config) *Controller {
	return New(r.engine, Board{
		Hardware: r.hw,
		Sensor:   r.sensor,
		ADC:      r.adc,
		Storage:  r.storage,
	}, conf)
}
