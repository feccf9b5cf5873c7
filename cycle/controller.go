package cycle

import (
	"errors"
	"fmt"
	"io"
	"log"

	"wispsense.com/driver/adc"
	"wispsense.com/epc"
	"wispsense.com/info"
	"wispsense.com/rfid"
)

type State int

const (
	StateInit State = iota
	StateSteady
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSteady:
		return "steady"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Controller sequences the tag: a one-time initialization followed by
// an endless series of sample and transaction cycles. It owns the view
// of the identification buffer and lends it to the aggregator and, by
// construction, the engine.
type Controller struct {
	engine rfid.Engine
	board  Board
	conf   Config
	log    *log.Logger

	poller *Poller
	seq    *Sequencer
	buf    epc.Buffer
	state  State
	cycles int
}

func New(e rfid.Engine, b Board, conf Config) *Controller {
	l := conf.Logger
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	return &Controller{
		engine: e,
		board:  b,
		conf:   conf,
		log:    l,
		poller: NewPoller(b.Hardware.Delay, conf.Timing.Retry, conf.MaxAttempts),
		seq:    NewSequencer(b.Hardware, b.Sensor, conf.Timing, conf.ResetSensor),
	}
}

func (c *Controller) State() State {
	return c.state
}

// Cycles returns the number of completed transactions.
func (c *Controller) Cycles() int {
	return c.cycles
}

// Buffer returns the identification buffer, or nil before Init.
func (c *Controller) Buffer() epc.Buffer {
	return c.buf
}

// Run initializes the tag and cycles forever. It returns only when a
// collaborator fails or a bounded poll gives up.
func (c *Controller) Run() error {
	if err := c.Init(); err != nil {
		return err
	}
	for {
		if err := c.Step(); err != nil {
			return err
		}
	}
}

// Init sets up the engine, powers up the sensor and waits until it
// measures, then populates the identification buffer.
func (c *Controller) Init() error {
	if c.state != StateInit || c.buf != nil {
		return errors.New("cycle: already initialized")
	}
	e := c.engine
	if err := e.Init(); err != nil {
		return fmt.Errorf("cycle: engine: %w", err)
	}
	e.RegisterCallbacks(c.conf.Callbacks)
	buf, err := epc.Wrap(e.Buffers().EPC)
	if err != nil {
		return fmt.Errorf("cycle: engine: %w", err)
	}
	c.buf = buf
	c.poller.Attach(buf)
	e.SetMode(c.conf.Mode)
	e.SetAbortConditions(c.conf.Abort)

	b, t := c.board, c.conf.Timing
	if err := c.seq.PowerUp(); err != nil {
		return err
	}
	if err := c.poller.ConfirmIdentity(b.Sensor); err != nil {
		return err
	}
	c.log.Printf("cycle: sensor identified")
	b.Hardware.Delay(t.Settle)
	if err := c.poller.AwaitArmed(b.Sensor); err != nil {
		return err
	}
	c.log.Printf("cycle: sensor armed")
	b.Hardware.Delay(t.Settle)
	// The first sample after arming may be invalid; discard it.
	if _, err := b.Sensor.ReadSample(); err != nil {
		return fmt.Errorf("cycle: flush sample: %w", err)
	}
	if err := b.ADC.Configure(adc.TemperatureConfig); err != nil {
		return fmt.Errorf("cycle: %w", err)
	}
	id, err := b.Storage.TagID()
	switch {
	case errors.Is(err, info.ErrNotProgrammed):
		// Report what the erased segment holds.
		c.log.Printf("cycle: %v", err)
		id = info.TagID{0xff, 0xff}
	case err != nil:
		return fmt.Errorf("cycle: %w", err)
	}
	buf.Reset(epc.TagTypeAccel, id)
	c.state = StateSteady
	c.log.Printf("cycle: tag %v steady", id)
	return nil
}

// Step runs one steady state cycle: wait for a sample, store it, and
// serve the reader. It panics if called before Init succeeded.
func (c *Controller) Step() error {
	if c.state != StateSteady {
		panic("cycle: Step before Init")
	}
	b := c.board
	if err := c.poller.AwaitReady(b.Sensor); err != nil {
		return err
	}
	b.Hardware.Delay(c.conf.Timing.Settle)
	if err := Aggregate(c.buf, b.Sensor, b.ADC); err != nil {
		return err
	}
	if err := c.engine.DoRFID(); err != nil {
		return fmt.Errorf("cycle: transaction: %w", err)
	}
	c.cycles++
	return nil
}
