package cycle

import (
	"errors"
	"fmt"
	"time"

	"wispsense.com/driver/adxl362"
	"wispsense.com/epc"
)

// Phase identifies a status poll.
type Phase int

const (
	PhaseIdentity Phase = iota + 1
	PhaseArm
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIdentity:
		return "identity"
	case PhaseArm:
		return "arm"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) fault() byte {
	switch p {
	case PhaseIdentity:
		return epc.FaultIdentity
	case PhaseArm:
		return epc.FaultArm
	default:
		return epc.FaultReady
	}
}

// Predicate matches a status byte under a mask.
type Predicate struct {
	Mask, Want byte
}

// Equal matches v exactly.
func Equal(v byte) Predicate {
	return Predicate{Mask: 0xff, Want: v}
}

func Masked(mask, want byte) Predicate {
	return Predicate{Mask: mask, Want: want}
}

func (p Predicate) Match(v byte) bool {
	return v&p.Mask == p.Want
}

// The status predicates are hardware constants. The arm and ready
// predicates describe different sensor states and must stay separate:
// the ready mask includes the data ready bit the arm mask ignores.
var (
	// IdentityConfirmed matches the sensor's device ID.
	IdentityConfirmed = Equal(adxl362.DeviceID)
	// Armed matches a sensor that started measuring without errors.
	Armed = Masked(0xc0, 0x40)
	// DataReady matches a sensor holding a new sample while still
	// measuring.
	DataReady = Masked(0xc1, 0x41)
)

var ErrNotReady = errors.New("cycle: sensor not ready")

// PollError is returned when a bounded poll runs out of attempts.
type PollError struct {
	Phase    Phase
	Attempts int
	// Last is the last value read.
	Last byte
	// Err is the last bus error, if any.
	Err error
}

func (e *PollError) Error() string {
	msg := fmt.Sprintf("cycle: %s poll gave up after %d attempts (last %#02x)", e.Phase, e.Attempts, e.Last)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PollError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotReady}
	}
	return []error{ErrNotReady, e.Err}
}

// Poller busy-waits on sensor status bytes.
type Poller struct {
	delay       func(time.Duration)
	retry       time.Duration
	maxAttempts int
	// buf receives diagnostic bytes and fault codes. It may be nil.
	buf epc.Buffer
}

// Poll describes one status poll.
type Poll struct {
	Phase Phase
	Read  func() (byte, error)
	Match Predicate
	// Diagnose writes every rejected value to the diagnostic byte of
	// the identification buffer and waits before reading again. Without
	// it, the poller waits after reading.
	Diagnose bool
}

func NewPoller(delay func(time.Duration), retry time.Duration, maxAttempts int) *Poller {
	return &Poller{
		delay:       delay,
		retry:       retry,
		maxAttempts: maxAttempts,
	}
}

// Attach directs diagnostics and faults to buf.
func (p *Poller) Attach(buf epc.Buffer) {
	p.buf = buf
}

// Until reads until the value matches. A read error counts as a
// rejected value.
func (p *Poller) Until(poll Poll) error {
	v, err := poll.Read()
	attempts := 1
	for err != nil || !poll.Match.Match(v) {
		if p.maxAttempts > 0 && attempts >= p.maxAttempts {
			if p.buf != nil {
				p.buf.SetFault(poll.Phase.fault())
			}
			return &PollError{Phase: poll.Phase, Attempts: attempts, Last: v, Err: err}
		}
		if poll.Diagnose {
			p.delay(p.retry)
			if err == nil && p.buf != nil {
				p.buf.SetDiagnostic(v)
			}
			v, err = poll.Read()
		} else {
			v, err = poll.Read()
			p.delay(p.retry)
		}
		attempts++
	}
	return nil
}

// ConfirmIdentity waits for the sensor to report its device ID.
func (p *Poller) ConfirmIdentity(s Sensor) error {
	return p.Until(Poll{
		Phase:    PhaseIdentity,
		Read:     s.ReadID,
		Match:    IdentityConfirmed,
		Diagnose: true,
	})
}

// AwaitArmed waits for the sensor to start measuring.
func (p *Poller) AwaitArmed(s Sensor) error {
	return p.Until(Poll{
		Phase:    PhaseArm,
		Read:     s.ReadStatus,
		Match:    Armed,
		Diagnose: true,
	})
}

// AwaitReady waits for a new sample. The identification buffer is
// left alone.
func (p *Poller) AwaitReady(s Sensor) error {
	return p.Until(Poll{
		Phase: PhaseReady,
		Read:  s.ReadStatus,
		Match: DataReady,
	})
}
