// Package rfid describes the boundary to the backscatter protocol
// engine: the engine owns the radio and the reader exchange, the
// application owns what goes into the identification buffer.
package rfid

import "errors"

// Engine is a protocol engine. All methods are called from the
// application's single thread of control. DoRFID blocks while the
// engine serves reader commands and returns once a command in the
// abort set has been handled.
type Engine interface {
	// Init establishes the runtime environment for the engine. It must be
	// called before any other method.
	Init() error
	Buffers() *Buffers
	SetMode(m Mode)
	SetAbortConditions(c Command)
	RegisterCallbacks(cb Callbacks)
	DoRFID() error
}

// Buffers are the memory banks served to a reader. The application
// writes only to EPC.
type Buffers struct {
	EPC   []byte
	Read  []byte
	Write []byte
}

// Mode selects the reader commands the engine reacts to.
type Mode uint8

const (
	ModeRead Mode = 1 << iota
	ModeWrite
	ModeUsesSel
)

// Command is a set of reader command types.
type Command uint16

const (
	CmdQuery Command = 1 << iota
	CmdQueryRep
	CmdQueryAdjust
	CmdAck
	CmdReqRN
	CmdRead
	CmdWrite
	CmdBlockWrite
	CmdSelect
)

var cmdNames = [...]string{
	"query", "queryrep", "queryadjust", "ack", "reqrn",
	"read", "write", "blockwrite", "select",
}

func (c Command) String() string {
	if c == 0 {
		return "none"
	}
	s := ""
	for i, name := range cmdNames {
		if c&(1<<i) == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += name
	}
	return s
}

// Callbacks are invoked synchronously from within DoRFID after the
// corresponding command has been answered. They must return quickly;
// a blocking callback stalls the reader exchange. Nil slots are no-ops.
type Callbacks struct {
	Ack        func()
	Read       func()
	Write      func()
	BlockWrite func()
}

// Call invokes the callback for cmd, if any.
func (c Callbacks) Call(cmd Command) {
	var f func()
	switch cmd {
	case CmdAck:
		f = c.Ack
	case CmdRead:
		f = c.Read
	case CmdWrite:
		f = c.Write
	case CmdBlockWrite:
		f = c.BlockWrite
	}
	if f != nil {
		f()
	}
}

// Serves reports whether an engine in mode m answers cmd.
func (m Mode) Serves(cmd Command) bool {
	switch cmd {
	case CmdRead:
		return m&ModeRead != 0
	case CmdWrite, CmdBlockWrite:
		return m&ModeWrite != 0
	case CmdSelect:
		return m&ModeUsesSel != 0
	}
	return true
}

var (
	ErrNotInitialized = errors.New("rfid: engine not initialized")
	// ErrNoReader is returned by engines that can tell the reader
	// went away for good, such as a closed bridge or an exhausted
	// simulation.
	ErrNoReader = errors.New("rfid: no reader")
)
