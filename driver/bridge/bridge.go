// Package bridge implements a protocol engine that relays reader
// commands from a bench reader over a byte stream, typically a serial
// port. Every command and reply is a CBOR map.
package bridge

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/fxamacker/cbor/v2"
	"wispsense.com/rfid"
)

// Status is the outcome of a relayed command.
type Status uint8

const (
	StatusOK Status = iota
	// StatusIgnored is returned for commands the engine mode doesn't
	// serve.
	StatusIgnored
	// StatusRange is returned for reads and writes outside a bank.
	StatusRange
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusIgnored:
		return "ignored"
	case StatusRange:
		return "out of range"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Request is a reader command.
type Request struct {
	Command rfid.Command `cbor:"1,keyasint"`
	// Offset and Data address the read or write bank.
	Offset int    `cbor:"2,keyasint,omitempty"`
	Length int    `cbor:"3,keyasint,omitempty"`
	Data   []byte `cbor:"4,keyasint,omitempty"`
}

// Reply answers a Request.
type Reply struct {
	Command rfid.Command `cbor:"1,keyasint"`
	Status  Status       `cbor:"2,keyasint"`
	// Data is the EPC for an acknowledge and the bank contents for a
	// read.
	Data []byte `cbor:"3,keyasint,omitempty"`
}

const (
	bankSize = 32
	epcSize  = 12
)

// Engine serves the tag's memory banks to a remote reader.
type Engine struct {
	rw  io.ReadWriter
	dec *cbor.Decoder
	enc *cbor.Encoder

	initialized bool
	bufs        rfid.Buffers
	mode        rfid.Mode
	abort       rfid.Command
	callbacks   rfid.Callbacks
}

func New(rw io.ReadWriter) *Engine {
	return &Engine{
		rw:  rw,
		dec: cbor.NewDecoder(rw),
		enc: cbor.NewEncoder(rw),
	}
}

func (e *Engine) Init() error {
	if e.initialized {
		return errors.New("bridge: already initialized")
	}
	e.bufs = rfid.Buffers{
		EPC:   make([]byte, epcSize),
		Read:  make([]byte, bankSize),
		Write: make([]byte, bankSize),
	}
	e.initialized = true
	return nil
}

func (e *Engine) Buffers() *rfid.Buffers {
	return &e.bufs
}

func (e *Engine) SetMode(m rfid.Mode) {
	e.mode = m
}

func (e *Engine) SetAbortConditions(c rfid.Command) {
	e.abort = c
}

func (e *Engine) RegisterCallbacks(cb rfid.Callbacks) {
	e.callbacks = cb
}

// DoRFID answers requests until one in the abort set is served. It
// returns rfid.ErrNoReader when the stream ends.
func (e *Engine) DoRFID() error {
	if !e.initialized {
		return rfid.ErrNotInitialized
	}
	for {
		var req Request
		if err := e.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return rfid.ErrNoReader
			}
			return fmt.Errorf("bridge: %w", err)
		}
		rep := e.serve(req)
		if err := e.enc.Encode(rep); err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
		if rep.Status != StatusOK {
			continue
		}
		e.callbacks.Call(req.Command)
		if req.Command&e.abort != 0 {
			return nil
		}
	}
}

func (e *Engine) serve(req Request) Reply {
	rep := Reply{Command: req.Command}
	// Requests carry exactly one command.
	if req.Command == 0 || req.Command&(req.Command-1) != 0 || !e.mode.Serves(req.Command) {
		rep.Status = StatusIgnored
		return rep
	}
	switch req.Command {
	case rfid.CmdAck:
		rep.Data = slices.Clone(e.bufs.EPC)
	case rfid.CmdRead:
		bank, ok := window(e.bufs.Read, req.Offset, req.Length)
		if !ok {
			rep.Status = StatusRange
			return rep
		}
		rep.Data = slices.Clone(bank)
	case rfid.CmdWrite, rfid.CmdBlockWrite:
		bank, ok := window(e.bufs.Write, req.Offset, len(req.Data))
		if !ok {
			rep.Status = StatusRange
			return rep
		}
		copy(bank, req.Data)
	}
	return rep
}

func window(bank []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(bank) || n > len(bank)-off {
		return nil, false
	}
	return bank[off : off+n], true
}

// Reader is the bench reader side of a bridge.
type Reader struct {
	dec *cbor.Decoder
	enc *cbor.Encoder
}

func NewReader(rw io.ReadWriter) *Reader {
	return &Reader{
		dec: cbor.NewDecoder(rw),
		enc: cbor.NewEncoder(rw),
	}
}

// Send relays req and waits for the reply.
func (r *Reader) Send(req Request) (Reply, error) {
	if err := r.enc.Encode(req); err != nil {
		return Reply{}, fmt.Errorf("bridge: %w", err)
	}
	var rep Reply
	if err := r.dec.Decode(&rep); err != nil {
		return Reply{}, fmt.Errorf("bridge: %w", err)
	}
	if rep.Command != req.Command {
		return Reply{}, fmt.Errorf("bridge: reply for %v, sent %v", rep.Command, req.Command)
	}
	return rep, nil
}

// Inventory singulates the tag and returns its EPC.
func (r *Reader) Inventory() ([]byte, error) {
	if _, err := r.Send(Request{Command: rfid.CmdQuery}); err != nil {
		return nil, err
	}
	rep, err := r.Send(Request{Command: rfid.CmdAck})
	if err != nil {
		return nil, err
	}
	if rep.Status != StatusOK {
		return nil, fmt.Errorf("bridge: acknowledge: %v", rep.Status)
	}
	return rep.Data, nil
}
