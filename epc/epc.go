// Package epc defines the layout of the identification buffer (EPC)
// the tag presents to a reader, and the encoding of sensor readings
// into it.
//
// Layout:
//
//	+------+--------+--------+--------+--------+-----+-----+---+---+------+-------+----+
//	| 0    | 1      | 2      | 3      | 4      | 5   | 6   | 7 | 8 | 9    | 10    | 11 |
//	+------+--------+--------+--------+--------+-----+-----+---+---+------+-------+----+
//	| type | sensor temp H/L | analog temp H/L | tag ID MSB/LSB  | - | - | diag | fault | -  |
//	+------+--------+--------+--------+--------+-----+-----+---+---+------+-------+----+
package epc

import (
	"encoding/binary"
	"errors"
	"fmt"

	"wispsense.com/driver/adxl362"
)

// Size is the minimum length of an identification buffer.
const Size = 12

// Byte offsets.
const (
	TagType    = 0
	SensorTemp = 1
	ADCTemp    = 3
	TagID      = 5
	Diagnostic = 9
	Fault      = 10
)

// TagTypeAccel identifies an accelerometer tag.
const TagTypeAccel = 0xff

// Fault codes written at offset Fault when a bounded poll gives up.
// Zero means no fault.
const (
	FaultNone     = 0x00
	FaultIdentity = 0x01
	FaultArm      = 0x02
	FaultReady    = 0x03
)

var ErrShortBuffer = errors.New("epc: buffer too short")

// Buffer is a view of an identification buffer. Writes go straight
// to the underlying memory, which is usually owned by the protocol
// engine.
type Buffer []byte

// Wrap returns b as a Buffer.
func Wrap(b []byte) (Buffer, error) {
	if len(b) < Size {
		return nil, fmt.Errorf("epc: %d byte buffer: %w", len(b), ErrShortBuffer)
	}
	return Buffer(b), nil
}

// Reset writes the tag type, clears the temperature fields and
// stores the tag identifier. It is meant to run once, before the first
// cycle.
func (b Buffer) Reset(tagType byte, id [2]byte) {
	b[TagType] = tagType
	b.SetSensorTemp(0, 0)
	b.SetADCTemp(0)
	b[TagID] = id[0]
	b[TagID+1] = id[1]
}

func (b Buffer) SetSensorTemp(h, l byte) {
	b[SensorTemp] = h
	b[SensorTemp+1] = l
}

func (b Buffer) SetADCTemp(t int16) {
	binary.BigEndian.PutUint16(b[ADCTemp:], uint16(t))
}

func (b Buffer) SetDiagnostic(v byte) {
	b[Diagnostic] = v
}

func (b Buffer) SetFault(code byte) {
	b[Fault] = code
}

func (b Buffer) TagID() [2]byte {
	return [2]byte{b[TagID], b[TagID+1]}
}

// Reading is the decoded content of an identification buffer.
type Reading struct {
	TagType    byte
	SensorTemp uint16
	ADCTemp    int16
	TagID      uint16
	Diagnostic byte
	Fault      byte
}

// Decode parses an EPC received by a reader.
func Decode(b []byte) (Reading, error) {
	if len(b) < Size {
		return Reading{}, fmt.Errorf("epc: decode %d bytes: %w", len(b), ErrShortBuffer)
	}
	bo := binary.BigEndian
	return Reading{
		TagType:    b[TagType],
		SensorTemp: bo.Uint16(b[SensorTemp:]),
		ADCTemp:    int16(bo.Uint16(b[ADCTemp:])),
		TagID:      bo.Uint16(b[TagID:]),
		Diagnostic: b[Diagnostic],
		Fault:      b[Fault],
	}, nil
}

// SensorRaw returns the signed 12-bit sensor temperature.
func (r Reading) SensorRaw() int16 {
	return adxl362.Temperature{H: byte(r.SensorTemp >> 8), L: byte(r.SensorTemp)}.Raw()
}

func (r Reading) String() string {
	return fmt.Sprintf("tag %04x type %#02x sensor temp %#04x (%d) analog temp %d diag %#02x fault %d",
		r.TagID, r.TagType, r.SensorTemp, r.SensorRaw(), r.ADCTemp, r.Diagnostic, r.Fault)
}
