// Package info provides access to the information segment: a small
// flash region programmed once per tag with factory data, and read-only
// to the firmware.
package info

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// Size of the segment.
	Size = 128

	// Predefined offsets.
	TAGID  = 0x00 // Tag identifier, least significant byte first.
	HWREV  = 0x02 // Board revision.
	erased = 0xff
)

// TagID is a tag identifier, most significant byte first.
type TagID [2]byte

func (id TagID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseTagID parses a 16-bit identifier in hexadecimal, with or
// without a 0x prefix.
func ParseTagID(s string) (TagID, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(s) == 0 || len(s) > 4 {
		return TagID{}, fmt.Errorf("info: invalid tag id %q", s)
	}
	s = strings.Repeat("0", 4-len(s)) + s
	var id TagID
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return TagID{}, fmt.Errorf("info: invalid tag id %q: %w", s, err)
	}
	return id, nil
}

var ErrNotProgrammed = errors.New("info: segment not programmed")

// Segment reads the information segment through r, which addresses the
// segment from offset zero.
type Segment struct {
	r io.ReaderAt
}

func New(r io.ReaderAt) *Segment {
	return &Segment{r: r}
}

// TagID reads the tag identifier. An erased identifier is reported as
// ErrNotProgrammed.
func (s *Segment) TagID() (TagID, error) {
	var buf [2]byte
	if _, err := s.r.ReadAt(buf[:], TAGID); err != nil {
		return TagID{}, fmt.Errorf("info: tag id: %w", err)
	}
	if buf[0] == erased && buf[1] == erased {
		return TagID{}, ErrNotProgrammed
	}
	return TagID{buf[1], buf[0]}, nil
}

// HWRev reads the board revision.
func (s *Segment) HWRev() (byte, error) {
	var buf [1]byte
	if _, err := s.r.ReadAt(buf[:], HWREV); err != nil {
		return 0, fmt.Errorf("info: hardware revision: %w", err)
	}
	return buf[0], nil
}

// Image is an in-memory segment image with flash programming
// semantics: erased bytes read as 0xff and programming can only clear
// bits.
type Image struct {
	mem [Size]byte
}

func NewImage() *Image {
	img := new(Image)
	for i := range img.mem {
		img.mem[i] = erased
	}
	return img
}

// LoadImage reads an image previously written by Bytes.
func LoadImage(b []byte) (*Image, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("info: image is %d bytes, want %d", len(b), Size)
	}
	img := new(Image)
	copy(img.mem[:], b)
	return img, nil
}

// Program writes data at off. Rewriting identical data succeeds;
// setting a cleared bit is an error.
func (img *Image) Program(off int, data []byte) error {
	if off < 0 || off+len(data) > Size {
		return fmt.Errorf("info: program %d bytes at %#x: out of range", len(data), off)
	}
	for i, b := range data {
		if old := img.mem[off+i]; b&^old != 0 {
			return fmt.Errorf("info: program %#x: cannot change %#02x to %#02x", off+i, old, b)
		}
	}
	for i, b := range data {
		img.mem[off+i] &= b
	}
	return nil
}

func (img *Image) SetTagID(id TagID) error {
	return img.Program(TAGID, []byte{id[1], id[0]})
}

func (img *Image) SetHWRev(rev byte) error {
	return img.Program(HWREV, []byte{rev})
}

func (img *Image) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= Size {
		return 0, io.EOF
	}
	n := copy(p, img.mem[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (img *Image) Bytes() []byte {
	return img.mem[:]
}
