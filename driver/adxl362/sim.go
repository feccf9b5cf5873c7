package adxl362

import "errors"

// Simulator emulates the register file of an ADXL362 behind a Bus.
type Simulator struct {
	Regs [numRegs]byte
	// Script holds values returned by successive reads of a register
	// before it falls back to Regs.
	Script map[byte][]byte
	// Writes records register writes in order.
	Writes []RegWrite
	// Reads counts single and burst reads per start register.
	Reads map[byte]int
}

type RegWrite struct {
	Reg, Val byte
}

var errSimCommand = errors.New("adxl362: simulator: invalid command")

// NewSimulator returns a simulator in its power-on state.
func NewSimulator() *Simulator {
	s := &Simulator{
		Script: make(map[byte][]byte),
		Reads:  make(map[byte]int),
	}
	s.reset()
	return s
}

func (s *Simulator) reset() {
	s.Regs = [numRegs]byte{}
	s.Regs[regDEVID_AD] = DeviceID
	s.Regs[regDEVID_MST] = 0x1d
	s.Regs[regPARTID] = 0xf2
	s.Regs[regREVID] = 0x02
	s.Regs[regSTATUS] = StatusAwake
	s.Regs[regFILTER_CTL] = 0x13
}

// SetSample loads the acceleration and temperature registers.
func (s *Simulator) SetSample(a Axes, t Temperature) {
	s.Regs[regXDATA] = byte(a.X)
	s.Regs[regYDATA] = byte(a.Y)
	s.Regs[regZDATA] = byte(a.Z)
	s.Regs[regTEMP_L] = t.L
	s.Regs[regTEMP_H] = t.H
}

func (s *Simulator) Tx(w, r []byte) error {
	if len(w) < 2 || len(r) != len(w) {
		return errSimCommand
	}
	reg := w[1]
	switch w[0] {
	case cmdReadReg:
		s.Reads[reg]++
		for i := range r[2:] {
			r[2+i] = s.read(reg + byte(i))
		}
	case cmdWriteReg:
		for i, v := range w[2:] {
			s.write(reg+byte(i), v)
		}
	default:
		return errSimCommand
	}
	return nil
}

func (s *Simulator) read(reg byte) byte {
	if int(reg) >= len(s.Regs) {
		return 0
	}
	if vals := s.Script[reg]; len(vals) > 0 {
		s.Script[reg] = vals[1:]
		return vals[0]
	}
	v := s.Regs[reg]
	if reg == regSTATUS {
		// Reading status clears the error flag.
		s.Regs[reg] &^= StatusErrUserRegs
	}
	return v
}

func (s *Simulator) write(reg, val byte) {
	s.Writes = append(s.Writes, RegWrite{reg, val})
	switch reg {
	case regSOFT_RESET:
		if val == softResetKey {
			s.reset()
		}
		return
	case regPOWER_CTL:
		if val&0b11 == measureOn {
			s.Regs[regSTATUS] |= StatusDataReady
		} else {
			s.Regs[regSTATUS] &^= StatusDataReady
		}
	}
	if int(reg) < len(s.Regs) {
		s.Regs[reg] = val
	}
}
