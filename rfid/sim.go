package rfid

import "slices"

// EPCSize is the size of the EPC bank allocated by engines in this
// repository.
const EPCSize = 12

// Simulator is an Engine driven by a scripted reader.
type Simulator struct {
	// Rounds are the command sequences issued by the reader. DoRFID plays
	// rounds in order until a command in the abort set was served, and
	// returns ErrNoReader when the script runs out.
	Rounds [][]Command
	// Replies collects a copy of the EPC for every acknowledged
	// inventory.
	Replies [][]byte
	// Served lists the commands answered, in order.
	Served []Command
	// Transactions counts DoRFID calls.
	Transactions int
	// OnTransaction, if set, is called at the start of every DoRFID.
	OnTransaction func(bufs *Buffers)

	initialized bool
	bufs        Buffers
	mode        Mode
	abort       Command
	callbacks   Callbacks
}

func NewSimulator(rounds ...[]Command) *Simulator {
	return &Simulator{Rounds: rounds}
}

// Inventory returns n rounds of a reader singulating the tag and
// reading its user memory.
func Inventory(n int) [][]Command {
	rounds := make([][]Command, n)
	for i := range rounds {
		rounds[i] = []Command{CmdQuery, CmdAck, CmdReqRN, CmdRead}
	}
	return rounds
}

func (s *Simulator) Init() error {
	s.bufs = Buffers{
		EPC:   make([]byte, EPCSize),
		Read:  make([]byte, 32),
		Write: make([]byte, 32),
	}
	s.initialized = true
	return nil
}

func (s *Simulator) Buffers() *Buffers {
	return &s.bufs
}

func (s *Simulator) SetMode(m Mode) {
	s.mode = m
}

func (s *Simulator) SetAbortConditions(c Command) {
	s.abort = c
}

func (s *Simulator) RegisterCallbacks(cb Callbacks) {
	s.callbacks = cb
}

func (s *Simulator) DoRFID() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	s.Transactions++
	if s.OnTransaction != nil {
		s.OnTransaction(&s.bufs)
	}
	for len(s.Rounds) > 0 {
		round := s.Rounds[0]
		s.Rounds = s.Rounds[1:]
		for i, cmd := range round {
			if !s.mode.Serves(cmd) {
				continue
			}
			s.Served = append(s.Served, cmd)
			if cmd == CmdAck {
				s.Replies = append(s.Replies, slices.Clone(s.bufs.EPC))
			}
			s.callbacks.Call(cmd)
			if cmd&s.abort != 0 {
				// The rest of the round is answered on the next call.
				if rest := round[i+1:]; len(rest) > 0 {
					s.Rounds = append([][]Command{rest}, s.Rounds...)
				}
				return nil
			}
		}
	}
	return ErrNoReader
}
