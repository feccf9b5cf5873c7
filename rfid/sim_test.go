package rfid

import (
	"bytes"
	"errors"
	"slices"
	"testing"
)

func TestSimulatorAbort(t *testing.T) {
	s := NewSimulator([]Command{CmdQuery, CmdAck, CmdReqRN, CmdRead})
	if err := s.DoRFID(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("DoRFID before Init returned %v", err)
	}
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	var acks, reads int
	s.RegisterCallbacks(Callbacks{
		Ack:  func() { acks++ },
		Read: func() { reads++ },
	})
	s.SetMode(ModeRead | ModeWrite | ModeUsesSel)
	s.SetAbortConditions(CmdRead | CmdWrite | CmdAck)
	copy(s.Buffers().EPC, []byte{0xff, 1, 2, 3, 4})

	if err := s.DoRFID(); err != nil {
		t.Fatal(err)
	}
	if want := []Command{CmdQuery, CmdAck}; !slices.Equal(s.Served, want) {
		t.Errorf("first transaction served %v, want %v", s.Served, want)
	}
	if acks != 1 || reads != 0 {
		t.Errorf("callbacks: %d acks, %d reads after first transaction", acks, reads)
	}
	if len(s.Replies) != 1 || !bytes.Equal(s.Replies[0][:5], []byte{0xff, 1, 2, 3, 4}) {
		t.Errorf("replies: %x", s.Replies)
	}
	if err := s.DoRFID(); err != nil {
		t.Fatal(err)
	}
	if reads != 1 {
		t.Errorf("read callback invoked %d times, want 1", reads)
	}
	if err := s.DoRFID(); !errors.Is(err, ErrNoReader) {
		t.Errorf("exhausted script returned %v, want %v", err, ErrNoReader)
	}
	if s.Transactions != 3 {
		t.Errorf("%d transactions, want 3", s.Transactions)
	}
}

func TestSimulatorMode(t *testing.T) {
	s := NewSimulator([]Command{CmdWrite, CmdSelect, CmdAck})
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	writes := 0
	s.RegisterCallbacks(Callbacks{Write: func() { writes++ }})
	s.SetMode(ModeRead)
	s.SetAbortConditions(CmdWrite | CmdAck)
	if err := s.DoRFID(); err != nil {
		t.Fatal(err)
	}
	if writes != 0 {
		t.Error("write served without ModeWrite")
	}
	if want := []Command{CmdAck}; !slices.Equal(s.Served, want) {
		t.Errorf("served %v, want %v", s.Served, want)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		c    Command
		want string
	}{
		{0, "none"},
		{CmdAck, "ack"},
		{CmdRead | CmdWrite | CmdAck, "ack|read|write"},
	}
	for _, test := range tests {
		if got := test.c.String(); got != test.want {
			t.Errorf("%#x formatted as %q, want %q", uint16(test.c), got, test.want)
		}
	}
}
