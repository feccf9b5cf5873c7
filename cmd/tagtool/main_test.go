package main

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wispsense.com/driver/bridge"
	"wispsense.com/info"
	"wispsense.com/rfid"
)

func TestProvision(t *testing.T) {
	resetFlags()
	img := exec(t, nil, "provision -id 0x1234 -rev 3")
	if len(img) != info.Size {
		t.Fatalf("image is %d bytes", len(img))
	}
	if img[0] != 0x34 || img[1] != 0x12 || img[2] != 3 {
		t.Errorf("image header %x", img[:3])
	}
	for i, b := range img[3:] {
		if b != 0xff {
			t.Fatalf("byte %d programmed to %#02x", i+3, b)
		}
	}
	loaded, err := info.LoadImage(img)
	if err != nil {
		t.Fatal(err)
	}
	id, err := info.New(loaded).TagID()
	if err != nil {
		t.Fatal(err)
	}
	if id != (info.TagID{0x12, 0x34}) {
		t.Errorf("tag id %v", id)
	}
}

func TestReprovision(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	first := filepath.Join(dir, "first.bin")
	exec(t, nil, "provision -id 0x1234 -o %s", first)

	resetFlags()
	// Programming can only clear bits.
	if _, err := execErr(nil, fmt.Sprintf("provision -in %s -id 0x1235", first)); err == nil {
		t.Error("reprogrammed a set bit")
	}

	resetFlags()
	second := filepath.Join(dir, "second.bin")
	exec(t, nil, "provision -in %s -rev 7 -o %s", first, second)
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b[:3], []byte{0x34, 0x12, 7}) {
		t.Errorf("reprovisioned header %x", b[:3])
	}
}

func TestDecode(t *testing.T) {
	const want = "tag beef type 0xff sensor temp 0x1234 (564) analog temp -5 diag 0x00 fault 0\n"
	out := exec(t, nil, "decode ff1234fffbbeef0000000000")
	if string(out) != want {
		t.Errorf("decoded\n%q\nwant\n%q", out, want)
	}
	out = exec(t, []byte("ff1234fffbbeef0000000000\nff1234fffbbeef0000000000\n"), "decode")
	if string(out) != want+want {
		t.Errorf("decoded\n%q\nwant\n%q", out, want+want)
	}
	if _, err := execErr(nil, "decode ff1234"); err == nil {
		t.Error("short EPC decoded")
	}
}

func TestInventory(t *testing.T) {
	tag, reader := net.Pipe()
	defer reader.Close()
	e := bridge.New(tag)
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	copy(e.Buffers().EPC, []byte{0xff, 0x12, 0x34, 0xff, 0xfb, 0xbe, 0xef})
	copy(e.Buffers().Read, "wisp")
	e.SetMode(rfid.ModeRead | rfid.ModeWrite | rfid.ModeUsesSel)
	e.SetAbortConditions(rfid.CmdRead | rfid.CmdWrite | rfid.CmdAck)
	done := make(chan error, 1)
	go func() {
		defer tag.Close()
		for {
			if err := e.DoRFID(); err != nil {
				done <- err
				return
			}
		}
	}()
	out := new(bytes.Buffer)
	if err := inventory(out, bridge.NewReader(reader), 2, 4); err != nil {
		t.Fatal(err)
	}
	reader.Close()
	if err := <-done; !errors.Is(err, rfid.ErrNoReader) {
		t.Errorf("tag stopped with %v", err)
	}
	const round = "tag beef type 0xff sensor temp 0x1234 (564) analog temp -5 diag 0x00 fault 0\n" +
		"user memory 77697370\n"
	if got := out.String(); got != round+round {
		t.Errorf("reader printed\n%s\nwant\n%s", got, round+round)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execErr(nil, "engrave"); err == nil {
		t.Error("unknown command accepted")
	}
	if err := run(new(bytes.Buffer), nil, nil); err == nil {
		t.Error("missing command accepted")
	}
}

func resetFlags() {
	*provisionID = ""
	*provisionRev = -1
	*provisionIn = ""
	*provisionOut = ""
}

func exec(t *testing.T, stdin []byte, cmd string, args ...any) []byte {
	t.Helper()
	cmdline := fmt.Sprintf(cmd, args...)
	stdout, err := execErr(stdin, cmdline)
	if err != nil {
		t.Fatalf("'tagtool %s' reported '%v'", cmdline, err)
	}
	return stdout
}

func execErr(stdin []byte, cmd string) ([]byte, error) {
	stdout := new(bytes.Buffer)
	err := run(stdout, bytes.NewReader(stdin), strings.Split(cmd, " "))
	return stdout.Bytes(), err
}
