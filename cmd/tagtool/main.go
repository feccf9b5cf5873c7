// Command tagtool prepares and inspects sensor tags. It builds
// information segment images, decodes EPCs and acts as a bench reader
// for tags bridged over a serial port.
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"wispsense.com/driver/bridge"
	"wispsense.com/epc"
	"wispsense.com/info"
	"wispsense.com/rfid"
)

var (
	provisionFlags = flag.NewFlagSet("provision", flag.ExitOnError)
	provisionID    = provisionFlags.String("id", "", "tag id in hex (e.g. 0x1234)")
	provisionRev   = provisionFlags.Int("rev", -1, "hardware revision (0-254)")
	provisionIn    = provisionFlags.String("in", "", "existing image to program (default erased)")
	provisionOut   = provisionFlags.String("o", "", "output file (default standard out)")

	decodeFlags = flag.NewFlagSet("decode", flag.ExitOnError)

	readerFlags  = flag.NewFlagSet("reader", flag.ExitOnError)
	readerDev    = readerFlags.String("dev", "", "serial device of the tag bridge")
	readerRounds = readerFlags.Int("n", 1, "number of inventory rounds")
	readerBank   = readerFlags.Int("read", 0, "bytes of user memory to read per round")
)

func main() {
	if err := run(os.Stdout, os.Stdin, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tagtool: %v\n", err)
		os.Exit(2)
	}
}

func run(stdout io.Writer, stdin io.Reader, args []string) error {
	if len(args) == 0 {
		return errors.New("missing command (decode, provision, reader)")
	}
	cmd := args[0]
	args = args[1:]
	switch cmd {
	case "provision":
		if err := provisionFlags.Parse(args); err != nil {
			provisionFlags.Usage()
		}
		return provision(stdout)
	case "decode":
		if err := decodeFlags.Parse(args); err != nil {
			decodeFlags.Usage()
		}
		return decode(stdout, stdin, decodeFlags.Args())
	case "reader":
		if err := readerFlags.Parse(args); err != nil {
			readerFlags.Usage()
		}
		link, err := bridge.Open(*readerDev)
		if err != nil {
			return err
		}
		defer link.Close()
		return inventory(stdout, bridge.NewReader(link), *readerRounds, *readerBank)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func provision(stdout io.Writer) error {
	img := info.NewImage()
	if *provisionIn != "" {
		b, err := os.ReadFile(*provisionIn)
		if err != nil {
			return err
		}
		img, err = info.LoadImage(b)
		if err != nil {
			return err
		}
	}
	if *provisionID == "" && *provisionRev < 0 {
		return errors.New("provision: specify -id or -rev")
	}
	if *provisionID != "" {
		id, err := info.ParseTagID(*provisionID)
		if err != nil {
			return err
		}
		if err := img.SetTagID(id); err != nil {
			return err
		}
	}
	if rev := *provisionRev; rev >= 0 {
		if rev >= 0xff {
			return fmt.Errorf("provision: revision %d out of range", rev)
		}
		if err := img.SetHWRev(byte(rev)); err != nil {
			return err
		}
	}
	if *provisionOut != "" {
		return os.WriteFile(*provisionOut, img.Bytes(), 0o644)
	}
	_, err := stdout.Write(img.Bytes())
	return err
}

// decode prints the readings of hex encoded EPCs from the arguments,
// or from standard in, one per line.
func decode(stdout io.Writer, stdin io.Reader, args []string) error {
	if len(args) == 0 {
		in, err := io.ReadAll(stdin)
		if err != nil {
			return err
		}
		args = strings.Fields(string(in))
	}
	if len(args) == 0 {
		return errors.New("decode: no EPC specified")
	}
	for _, arg := range args {
		b, err := hex.DecodeString(strings.TrimPrefix(arg, "0x"))
		if err != nil {
			return fmt.Errorf("decode: %q: %w", arg, err)
		}
		r, err := epc.Decode(b)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, r)
	}
	return nil
}

// inventory singulates the tag n times, printing its readings and
// optionally its user memory.
func inventory(stdout io.Writer, r *bridge.Reader, n, bank int) error {
	for i := 0; i < n; i++ {
		b, err := r.Inventory()
		if err != nil {
			return err
		}
		reading, err := epc.Decode(b)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, reading)
		if _, err := r.Send(bridge.Request{Command: rfid.CmdReqRN}); err != nil {
			return err
		}
		if bank > 0 {
			rep, err := r.Send(bridge.Request{Command: rfid.CmdRead, Length: bank})
			if err != nil {
				return err
			}
			if rep.Status != bridge.StatusOK {
				return fmt.Errorf("read: %v", rep.Status)
			}
			fmt.Fprintf(stdout, "user memory %x\n", rep.Data)
		}
	}
	return nil
}
