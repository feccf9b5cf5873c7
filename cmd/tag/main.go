// Command tag runs the sensor tag firmware: it brings up the
// accelerometer, then samples temperatures and serves them to RFID
// readers forever.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"wispsense.com/cycle"
	"wispsense.com/rfid"
)

// Version is set by the Go linker with -ldflags='-X main.Version=...'.
var Version string

var (
	configFile = flag.String("config", "", "board configuration file")
	simulate   = flag.Bool("sim", false, "run against simulated hardware")
	rounds     = flag.Int("rounds", 10, "reader rounds to simulate")
	verbose    = flag.Bool("v", false, "log transactions")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tag: %v\n", err)
		os.Exit(2)
	}
}

func run() error {
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))
	if Version != "" {
		log.Printf("tag %s", Version)
	}
	bc := DefaultBoard()
	if *configFile != "" {
		var err error
		bc, err = LoadBoard(*configFile)
		if err != nil {
			return err
		}
	}
	if *simulate {
		bc.Simulate = true
		bc.Rounds = *rounds
	}
	p, err := Init(bc)
	if err != nil {
		return err
	}
	defer p.Close()
	conf := bc.Cycle()
	conf.Logger = log.Default()
	if *verbose {
		conf.Callbacks.Ack = func() {
			log.Printf("tag: acknowledged")
		}
	}
	c := cycle.New(p.Engine, p.Board, conf)
	err = c.Run()
	log.Printf("tag: %d transactions", c.Cycles())
	if errors.Is(err, rfid.ErrNoReader) {
		// The reader went away; nothing left to serve.
		return nil
	}
	return err
}
