//go:build !tinygo

package bridge

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/tarm/serial"
)

// Baud is the speed of the serial link. Both ends run 8N1.
const Baud = 115200

// Open opens the serial link to the other end of a bridge. An empty dev
// tries the usual device names of USB serial adapters on this system.
func Open(dev string) (io.ReadWriteCloser, error) {
	ports := []string{dev}
	if dev == "" {
		ports = candidatePorts(runtime.GOOS)
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("bridge: no serial device known for %s", runtime.GOOS)
	}
	return openFirst(ports, func(name string) (io.ReadWriteCloser, error) {
		return serial.OpenPort(&serial.Config{Name: name, Baud: Baud})
	})
}

// candidatePorts lists device names to try, most likely first. Boards
// with native USB enumerate as ACM devices, adapters as USB serial.
func candidatePorts(goos string) []string {
	switch goos {
	case "linux":
		return []string{"/dev/ttyACM0", "/dev/ttyACM1", "/dev/ttyUSB0", "/dev/ttyUSB1"}
	case "darwin":
		return []string{"/dev/cu.usbmodem1101", "/dev/cu.usbserial-0001"}
	case "windows":
		return []string{"COM3", "COM4"}
	default:
		return nil
	}
}

// openFirst returns the first port that opens, or every failure.
func openFirst(ports []string, open func(name string) (io.ReadWriteCloser, error)) (io.ReadWriteCloser, error) {
	var errs []error
	for _, name := range ports {
		rw, err := open(name)
		if err == nil {
			return rw, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return nil, fmt.Errorf("bridge: %w", errors.Join(errs...))
}
