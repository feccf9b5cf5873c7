//go:build !tinygo

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"wispsense.com/driver/adxl362"
)

// LoadBoard reads a board description on top of the defaults.
func LoadBoard(path string) (Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return Board{}, err
	}
	defer f.Close()
	b := DefaultBoard()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return Board{}, fmt.Errorf("%s: %w", path, err)
	}
	if b.SPIHz <= 0 {
		return Board{}, fmt.Errorf("%s: invalid spi_hz %d", path, b.SPIHz)
	}
	if _, err := adxl362.ParseRange(b.Range); err != nil {
		return Board{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}
