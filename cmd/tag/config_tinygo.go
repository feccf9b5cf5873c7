//go:build tinygo

package main

import "errors"

func LoadBoard(path string) (Board, error) {
	return Board{}, errors.New("board files are not supported on this platform")
}
