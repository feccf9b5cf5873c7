//go:build !(linux && !tinygo) && !(tinygo && rp2040)

package main

import "errors"

func Init(b Board) (*Platform, error) {
	if !b.Simulate {
		return nil, errors.New("tag: no hardware support on this platform; use -sim")
	}
	return newSim(b)
}
