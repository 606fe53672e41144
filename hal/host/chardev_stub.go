//go:build !tinygo && !linux

package host

import "errors"

const DefaultChip = "gpiochip0"

func NewChardev(_ string, _ BoardConfig) (*Board, error) {
	return nil, errors.New("chardev backend requires linux")
}
