//go:build !tinygo && !cgo

package host

import (
	"context"
	"errors"
)

func RunWindow(_ context.Context, _ *Sim, _ Firmware) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
