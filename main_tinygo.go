//go:build tinygo && avr

package main

import (
	"context"

	"gpi/app"
	"gpi/hal"
)

func main() {
	for {
		// Run returns only on an error; start over like a watchdog reset.
		_ = app.Run(context.Background(), hal.New())
	}
}
