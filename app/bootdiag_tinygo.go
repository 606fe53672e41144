//go:build tinygo && bootdebug

package app

import (
	"sync"
	"time"

	"gpi/hal"
)

var (
	bootDiagMu   sync.Mutex
	bootDiagStep string
)

func bootDiagSetStep(msg string) {
	bootDiagMu.Lock()
	bootDiagStep = msg
	bootDiagMu.Unlock()
}

// bootDiagStart repeats the current boot step on the serial log until the
// board is reset, so a hang shows where it stopped.
func bootDiagStart(h hal.HAL) {
	if h == nil {
		return
	}
	l := h.Logger()

	go func() {
		for {
			bootDiagMu.Lock()
			step := bootDiagStep
			bootDiagMu.Unlock()

			if step == "" {
				step = "<empty>"
			}
			line := "bootdiag: " + step

			if l != nil {
				l.WriteLineString(line)
			}

			time.Sleep(250 * time.Millisecond)
		}
	}()
}

// bootScreen records the step and shows its first letter inverted.
func (a *App) bootScreen(msg string) {
	bootDiagSetStep(msg)
	if msg != "" {
		a.scr.NegPutc(msg[0] &^ 0x20)
	}
}
