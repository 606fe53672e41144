package app

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// panicGlyph is left on the panel after a screen panics.
const panicGlyph = '!'

// recoverPanic turns a panic in a screen into an error. The stack goes
// straight to the HAL logger since the log drain may already be gone, and
// the panel shows an inverted '!'.
func (a *App) recoverPanic(err *error) {
	r := recover()
	if r == nil {
		return
	}

	stack := debug.Stack()
	if l := a.h.Logger(); l != nil {
		l.WriteLineString(fmt.Sprintf("gpi panic: %v", r))
		for _, line := range strings.Split(string(stack), "\n") {
			if line == "" {
				continue
			}
			l.WriteLineString(line)
		}
	}

	a.scr.NegPutc(panicGlyph)
	*err = fmt.Errorf("app: panic: %v", r)
}
