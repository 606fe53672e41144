//go:build !(tinygo && bootdebug)

package app

import "gpi/hal"

func bootDiagStart(h hal.HAL) {}

func (a *App) bootScreen(msg string) {}
