package app

import (
	"context"
	"gpi/firmware/button"
	"gpi/firmware/config"
	"gpi/firmware/glyph"
	"gpi/firmware/scroll"
	"strings"
)

// MenuPasses is how many times an item scrolls before the menu closes.
const MenuPasses = 2

// menuItem is "NAME|option 0|option 1|..." and the setting it edits.
type menuItem struct {
	text  string
	field func(c *config.Config) *uint8
}

var menu = []menuItem{
	{"SCALE|\x1cC|\x1cF", func(c *config.Config) *uint8 { return &c.TempFahrenheit }},
	{"FORMAT|LONG|SHORT", func(c *config.Config) *uint8 { return &c.TempShortFormat }},
	{"TEMP TIMEOUT|NORMAL|SHORT|LONG|OFF", func(c *config.Config) *uint8 { return &c.TempTimeout }},
	{"ANIMATION|UP/DOWN|LEFT/RIGHT|NONE", func(c *config.Config) *uint8 { return &c.GearAnimation }},
	{"ROTATE|0\x1c|90\x1c|180\x1c|270\x1c", func(c *config.Config) *uint8 { return &c.Rotation }},
	{"AUTO BRIGHTNESS|ON|OFF", func(c *config.Config) *uint8 { return &c.AutoBrightnessOff }},
	{"MIN BRIGHTNESS|0|1|2|3", func(c *config.Config) *uint8 { return &c.MinBrightness }},
	{"STARTUP MSG|OFF|ON", func(c *config.Config) *uint8 { return &c.StartupMessage }},
}

// ConfigMenu walks the settings. A short press moves to the next item, a long
// press selects the next option of the current one, and leaving an item
// alone for two scrolls closes the menu.
func (a *App) ConfigMenu(ctx context.Context) error {
	if err := a.scr.FlashNegative(ctx, 'C', 3); err != nil {
		return err
	}
	for i := 0; ; i = (i + 1) % len(menu) {
		ex, err := a.menuItem(ctx, i+1, menu[i])
		if err != nil {
			return err
		}
		if ex == ExitTimeout {
			return nil
		}
	}
}

func (a *App) menuItem(ctx context.Context, index int, item menuItem) (Exit, error) {
	parts := strings.Split(item.text, "|")
	name, opts := parts[0], parts[1:]

	if err := a.scr.Flash(ctx, indexChar(index), 3); err != nil {
		return ExitTimeout, err
	}

	for {
		c := a.conf.Get()
		v := item.field(&c)
		if int(*v) >= len(opts) {
			*v = 0
		}

		ev, err := a.scr.Text(ctx, menuText(name, opts[*v]), MenuPasses, scroll.StepDelay, a.btn)
		if err != nil {
			return ExitTimeout, err
		}
		switch ev {
		case button.Short:
			return ExitShort, nil
		case button.Long:
			*v = uint8((int(*v) + 1) % len(opts))
			if err := a.conf.Save(c); err != nil {
				a.log.Printf("%v", err)
			}
			a.log.Printf("menu: %s = %q", name, opts[*v])
			if err := a.scr.AnimateCheck(ctx); err != nil {
				return ExitTimeout, err
			}
		default:
			return ExitTimeout, nil
		}
	}
}

func indexChar(i int) byte {
	if i <= 9 {
		return byte('0' + i)
	}
	return byte('A' + i - 10)
}

func menuText(name, option string) []byte {
	b := make([]byte, 0, len(name)+len(option)+2)
	b = append(b, ' ')
	b = append(b, name...)
	b = append(b, glyph.Arrow)
	return append(b, option...)
}
