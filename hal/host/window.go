//go:build !tinygo && cgo

package host

import (
	"context"
	"errors"
	"gpi/firmware/display"
	"gpi/internal/buildinfo"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

const (
	ledPitch     = 40
	ledRadius    = 15
	panelPixels  = display.Size * ledPitch
	statusHeight = 12
)

var (
	background = color.RGBA{0x12, 0x12, 0x12, 0xFF}
	statusInk  = color.RGBA{0xB0, 0xB0, 0xB0, 0xFF}
)

// RunWindow opens a window showing the panel and runs fw against s until
// the window closes, Escape is pressed, fw fails or ctx is done.
//
// Keys: Space is the button, Up/Down shift gears, Left/Right change the
// light, PageUp/PageDown the temperature, and S cycles sensor faults.
func RunWindow(ctx context.Context, s *Sim, fw Firmware) error {
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := &game{ctx: fctx, sim: s, done: runFirmware(fctx, s, fw)}
	ebiten.SetWindowTitle("GPI (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(panelPixels, panelPixels+statusHeight*2)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(g)

	cancel()
	if !g.exited {
		if ferr := <-g.done; ferr != nil && !errors.Is(ferr, context.Canceled) && err == nil {
			err = ferr
		}
	}
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	if err == nil {
		err = ctx.Err()
	}
	return err
}

type game struct {
	ctx    context.Context
	sim    *Sim
	done   <-chan error
	exited bool

	status    *statusCanvas
	statusImg *ebiten.Image
}

func (g *game) Update() error {
	select {
	case err := <-g.done:
		g.exited = true
		if err == nil || errors.Is(err, context.Canceled) {
			return ebiten.Termination
		}
		return err
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}

	s := g.sim
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		s.Press(true)
	case inpututil.IsKeyJustReleased(ebiten.KeySpace):
		s.Press(false)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		s.shiftGear(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		s.shiftGear(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		s.shiftLight(lightStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		s.shiftLight(-lightStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageUp) {
		s.shiftTemperature(temperatureStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageDown) {
		s.shiftTemperature(-temperatureStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		s.cycleSensor()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	img := g.sim.Panel().Snapshot()
	for line := 0; line < display.Size; line++ {
		for pos := 0; pos < display.Size; pos++ {
			cx := float32(pos*ledPitch + ledPitch/2)
			cy := float32(line*ledPitch + ledPitch/2)
			vector.DrawFilledCircle(screen, cx, cy, ledRadius, ledColor(img.Duty[line][pos]), true)
		}
	}

	if g.status == nil {
		g.status = newStatusCanvas(panelPixels, statusHeight)
		g.statusImg = ebiten.NewImage(panelPixels, statusHeight)
	}
	g.status.clear()
	tinyfont.WriteLine(g.status, &tinyfont.TomThumb, 2, statusHeight-3, g.sim.inputs().Status(), statusInk)
	g.statusImg.WritePixels(g.status.img.Pix)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(0, panelPixels)
	screen.DrawImage(g.statusImg, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return panelPixels, panelPixels + statusHeight
}

// ledColor shades a red LED by its duty cycle. Dark LEDs stay faintly
// visible.
func ledColor(duty uint8) color.RGBA {
	const dark = 0x30
	return color.RGBA{R: dark + uint8(int(duty)*(0xFF-dark)/0xFF), G: uint8(duty / 8), A: 0xFF}
}

// statusCanvas is an RGBA strip tinyfont draws on.
type statusCanvas struct {
	img *image.RGBA
}

var _ drivers.Displayer = (*statusCanvas)(nil)

func newStatusCanvas(w, h int) *statusCanvas {
	return &statusCanvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (c *statusCanvas) clear() {
	for i := range c.img.Pix {
		c.img.Pix[i] = 0
	}
}

func (c *statusCanvas) Size() (x, y int16) {
	b := c.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (c *statusCanvas) SetPixel(x, y int16, col color.RGBA) {
	c.img.SetRGBA(int(x), int(y), col)
}

func (c *statusCanvas) Display() error { return nil }
