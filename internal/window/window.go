// Package window hosts the map on a desktop window through ebiten. The
// window is a scene.Surface: it owns the offscreen canvas, reports its
// displayed size and device scale factor, and turns mouse and touch
// presses into click notifications.
package window

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"circuit-tracker/internal/canvas"
	"circuit-tracker/internal/canvas/ebitencanvas"
	"circuit-tracker/internal/geo"
	"circuit-tracker/internal/scene"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Config sizes and names the window.
type Config struct {
	Title     string
	Width     int
	Height    int
	CanvasID  string
	Resizable bool
	ShowHUD   bool
}

// DefaultConfig returns a 1200x800 resizable window.
func DefaultConfig() Config {
	return Config{
		Title:     "Circuit Tracker",
		Width:     1200,
		Height:    800,
		CanvasID:  "map",
		Resizable: true,
		ShowHUD:   true,
	}
}

// Window implements ebiten.Game and scene.Surface.
type Window struct {
	cfg     Config
	log     *slog.Logger
	backend *ebitencanvas.Backend
	ctx     *canvas.Context

	w, h    float64
	ratio   float64
	resized bool

	lastClick [2]float64
	clicked   bool

	listeners listeners

	fixes <-chan geo.Fix
	onFix func(geo.Fix)
	keys  []binding
	hud   func() string
}

type binding struct {
	key ebiten.Key
	fn  func() error
}

// New creates a window host. Nothing is shown until Run.
func New(cfg Config, log *slog.Logger) (*Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.CanvasID == "" {
		cfg.CanvasID = DefaultConfig().CanvasID
	}
	if log == nil {
		log = slog.Default()
	}
	b, err := ebitencanvas.New(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	return &Window{
		cfg:       cfg,
		log:       log,
		backend:   b,
		ctx:       canvas.New(b),
		w:         float64(cfg.Width),
		h:         float64(cfg.Height),
		ratio:     1,
		listeners: newListeners(),
	}, nil
}

// Surface implements scene.Display: the window exposes one surface.
func (w *Window) Surface(id string) (scene.Surface, bool) {
	if id != w.cfg.CanvasID {
		return nil, false
	}
	return w, true
}

func (w *Window) Canvas() *canvas.Context { return w.ctx }

func (w *Window) DisplaySize() (float64, float64) { return w.w, w.h }

func (w *Window) PixelRatio() float64 { return w.ratio }

func (w *Window) SetBackingSize(bw, bh int) { w.backend.Resize(bw, bh) }

func (w *Window) OnResize(fn func()) func() { return w.listeners.addResize(fn) }

func (w *Window) OnClick(fn func(x, y float64)) func() { return w.listeners.addClick(fn) }

// Feed sets the channel drained on every tick and the handler each fix is
// passed to. Fixes are handled on the UI goroutine, in arrival order.
func (w *Window) Feed(fixes <-chan geo.Fix, handle func(geo.Fix)) {
	w.fixes = fixes
	w.onFix = handle
}

// Bind runs fn when key is pressed. A non-nil error stops the game loop;
// return ebiten.Termination for a clean exit.
func (w *Window) Bind(key ebiten.Key, fn func() error) {
	w.keys = append(w.keys, binding{key: key, fn: fn})
}

// SetHUD sets the text printed in the top-left corner every frame.
func (w *Window) SetHUD(fn func() string) {
	w.hud = fn
}

// Run opens the window and blocks until it is closed.
func (w *Window) Run() error {
	ebiten.SetWindowSize(w.cfg.Width, w.cfg.Height)
	ebiten.SetWindowTitle(w.cfg.Title)
	if w.cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	err := ebiten.RunGame(w)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (w *Window) Update() error {
	if w.resized {
		w.resized = false
		resize, click := w.listeners.counts()
		w.log.Debug("surface resized",
			"width", w.w, "height", w.h, "ratio", w.ratio,
			"resize_listeners", resize, "click_listeners", click)
		w.listeners.fireResize()
	}

	for _, b := range w.keys {
		if inpututil.IsKeyJustPressed(b.key) {
			if err := b.fn(); err != nil {
				return err
			}
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		w.click(x, y)
	}
	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		x, y := ebiten.TouchPosition(id)
		w.click(x, y)
	}

	w.drain()
	return nil
}

// click converts screen pixels to displayed units.
func (w *Window) click(px, py int) {
	x, y := float64(px)/w.ratio, float64(py)/w.ratio
	w.lastClick, w.clicked = [2]float64{x, y}, true
	w.listeners.fireClick(x, y)
}

// LastClick returns the most recent click in displayed units.
func (w *Window) LastClick() (x, y float64, ok bool) {
	return w.lastClick[0], w.lastClick[1], w.clicked
}

func (w *Window) drain() {
	if w.fixes == nil {
		return
	}
	for {
		select {
		case fix, ok := <-w.fixes:
			if !ok {
				w.log.Info("location source finished")
				w.fixes = nil
				return
			}
			if w.onFix != nil {
				w.onFix(fix)
			}
		default:
			return
		}
	}
}

func (w *Window) Draw(screen *ebiten.Image) {
	screen.DrawImage(w.backend.Image(), nil)
	if w.cfg.ShowHUD && w.hud != nil {
		ebitenutil.DebugPrint(screen, w.hud())
	}
}

// Layout reports a screen in device pixels so the canvas is never
// upscaled. Size or ratio changes are delivered as resize events on the
// next Update.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	ratio := 1.0
	if m := ebiten.Monitor(); m != nil {
		ratio = m.DeviceScaleFactor()
	}
	if ratio <= 0 {
		ratio = 1
	}
	ow, oh := float64(outsideWidth), float64(outsideHeight)
	if ow != w.w || oh != w.h || ratio != w.ratio {
		w.w, w.h, w.ratio = ow, oh, ratio
		w.resized = true
	}
	return int(math.Round(ow * ratio)), int(math.Round(oh * ratio))
}
