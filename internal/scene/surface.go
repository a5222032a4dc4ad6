package scene

import "circuit-tracker/internal/canvas"

// Surface is a host drawing surface: a canvas plus the size and pointer
// events of the element it is displayed in.
type Surface interface {
	// Canvas returns the 2D context, or nil if the host cannot draw.
	Canvas() *canvas.Context
	// DisplaySize is the displayed size in layout units.
	DisplaySize() (w, h float64)
	// PixelRatio is device pixels per layout unit.
	PixelRatio() float64
	// SetBackingSize resizes the device pixel buffer.
	SetBackingSize(w, h int)
	// OnResize registers the resize listener and returns its detach func.
	OnResize(fn func()) (detach func())
	// OnClick registers the click listener (layout units relative to the
	// surface origin) and returns its detach func.
	OnClick(fn func(x, y float64)) (detach func())
}

// Display resolves surfaces by identifier.
type Display interface {
	Surface(id string) (Surface, bool)
}

// Surfaces is a Display backed by a map.
type Surfaces map[string]Surface

// Surface implements Display.
func (s Surfaces) Surface(id string) (Surface, bool) {
	surf, ok := s[id]
	return surf, ok
}
