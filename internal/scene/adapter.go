package scene

import "math"

// fixDPI sizes the backing buffer to the displayed size times the pixel
// ratio and sets a base transform so drawing happens in displayed units.
func (s *Session) fixDPI() {
	w, h := s.surface.DisplaySize()
	ratio := s.surface.PixelRatio()
	if ratio <= 0 {
		ratio = 1
	}
	s.surface.SetBackingSize(int(math.Round(w*ratio)), int(math.Round(h*ratio)))
	s.cv.SetTransform(ratio, 0, 0, ratio, 0, 0)
}

func (s *Session) fitView() {
	w, h := s.surface.DisplaySize()
	s.vp.Fit(s.proj.Bounds(), w, h, s.opts.PaddingPx)
}

func (s *Session) handleResize() {
	if s.state != active {
		return
	}
	s.fixDPI()
	s.fitView()
	s.Draw()
}

// handleClick zooms in on the right half of the surface and out on the left.
func (s *Session) handleClick(x, _ float64) {
	if s.state != active {
		return
	}
	w, _ := s.surface.DisplaySize()
	if x > w/2 {
		s.Zoom(1.2)
	} else {
		s.Zoom(0.8)
	}
}

// attachListeners is idempotent: a session never holds more than one
// listener of each kind.
func (s *Session) attachListeners() {
	if len(s.detach) > 0 {
		return
	}
	s.detach = append(s.detach,
		s.surface.OnResize(s.handleResize),
		s.surface.OnClick(s.handleClick),
	)
}

func (s *Session) detachListeners() {
	for _, d := range s.detach {
		if d != nil {
			d()
		}
	}
	s.detach = nil
}
