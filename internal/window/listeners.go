package window

import (
	"maps"
	"slices"
)

// listeners keeps registered callbacks keyed by registration order so a
// detach func removes exactly the callback it was returned for.
type listeners struct {
	next   int
	resize map[int]func()
	click  map[int]func(x, y float64)
}

func newListeners() listeners {
	return listeners{
		resize: make(map[int]func()),
		click:  make(map[int]func(x, y float64)),
	}
}

func (l *listeners) addResize(fn func()) func() {
	id := l.next
	l.next++
	l.resize[id] = fn
	return func() { delete(l.resize, id) }
}

func (l *listeners) addClick(fn func(x, y float64)) func() {
	id := l.next
	l.next++
	l.click[id] = fn
	return func() { delete(l.click, id) }
}

// Callbacks may detach listeners while firing, so ids are collected first.

func (l *listeners) fireResize() {
	for _, id := range slices.Sorted(maps.Keys(l.resize)) {
		if fn, ok := l.resize[id]; ok {
			fn()
		}
	}
}

func (l *listeners) fireClick(x, y float64) {
	for _, id := range slices.Sorted(maps.Keys(l.click)) {
		if fn, ok := l.click[id]; ok {
			fn(x, y)
		}
	}
}

func (l *listeners) counts() (resize, click int) {
	return len(l.resize), len(l.click)
}
