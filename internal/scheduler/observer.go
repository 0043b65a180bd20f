package scheduler

import (
	"sort"
	"sync"
)

// Geometry is the read-only view of a pane the observer needs: a scroll
// offset, a viewport, and per-item vertical extents.
type Geometry interface {
	ScrollTop() float64
	ViewportHeight() float64
	ItemTop(index int) float64
	ItemHeight(index int) float64
}

// VisibilityObserver is the contract between the rendering surface and the
// scheduler: the surface registers paragraph indexes, and the observer
// reports the ones entering the viewport.
type VisibilityObserver interface {
	Observe(index int)
	Unobserve(index int)
}

// VisibleFunc receives the indexes that newly entered the viewport (or its
// prefetch margin), in ascending order.
type VisibleFunc func(indexes []int)

// GeometryObserver implements VisibilityObserver with a plain viewport
// geometry check. Check is driven by the surface's scroll events and fires
// the callback only for items transitioning from hidden to visible, the way
// a platform intersection observer would.
type GeometryObserver struct {
	mu       sync.Mutex
	geom     Geometry
	margin   float64
	observed map[int]bool
	visible  map[int]bool
	callback VisibleFunc
}

func NewGeometryObserver(geom Geometry, prefetchMargin float64, callback VisibleFunc) *GeometryObserver {
	return &GeometryObserver{
		geom:     geom,
		margin:   prefetchMargin,
		observed: make(map[int]bool),
		visible:  make(map[int]bool),
		callback: callback,
	}
}

func (o *GeometryObserver) Observe(index int) {
	o.mu.Lock()
	o.observed[index] = true
	o.mu.Unlock()
}

func (o *GeometryObserver) Unobserve(index int) {
	o.mu.Lock()
	delete(o.observed, index)
	delete(o.visible, index)
	o.mu.Unlock()
}

// Reset drops all registrations, for chapter navigation.
func (o *GeometryObserver) Reset() {
	o.mu.Lock()
	o.observed = make(map[int]bool)
	o.visible = make(map[int]bool)
	o.mu.Unlock()
}

// Check recomputes intersection for every observed item and reports the
// ones that just became visible.
func (o *GeometryObserver) Check() {
	o.mu.Lock()

	top := o.geom.ScrollTop() - o.margin
	bottom := o.geom.ScrollTop() + o.geom.ViewportHeight() + o.margin

	entered := make([]int, 0)
	for index := range o.observed {
		itemTop := o.geom.ItemTop(index)
		itemBottom := itemTop + o.geom.ItemHeight(index)
		intersects := itemBottom > top && itemTop < bottom
		if intersects && !o.visible[index] {
			entered = append(entered, index)
		}
		o.visible[index] = intersects
	}
	callback := o.callback
	o.mu.Unlock()

	if len(entered) == 0 || callback == nil {
		return
	}
	sort.Ints(entered)
	callback(entered)
}
