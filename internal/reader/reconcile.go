package reader

import "sync/atomic"

// DefaultRefFraction is how far down the viewport the reference line sits
// when locating the anchor paragraph.
const DefaultRefFraction = 0.3

// Reconciler keeps the translation pane paragraph-aligned with the source
// pane as the user scrolls either one. The surface calls OnSourceScroll /
// OnTranslationScroll from its scroll events; the reconciler mirrors the
// scroll to the opposite pane without the two handlers feeding each other.
//
// Only source-pane scrolling reports a position change outward (the source
// pane is the canonical reading surface); translation-pane scrolling
// realigns but never moves the bookmark.
type Reconciler struct {
	source      Pane
	translation Pane
	refFraction float64

	// syncing is armed while a mirrored scroll is being applied, so the
	// target pane's own handler does not bounce the adjustment back.
	syncing atomic.Bool

	onPosition func(offset float64)
}

func NewReconciler(source, translation Pane) *Reconciler {
	return &Reconciler{
		source:      source,
		translation: translation,
		refFraction: DefaultRefFraction,
	}
}

// SetPositionFunc registers the hook that receives canonical (source-pane)
// scroll offsets, typically a debounced progress writer.
func (r *Reconciler) SetPositionFunc(fn func(offset float64)) {
	r.onPosition = fn
}

// OnSourceScroll mirrors the source pane's position onto the translation
// pane and reports the new canonical offset.
func (r *Reconciler) OnSourceScroll() {
	if r.syncing.Load() {
		return
	}
	r.mirror(r.source, r.translation)
	if r.onPosition != nil {
		r.onPosition(r.source.ScrollTop())
	}
}

// OnTranslationScroll mirrors the translation pane's position onto the
// source pane. The bookmark does not move.
func (r *Reconciler) OnTranslationScroll() {
	if r.syncing.Load() {
		return
	}
	r.mirror(r.translation, r.source)
}

// mirror positions the paragraph under from's reference line identically
// in to. A pane without scroll range is left alone.
func (r *Reconciler) mirror(from, to Pane) {
	index := anchorIndex(from, r.refFraction)
	if index < 0 || index >= to.ItemCount() {
		return
	}

	// keep the paragraph at the same distance from the viewport top
	delta := from.ItemTop(index) - from.ScrollTop()
	target, ok := clampScroll(to, to.ItemTop(index)-delta)
	if !ok {
		return
	}

	r.syncing.Store(true)
	to.SetScrollTop(target)
	r.syncing.Store(false)
}
