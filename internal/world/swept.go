package world

import "spriteworld/internal/geom"

// SweptCollider is the broad-phase bound covering a sprite's collider at
// the start and end of one step. It is derived state: recomputed every
// step the sprite moves, never persisted, and meaningful only between
// two consecutive integration points.
//
// The bound is deliberately conservative (the corners of the union box
// extend past the true swept polygon), so it may admit false positives.
// It must never produce a false negative for a pair that genuinely
// meets during the step; the quadtree/pair tests rely on that.
type SweptCollider struct {
	bounds geom.Rect
	valid  bool
}

// Update recomputes the swept bounds as the union of the collider's
// bounding rect at its current position and at the position it is about
// to reach. Shrinking adjustments applied later in the step (friction,
// max-speed clamp) only make the bound more conservative.
//
// A zero velocity invalidates the swept collider instead of producing a
// zero-area bound: a degenerate swept shape would spuriously miss
// overlaps against stationary targets, so callers must fall back to the
// exact collider bounds when Valid reports false.
func (s *SweptCollider) Update(current geom.Rect, velocity geom.Vec2) {
	if velocity.IsZero() {
		s.valid = false
		return
	}
	s.bounds = current.Union(current.Translated(velocity))
	s.valid = true
}

// Invalidate discards the swept bound, e.g. after a teleport.
func (s *SweptCollider) Invalidate() {
	s.valid = false
}

// Valid reports whether the swept bound covers the current step.
func (s *SweptCollider) Valid() bool {
	return s.valid
}

// Bounds returns the swept bounding rect. Only meaningful when Valid.
func (s *SweptCollider) Bounds() geom.Rect {
	return s.bounds
}
