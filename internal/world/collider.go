// Package world implements the sprite simulation core: colliders, swept
// broad phase, per-step kinematics, collision resolution and group queries.
//
// The package is single threaded by design. A World advances in discrete
// steps; all sprites integrate before any collision query runs, so queries
// within a step observe a consistent snapshot of positions.
package world

import (
	"errors"
	"fmt"
	"math"

	"spriteworld/internal/geom"
)

// ErrInvalidShape is returned when a collider is constructed with a
// negative half-extent or radius. Shape validity is enforced here, at
// construction, so overlap queries never have to cope with it.
var ErrInvalidShape = errors.New("world: collider extents must be non-negative")

// ShapeKind identifies the collider variant.
type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeCircle
	ShapePoint
)

// String returns the shape name for logs and snapshots.
func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeCircle:
		return "circle"
	case ShapePoint:
		return "point"
	}
	return "unknown"
}

// Collider is a tagged union over the three supported shapes.
// A collider is exclusively owned by one sprite and is rebuilt, not
// mutated, whenever the sprite's position or size changes.
type Collider struct {
	Kind   ShapeKind
	Center geom.Vec2

	// Box extents; unused for circle and point.
	HalfW float64
	HalfH float64

	// Circle radius; unused for box and point.
	Radius float64
}

// NewBox builds a box collider from a center and half-extents.
func NewBox(center geom.Vec2, halfW, halfH float64) (Collider, error) {
	if halfW < 0 || halfH < 0 {
		return Collider{}, fmt.Errorf("%w: box half-extents (%v, %v)", ErrInvalidShape, halfW, halfH)
	}
	return Collider{Kind: ShapeBox, Center: center, HalfW: halfW, HalfH: halfH}, nil
}

// NewCircle builds a circle collider from a center and radius.
func NewCircle(center geom.Vec2, radius float64) (Collider, error) {
	if radius < 0 {
		return Collider{}, fmt.Errorf("%w: circle radius %v", ErrInvalidShape, radius)
	}
	return Collider{Kind: ShapeCircle, Center: center, Radius: radius}, nil
}

// NewPoint builds a point collider. A point is the degenerate case of
// both box and circle with zero extent and cannot be invalid.
func NewPoint(center geom.Vec2) Collider {
	return Collider{Kind: ShapePoint, Center: center}
}

// Bounds returns the collider's axis-aligned bounding rectangle.
func (c Collider) Bounds() geom.Rect {
	switch c.Kind {
	case ShapeCircle:
		return geom.Rect{Center: c.Center, HalfW: c.Radius, HalfH: c.Radius}
	case ShapePoint:
		return geom.Rect{Center: c.Center}
	default:
		return geom.Rect{Center: c.Center, HalfW: c.HalfW, HalfH: c.HalfH}
	}
}

// Overlaps reports whether the two colliders overlap. Box and circle
// overlap is strict (exact edge contact is not overlap); a point counts
// as overlapping when it lies within or on the other shape.
func (c Collider) Overlaps(other Collider) bool {
	_, ok := c.MinimumSeparation(other)
	return ok
}

// MinimumSeparation computes the minimal-magnitude translation that,
// applied to c, separates it from other. The second return value is
// false when the shapes do not overlap.
//
// Point colliders are pure hit tests: they report containment with a
// zero separation vector, since a direction is meaningless for them.
//
// When the two centers coincide exactly the separation direction is
// undefined; the implementation falls back to the X axis and pushes c
// toward negative X. The fallback is deterministic but deliberately
// breaks the antisymmetry that holds for all non-degenerate pairs.
func (c Collider) MinimumSeparation(other Collider) (geom.Vec2, bool) {
	switch c.Kind {
	case ShapeBox:
		switch other.Kind {
		case ShapeBox:
			return boxBoxSeparation(c, other)
		case ShapeCircle:
			return boxCircleSeparation(c, other)
		case ShapePoint:
			if boxContainsPoint(c, other.Center) {
				return geom.Vec2{}, true
			}
			return geom.Vec2{}, false
		}
	case ShapeCircle:
		switch other.Kind {
		case ShapeBox:
			sep, ok := boxCircleSeparation(other, c)
			if !ok {
				return geom.Vec2{}, false
			}
			return sep.Neg(), true
		case ShapeCircle:
			return circleCircleSeparation(c, other)
		case ShapePoint:
			if circleContainsPoint(c, other.Center) {
				return geom.Vec2{}, true
			}
			return geom.Vec2{}, false
		}
	case ShapePoint:
		var hit bool
		switch other.Kind {
		case ShapeBox:
			hit = boxContainsPoint(other, c.Center)
		case ShapeCircle:
			hit = circleContainsPoint(other, c.Center)
		case ShapePoint:
			hit = c.Center == other.Center
		}
		return geom.Vec2{}, hit
	}
	return geom.Vec2{}, false
}

// boxBoxSeparation implements the standard AABB penetration test.
// The separation axis is the one with the smaller penetration depth,
// ties broken toward X.
func boxBoxSeparation(a, b Collider) (geom.Vec2, bool) {
	dx := b.Center.X - a.Center.X
	dy := b.Center.Y - a.Center.Y

	penX := (a.HalfW + b.HalfW) - math.Abs(dx)
	penY := (a.HalfH + b.HalfH) - math.Abs(dy)
	if penX <= 0 || penY <= 0 {
		return geom.Vec2{}, false
	}

	if penX <= penY {
		// Push a away from b along X. Coincident centers (dx == 0)
		// take the negative-X branch deterministically.
		if dx >= 0 {
			return geom.Vec2{X: -penX}, true
		}
		return geom.Vec2{X: penX}, true
	}
	if dy >= 0 {
		return geom.Vec2{Y: -penY}, true
	}
	return geom.Vec2{Y: penY}, true
}

// circleCircleSeparation separates two circles along the line between
// their centers. Coincident centers separate along -X by the full sum
// of radii.
func circleCircleSeparation(a, b Collider) (geom.Vec2, bool) {
	delta := b.Center.Sub(a.Center)
	dist := delta.Length()
	radSum := a.Radius + b.Radius
	if dist >= radSum {
		return geom.Vec2{}, false
	}
	if dist == 0 {
		return geom.Vec2{X: -radSum}, true
	}
	pen := radSum - dist
	return delta.Scale(-pen / dist), true
}

// boxCircleSeparation clamps the circle center to the box to find the
// closest point on the box. When the center is inside the box the
// overlap is resolved along the axis of minimum penetration, treating
// the circle as extending the box's extents.
func boxCircleSeparation(box, circle Collider) (geom.Vec2, bool) {
	closest := geom.Vec2{
		X: clamp(circle.Center.X, box.Center.X-box.HalfW, box.Center.X+box.HalfW),
		Y: clamp(circle.Center.Y, box.Center.Y-box.HalfH, box.Center.Y+box.HalfH),
	}

	if closest == circle.Center {
		// Center inside the box: fall back to axis penetration with
		// the radius folded into the box extents.
		dx := circle.Center.X - box.Center.X
		dy := circle.Center.Y - box.Center.Y
		penX := (box.HalfW + circle.Radius) - math.Abs(dx)
		penY := (box.HalfH + circle.Radius) - math.Abs(dy)
		if penX <= penY {
			if dx >= 0 {
				return geom.Vec2{X: -penX}, true
			}
			return geom.Vec2{X: penX}, true
		}
		if dy >= 0 {
			return geom.Vec2{Y: -penY}, true
		}
		return geom.Vec2{Y: penY}, true
	}

	delta := circle.Center.Sub(closest)
	dist := delta.Length()
	if dist >= circle.Radius {
		return geom.Vec2{}, false
	}
	pen := circle.Radius - dist
	return delta.Scale(-pen / dist), true
}

func boxContainsPoint(box Collider, p geom.Vec2) bool {
	return math.Abs(p.X-box.Center.X) <= box.HalfW &&
		math.Abs(p.Y-box.Center.Y) <= box.HalfH
}

func circleContainsPoint(circle Collider, p geom.Vec2) bool {
	return p.Sub(circle.Center).LengthSquared() <= circle.Radius*circle.Radius
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
