package world

import (
	"fmt"

	"spriteworld/internal/geom"
)

// Touching records which sides of a sprite made contact during the most
// recent collision resolution. The flags are cleared at the start of
// every step and overwritten each time a collision resolves against the
// sprite, so they always describe the current step only.
type Touching struct {
	Left   bool `json:"left" msgpack:"l"`
	Right  bool `json:"right" msgpack:"r"`
	Top    bool `json:"top" msgpack:"t"`
	Bottom bool `json:"bottom" msgpack:"b"`
}

// Any reports whether any side is touching.
func (t Touching) Any() bool {
	return t.Left || t.Right || t.Top || t.Bottom
}

// Sprite is a movable 2D entity. Position, velocity and the physics
// coefficients are plain exported fields, mutated only by the sprite's
// own kinematics step or by collision resolution within a query that
// includes the sprite.
type Sprite struct {
	ID   uint32 `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"n"`

	Pos     geom.Vec2 `json:"pos" msgpack:"p"`
	PrevPos geom.Vec2 `json:"prevPos" msgpack:"pp"`
	Vel     geom.Vec2 `json:"vel" msgpack:"v"`
	Delta   geom.Vec2 `json:"-" msgpack:"-"`

	// Declared visual size. The animation subsystem may overwrite these
	// between steps; the collider rebuild always reads the current value.
	W     float64 `json:"w" msgpack:"w"`
	H     float64 `json:"h" msgpack:"h"`
	Scale float64 `json:"scale" msgpack:"s"`
	Depth int     `json:"depth" msgpack:"d"`

	Mass        float64 `json:"mass" msgpack:"m"`
	Restitution float64 `json:"restitution" msgpack:"e"`
	Immovable   bool    `json:"immovable" msgpack:"im"`
	MaxSpeed    float64 `json:"maxSpeed" msgpack:"ms"` // negative = unlimited
	Friction    float64 `json:"friction" msgpack:"f"`  // [0,1] per step

	// Life is the number of remaining steps before the sprite is
	// removed; negative means immortal.
	Life int `json:"life" msgpack:"lf"`

	// BounceOffEdges reflects the sprite off the world bounds with its
	// own restitution.
	BounceOffEdges bool `json:"bounceOffEdges" msgpack:"be"`

	Touching Touching `json:"touching" msgpack:"tc"`

	// Collider shape declaration. The collider itself is owned by the
	// sprite, created lazily on first collision query and rebuilt from
	// the current size/scale every step.
	shape        ShapeKind
	circleRadius float64
	collider     Collider
	hasCollider  bool

	swept SweptCollider

	removed bool

	// Non-owning back-references for removal bookkeeping only; groups
	// own the forward membership lists.
	groups []*Group
}

// SetSize updates the declared width and height. Negative sizes are a
// configuration error, rejected here rather than at the next rebuild.
func (s *Sprite) SetSize(w, h float64) error {
	if w < 0 || h < 0 {
		return fmt.Errorf("%w: sprite size (%v, %v)", ErrInvalidShape, w, h)
	}
	s.W, s.H = w, h
	return nil
}

// UseBoxCollider declares an axis-aligned box collider sized from the
// sprite's current width, height and scale. This is the default shape.
func (s *Sprite) UseBoxCollider() {
	s.shape = ShapeBox
	s.hasCollider = false
}

// UseCircleCollider declares a circle collider with the given radius
// (scaled by the sprite's Scale at rebuild time).
func (s *Sprite) UseCircleCollider(radius float64) error {
	if radius < 0 {
		return fmt.Errorf("%w: circle radius %v", ErrInvalidShape, radius)
	}
	s.shape = ShapeCircle
	s.circleRadius = radius
	s.hasCollider = false
	return nil
}

// UsePointCollider declares a zero-extent point collider, useful for
// cursor-style hit testing.
func (s *Sprite) UsePointCollider() {
	s.shape = ShapePoint
	s.hasCollider = false
}

// Collider returns the sprite's exact collider, building it from the
// current position and size on first use.
func (s *Sprite) Collider() Collider {
	if !s.hasCollider {
		s.rebuildCollider()
	}
	return s.collider
}

// rebuildCollider reconstructs the collider from whatever size and
// scale are current right now. Stale cached extents would break the
// contract with the animation subsystem, so nothing here is reused.
func (s *Sprite) rebuildCollider() {
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	switch s.shape {
	case ShapeCircle:
		s.collider = Collider{Kind: ShapeCircle, Center: s.Pos, Radius: s.circleRadius * scale}
	case ShapePoint:
		s.collider = NewPoint(s.Pos)
	default:
		s.collider = Collider{
			Kind:   ShapeBox,
			Center: s.Pos,
			HalfW:  s.W * scale / 2,
			HalfH:  s.H * scale / 2,
		}
	}
	s.hasCollider = true
}

// BroadphaseBounds returns the bound used for candidate pruning: the
// swept bound while the sprite is moving, the exact collider bounds
// otherwise.
func (s *Sprite) BroadphaseBounds() geom.Rect {
	if s.swept.Valid() {
		return s.swept.Bounds()
	}
	return s.Collider().Bounds()
}

// SpatialID implements spatial.Item.
func (s *Sprite) SpatialID() uint32 {
	return s.ID
}

// Removed reports whether the sprite has been marked for removal.
// Removed sprites are skipped by every group operation until excised.
func (s *Sprite) Removed() bool {
	return s.removed
}

// Remove marks the sprite removed. The sprite stays in its groups'
// backing slices until Compact excises it.
func (s *Sprite) Remove() {
	s.removed = true
}

// InGroup reports whether the sprite belongs to the given group.
func (s *Sprite) InGroup(g *Group) bool {
	for _, ref := range s.groups {
		if ref == g {
			return true
		}
	}
	return false
}

// Teleport moves the sprite without generating a swept path, so no
// collision is detected along the jump.
func (s *Sprite) Teleport(pos geom.Vec2) {
	s.Pos = pos
	s.PrevPos = pos
	s.Delta = geom.Vec2{}
	s.swept.Invalidate()
	s.rebuildCollider()
}

// invMass returns the inverse mass used for resolution weighting.
// Immovable sprites have infinite mass and an inverse of zero.
func (s *Sprite) invMass() float64 {
	if s.Immovable || s.Mass <= 0 {
		return 0
	}
	return 1 / s.Mass
}
