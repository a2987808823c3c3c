package world

import "spriteworld/internal/geom"

// SpriteSnapshot is the wire form of one sprite. The msgpack tags keep
// websocket frames compact; the json tags serve the HTTP state route.
type SpriteSnapshot struct {
	ID        uint32    `json:"id" msgpack:"i"`
	Name      string    `json:"name" msgpack:"n"`
	Pos       geom.Vec2 `json:"pos" msgpack:"p"`
	Vel       geom.Vec2 `json:"vel" msgpack:"v"`
	W         float64   `json:"w" msgpack:"w"`
	H         float64   `json:"h" msgpack:"h"`
	Scale     float64   `json:"scale" msgpack:"sc"`
	Depth     int       `json:"depth" msgpack:"d"`
	Shape     string    `json:"shape" msgpack:"sh"`
	Radius    float64   `json:"radius,omitempty" msgpack:"r"`
	Life      int       `json:"life" msgpack:"l"`
	Immovable bool      `json:"immovable,omitempty" msgpack:"im"`
	Touching  Touching  `json:"touching" msgpack:"t"`
}

// WorldSnapshot is a point-in-time copy of the world, safe to encode
// after the step lock is released.
type WorldSnapshot struct {
	Step    uint64           `json:"step" msgpack:"s"`
	Bounds  geom.Rect        `json:"bounds" msgpack:"b"`
	Sprites []SpriteSnapshot `json:"sprites" msgpack:"sp"`
	Stats   StepStats        `json:"stats" msgpack:"st"`
}

// Snapshot copies the live sprites. The caller must hold whatever lock
// guards Step; the returned value shares nothing with the world.
func (w *World) Snapshot() WorldSnapshot {
	snap := WorldSnapshot{
		Step:    w.stepCount,
		Bounds:  w.cfg.Bounds,
		Sprites: make([]SpriteSnapshot, 0, w.all.Alive()),
		Stats:   w.stats,
	}
	w.all.Each(func(s *Sprite) {
		snap.Sprites = append(snap.Sprites, SpriteSnapshot{
			ID:        s.ID,
			Name:      s.Name,
			Pos:       s.Pos,
			Vel:       s.Vel,
			W:         s.W,
			H:         s.H,
			Scale:     s.Scale,
			Depth:     s.Depth,
			Shape:     s.shape.String(),
			Radius:    s.circleRadius,
			Life:      s.Life,
			Immovable: s.Immovable,
			Touching:  s.Touching,
		})
	})
	return snap
}
