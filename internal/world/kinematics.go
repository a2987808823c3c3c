package world

import "spriteworld/internal/geom"

// step advances the sprite by one simulation step. The sequence is
// fixed; reordering it changes trajectories, and replay determinism
// depends on identical inputs producing identical positions:
//
//  1. update the swept collider from the current and about-to-be
//     reached position (skipped at zero velocity)
//  2. record the previous position
//  3. apply friction
//  4. clamp speed to MaxSpeed
//  5. integrate position
//  6. recompute the step delta
//  7. rebuild the exact collider at the new position
//
// worldBounds is the rectangle sprites with BounceOffEdges reflect off.
func (s *Sprite) step(worldBounds geom.Rect) {
	s.Touching = Touching{}

	if s.Life > 0 {
		s.Life--
		if s.Life == 0 {
			s.removed = true
			return
		}
	}

	if !s.Vel.IsZero() {
		s.swept.Update(s.Collider().Bounds(), s.Vel)
	} else {
		s.swept.Invalidate()
	}

	s.PrevPos = s.Pos

	if s.Friction > 0 {
		s.Vel = s.Vel.Scale(1 - s.Friction)
	}
	s.Vel = s.Vel.Clamp(s.MaxSpeed)

	s.Pos = s.Pos.Add(s.Vel)

	if s.BounceOffEdges {
		s.bounceOffEdges(worldBounds)
	}

	s.Delta = s.Pos.Sub(s.PrevPos)

	s.rebuildCollider()
}

// bounceOffEdges reflects the sprite's position and velocity off the
// world rectangle, scaled by its restitution. The collider extents are
// taken from the declared size so the shape never pokes outside.
func (s *Sprite) bounceOffEdges(bounds geom.Rect) {
	if bounds.IsZero() {
		return
	}
	half := s.Collider().Bounds()

	minX := bounds.MinX() + half.HalfW
	maxX := bounds.MaxX() - half.HalfW
	minY := bounds.MinY() + half.HalfH
	maxY := bounds.MaxY() - half.HalfH

	if s.Pos.X < minX {
		s.Pos.X = minX + (minX-s.Pos.X)*s.Restitution
		s.Vel.X = -s.Vel.X * s.Restitution
		s.Touching.Left = true
	} else if s.Pos.X > maxX {
		s.Pos.X = maxX - (s.Pos.X-maxX)*s.Restitution
		s.Vel.X = -s.Vel.X * s.Restitution
		s.Touching.Right = true
	}
	if s.Pos.Y < minY {
		s.Pos.Y = minY + (minY-s.Pos.Y)*s.Restitution
		s.Vel.Y = -s.Vel.Y * s.Restitution
		s.Touching.Top = true
	} else if s.Pos.Y > maxY {
		s.Pos.Y = maxY - (s.Pos.Y-maxY)*s.Restitution
		s.Vel.Y = -s.Vel.Y * s.Restitution
		s.Touching.Bottom = true
	}
}
