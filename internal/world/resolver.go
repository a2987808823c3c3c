package world

import "spriteworld/internal/geom"

// Resolution describes what a resolve call did to the two sprites.
type Resolution struct {
	// Separation is the full minimal translation that separates a from b.
	Separation geom.Vec2
	// MovedA and MovedB are the positional corrections actually applied.
	MovedA geom.Vec2
	MovedB geom.Vec2
	// VelocityChanged reports whether the velocity exchange fired.
	VelocityChanged bool
}

// resolve applies positional and (optionally) velocity correction to an
// overlapping pair. separation is the nonzero minimal translation for a
// as computed by the narrow phase.
//
// Positional correction splits the separation proportionally to inverse
// mass: the heavier sprite moves less, an immovable sprite not at all.
// Two immovable sprites remain overlapping; that is an accepted
// limitation, not an error.
//
// The velocity response projects both velocities onto the separation
// normal and performs a mass- and restitution-weighted exchange of the
// closing component. Restitution 1 conserves kinetic energy along the
// normal, 0 cancels the closing component, above 1 amplifies it.
//
// Apart from mutating position, velocity and the touching flags of the
// two sprites this is a pure computation; it performs no I/O.
func resolve(a, b *Sprite, separation geom.Vec2, withVelocity bool) Resolution {
	res := Resolution{Separation: separation}
	if separation.IsZero() {
		return res
	}

	invA := a.invMass()
	invB := b.invMass()
	total := invA + invB

	if total > 0 {
		res.MovedA = separation.Scale(invA / total)
		res.MovedB = separation.Scale(-invB / total)
		a.Pos = a.Pos.Add(res.MovedA)
		b.Pos = b.Pos.Add(res.MovedB)
		a.rebuildCollider()
		b.rebuildCollider()
	}

	markTouching(a, b, separation)

	if withVelocity && total > 0 {
		normal := separation.Normalize()
		closing := a.Vel.Sub(b.Vel).Dot(normal)
		if closing < 0 {
			restitution := a.Restitution * b.Restitution
			impulse := -(1 + restitution) * closing / total
			a.Vel = a.Vel.Add(normal.Scale(impulse * invA))
			b.Vel = b.Vel.Sub(normal.Scale(impulse * invB))
			res.VelocityChanged = true
		}
	}

	return res
}

// markTouching sets the touching flags on both sprites from the sign of
// the separation vector. The flag names the side of contact: a sprite
// pushed toward negative X was hit on its right.
func markTouching(a, b *Sprite, separation geom.Vec2) {
	if separation.X < 0 {
		a.Touching.Right = true
		b.Touching.Left = true
	} else if separation.X > 0 {
		a.Touching.Left = true
		b.Touching.Right = true
	}
	if separation.Y < 0 {
		a.Touching.Bottom = true
		b.Touching.Top = true
	} else if separation.Y > 0 {
		a.Touching.Top = true
		b.Touching.Bottom = true
	}
}
