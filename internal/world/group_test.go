package world

import (
	"testing"

	"spriteworld/internal/geom"
)

// TestGroup_AddIsIdempotent: re-adding a member and adding nil are both
// no-ops.
func TestGroup_AddIsIdempotent(t *testing.T) {
	w := NewWorld(DefaultConfig())
	g := w.NewGroup("team")
	s, _ := w.NewSprite("s", geom.Vec2{}, 2, 2)

	g.Add(s)
	g.Add(s)
	g.Add(nil)

	if g.Len() != 1 {
		t.Errorf("len = %d after duplicate adds, want 1", g.Len())
	}
	if !s.InGroup(g) {
		t.Error("sprite missing its back-reference")
	}
}

// TestGroup_EachSkipsRemoved but Len counts the backing slice.
func TestGroup_EachSkipsRemoved(t *testing.T) {
	w := NewWorld(DefaultConfig())
	g := w.NewGroup("team")
	a, _ := w.NewSprite("a", geom.Vec2{}, 2, 2)
	b, _ := w.NewSprite("b", geom.Vec2{}, 2, 2)
	g.Add(a)
	g.Add(b)

	b.Remove()

	visited := 0
	g.Each(func(s *Sprite) {
		if s == b {
			t.Error("visited a removed sprite")
		}
		visited++
	})
	if visited != 1 {
		t.Errorf("visited %d sprites, want 1", visited)
	}
	if g.Len() != 2 || g.Alive() != 1 {
		t.Errorf("len %d alive %d, want 2 and 1", g.Len(), g.Alive())
	}
}

// TestGroup_CompactExcisesAndUnlinks verifies removal bookkeeping in
// both directions: the group's backing slice and the sprite's
// back-references.
func TestGroup_CompactExcisesAndUnlinks(t *testing.T) {
	w := NewWorld(DefaultConfig())
	g := w.NewGroup("team")
	other := w.NewGroup("other")

	var keep []*Sprite
	for i := 0; i < 5; i++ {
		s, _ := w.NewSprite("s", geom.Vec2{X: float64(i)}, 2, 2)
		g.Add(s)
		if i%2 == 0 {
			s.Remove()
		} else {
			keep = append(keep, s)
			other.Add(s)
		}
	}

	g.Compact()

	if g.Len() != 2 {
		t.Fatalf("len = %d after compact, want 2", g.Len())
	}
	for _, s := range keep {
		if !s.InGroup(g) || !s.InGroup(other) {
			t.Errorf("surviving sprite lost a membership")
		}
	}
	// Compacting one group does not disturb another's memberships.
	if other.Len() != 2 {
		t.Errorf("other group len = %d, want 2", other.Len())
	}
}

// TestGroup_SelfQueryExcludesSelfPairs runs a three-sprite pileup and
// counts callbacks: each unordered pair once, never a sprite against
// itself.
func TestGroup_SelfQueryExcludesSelfPairs(t *testing.T) {
	w := NewWorld(DefaultConfig())
	g := w.NewGroup("pile")
	for i := 0; i < 3; i++ {
		s, err := w.NewSprite("s", geom.Vec2{X: float64(i), Y: 0}, 6, 6)
		if err != nil {
			t.Fatal(err)
		}
		g.Add(s)
	}

	counts := map[uint64]int{}
	if _, err := w.Overlap(g, nil, func(a, b *Sprite, _ geom.Vec2) {
		if a == b {
			t.Error("self-pair emitted")
		}
		counts[pairIDKey(a.ID, b.ID)]++
	}); err != nil {
		t.Fatal(err)
	}
	if len(counts) != 3 {
		t.Errorf("visited %d pairs, want 3", len(counts))
	}
	for key, n := range counts {
		if n != 1 {
			t.Errorf("pair %x visited %d times", key, n)
		}
	}
}

// TestGroup_ExplicitSelfArgumentMatchesNil: passing the group as both
// arguments behaves like the nil shorthand.
func TestGroup_ExplicitSelfArgumentMatchesNil(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a, _ := w.NewSprite("a", geom.Vec2{X: 10, Y: 0}, 4, 4)
	w.NewSprite("b", geom.Vec2{X: 12, Y: 0}, 4, 4)

	viaNil := 0
	if _, err := w.Overlap(w.All(), nil, func(_, _ *Sprite, _ geom.Vec2) { viaNil++ }); err != nil {
		t.Fatal(err)
	}
	viaSelf := 0
	if _, err := w.Overlap(w.All(), w.All(), func(_, _ *Sprite, _ geom.Vec2) { viaSelf++ }); err != nil {
		t.Fatal(err)
	}
	if viaNil != viaSelf || viaNil != 1 {
		t.Errorf("nil shorthand %d vs explicit self %d, want both 1", viaNil, viaSelf)
	}
	_ = a
}
