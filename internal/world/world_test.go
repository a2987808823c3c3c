package world

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"spriteworld/internal/geom"
)

// TestWorld_TwoStepCollision drives the full pipeline: a moving box
// closes on a resting one over two steps, collides on the second, and
// both position correction and velocity exchange land.
func TestWorld_TwoStepCollision(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a, err := w.NewSprite("a", geom.Vec2{X: 0, Y: 0}, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := w.NewSprite("b", geom.Vec2{X: 12, Y: 0}, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	a.Vel = geom.Vec2{X: 5, Y: 0}

	w.Step()
	hit, err := w.Collide(w.All(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Fatal("collision fired a step early")
	}
	if a.Pos.X != 5 {
		t.Fatalf("a at %v after first step", a.Pos)
	}

	w.Step()
	var cbA, cbB *Sprite
	var cbSep geom.Vec2
	hit, err = w.Collide(w.All(), nil, func(x, y *Sprite, sep geom.Vec2) {
		cbA, cbB, cbSep = x, y, sep
	})
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("collision not detected on second step")
	}
	if cbA != a || cbB != b {
		t.Errorf("callback pair = (%v, %v)", cbA.Name, cbB.Name)
	}
	if (cbSep != geom.Vec2{X: -2, Y: 0}) {
		t.Errorf("separation = %v, want (-2, 0)", cbSep)
	}
	// Equal masses split the 2-unit overlap evenly.
	if a.Pos.X != 9 || b.Pos.X != 13 {
		t.Errorf("positions after resolve: a %v, b %v", a.Pos, b.Pos)
	}
	// Elastic exchange: the mover stops, the rester takes its speed.
	if math.Abs(a.Vel.X) > 1e-9 || math.Abs(b.Vel.X-5) > 1e-9 {
		t.Errorf("velocities after resolve: a %v, b %v", a.Vel, b.Vel)
	}
	if !a.Touching.Right || !b.Touching.Left {
		t.Errorf("contact flags: a %+v, b %+v", a.Touching, b.Touching)
	}
}

// TestWorld_NilPrimaryGroupRejected pins the unsupported pairing error.
func TestWorld_NilPrimaryGroupRejected(t *testing.T) {
	w := NewWorld(DefaultConfig())
	for _, op := range []func(*Group, *Group, PairHandler) (bool, error){
		w.Overlap, w.Collide, w.Displace, w.Bounce,
	} {
		if _, err := op(nil, w.All(), nil); !errors.Is(err, ErrUnsupportedPairing) {
			t.Errorf("nil primary group: got %v, want ErrUnsupportedPairing", err)
		}
	}
}

// TestWorld_OverlapDoesNotMutate confirms the detection-only query
// leaves positions, velocities and contact flags untouched.
func TestWorld_OverlapDoesNotMutate(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a, _ := w.NewSprite("a", geom.Vec2{X: 10, Y: 0}, 4, 4)
	b, _ := w.NewSprite("b", geom.Vec2{X: 12, Y: 0}, 4, 4)
	a.Vel = geom.Vec2{X: 1, Y: 0}

	hit, err := w.Overlap(w.All(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("overlap not detected")
	}
	if a.Pos.X != 10 || b.Pos.X != 12 || a.Vel.X != 1 {
		t.Error("overlap query mutated sprite state")
	}
}

// TestWorld_DisplaceSkipsVelocity: positions separate but velocities
// pass through unchanged.
func TestWorld_DisplaceSkipsVelocity(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a, _ := w.NewSprite("a", geom.Vec2{X: 10, Y: 0}, 4, 4)
	b, _ := w.NewSprite("b", geom.Vec2{X: 12, Y: 0}, 4, 4)
	a.Vel = geom.Vec2{X: 3, Y: 0}

	hit, err := w.Displace(w.All(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("overlap not detected")
	}
	if a.Collider().Overlaps(b.Collider()) {
		t.Error("pair still overlapping after displace")
	}
	if a.Vel.X != 3 || b.Vel.X != 0 {
		t.Errorf("displace changed velocities: a %v, b %v", a.Vel, b.Vel)
	}
}

// TestWorld_CrossGroupPairsVisitedOnce checks cross-group semantics:
// one callback per qualifying pair, no self-pairs for sprites present
// in both groups.
func TestWorld_CrossGroupPairsVisitedOnce(t *testing.T) {
	w := NewWorld(DefaultConfig())
	players := w.NewGroup("players")
	walls := w.NewGroup("walls")

	p, _ := w.NewSprite("p", geom.Vec2{X: 0, Y: 0}, 4, 4)
	players.Add(p)

	wall1, _ := w.NewSprite("wall1", geom.Vec2{X: 1, Y: 0}, 4, 4)
	wall2, _ := w.NewSprite("wall2", geom.Vec2{X: -1, Y: 0}, 4, 4)
	walls.Add(wall1)
	walls.Add(wall2)

	// A sprite in both groups must never pair with itself.
	both, _ := w.NewSprite("both", geom.Vec2{X: 0, Y: 1}, 4, 4)
	players.Add(both)
	walls.Add(both)

	counts := map[[2]uint32]int{}
	if _, err := w.Overlap(players, walls, func(a, b *Sprite, _ geom.Vec2) {
		counts[[2]uint32{a.ID, b.ID}]++
	}); err != nil {
		t.Fatal(err)
	}
	for pair, n := range counts {
		if n != 1 {
			t.Errorf("pair %v visited %d times", pair, n)
		}
		if pair[0] == pair[1] {
			t.Errorf("self-pair %v emitted", pair)
		}
	}
	// p-wall1, p-wall2, p-both, both-wall1, both-wall2.
	if len(counts) != 5 {
		t.Errorf("visited %d pairs, want 5: %v", len(counts), counts)
	}
}

// TestWorld_IndexParity requires identical overlap detection with the
// quadtree on and off, across random sprite layouts.
func TestWorld_IndexParity(t *testing.T) {
	build := func(useIndex bool) (*World, map[uint64]struct{}) {
		cfg := DefaultConfig()
		cfg.UseSpatialIndex = useIndex
		w := NewWorld(cfg)
		rng := rand.New(rand.NewSource(99))
		for i := 0; i < 120; i++ {
			pos := geom.Vec2{X: rng.Float64() * 1280, Y: rng.Float64() * 720}
			s, err := w.NewSprite("s", pos, 10+rng.Float64()*50, 10+rng.Float64()*50)
			if err != nil {
				t.Fatal(err)
			}
			if i%3 == 0 {
				if err := s.UseCircleCollider(5 + rng.Float64()*25); err != nil {
					t.Fatal(err)
				}
			}
		}
		// Detection must not depend on sprites staying inside the world
		// bounds: one straddling each edge, one fully beyond it.
		beyond := []geom.Vec2{
			{X: -10, Y: 360}, {X: -70, Y: 360},
			{X: 1290, Y: 360}, {X: 1350, Y: 360},
			{X: 640, Y: -10}, {X: 640, Y: -70},
			{X: 640, Y: 730}, {X: 640, Y: 790},
		}
		for _, pos := range beyond {
			if _, err := w.NewSprite("s", pos, 80, 80); err != nil {
				t.Fatal(err)
			}
		}
		found := map[uint64]struct{}{}
		if _, err := w.Overlap(w.All(), nil, func(a, b *Sprite, _ geom.Vec2) {
			found[pairIDKey(a.ID, b.ID)] = struct{}{}
		}); err != nil {
			t.Fatal(err)
		}
		return w, found
	}

	_, exhaustive := build(false)
	_, indexed := build(true)

	if len(exhaustive) == 0 {
		t.Fatal("test layout produced no overlaps")
	}
	for key := range exhaustive {
		if _, ok := indexed[key]; !ok {
			t.Errorf("indexed run missed pair %x", key)
		}
	}
	for key := range indexed {
		if _, ok := exhaustive[key]; !ok {
			t.Errorf("indexed run invented pair %x", key)
		}
	}
}

// TestWorld_IndexedOverlapBeyondBounds pins the minimal case: a sprite
// straddling the world edge overlapping one fully beyond it must be
// detected with the spatial index enabled, same as without.
func TestWorld_IndexedOverlapBeyondBounds(t *testing.T) {
	for _, useIndex := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.UseSpatialIndex = useIndex
		w := NewWorld(cfg)

		straddler, err := w.NewSprite("straddler", geom.Vec2{X: -10, Y: 100}, 60, 60)
		if err != nil {
			t.Fatal(err)
		}
		drifter, err := w.NewSprite("drifter", geom.Vec2{X: -60, Y: 100}, 60, 60)
		if err != nil {
			t.Fatal(err)
		}

		hit, err := w.Overlap(w.All(), nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !hit {
			t.Errorf("useIndex=%v: overlap between %s and %s not detected", useIndex, straddler.Name, drifter.Name)
		}
	}
}

// TestWorld_SpriteAtPicksTopmost verifies the point hit test honors
// Depth, later insertion winning ties, and skips removed sprites.
func TestWorld_SpriteAtPicksTopmost(t *testing.T) {
	w := NewWorld(DefaultConfig())
	bottom, _ := w.NewSprite("bottom", geom.Vec2{X: 10, Y: 10}, 10, 10)
	top, _ := w.NewSprite("top", geom.Vec2{X: 10, Y: 10}, 10, 10)
	top.Depth = 5

	if got := w.SpriteAt(geom.Vec2{X: 10, Y: 10}); got != top {
		t.Errorf("SpriteAt = %v, want top", got.Name)
	}

	later, _ := w.NewSprite("later", geom.Vec2{X: 10, Y: 10}, 10, 10)
	later.Depth = 5
	if got := w.SpriteAt(geom.Vec2{X: 10, Y: 10}); got != later {
		t.Errorf("SpriteAt tie = %v, want later insertion", got.Name)
	}

	w.Remove(later)
	w.Remove(top)
	if got := w.SpriteAt(geom.Vec2{X: 10, Y: 10}); got != bottom {
		t.Errorf("SpriteAt after removals = %v, want bottom", got)
	}

	if got := w.SpriteAt(geom.Vec2{X: 500, Y: 500}); got != nil {
		t.Errorf("SpriteAt empty space = %v, want nil", got.Name)
	}
	_ = bottom
}

// TestWorld_RemovedSpritesExcluded: removed sprites drop out of queries
// immediately and out of backing lists after Compact.
func TestWorld_RemovedSpritesExcluded(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a, _ := w.NewSprite("a", geom.Vec2{X: 10, Y: 0}, 4, 4)
	b, _ := w.NewSprite("b", geom.Vec2{X: 12, Y: 0}, 4, 4)

	w.Remove(b)
	hit, err := w.Overlap(w.All(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("removed sprite still collides")
	}

	if w.All().Len() != 2 {
		t.Fatalf("backing length = %d before compact", w.All().Len())
	}
	w.Compact()
	if w.All().Len() != 1 || w.All().Alive() != 1 {
		t.Errorf("after compact: len %d alive %d", w.All().Len(), w.All().Alive())
	}
	if b.InGroup(w.All()) {
		t.Error("compacted sprite kept its group back-reference")
	}
	_ = a
}

// TestWorld_LifeExpiryRemovesDuringStep wires the per-step countdown
// into the world loop.
func TestWorld_LifeExpiryRemovesDuringStep(t *testing.T) {
	w := NewWorld(DefaultConfig())
	s, _ := w.NewSprite("fading", geom.Vec2{X: 10, Y: 10}, 4, 4)
	s.Life = 3

	for i := 0; i < 2; i++ {
		w.Step()
		if s.Removed() {
			t.Fatalf("removed after %d steps", i+1)
		}
	}
	w.Step()
	if !s.Removed() {
		t.Error("sprite survived past its life")
	}
	if w.All().Alive() != 0 {
		t.Errorf("alive count = %d after expiry", w.All().Alive())
	}
}

// TestWorld_SpriteCapEnforced checks ErrWorldFull and that removal
// frees capacity.
func TestWorld_SpriteCapEnforced(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSprites = 2
	w := NewWorld(cfg)

	s1, err := w.NewSprite("one", geom.Vec2{}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.NewSprite("two", geom.Vec2{}, 2, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := w.NewSprite("three", geom.Vec2{}, 2, 2); !errors.Is(err, ErrWorldFull) {
		t.Errorf("over cap: got %v, want ErrWorldFull", err)
	}

	w.Remove(s1)
	if _, err := w.NewSprite("four", geom.Vec2{}, 2, 2); err != nil {
		t.Errorf("after removal: %v", err)
	}
}

// TestWorld_StatsCountCandidatesAndCollisions sanity checks the
// per-step counters the observability layer exports.
func TestWorld_StatsCountCandidatesAndCollisions(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.NewSprite("a", geom.Vec2{X: 10, Y: 0}, 4, 4)
	w.NewSprite("b", geom.Vec2{X: 12, Y: 0}, 4, 4)
	w.NewSprite("far", geom.Vec2{X: 500, Y: 500}, 4, 4)

	w.Step()
	if _, err := w.Collide(w.All(), nil, nil); err != nil {
		t.Fatal(err)
	}

	stats := w.Stats()
	if stats.Sprites != 3 {
		t.Errorf("sprites = %d, want 3", stats.Sprites)
	}
	if stats.CandidatePairs != 3 {
		t.Errorf("candidate pairs = %d, want 3", stats.CandidatePairs)
	}
	if stats.Collisions != 1 {
		t.Errorf("collisions = %d, want 1", stats.Collisions)
	}
	if stats.Step != 1 {
		t.Errorf("step = %d, want 1", stats.Step)
	}
}
