package world

import (
	"errors"
	"fmt"

	"spriteworld/internal/geom"
	"spriteworld/internal/world/spatial"
)

// ErrUnsupportedPairing is returned when a group query is invoked with
// a nil primary group. Silently coercing would hide caller mistakes, so
// the boundary rejects it outright.
var ErrUnsupportedPairing = errors.New("world: group query requires a non-nil group")

// ErrWorldFull is returned when the sprite cap is reached.
var ErrWorldFull = errors.New("world: sprite limit reached")

// Config controls a World. The spatial index toggle lives here, passed
// in explicitly rather than read from ambient state, so the core stays
// testable without global setup.
type Config struct {
	// Bounds is the play area; sprites with BounceOffEdges reflect off
	// it and the quadtree partitions it.
	Bounds geom.Rect

	// UseSpatialIndex enables quadtree broad-phase pruning. Off by
	// default: with small sprite counts the O(n²) scan wins, and that
	// trade-off is the caller's to make.
	UseSpatialIndex bool

	QuadCapacity int // items per quadtree node before subdivision
	QuadMaxDepth int // hard recursion cap

	// MaxSprites caps the live sprite count. Zero or negative means the
	// default.
	MaxSprites int
}

// DefaultConfig returns a 1280x720 world with the index disabled.
func DefaultConfig() Config {
	return Config{
		Bounds:       geom.NewRect(geom.Vec2{X: 640, Y: 360}, 1280, 720),
		QuadCapacity: spatial.DefaultCapacity,
		QuadMaxDepth: spatial.DefaultMaxDepth,
		MaxSprites:   1000,
	}
}

// StepStats aggregates what one step and its queries did.
type StepStats struct {
	Step           uint64 `json:"step" msgpack:"s"`
	Sprites        int    `json:"sprites" msgpack:"n"`
	CandidatePairs int    `json:"candidatePairs" msgpack:"cp"`
	Collisions     int    `json:"collisions" msgpack:"c"`
}

// PairHandler is invoked once per qualifying pair. For collide/bounce
// queries separation is the resolved displacement for a; for overlap
// queries it is the displacement that would separate the pair.
type PairHandler func(a, b *Sprite, separation geom.Vec2)

// World owns the sprites, the global group and the optional quadtree.
// It is not safe for concurrent use; the engine serializes access.
type World struct {
	cfg    Config
	all    *Group
	groups []*Group

	index      *spatial.Quadtree
	indexDirty bool

	nextID    uint32
	stepCount uint64
	stats     StepStats

	// Scratch buffers reused across steps.
	pairBuf  []spatial.Pair
	itemBuf  []spatial.Item
	candBuf  []spritePair
	seenPair map[uint64]struct{}
}

type spritePair struct {
	a, b *Sprite
}

// NewWorld creates a world with the given configuration.
func NewWorld(cfg Config) *World {
	if cfg.QuadCapacity <= 0 {
		cfg.QuadCapacity = spatial.DefaultCapacity
	}
	if cfg.QuadMaxDepth <= 0 {
		cfg.QuadMaxDepth = spatial.DefaultMaxDepth
	}
	if cfg.MaxSprites <= 0 {
		cfg.MaxSprites = 1000
	}
	w := &World{
		cfg:      cfg,
		all:      NewGroup("all"),
		seenPair: make(map[uint64]struct{}, 64),
	}
	w.groups = append(w.groups, w.all)
	return w
}

// All returns the global group every sprite belongs to.
func (w *World) All() *Group {
	return w.all
}

// NewGroup creates a group tracked by the world so Compact sweeps it.
func (w *World) NewGroup(name string) *Group {
	g := NewGroup(name)
	w.groups = append(w.groups, g)
	return g
}

// NewSprite creates a sprite at pos with the given declared size and
// inserts it into the global group. Defaults: mass 1, restitution 1,
// scale 1, unlimited speed, immortal, box collider.
func (w *World) NewSprite(name string, pos geom.Vec2, width, height float64) (*Sprite, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: sprite size (%v, %v)", ErrInvalidShape, width, height)
	}
	if w.all.Alive() >= w.cfg.MaxSprites {
		return nil, ErrWorldFull
	}
	w.nextID++
	s := &Sprite{
		ID:          w.nextID,
		Name:        name,
		Pos:         pos,
		PrevPos:     pos,
		W:           width,
		H:           height,
		Scale:       1,
		Mass:        1,
		Restitution: 1,
		MaxSpeed:    -1,
		Life:        -1,
	}
	w.all.Add(s)
	w.indexDirty = true
	return s, nil
}

// Remove marks a sprite removed. It stays in group backing lists until
// Compact excises it; every operation skips it meanwhile.
func (w *World) Remove(s *Sprite) {
	if s == nil || s.removed {
		return
	}
	s.Remove()
	w.indexDirty = true
}

// Compact excises removed sprites from every tracked group.
func (w *World) Compact() {
	for _, g := range w.groups {
		g.Compact()
	}
}

// SetSpatialIndex toggles quadtree pruning at runtime.
func (w *World) SetSpatialIndex(enabled bool) {
	w.cfg.UseSpatialIndex = enabled
	w.indexDirty = true
}

// SpatialIndexEnabled reports whether quadtree pruning is active.
func (w *World) SpatialIndexEnabled() bool {
	return w.cfg.UseSpatialIndex
}

// Bounds returns the configured play area.
func (w *World) Bounds() geom.Rect {
	return w.cfg.Bounds
}

// StepCount returns the number of completed steps.
func (w *World) StepCount() uint64 {
	return w.stepCount
}

// Stats returns the counters accumulated since the last Step call.
func (w *World) Stats() StepStats {
	return w.stats
}

// Step integrates every live sprite, then rebuilds the spatial index if
// enabled. All integration completes before the index rebuild so that
// collision queries within the step observe a consistent snapshot.
func (w *World) Step() {
	w.stepCount++
	w.stats = StepStats{Step: w.stepCount}

	for _, s := range w.all.sprites {
		if s.removed {
			continue
		}
		s.step(w.cfg.Bounds)
		if !s.removed {
			w.stats.Sprites++
		}
	}

	if w.cfg.UseSpatialIndex {
		w.rebuildIndex()
	}
}

// rebuildIndex clears and refills the quadtree from the live sprites.
func (w *World) rebuildIndex() {
	if w.index == nil || w.index.Bounds() != w.cfg.Bounds {
		w.index = spatial.New(w.cfg.Bounds, w.cfg.QuadCapacity, w.cfg.QuadMaxDepth)
	}
	w.index.Clear()
	for _, s := range w.all.sprites {
		if !s.removed {
			w.index.Insert(s)
		}
	}
	w.indexDirty = false
}

// IndexStats returns the quadtree shape, or zero stats when inactive.
func (w *World) IndexStats() spatial.Stats {
	if !w.cfg.UseSpatialIndex || w.index == nil {
		return spatial.Stats{}
	}
	return w.index.CollectStats()
}

// ensureIndex rebuilds the index when sprites were added or removed
// since the last rebuild, so queries before the first Step still see
// every sprite.
func (w *World) ensureIndex() {
	if w.index == nil || w.indexDirty {
		w.rebuildIndex()
	}
}

// SpriteAt returns the topmost live sprite whose collider contains the
// given point, or nil. Topmost means highest Depth, latest insertion
// winning ties. This is the cursor hit test; it allocates nothing and
// does not consult the index (a single containment scan is cheap).
func (w *World) SpriteAt(p geom.Vec2) *Sprite {
	probe := NewPoint(p)
	var best *Sprite
	for _, s := range w.all.sprites {
		if s.removed {
			continue
		}
		if _, hit := probe.MinimumSeparation(s.Collider()); !hit {
			continue
		}
		if best == nil || s.Depth >= best.Depth {
			best = s
		}
	}
	return best
}

// Overlap reports whether any pair across the two groups overlaps,
// without resolving anything. A nil g2 checks g1 against itself,
// excluding self-pairs and visiting each unordered pair exactly once.
func (w *World) Overlap(g1, g2 *Group, cb PairHandler) (bool, error) {
	return w.queryPairs(g1, g2, cb, false, false)
}

// Collide detects overlapping pairs and applies full positional and
// velocity correction before invoking the callback.
func (w *World) Collide(g1, g2 *Group, cb PairHandler) (bool, error) {
	return w.queryPairs(g1, g2, cb, true, true)
}

// Displace applies positional correction only: pairs are pushed apart
// with no velocity response, for pure separation semantics.
func (w *World) Displace(g1, g2 *Group, cb PairHandler) (bool, error) {
	return w.queryPairs(g1, g2, cb, true, false)
}

// Bounce is Collide under the name that emphasizes the velocity
// response.
func (w *World) Bounce(g1, g2 *Group, cb PairHandler) (bool, error) {
	return w.Collide(g1, g2, cb)
}

// queryPairs runs the three-phase pipeline: candidate generation
// (quadtree or exhaustive), swept broad-phase rect test, then the
// exact narrow phase, resolving and dispatching callbacks per hit.
// Pairs are processed sequentially in generation order; with three or
// more mutually overlapping sprites the outcome is order dependent,
// and that order is the documented iteration order, not an arbitrary
// one.
func (w *World) queryPairs(g1, g2 *Group, cb PairHandler, resolvePos, resolveVel bool) (bool, error) {
	if g1 == nil {
		return false, ErrUnsupportedPairing
	}

	w.candBuf = w.collectCandidates(g1, g2, w.candBuf[:0])
	w.stats.CandidatePairs += len(w.candBuf)

	any := false
	for _, pair := range w.candBuf {
		a, b := pair.a, pair.b
		if a.removed || b.removed {
			continue
		}
		if !a.BroadphaseBounds().Intersects(b.BroadphaseBounds()) {
			continue
		}
		sep, ok := a.Collider().MinimumSeparation(b.Collider())
		if !ok {
			continue
		}
		any = true
		w.stats.Collisions++
		if resolvePos {
			resolve(a, b, sep, resolveVel)
		}
		if cb != nil {
			cb(a, b, sep)
		}
	}
	return any, nil
}

// collectCandidates emits each unordered candidate pair at most once.
func (w *World) collectCandidates(g1, g2 *Group, buf []spritePair) []spritePair {
	selfQuery := g2 == nil || g2 == g1

	if w.cfg.UseSpatialIndex {
		w.ensureIndex()
		if selfQuery {
			w.pairBuf = w.index.Pairs(w.pairBuf[:0])
			for _, p := range w.pairBuf {
				a, b := p.A.(*Sprite), p.B.(*Sprite)
				if a.removed || b.removed || !a.InGroup(g1) || !b.InGroup(g1) {
					continue
				}
				buf = append(buf, spritePair{a, b})
			}
			return buf
		}
		clear(w.seenPair)
		for _, a := range g1.sprites {
			if a.removed {
				continue
			}
			w.itemBuf = w.index.Query(a.BroadphaseBounds(), w.itemBuf[:0])
			for _, item := range w.itemBuf {
				b := item.(*Sprite)
				if b == a || b.removed || !b.InGroup(g2) {
					continue
				}
				key := pairIDKey(a.ID, b.ID)
				if _, dup := w.seenPair[key]; dup {
					continue
				}
				w.seenPair[key] = struct{}{}
				buf = append(buf, spritePair{a, b})
			}
		}
		return buf
	}

	if selfQuery {
		sprites := g1.sprites
		for i := 0; i < len(sprites); i++ {
			if sprites[i].removed {
				continue
			}
			for j := i + 1; j < len(sprites); j++ {
				if sprites[j].removed {
					continue
				}
				buf = append(buf, spritePair{sprites[i], sprites[j]})
			}
		}
		return buf
	}

	// Exhaustive cross-group scan. A sprite may belong to both groups,
	// so unordered deduplication is still required.
	clear(w.seenPair)
	for _, a := range g1.sprites {
		if a.removed {
			continue
		}
		for _, b := range g2.sprites {
			if b == a || b.removed {
				continue
			}
			key := pairIDKey(a.ID, b.ID)
			if _, dup := w.seenPair[key]; dup {
				continue
			}
			w.seenPair[key] = struct{}{}
			buf = append(buf, spritePair{a, b})
		}
	}
	return buf
}

// pairIDKey packs two sprite IDs into an order-independent key.
func pairIDKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}
