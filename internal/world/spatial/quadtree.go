// Package spatial provides the quadtree used for broad-phase candidate
// pruning. Items are stored by interface reference with integer IDs so
// pair deduplication stays allocation-light.
//
// The tree is rebuilt from scratch every simulation step: Clear keeps
// node capacity, Insert refills. Compared to an incrementally updated
// structure this trades a little per-step work for a structure that can
// never drift out of sync with sprite positions.
package spatial

import "spriteworld/internal/geom"

const (
	// DefaultCapacity is the number of items a node holds before it
	// subdivides into four children.
	DefaultCapacity = 4

	// DefaultMaxDepth bounds recursion. Subdivision only triggers above
	// the capacity threshold, which bounds depth naturally for spread
	// out items, but coincident clusters would otherwise recurse
	// forever; past this depth a leaf just grows.
	DefaultMaxDepth = 8
)

// Item is anything the tree can index. Bounds may be a swept bound;
// the tree only ever treats it as an opaque AABB.
type Item interface {
	BroadphaseBounds() geom.Rect
	SpatialID() uint32
}

// Pair is an unordered candidate pair emitted by the broad phase.
type Pair struct {
	A, B Item
}

// Quadtree recursively partitions a rectangular region into quadrants.
// An item is stored in every leaf whose region its bounds intersect, so
// straddlers are duplicated across children. That guarantees no missed
// candidate pair at the cost of duplicate emission, which Pairs and
// Query suppress with a visited set.
type Quadtree struct {
	root     node
	capacity int
	maxDepth int

	// fringe holds items whose bounds are not fully contained in the
	// region: straddlers (also present in boundary leaves) and items
	// entirely outside (present nowhere else). The part of their bounds
	// beyond the region is invisible to the node walk, so Query and
	// Pairs scan this list explicitly.
	fringe []Item

	// Scratch state reused across queries to avoid per-call allocation.
	seenIDs   map[uint32]struct{}
	seenPairs map[uint64]struct{}
	itemBuf   []Item
}

type node struct {
	bounds   geom.Rect
	depth    int
	items    []Item
	children []node // nil until subdivided, then exactly 4
}

// New creates a quadtree over the given region. capacity and maxDepth
// fall back to the defaults when zero or negative.
func New(bounds geom.Rect, capacity, maxDepth int) *Quadtree {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Quadtree{
		root:      node{bounds: bounds},
		capacity:  capacity,
		maxDepth:  maxDepth,
		seenIDs:   make(map[uint32]struct{}, 64),
		seenPairs: make(map[uint64]struct{}, 64),
	}
}

// Bounds returns the region the tree covers.
func (q *Quadtree) Bounds() geom.Rect {
	return q.root.bounds
}

// Clear empties the tree and collapses all subdivisions. The item
// slices keep their capacity for the next rebuild.
func (q *Quadtree) Clear() {
	q.root.items = q.root.items[:0]
	q.root.children = nil
	q.fringe = q.fringe[:0]
}

// Insert adds an item to every leaf its bounds intersect. An item not
// fully contained in the region also joins the fringe list; one with
// no region overlap at all lives only there, so it survives
// subdivision and is never lost.
func (q *Quadtree) Insert(item Item) {
	bounds := item.BroadphaseBounds()
	if !q.root.bounds.ContainsRect(bounds) {
		q.fringe = append(q.fringe, item)
		if !q.root.bounds.Intersects(bounds) {
			return
		}
	}
	q.insert(&q.root, item, bounds)
}

func (q *Quadtree) insert(n *node, item Item, bounds geom.Rect) {
	if n.children != nil {
		descended := false
		for i := range n.children {
			if n.children[i].bounds.Intersects(bounds) {
				q.insert(&n.children[i], item, bounds)
				descended = true
			}
		}
		if !descended {
			n.items = append(n.items, item)
		}
		return
	}

	n.items = append(n.items, item)

	if len(n.items) > q.capacity && n.depth < q.maxDepth {
		q.subdivide(n)
	}
}

// subdivide splits a leaf into four equal quadrants and pushes every
// held item down into each overlapping child. An item whose bounds
// intersect no child (possible only through float rounding at the
// quadrant seams) stays in the parent rather than being dropped.
func (q *Quadtree) subdivide(n *node) {
	hw := n.bounds.HalfW / 2
	hh := n.bounds.HalfH / 2
	cx := n.bounds.Center.X
	cy := n.bounds.Center.Y
	depth := n.depth + 1

	n.children = []node{
		{bounds: geom.Rect{Center: geom.Vec2{X: cx - hw, Y: cy - hh}, HalfW: hw, HalfH: hh}, depth: depth},
		{bounds: geom.Rect{Center: geom.Vec2{X: cx + hw, Y: cy - hh}, HalfW: hw, HalfH: hh}, depth: depth},
		{bounds: geom.Rect{Center: geom.Vec2{X: cx - hw, Y: cy + hh}, HalfW: hw, HalfH: hh}, depth: depth},
		{bounds: geom.Rect{Center: geom.Vec2{X: cx + hw, Y: cy + hh}, HalfW: hw, HalfH: hh}, depth: depth},
	}

	items := n.items
	n.items = nil
	for _, it := range items {
		bounds := it.BroadphaseBounds()
		moved := false
		for i := range n.children {
			if n.children[i].bounds.Intersects(bounds) {
				q.insert(&n.children[i], it, bounds)
				moved = true
			}
		}
		if !moved {
			n.items = append(n.items, it)
		}
	}
}

// Query appends to buf every item whose leaf region intersects the
// given bounds, deduplicated by spatial ID, and returns the extended
// slice. Candidates may still lie outside the bounds; callers perform
// the exact narrow-phase check.
func (q *Quadtree) Query(bounds geom.Rect, buf []Item) []Item {
	clear(q.seenIDs)
	buf = q.query(&q.root, bounds, buf)
	for _, it := range q.fringe {
		id := it.SpatialID()
		if _, dup := q.seenIDs[id]; dup {
			continue
		}
		q.seenIDs[id] = struct{}{}
		if it.BroadphaseBounds().Intersects(bounds) {
			buf = append(buf, it)
		}
	}
	return buf
}

func (q *Quadtree) query(n *node, bounds geom.Rect, buf []Item) []Item {
	if !n.bounds.Intersects(bounds) && n.depth > 0 {
		return buf
	}
	for _, it := range n.items {
		id := it.SpatialID()
		if _, dup := q.seenIDs[id]; dup {
			continue
		}
		q.seenIDs[id] = struct{}{}
		if it.BroadphaseBounds().Intersects(bounds) {
			buf = append(buf, it)
		}
	}
	for i := range n.children {
		buf = q.query(&n.children[i], bounds, buf)
	}
	return buf
}

// Pairs appends every candidate pair to buf and returns the extended
// slice. At every node it enumerates all pairs within that node's item
// list, then crosses items held at a subdivided node against its whole
// subtree; the visited set keyed by unordered ID pair suppresses the
// duplicates that arise from items present in multiple leaves. Fringe
// items are paired among themselves and against whatever the node walk
// finds for their bounds, so nothing escapes the broad phase. The
// emission order is deterministic given a deterministic insert order.
func (q *Quadtree) Pairs(buf []Pair) []Pair {
	clear(q.seenPairs)
	buf = q.pairs(&q.root, buf)

	for i := 0; i < len(q.fringe); i++ {
		for j := i + 1; j < len(q.fringe); j++ {
			buf = q.appendPair(buf, q.fringe[i], q.fringe[j])
		}
	}
	for _, a := range q.fringe {
		clear(q.seenIDs)
		q.itemBuf = q.query(&q.root, a.BroadphaseBounds(), q.itemBuf[:0])
		for _, b := range q.itemBuf {
			// Straddlers sit in leaves too, so the walk can return a
			// itself.
			if b.SpatialID() == a.SpatialID() {
				continue
			}
			buf = q.appendPair(buf, a, b)
		}
	}
	return buf
}

func (q *Quadtree) pairs(n *node, buf []Pair) []Pair {
	for i := 0; i < len(n.items); i++ {
		for j := i + 1; j < len(n.items); j++ {
			buf = q.appendPair(buf, n.items[i], n.items[j])
		}
	}
	for i := range n.children {
		if len(n.items) > 0 {
			buf = q.pairAgainstSubtree(&n.children[i], n.items, buf)
		}
		buf = q.pairs(&n.children[i], buf)
	}
	return buf
}

// pairAgainstSubtree crosses items retained at a subdivided node with
// every item below it. Retained items sit in no leaf, so the per-leaf
// enumeration alone would never pair them with their descendants.
func (q *Quadtree) pairAgainstSubtree(n *node, held []Item, buf []Pair) []Pair {
	for _, a := range held {
		for _, b := range n.items {
			buf = q.appendPair(buf, a, b)
		}
	}
	for i := range n.children {
		buf = q.pairAgainstSubtree(&n.children[i], held, buf)
	}
	return buf
}

func (q *Quadtree) appendPair(buf []Pair, a, b Item) []Pair {
	key := pairKey(a.SpatialID(), b.SpatialID())
	if _, dup := q.seenPairs[key]; dup {
		return buf
	}
	q.seenPairs[key] = struct{}{}
	return append(buf, Pair{A: a, B: b})
}

// pairKey packs two IDs into one deduplication key, order independent.
func pairKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// Stats describes tree shape for debugging and metrics.
type Stats struct {
	Nodes    int
	Leaves   int
	Items    int // item slots including duplicates
	MaxDepth int
	MaxLeaf  int // largest leaf item count
}

// CollectStats walks the tree and returns its current shape.
func (q *Quadtree) CollectStats() Stats {
	var s Stats
	q.root.collectStats(&s)
	s.Items += len(q.fringe)
	return s
}

func (n *node) collectStats(s *Stats) {
	s.Nodes++
	s.Items += len(n.items)
	if n.depth > s.MaxDepth {
		s.MaxDepth = n.depth
	}
	if n.children == nil {
		s.Leaves++
		if len(n.items) > s.MaxLeaf {
			s.MaxLeaf = len(n.items)
		}
		return
	}
	for i := range n.children {
		n.children[i].collectStats(s)
	}
}
