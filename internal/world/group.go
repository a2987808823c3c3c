package world

// Group is an ordered collection of sprites. Insertion order is
// preserved; it is not needed for correctness but keeps update and
// snapshot ordering deterministic.
//
// Groups own their forward membership list. A sprite holds non-owning
// back-references so removal bookkeeping stays O(groups-per-sprite).
type Group struct {
	name    string
	sprites []*Sprite
}

// NewGroup creates an empty named group.
func NewGroup(name string) *Group {
	return &Group{name: name}
}

// Name returns the group's label.
func (g *Group) Name() string {
	return g.name
}

// Add appends a sprite to the group. Adding a sprite twice is a no-op.
func (g *Group) Add(s *Sprite) {
	if s == nil || s.InGroup(g) {
		return
	}
	g.sprites = append(g.sprites, s)
	s.groups = append(s.groups, g)
}

// Len returns the number of sprites in the backing list, including
// removed sprites awaiting Compact.
func (g *Group) Len() int {
	return len(g.sprites)
}

// Alive returns the number of sprites not marked removed.
func (g *Group) Alive() int {
	n := 0
	for _, s := range g.sprites {
		if !s.removed {
			n++
		}
	}
	return n
}

// Each calls fn for every live sprite in insertion order. Removed
// sprites are skipped but stay in the backing list until Compact.
func (g *Group) Each(fn func(*Sprite)) {
	for _, s := range g.sprites {
		if !s.removed {
			fn(s)
		}
	}
}

// Sprites returns the backing slice. Callers must not mutate it.
func (g *Group) Sprites() []*Sprite {
	return g.sprites
}

// Compact excises removed sprites from the backing list and drops this
// group's back-reference from each excised sprite.
func (g *Group) Compact() {
	kept := g.sprites[:0]
	for _, s := range g.sprites {
		if s.removed {
			s.dropGroupRef(g)
			continue
		}
		kept = append(kept, s)
	}
	// Zero the tail so excised sprites become collectable.
	for i := len(kept); i < len(g.sprites); i++ {
		g.sprites[i] = nil
	}
	g.sprites = kept
}

func (s *Sprite) dropGroupRef(g *Group) {
	for i, ref := range s.groups {
		if ref == g {
			s.groups[i] = s.groups[len(s.groups)-1]
			s.groups = s.groups[:len(s.groups)-1]
			return
		}
	}
}
