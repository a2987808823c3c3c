package world

import (
	"testing"
	"time"

	"spriteworld/internal/geom"
)

// TestEngine_TickAdvancesAndPublishes drives the engine manually: one
// tick steps the world, resolves collisions and publishes a snapshot.
func TestEngine_TickAdvancesAndPublishes(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a, _ := w.NewSprite("a", geom.Vec2{X: 10, Y: 10}, 4, 4)
	a.Vel = geom.Vec2{X: 1, Y: 0}

	e := NewEngine(w, 30)

	var statsSeen []StepStats
	e.OnStep = func(s StepStats, _ time.Duration) { statsSeen = append(statsSeen, s) }

	e.Tick()
	e.Tick()

	snap := e.Snapshot()
	if snap.Step != 2 {
		t.Errorf("snapshot step = %d, want 2", snap.Step)
	}
	if len(snap.Sprites) != 1 {
		t.Fatalf("snapshot sprites = %d, want 1", len(snap.Sprites))
	}
	if snap.Sprites[0].Pos.X != 12 {
		t.Errorf("snapshot position = %v, want X 12", snap.Sprites[0].Pos)
	}
	if len(statsSeen) != 2 || statsSeen[1].Step != 2 {
		t.Errorf("OnStep calls = %+v", statsSeen)
	}
}

// TestEngine_CollisionCallbackFires wires OnCollision through a tick.
func TestEngine_CollisionCallbackFires(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.NewSprite("a", geom.Vec2{X: 10, Y: 10}, 4, 4)
	w.NewSprite("b", geom.Vec2{X: 12, Y: 10}, 4, 4)

	e := NewEngine(w, 30)
	hits := 0
	e.OnCollision = func(_, _ *Sprite, _ geom.Vec2) { hits++ }

	e.Tick()
	if hits != 1 {
		t.Errorf("collision callbacks = %d, want 1", hits)
	}
}

// TestEngine_StartStop exercises the loop lifecycle, including double
// starts and stops.
func TestEngine_StartStop(t *testing.T) {
	w := NewWorld(DefaultConfig())
	s, _ := w.NewSprite("a", geom.Vec2{X: 100, Y: 100}, 4, 4)
	s.Vel = geom.Vec2{X: 1, Y: 0}

	e := NewEngine(w, 200)
	e.Start()
	e.Start() // idempotent
	if !e.Running() {
		t.Fatal("engine not running after Start")
	}

	deadline := time.After(2 * time.Second)
	for e.Snapshot().Step < 3 {
		select {
		case <-deadline:
			t.Fatal("engine made no progress")
		case <-time.After(10 * time.Millisecond):
		}
	}

	e.Stop()
	e.Stop() // idempotent
	if e.Running() {
		t.Fatal("engine still running after Stop")
	}

	// A paused engine still serves single steps.
	before := e.Snapshot().Step
	e.Tick()
	if e.Snapshot().Step != before+1 {
		t.Error("manual tick did not advance a stopped engine")
	}
}

// TestEngine_LockedMutations run between ticks without racing the loop.
func TestEngine_LockedMutations(t *testing.T) {
	w := NewWorld(DefaultConfig())
	e := NewEngine(w, 30)

	e.Locked(func(w *World) {
		if _, err := w.NewSprite("late", geom.Vec2{X: 5, Y: 5}, 2, 2); err != nil {
			t.Errorf("NewSprite under lock: %v", err)
		}
	})
	e.Tick()

	var alive int
	e.LockedRead(func(w *World) { alive = w.All().Alive() })
	if alive != 1 {
		t.Errorf("alive = %d, want 1", alive)
	}
}
