package world

import (
	"log"
	"sync"
	"time"
)

// Engine runs the simulation loop. The world itself is single threaded;
// the engine's mutex is the one fence between the ticker goroutine and
// API handlers, so acquire it around any Locked* call.
type Engine struct {
	mu    sync.RWMutex
	world *World

	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	// Event callbacks, invoked under the engine lock each tick.
	OnCollision PairHandler
	OnStep      func(stats StepStats, elapsed time.Duration)

	lastSnapshot WorldSnapshot
}

// NewEngine wraps a world in a fixed-rate loop.
func NewEngine(w *World, tickRate int) *Engine {
	if tickRate <= 0 {
		tickRate = 30
	}
	return &Engine{
		world:    w,
		tickRate: tickRate,
		stopChan: make(chan struct{}),
	}
}

// TickRate returns the configured ticks per second.
func (e *Engine) TickRate() int {
	return e.tickRate
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Start begins the simulation loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopChan = make(chan struct{})
	e.mu.Unlock()

	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.Tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Simulation started at %d TPS", e.tickRate)
}

// Stop halts the simulation loop. The world keeps its state and Start
// may be called again.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Simulation stopped")
}

// Tick advances the world one step: integrate, collide everything
// against everything, publish a snapshot. Exposed so the single-step
// API route and headless runs can drive a paused engine.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()

	e.world.Step()
	if _, err := e.world.Collide(e.world.All(), nil, e.OnCollision); err != nil {
		log.Printf("⚠️ collide pass failed: %v", err)
	}
	e.lastSnapshot = e.world.Snapshot()

	if e.OnStep != nil {
		e.OnStep(e.world.Stats(), time.Since(start))
	}
}

// Snapshot returns the state published by the most recent tick. Before
// the first tick it falls back to a live copy, so sprites created on a
// paused engine are visible immediately.
func (e *Engine) Snapshot() WorldSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastSnapshot.Sprites == nil {
		return e.world.Snapshot()
	}
	return e.lastSnapshot
}

// Locked runs fn with exclusive access to the world, for handlers that
// mutate sprites between ticks.
func (e *Engine) Locked(fn func(w *World)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.world)
}

// LockedRead runs fn with shared access to the world.
func (e *Engine) LockedRead(fn func(w *World)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.world)
}
