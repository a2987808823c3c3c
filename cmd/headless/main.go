// =============================================================================
// SPRITE WORLD - HEADLESS RUNNER
// =============================================================================
// This standalone process runs the simulation without any server:
// - Seeds a reproducible population of bouncing sprites
// - Steps the world a fixed number of times as fast as possible
// - Prints collision statistics at the end
//
// Useful for profiling the collision pipeline and for checking that a
// given seed produces identical results across runs.
//
// USAGE:
//
//	go run ./cmd/headless -steps 1000 -sprites 200 -seed 42
//
// =============================================================================
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"spriteworld/internal/config"
	"spriteworld/internal/geom"
	"spriteworld/internal/world"
)

func main() {
	steps := flag.Int("steps", 1000, "number of simulation steps to run")
	sprites := flag.Int("sprites", 200, "number of sprites to seed")
	seed := flag.Int64("seed", 42, "seed for the initial sprite layout")
	size := flag.Float64("size", 16, "sprite width and height")
	speed := flag.Float64("speed", 120, "maximum initial speed per axis")
	useIndex := flag.Bool("index", false, "enable the quadtree broad phase")
	flag.Parse()

	simCfg := config.SimFromEnv()
	if *useIndex {
		simCfg.UseSpatialIndex = true
	}
	if *sprites > simCfg.MaxSprites {
		simCfg.MaxSprites = *sprites
	}

	wld := world.NewWorld(world.Config{
		Bounds: geom.Rect{
			Center: geom.Vec2{X: simCfg.WorldWidth / 2, Y: simCfg.WorldHeight / 2},
			HalfW:  simCfg.WorldWidth / 2,
			HalfH:  simCfg.WorldHeight / 2,
		},
		UseSpatialIndex: simCfg.UseSpatialIndex,
		QuadCapacity:    simCfg.QuadCapacity,
		QuadMaxDepth:    simCfg.QuadMaxDepth,
		MaxSprites:      simCfg.MaxSprites,
	})

	rng := rand.New(rand.NewSource(*seed))
	b := wld.Bounds()
	for i := 0; i < *sprites; i++ {
		pos := geom.Vec2{
			X: b.Center.X + (rng.Float64()*2-1)*(b.HalfW-*size),
			Y: b.Center.Y + (rng.Float64()*2-1)*(b.HalfH-*size),
		}
		s, err := wld.NewSprite(fmt.Sprintf("sprite-%d", i), pos, *size, *size)
		if err != nil {
			log.Fatalf("seeding sprite %d: %v", i, err)
		}
		s.Vel = geom.Vec2{
			X: (rng.Float64()*2 - 1) * *speed,
			Y: (rng.Float64()*2 - 1) * *speed,
		}
		s.BounceOffEdges = true
		if i%3 == 0 {
			if err := s.UseCircleCollider(*size / 2); err != nil {
				log.Fatalf("seeding sprite %d: %v", i, err)
			}
		}
	}

	engine := world.NewEngine(wld, simCfg.TickRate)

	var totalCandidates, totalCollisions int
	engine.OnStep = func(stats world.StepStats, _ time.Duration) {
		totalCandidates += stats.CandidatePairs
		totalCollisions += stats.Collisions
	}

	log.Printf("🎮 Running %d steps with %d sprites (seed %d, index %v)",
		*steps, *sprites, *seed, simCfg.UseSpatialIndex)

	start := time.Now()
	for i := 0; i < *steps; i++ {
		engine.Tick()
	}
	elapsed := time.Since(start)

	snap := engine.Snapshot()
	perStep := elapsed / time.Duration(*steps)

	log.Printf("✅ Done in %v (%v/step)", elapsed.Round(time.Millisecond), perStep)
	log.Printf("   steps:           %d", snap.Step)
	log.Printf("   live sprites:    %d", len(snap.Sprites))
	log.Printf("   candidate pairs: %d", totalCandidates)
	log.Printf("   collisions:      %d", totalCollisions)
	if simCfg.UseSpatialIndex {
		is := wld.IndexStats()
		log.Printf("   quadtree: %d nodes, depth %d, largest leaf %d",
			is.Nodes, is.MaxDepth, is.MaxLeaf)
	}
}
