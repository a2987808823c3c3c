package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spriteworld/internal/api"
	"spriteworld/internal/config"
	"spriteworld/internal/geom"
	"spriteworld/internal/recorder"
	"spriteworld/internal/world"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  SPRITE WORLD - COLLISION CORE")
	log.Println("🎮 ================================")

	cfg := config.Load()
	simCfg := cfg.Sim

	log.Printf("🎮 Config: %d TPS, %gx%g world, %d sprite cap",
		simCfg.TickRate, simCfg.WorldWidth, simCfg.WorldHeight, simCfg.MaxSprites)
	if simCfg.UseSpatialIndex {
		log.Printf("🌳 Quadtree broad phase: capacity %d, max depth %d",
			simCfg.QuadCapacity, simCfg.QuadMaxDepth)
	} else {
		log.Println("🔍 Exhaustive broad phase (quadtree disabled)")
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

	engine := world.NewEngine(wld, simCfg.TickRate)

	// Collision recorder (optional)
	var rec *recorder.Recorder
	if cfg.Recorder.Enabled {
		var err error
		rec, err = recorder.Open(cfg.Recorder)
		if err != nil {
			log.Printf("⚠️ Recorder disabled: %v", err)
		} else {
			log.Printf("📝 Recording collisions to %s", cfg.Recorder.Path)
			defer rec.Close()
		}
	}

	// Step metrics and persistence
	engine.OnStep = func(stats world.StepStats, elapsed time.Duration) {
		api.RecordStep(elapsed, stats.Sprites, stats.CandidatePairs, stats.Collisions)
		if simCfg.UseSpatialIndex {
			api.UpdateQuadtreeDepth(wld.IndexStats().MaxDepth)
		}
		if rec != nil {
			rec.TrackStep(recorder.StepRow{
				Step:       stats.Step,
				Sprites:    stats.Sprites,
				Candidates: stats.CandidatePairs,
				Collisions: stats.Collisions,
				At:         time.Now(),
			})
		}
	}
	if rec != nil {
		engine.OnCollision = func(a, b *world.Sprite, sep geom.Vec2) {
			rec.TrackCollision(recorder.CollisionRow{
				Step:    wld.StepCount(),
				SpriteA: a.ID,
				SpriteB: b.ID,
				NameA:   a.Name,
				NameB:   b.Name,
				SepX:    sep.X,
				SepY:    sep.Y,
				At:      time.Now(),
			})
		}
	}

	// Debug server (pprof + metrics, localhost only)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		debugCfg := api.DefaultObservabilityConfig()
		debugCfg.ListenAddr = api.DebugAddr(cfg.Server.DebugPort)
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	// Admin auth for the mutating routes
	var auth *api.TokenAuth
	if cfg.Server.AdminPassword != "" {
		var err error
		auth, err = api.NewTokenAuth(cfg.Server)
		if err != nil {
			log.Fatalf("❌ Auth setup failed: %v", err)
		}
		log.Printf("🔐 Admin auth enabled for user %q", cfg.Server.AdminUser)
	} else {
		log.Println("⚠️ ADMIN_PASSWORD not set - mutating routes are OPEN")
	}

	var recIface api.RecorderInterface
	if rec != nil {
		recIface = rec
	}
	server := api.NewServer(engine, api.ServerOptions{
		Recorder: recIface,
		Auth:     auth,
	})

	engine.Start()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop()
	engine.Stop()
	log.Println("👋 Goodbye!")
}
