// Package recorder persists step statistics and collision events to
// SQLite from a background goroutine, so the simulation loop never
// blocks on disk.
package recorder

import (
	"database/sql"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"spriteworld/internal/config"
)

// StepRow is one recorded simulation step.
type StepRow struct {
	Step       uint64
	Sprites    int
	Candidates int
	Collisions int
	At         time.Time
}

// CollisionRow is one recorded collision between two sprites.
type CollisionRow struct {
	Step    uint64
	SpriteA uint32
	SpriteB uint32
	NameA   string
	NameB   string
	SepX    float64
	SepY    float64
	At      time.Time
}

// Summary aggregates what the recorder has on disk, served by the
// stats API route.
type Summary struct {
	Steps             int64   `json:"steps"`
	Collisions        int64   `json:"collisions"`
	CollisionsPerStep float64 `json:"collisionsPerStep"`
}

// Recorder owns the database and the async write pipeline. Track calls
// are non-blocking; when the queue is full events are dropped, which is
// preferable to stalling a tick.
type Recorder struct {
	conn *sql.DB

	steps      chan StepRow
	collisions chan CollisionRow
	stop       chan struct{}
	wg         sync.WaitGroup

	batchSize int

	mu      sync.Mutex
	dropped int64
}

// Open creates (or reopens) the database at cfg.Path, migrates the
// schema and starts the background writer.
func Open(cfg config.RecorderConfig) (*Recorder, error) {
	conn, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// WAL keeps readers (the stats route) off the writer's back.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	r := &Recorder{
		conn:       conn,
		steps:      make(chan StepRow, cfg.QueueSize),
		collisions: make(chan CollisionRow, cfg.QueueSize),
		stop:       make(chan struct{}),
		batchSize:  cfg.BatchSize,
	}
	if err := r.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	r.wg.Add(1)
	go r.writer()
	return r, nil
}

func (r *Recorder) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS steps (
		step INTEGER PRIMARY KEY,
		sprites INTEGER NOT NULL DEFAULT 0,
		candidates INTEGER NOT NULL DEFAULT 0,
		collisions INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS collisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		step INTEGER NOT NULL,
		sprite_a INTEGER NOT NULL,
		sprite_b INTEGER NOT NULL,
		name_a TEXT NOT NULL DEFAULT '',
		name_b TEXT NOT NULL DEFAULT '',
		sep_x REAL NOT NULL DEFAULT 0,
		sep_y REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_collisions_step ON collisions(step);
	CREATE INDEX IF NOT EXISTS idx_collisions_pair ON collisions(sprite_a, sprite_b);
	`
	_, err := r.conn.Exec(schema)
	if err != nil {
		log.Printf("recorder: migration error: %v", err)
	}
	return err
}

// TrackStep enqueues a step record without blocking.
func (r *Recorder) TrackStep(row StepRow) {
	if row.At.IsZero() {
		row.At = time.Now().UTC()
	}
	select {
	case r.steps <- row:
	default:
		r.noteDrop()
	}
}

// TrackCollision enqueues a collision record without blocking.
func (r *Recorder) TrackCollision(row CollisionRow) {
	if row.At.IsZero() {
		row.At = time.Now().UTC()
	}
	select {
	case r.collisions <- row:
	default:
		r.noteDrop()
	}
}

func (r *Recorder) noteDrop() {
	r.mu.Lock()
	r.dropped++
	r.mu.Unlock()
}

// Dropped returns how many events were discarded on queue overflow.
func (r *Recorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close stops the writer, flushes everything still queued and closes
// the database.
func (r *Recorder) Close() error {
	close(r.stop)
	r.wg.Wait()
	return r.conn.Close()
}

// writer batches queued rows and commits them in transactions, flushing
// on size or on a timer, whichever comes first.
func (r *Recorder) writer() {
	defer r.wg.Done()

	stepBatch := make([]StepRow, 0, r.batchSize)
	collBatch := make([]CollisionRow, 0, r.batchSize)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	flushAll := func() {
		if len(stepBatch) > 0 {
			r.flushSteps(stepBatch)
			stepBatch = stepBatch[:0]
		}
		if len(collBatch) > 0 {
			r.flushCollisions(collBatch)
			collBatch = collBatch[:0]
		}
	}

	for {
		select {
		case row := <-r.steps:
			stepBatch = append(stepBatch, row)
			if len(stepBatch) >= r.batchSize {
				r.flushSteps(stepBatch)
				stepBatch = stepBatch[:0]
			}
		case row := <-r.collisions:
			collBatch = append(collBatch, row)
			if len(collBatch) >= r.batchSize {
				r.flushCollisions(collBatch)
				collBatch = collBatch[:0]
			}
		case <-ticker.C:
			flushAll()
		case <-r.stop:
			// Drain whatever made it into the queues before the close.
			for {
				select {
				case row := <-r.steps:
					stepBatch = append(stepBatch, row)
					continue
				case row := <-r.collisions:
					collBatch = append(collBatch, row)
					continue
				default:
				}
				break
			}
			flushAll()
			return
		}
	}
}

func (r *Recorder) flushSteps(rows []StepRow) {
	tx, err := r.conn.Begin()
	if err != nil {
		log.Printf("recorder: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO steps (step, sprites, candidates, collisions, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("recorder: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row.Step, row.Sprites, row.Candidates, row.Collisions, row.At.Format(time.RFC3339)); err != nil {
			log.Printf("recorder: step insert error: %v", err)
		}
	}
	tx.Commit()
}

func (r *Recorder) flushCollisions(rows []CollisionRow) {
	tx, err := r.conn.Begin()
	if err != nil {
		log.Printf("recorder: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO collisions (step, sprite_a, sprite_b, name_a, name_b, sep_x, sep_y, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("recorder: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row.Step, row.SpriteA, row.SpriteB, row.NameA, row.NameB, row.SepX, row.SepY, row.At.Format(time.RFC3339)); err != nil {
			log.Printf("recorder: collision insert error: %v", err)
		}
	}
	tx.Commit()
}

// --- Query methods for the API ---

// Summarize returns totals over everything recorded so far.
func (r *Recorder) Summarize() (Summary, error) {
	var s Summary
	if err := r.conn.QueryRow("SELECT COUNT(*) FROM steps").Scan(&s.Steps); err != nil {
		return s, err
	}
	if err := r.conn.QueryRow("SELECT COUNT(*) FROM collisions").Scan(&s.Collisions); err != nil {
		return s, err
	}
	if s.Steps > 0 {
		s.CollisionsPerStep = float64(s.Collisions) / float64(s.Steps)
	}
	return s, nil
}

// RecentCollisions returns the latest recorded collisions, newest
// first.
func (r *Recorder) RecentCollisions(limit int) ([]CollisionRow, error) {
	rows, err := r.conn.Query(`
		SELECT step, sprite_a, sprite_b, name_a, name_b, sep_x, sep_y
		FROM collisions
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CollisionRow
	for rows.Next() {
		var c CollisionRow
		if err := rows.Scan(&c.Step, &c.SpriteA, &c.SpriteB, &c.NameA, &c.NameB, &c.SepX, &c.SepY); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// BusiestPairs returns the sprite pairs that collided most often.
func (r *Recorder) BusiestPairs(limit int) ([]PairCount, error) {
	rows, err := r.conn.Query(`
		SELECT sprite_a, sprite_b, name_a, name_b, COUNT(*) AS n
		FROM collisions
		GROUP BY sprite_a, sprite_b
		ORDER BY n DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PairCount
	for rows.Next() {
		var p PairCount
		if err := rows.Scan(&p.SpriteA, &p.SpriteB, &p.NameA, &p.NameB, &p.Count); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// PairCount is one row of the busiest-pairs report.
type PairCount struct {
	SpriteA uint32 `json:"spriteA"`
	SpriteB uint32 `json:"spriteB"`
	NameA   string `json:"nameA"`
	NameB   string `json:"nameB"`
	Count   int64  `json:"count"`
}

// Flush drains everything currently queued straight to disk. Intended
// for tests and the single-step route; the normal path relies on the
// batch thresholds and timer.
func (r *Recorder) Flush() {
	stepBatch := make([]StepRow, 0, r.batchSize)
	collBatch := make([]CollisionRow, 0, r.batchSize)
	for {
		select {
		case row := <-r.steps:
			stepBatch = append(stepBatch, row)
			continue
		case row := <-r.collisions:
			collBatch = append(collBatch, row)
			continue
		default:
		}
		break
	}
	if len(stepBatch) > 0 {
		r.flushSteps(stepBatch)
	}
	if len(collBatch) > 0 {
		r.flushCollisions(collBatch)
	}
}
