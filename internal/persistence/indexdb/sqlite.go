package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxeledit.ai/internal/sim/editor"
	"voxeledit.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary copy of the audit log. Writes are
// queued and applied by one goroutine; when the queue is full entries are
// dropped and counted, since the JSONL audit files stay the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan editor.AuditEntry
	wg   sync.WaitGroup
	once sync.Once

	// mu orders sends against close(ch).
	mu            sync.RWMutex
	closed        bool
	writtenAudits atomic.Uint64
	droppedAudits atomic.Uint64
	failedAudits  atomic.Uint64
}

type Stats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	WrittenTotal  uint64 `json:"written_total"`
	DropTotal     uint64 `json:"drop_total"`
	FailTotal     uint64 `json:"fail_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{db: db, ch: make(chan editor.AuditEntry, queue)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seq INTEGER NOT NULL,
			at TEXT NOT NULL,
			session TEXT NOT NULL,
			action TEXT NOT NULL,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			faces INTEGER NOT NULL,
			ok INTEGER NOT NULL,
			code TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_action ON audits(action, ok);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_session ON audits(session, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_chunk ON audits(cx, cz, cy);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the queue before closing the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteAudit(entry editor.AuditEntry) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		s.droppedAudits.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		WrittenTotal:  s.writtenAudits.Load(),
		DropTotal:     s.droppedAudits.Load(),
		FailTotal:     s.failedAudits.Load(),
	}
}

// RecordTuning stores the effective tuning so audit rows can be read
// against the limits that produced them.
func (s *SQLiteIndex) RecordTuning(t tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO meta(key,digest,value,updated_at) VALUES('tuning',?,?,?)`,
		hex.EncodeToString(sum[:]), string(b), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// CountAudits counts indexed entries; an empty action counts all of them.
func (s *SQLiteIndex) CountAudits(ctx context.Context, action string) (int, error) {
	var n int
	var err error
	if action == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audits`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audits WHERE action = ?`, action).Scan(&n)
	}
	return n, err
}

// AuditsInChunk returns entries that targeted chunk, oldest first.
func (s *SQLiteIndex) AuditsInChunk(ctx context.Context, chunk [3]int) ([]editor.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT raw_json FROM audits WHERE cx = ? AND cy = ? AND cz = ? ORDER BY id`,
		chunk[0], chunk[1], chunk[2])
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []editor.AuditEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e editor.AuditEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	const (
		commitEvery   = 1000
		commitMaxWait = time.Second
	)
	var (
		tx         *sql.Tx
		stmt       *sql.Stmt
		pending    uint64
		opCount    int
		lastCommit = time.Now()
	)
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.failedAudits.Add(pending)
		} else {
			s.writtenAudits.Add(pending)
		}
		tx, stmt = nil, nil
		pending, opCount = 0, 0
		lastCommit = time.Now()
	}

	for e := range s.ch {
		if tx == nil {
			txx, err := s.db.Begin()
			if err != nil {
				s.failedAudits.Add(1)
				continue
			}
			st, err := txx.Prepare(`INSERT INTO audits(seq,at,session,action,cx,cy,cz,x,y,z,faces,ok,code,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
			if err != nil {
				_ = txx.Rollback()
				s.failedAudits.Add(1)
				continue
			}
			tx, stmt = txx, st
		}

		raw, _ := json.Marshal(e)
		ok := 0
		if e.OK {
			ok = 1
		}
		if _, err := stmt.Exec(
			e.Seq, e.Time.UTC().Format(time.RFC3339Nano), e.Session, e.Action,
			e.Chunk[0], e.Chunk[1], e.Chunk[2], e.Pos[0], e.Pos[1], e.Pos[2],
			e.Faces, ok, e.Code, string(raw),
		); err != nil {
			s.failedAudits.Add(1)
		} else {
			pending++
		}
		opCount++

		// Commit on batch size, age, or an idle queue.
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}
