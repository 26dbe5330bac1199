// Package storage persists analyzed sessions in SQLite so captures can be
// replayed and metric history compared across sessions.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	grfnotes "grf-analyzer"
	"grf-analyzer/phase"
)

// Store wraps a SQLite database holding raw captures and their analysis.
type Store struct {
	db *sql.DB
}

// SessionSummary is the per-session row returned by ListSessions.
type SessionSummary struct {
	ID               string    `json:"id"`
	RecordedAt       time.Time `json:"recorded_at"`
	TestType         string    `json:"test_type"`
	SampleCount      int       `json:"sample_count"`
	DurationSeconds  float64   `json:"duration_seconds"`
	BodyweightN      float64   `json:"bodyweight_n"`
	BodyweightSource string    `json:"bodyweight_source"`
	Notes            string    `json:"notes"`
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	recorded_at INTEGER NOT NULL,
	test_type TEXT NOT NULL,
	sample_count INTEGER NOT NULL,
	duration_s REAL NOT NULL,
	bodyweight_n REAL NOT NULL,
	bodyweight_source TEXT NOT NULL,
	quality_json TEXT,
	warnings_json TEXT,
	notes TEXT
);
CREATE TABLE IF NOT EXISTS samples (
	session_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	ts_ms INTEGER NOT NULL,
	left_n REAL NOT NULL,
	right_n REAL NOT NULL,
	left_cop_x_mm REAL,
	left_cop_y_mm REAL,
	right_cop_x_mm REAL,
	right_cop_y_mm REAL,
	PRIMARY KEY (session_id, idx)
);
CREATE TABLE IF NOT EXISTS metrics (
	session_id TEXT NOT NULL,
	name TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (session_id, name)
);
CREATE TABLE IF NOT EXISTS phases (
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	phase TEXT NOT NULL,
	sample_index INTEGER NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// WAL keeps the live daemon's writes from blocking readers.
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession stores one capture with its analysis and returns the new
// session id. The whole write is one transaction.
func (s *Store) SaveSession(samples []grfnotes.ForceSample, analysis *grfnotes.Analysis) (string, error) {
	if analysis == nil {
		return "", fmt.Errorf("nil analysis")
	}

	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	qualityJSON, err := json.Marshal(analysis.Quality)
	if err != nil {
		return "", fmt.Errorf("marshal quality: %w", err)
	}
	warningsJSON, err := json.Marshal(analysis.Warnings)
	if err != nil {
		return "", fmt.Errorf("marshal warnings: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO sessions (id, recorded_at, test_type, sample_count, duration_s, bodyweight_n, bodyweight_source, quality_json, warnings_json, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, time.Now().UTC().UnixMilli(), analysis.TestType, analysis.SampleCount,
		analysis.DurationSeconds, analysis.BodyweightN, analysis.BodyweightSource,
		string(qualityJSON), string(warningsJSON), analysis.Notes)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO samples (session_id, idx, ts_ms, left_n, right_n, left_cop_x_mm, left_cop_y_mm, right_cop_x_mm, right_cop_y_mm)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for i, sm := range samples {
		_, err := stmt.Exec(id, i, sm.TimestampMillis, sm.LeftForce, sm.RightForce,
			nullable(sm.LeftCopX), nullable(sm.LeftCopY), nullable(sm.RightCopX), nullable(sm.RightCopY))
		if err != nil {
			return "", fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	mstmt, err := tx.Prepare(`INSERT INTO metrics (session_id, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer mstmt.Close()
	for name, value := range analysis.Metrics {
		if _, err := mstmt.Exec(id, name, value); err != nil {
			return "", fmt.Errorf("insert metric %s: %w", name, err)
		}
	}

	pstmt, err := tx.Prepare(`INSERT INTO phases (session_id, seq, phase, sample_index) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer pstmt.Close()
	for i, ev := range analysis.Phases {
		if _, err := pstmt.Exec(id, i, ev.Phase.String(), ev.SampleIndex); err != nil {
			return "", fmt.Errorf("insert phase %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ListSessions returns session summaries, newest first.
func (s *Store) ListSessions() ([]SessionSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, recorded_at, test_type, sample_count, duration_s, bodyweight_n, bodyweight_source, notes
		FROM sessions ORDER BY recorded_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var recordedAt int64
		if err := rows.Scan(&sum.ID, &recordedAt, &sum.TestType, &sum.SampleCount,
			&sum.DurationSeconds, &sum.BodyweightN, &sum.BodyweightSource, &sum.Notes); err != nil {
			return nil, err
		}
		sum.RecordedAt = time.UnixMilli(recordedAt).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// LoadSamples returns a session's raw capture in sample order, ready to be
// replayed through the analyzer.
func (s *Store) LoadSamples(sessionID string) ([]grfnotes.ForceSample, error) {
	rows, err := s.db.Query(`
		SELECT ts_ms, left_n, right_n, left_cop_x_mm, left_cop_y_mm, right_cop_x_mm, right_cop_y_mm
		FROM samples WHERE session_id = ? ORDER BY idx
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []grfnotes.ForceSample
	for rows.Next() {
		var sm grfnotes.ForceSample
		var lx, ly, rx, ry sql.NullFloat64
		if err := rows.Scan(&sm.TimestampMillis, &sm.LeftForce, &sm.RightForce, &lx, &ly, &rx, &ry); err != nil {
			return nil, err
		}
		sm.LeftCopX = fromNullable(lx)
		sm.LeftCopY = fromNullable(ly)
		sm.RightCopX = fromNullable(rx)
		sm.RightCopY = fromNullable(ry)
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("session %s has no samples", sessionID)
	}
	return out, nil
}

// LoadMetrics returns a session's metric map.
func (s *Store) LoadMetrics(sessionID string) (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT name, value FROM metrics WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

// LoadPhases returns a session's phase events in detection order.
func (s *Store) LoadPhases(sessionID string) ([]phase.Event, error) {
	rows, err := s.db.Query(`SELECT phase, sample_index FROM phases WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []phase.Event
	for rows.Next() {
		var name string
		var idx int
		if err := rows.Scan(&name, &idx); err != nil {
			return nil, err
		}
		p, err := phase.ParsePhase(name)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", sessionID, err)
		}
		out = append(out, phase.Event{SampleIndex: idx, Phase: p})
	}
	return out, rows.Err()
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
