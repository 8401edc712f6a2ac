package db

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/stride.report/internal/serialmux"
)

// ErrSessionNotFound is returned when a capture session ID is unknown.
var ErrSessionNotFound = errors.New("capture session not found")

// Session is one continuous recording of raw sensor samples.
type Session struct {
	ID        string     `json:"session_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Axis      string     `json:"axis"`
	Note      string     `json:"note"`
	Samples   int64      `json:"samples"`
}

// CreateSession starts a new capture session and returns it.
func (db *DB) CreateSession(axis, note string) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Axis:      axis,
		Note:      note,
	}
	_, err := db.Exec(
		`INSERT INTO capture_sessions (session_id, started_at, axis, note) VALUES (?, ?, ?, ?)`,
		s.ID, s.StartedAt.UnixNano(), s.Axis, s.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// EndSession records the end time of a session.
func (db *DB) EndSession(id string) error {
	res, err := db.Exec(`UPDATE capture_sessions SET ended_at = ? WHERE session_id = ?`, time.Now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// RecordSample inserts one raw sample into a session.
func (db *DB) RecordSample(sessionID string, s serialmux.RawSample) error {
	_, err := db.Exec(
		`INSERT INTO capture_samples (session_id, timestamp_nanos, x, y, z) VALUES (?, ?, ?, ?, ?)`,
		sessionID, s.TimestampNanos, s.X, s.Y, s.Z,
	)
	return err
}

// RecordSamples inserts a batch of samples in one transaction.
func (db *DB) RecordSamples(sessionID string, samples []serialmux.RawSample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO capture_samples (session_id, timestamp_nanos, x, y, z) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, s := range samples {
		if _, err := stmt.Exec(sessionID, s.TimestampNanos, s.X, s.Y, s.Z); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert sample at %d: %w", s.TimestampNanos, err)
		}
	}
	return tx.Commit()
}

const sessionColumns = `s.session_id, s.started_at, s.ended_at, s.axis, s.note,
	(SELECT COUNT(*) FROM capture_samples c WHERE c.session_id = s.session_id)`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var (
		s       Session
		started int64
		ended   sql.NullInt64
	)
	if err := row.Scan(&s.ID, &started, &ended, &s.Axis, &s.Note, &s.Samples); err != nil {
		return nil, err
	}
	s.StartedAt = time.Unix(0, started).UTC()
	if ended.Valid {
		t := time.Unix(0, ended.Int64).UTC()
		s.EndedAt = &t
	}
	return &s, nil
}

// Sessions returns all capture sessions, newest first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(`SELECT ` + sessionColumns + ` FROM capture_sessions s ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Session returns a single capture session.
func (db *DB) Session(id string) (*Session, error) {
	s, err := scanSession(db.QueryRow(`SELECT `+sessionColumns+` FROM capture_sessions s WHERE s.session_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, err
}

// SessionSamples returns the samples of a session in timestamp order.
func (db *DB) SessionSamples(id string) ([]serialmux.RawSample, error) {
	if _, err := db.Session(id); err != nil {
		return nil, err
	}
	rows, err := db.Query(
		`SELECT timestamp_nanos, x, y, z FROM capture_samples WHERE session_id = ? ORDER BY timestamp_nanos, rowid`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []serialmux.RawSample
	for rows.Next() {
		var s serialmux.RawSample
		if err := rows.Scan(&s.TimestampNanos, &s.X, &s.Y, &s.Z); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its samples.
func (db *DB) DeleteSession(id string) error {
	res, err := db.Exec(`DELETE FROM capture_sessions WHERE session_id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// DefaultBatchSize is the number of samples a Recorder buffers before
// writing them in one transaction; one second of data at 100Hz.
const DefaultBatchSize = 100

// Recorder buffers samples for a session and writes them in batches. It
// implements serialmux.SampleRecorder.
type Recorder struct {
	db        *DB
	sessionID string
	batchSize int

	mu      sync.Mutex
	pending []serialmux.RawSample
}

var _ serialmux.SampleRecorder = (*Recorder)(nil)

// NewRecorder returns a recorder writing into sessionID.
func (db *DB) NewRecorder(sessionID string, batchSize int) *Recorder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Recorder{db: db, sessionID: sessionID, batchSize: batchSize}
}

// SessionID returns the session being recorded.
func (r *Recorder) SessionID() string { return r.sessionID }

// RecordSample buffers s and flushes when the batch is full.
func (r *Recorder) RecordSample(s serialmux.RawSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, s)
	if len(r.pending) < r.batchSize {
		return nil
	}
	return r.flushLocked()
}

// Flush writes any buffered samples.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	batch := r.pending
	r.pending = nil
	if err := r.db.RecordSamples(r.sessionID, batch); err != nil {
		return fmt.Errorf("flush %d samples: %w", len(batch), err)
	}
	return nil
}

// Close flushes buffered samples and marks the session ended.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}
	return r.db.EndSession(r.sessionID)
}
