// eventlog/sqlite.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package eventlog

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mmp/sailpilot/log"
	"github.com/mmp/sailpilot/nav"
)

// DB records decision events in an SQLite database. Each process run is
// a separate session, identified by a random UUID.
type DB struct {
	db      *sql.DB
	insert  *sql.Stmt
	session string
	lg      *log.Logger
}

// Record is a decision event as read back from the database.
type Record struct {
	Session      string
	LoggedAt     time.Time
	Time         time.Duration
	MissionIndex int
	CommandState string
	Kind         string
	Reason       string
	Value        float32
	Value2       float32
}

func OpenDB(path string, lg *log.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS decision_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		logged_at DATETIME NOT NULL,
		time_ms INTEGER NOT NULL,
		mission_index INTEGER,
		command_state TEXT,
		kind TEXT,
		reason TEXT,
		value REAL,
		value2 REAL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	insert, err := db.Prepare(`INSERT INTO decision_events
		(session, logged_at, time_ms, mission_index, command_state, kind, reason, value, value2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	d := &DB{
		db:      db,
		insert:  insert,
		session: uuid.New().String(),
		lg:      lg,
	}
	lg.Info("event database opened", slog.String("path", path), slog.String("session", d.session))
	return d, nil
}

func (d *DB) Session() string {
	return d.session
}

func (d *DB) LogDecision(e nav.DecisionEvent) {
	_, err := d.insert.Exec(d.session, time.Now().UTC(), e.Time.Milliseconds(), e.MissionIndex,
		e.CommandState.String(), e.Kind.String(), e.Reason.String(), e.Value, e.Value2)
	if err != nil {
		d.lg.Error("unable to record decision event", slog.Any("event", e), slog.Any("error", err))
	}
}

// Events returns the events recorded for a session in the order they
// were logged.
func (d *DB) Events(session string) ([]Record, error) {
	rows, err := d.db.Query(`SELECT session, logged_at, time_ms, mission_index, command_state,
		kind, reason, value, value2 FROM decision_events WHERE session = ? ORDER BY id`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var r Record
		var ms int64
		if err := rows.Scan(&r.Session, &r.LoggedAt, &ms, &r.MissionIndex, &r.CommandState,
			&r.Kind, &r.Reason, &r.Value, &r.Value2); err != nil {
			return nil, err
		}
		r.Time = time.Duration(ms) * time.Millisecond
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Sessions returns every session in the database, oldest first.
func (d *DB) Sessions() ([]string, error) {
	rows, err := d.db.Query(`SELECT session FROM decision_events GROUP BY session ORDER BY MIN(id)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (d *DB) Close() error {
	d.insert.Close()
	return d.db.Close()
}
