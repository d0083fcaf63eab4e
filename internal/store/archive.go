package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hdnguyen/bandexam/internal/model"

	_ "modernc.org/sqlite"
)

// Archive persists completed exam sessions to SQLite so results survive
// process restarts and can be exported for offline review. The in-memory
// SessionStore remains the system of record for live sessions; the archive
// only ever receives whole completed records.
type Archive struct {
	db *sql.DB
}

// NewArchive opens (and migrates) the archive database at dbPath.
func NewArchive(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return a, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS archived_sessions (
		session_id INTEGER PRIMARY KEY,
		level TEXT NOT NULL,
		selected_phase TEXT NOT NULL,
		overall_band REAL NOT NULL DEFAULT 0,
		record TEXT NOT NULL,
		archived_at DATETIME NOT NULL
	);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Save stores a completed session, replacing any earlier archived copy
// (the analysis step may re-archive the same session with the narrative
// attached).
func (a *Archive) Save(sess *model.Session) error {
	record, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %d: %w", sess.ID, err)
	}
	overall := 0.0
	if sess.FinalResults != nil {
		overall = sess.FinalResults.Overall
	}
	_, err = a.db.Exec(
		`INSERT INTO archived_sessions (session_id, level, selected_phase, overall_band, record, archived_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET overall_band = excluded.overall_band,
		                                       record = excluded.record,
		                                       archived_at = excluded.archived_at`,
		sess.ID, string(sess.Level), string(sess.SelectedPhase), overall, string(record), time.Now(),
	)
	return err
}

// Get returns an archived session record by id.
func (a *Archive) Get(sessionID int64) (*model.Session, error) {
	var record string
	err := a.db.QueryRow(
		`SELECT record FROM archived_sessions WHERE session_id = ?`, sessionID,
	).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess model.Session
	if err := json.Unmarshal([]byte(record), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session %d: %w", sessionID, err)
	}
	return &sess, nil
}

// ArchivedResult is one row of the export listing.
type ArchivedResult struct {
	SessionID  int64               `json:"session_id"`
	Level      model.Level         `json:"level"`
	Phase      model.Phase         `json:"selected_phase"`
	Results    *model.FinalResults `json:"final_results"`
	ArchivedAt time.Time           `json:"archived_at"`
}

// ExportAll returns the final results of every archived session, oldest
// first.
func (a *Archive) ExportAll() ([]ArchivedResult, error) {
	rows, err := a.db.Query(
		`SELECT session_id, level, selected_phase, record, archived_at
		 FROM archived_sessions ORDER BY session_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ArchivedResult
	for rows.Next() {
		var (
			r      ArchivedResult
			record string
		)
		if err := rows.Scan(&r.SessionID, &r.Level, &r.Phase, &record, &r.ArchivedAt); err != nil {
			return nil, err
		}
		var sess model.Session
		if err := json.Unmarshal([]byte(record), &sess); err != nil {
			return nil, fmt.Errorf("unmarshal session %d: %w", r.SessionID, err)
		}
		r.Results = sess.FinalResults
		results = append(results, r)
	}
	return results, rows.Err()
}

// Count returns the number of archived sessions.
func (a *Archive) Count() (int, error) {
	var count int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM archived_sessions`).Scan(&count)
	return count, err
}
