package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gazelab/gazetrack/internal/api"
	"github.com/gazelab/gazetrack/internal/services"
)

// SQLiteStore is the durable Store implementation. It mirrors the memory
// store's semantics: AddTrial is a single transaction covering the trial
// insert and the owning session's counter bump. Query errors are logged and
// surface as empty results, matching the Store interface's in-memory shape.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies migrations.
func Open(path string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := RunMigrations(sqlDB); err != nil {
		return nil, err
	}
	return NewSQLiteStore(sqlDB)
}

func NewSQLiteStore(sqlDB *sql.DB) (*SQLiteStore, error) {
	if sqlDB == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := sqlDB.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func (s *SQLiteStore) AddSession(sess *services.Session) {
	info, err := encodeJSON(sess.BrowserInfo)
	if err != nil {
		s.logErr("encode browser info", err)
	}
	_, err = s.db.Exec(`INSERT INTO sessions
		(session_id, participant_id, calibration_accuracy, browser_info, start_time, end_time, status, total_trials, completed_trials)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.SessionID, sess.ParticipantID, sess.CalibrationAccuracy, info,
		sess.StartTime, nullInt64(sess.EndTime), sess.Status, sess.TotalTrials, sess.CompletedTrials)
	s.logErr("add session", err)
}

func (s *SQLiteStore) GetSession(id string) *services.Session {
	row := s.db.QueryRow(`SELECT session_id, participant_id, calibration_accuracy, browser_info, start_time, end_time, status, total_trials, completed_trials
		FROM sessions WHERE session_id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logErr("get session", err)
		return nil
	}
	return sess
}

func (s *SQLiteStore) CompleteSession(id string, endTime int64) bool {
	res, err := s.db.Exec(`UPDATE sessions SET status = ?, end_time = ? WHERE session_id = ?`,
		services.StatusCompleted, endTime, id)
	if err != nil {
		s.logErr("complete session", err)
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.logErr("complete session rows", err)
		return false
	}
	return n > 0
}

func (s *SQLiteStore) ListSessions() []*services.Session {
	rows, err := s.db.Query(`SELECT session_id, participant_id, calibration_accuracy, browser_info, start_time, end_time, status, total_trials, completed_trials
		FROM sessions`)
	if err != nil {
		s.logErr("list sessions", err)
		return nil
	}
	defer rows.Close()
	out := []*services.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			s.logErr("scan session", err)
			continue
		}
		out = append(out, sess)
	}
	s.logErr("list sessions rows", rows.Err())
	return out
}

func (s *SQLiteStore) AddTrial(t *services.Trial) bool {
	tx, err := s.db.Begin()
	if err != nil {
		s.logErr("begin add trial", err)
		return false
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE sessions SET total_trials = total_trials + 1, completed_trials = completed_trials + 1 WHERE session_id = ?`, t.SessionID)
	if err != nil {
		s.logErr("bump counters", err)
		return false
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		s.logErr("bump counters rows", err)
		return false
	}

	left, err := encodeJSON(t.LeftImage)
	if err != nil {
		s.logErr("encode left image", err)
	}
	right, err := encodeJSON(t.RightImage)
	if err != nil {
		s.logErr("encode right image", err)
	}
	_, err = tx.Exec(`INSERT INTO trials
		(trial_id, session_id, timestamp, left_image, right_image, left_fixation_time, right_fixation_time, first_fixation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TrialID, t.SessionID, t.Timestamp, left, right,
		nullFloat(t.LeftFixationTime), nullFloat(t.RightFixationTime), t.FirstFixation)
	if err != nil {
		s.logErr("add trial", err)
		return false
	}
	if err := tx.Commit(); err != nil {
		s.logErr("commit add trial", err)
		return false
	}
	return true
}

func (s *SQLiteStore) ListTrials() []*services.Trial {
	rows, err := s.db.Query(`SELECT trial_id, session_id, timestamp, left_image, right_image, left_fixation_time, right_fixation_time, first_fixation
		FROM trials ORDER BY seq`)
	if err != nil {
		s.logErr("list trials", err)
		return nil
	}
	defer rows.Close()
	out := []*services.Trial{}
	for rows.Next() {
		var (
			t           services.Trial
			left, right sql.NullString
			lfix, rfix  sql.NullFloat64
		)
		if err := rows.Scan(&t.TrialID, &t.SessionID, &t.Timestamp, &left, &right, &lfix, &rfix, &t.FirstFixation); err != nil {
			s.logErr("scan trial", err)
			continue
		}
		t.LeftImage = decodeStimulus(left)
		t.RightImage = decodeStimulus(right)
		if lfix.Valid {
			v := lfix.Float64
			t.LeftFixationTime = &v
		}
		if rfix.Valid {
			v := rfix.Float64
			t.RightFixationTime = &v
		}
		out = append(out, &t)
	}
	s.logErr("list trials rows", rows.Err())
	return out
}

func (s *SQLiteStore) CountSessions() int { return s.count("sessions") }

func (s *SQLiteStore) CountTrials() int { return s.count("trials") }

func (s *SQLiteStore) count(table string) int {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		s.logErr("count "+table, err)
		return 0
	}
	return n
}

var _ api.Store = (*SQLiteStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*services.Session, error) {
	var (
		sess services.Session
		info sql.NullString
		end  sql.NullInt64
	)
	if err := row.Scan(&sess.SessionID, &sess.ParticipantID, &sess.CalibrationAccuracy, &info,
		&sess.StartTime, &end, &sess.Status, &sess.TotalTrials, &sess.CompletedTrials); err != nil {
		return nil, err
	}
	sess.BrowserInfo = map[string]any{}
	if info.Valid && info.String != "" {
		if err := json.Unmarshal([]byte(info.String), &sess.BrowserInfo); err != nil {
			return nil, fmt.Errorf("decode browser info: %w", err)
		}
	}
	if end.Valid {
		sess.EndTime = end.Int64
	}
	return &sess, nil
}

func decodeStimulus(ns sql.NullString) *services.StimulusRef {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var ref services.StimulusRef
	if err := json.Unmarshal([]byte(ns.String), &ref); err != nil {
		log.Printf("sqlite store: decode stimulus: %v", err)
		return nil
	}
	return &ref
}

func encodeJSON(v any) (sql.NullString, error) {
	switch x := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case *services.StimulusRef:
		if x == nil {
			return sql.NullString{}, nil
		}
	case map[string]any:
		if x == nil {
			return sql.NullString{}, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
