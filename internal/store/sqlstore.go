package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"siapcheck/internal/verdict"
)

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = schemaVersionV1

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates a SQLite DB at path and creates the schema.
// Creates the parent directory (e.g. .siapcheck) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	// A single connection serialises writers from batch workers.
	db.SetMaxOpenConns(1)
	s := &SqlStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableCount == 0 {
		return s.freshInstall()
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("schema_version table is empty")
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != currentSchemaVersion {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

func (s *SqlStore) freshInstall() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

func (s *SqlStore) CreateRun(label string, documents int) (Run, error) {
	r := Run{ID: uuid.NewString(), Label: label, Documents: documents, StartedAt: s.now().UTC()}
	_, err := s.db.Exec(
		"INSERT INTO runs(id, label, documents, started_at) VALUES(?, ?, ?, ?)",
		r.ID, r.Label, r.Documents, r.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return r, nil
}

func (s *SqlStore) ListRuns() ([]Run, error) {
	rows, err := s.db.Query("SELECT id, label, documents, started_at FROM runs ORDER BY started_at, id")
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Label, &r.Documents, &started); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse run time: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SqlStore) SaveResult(runID string, r verdict.Result) (int64, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs WHERE id = ?", runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("check run: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return 0, fmt.Errorf("marshal result: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO results(run_id, document_id, scenario_id, verdict, risk_score, digest, evaluated_at, payload)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.DocumentID, r.ScenarioID, string(r.Verdict), r.RiskScore,
		sql.NullString{String: r.Digest, Valid: r.Digest != ""},
		r.EvaluatedAt.UTC().Format(time.RFC3339Nano), string(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *SqlStore) ListResults(runID string) ([]Record, error) {
	rows, err := s.db.Query("SELECT id, run_id, digest, payload FROM results WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SqlStore) LatestResult(documentID string) (*Record, error) {
	row := s.db.QueryRow(
		"SELECT id, run_id, digest, payload FROM results WHERE document_id = ? ORDER BY id DESC LIMIT 1",
		documentID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var rec Record
	var digest sql.NullString
	var payload string
	if err := sc.Scan(&rec.ID, &rec.RunID, &digest, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan result: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &rec.Result); err != nil {
		return Record{}, fmt.Errorf("decode result %d: %w", rec.ID, err)
	}
	rec.Result.Digest = nullStr(digest)
	return rec, nil
}
