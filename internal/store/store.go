package store

import (
	"errors"
	"time"

	"siapcheck/internal/verdict"
)

// DefaultDBPath is the default relative path for the SQLite DB.
// Open creates the parent directory if it does not exist.
const DefaultDBPath = ".siapcheck/siapcheck.db"

// ErrUnknownRun is returned when saving into a run that was never created.
var ErrUnknownRun = errors.New("store: unknown run")

// Run groups the results of one evaluate or batch invocation.
type Run struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Documents int       `json:"documents"`
	StartedAt time.Time `json:"started_at"`
}

// Record is a stored result.
type Record struct {
	ID     int64          `json:"id"`
	RunID  string         `json:"run_id"`
	Result verdict.Result `json:"result"`
}

// Store is the persistence facade for evaluation results.
// The CLI and MCP server use only this interface; implementation is SQLite
// or in-memory.
type Store interface {
	CreateRun(label string, documents int) (Run, error)
	ListRuns() ([]Run, error)
	SaveResult(runID string, r verdict.Result) (int64, error)
	ListResults(runID string) ([]Record, error)
	// LatestResult returns the most recent result for a document, or nil.
	LatestResult(documentID string) (*Record, error)
	Close() error
}
