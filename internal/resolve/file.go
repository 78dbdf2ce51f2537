package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"siapcheck/internal/logging"
)

// FileConfig configures the File resolver.
type FileConfig struct {
	Dir          string        // exchange directory for request.json / answer.json
	PollInterval time.Duration // default 500ms
	ExcerptLen   int           // document bytes copied into the request; default 2000
	Logger       *slog.Logger
}

// FileRequest is written to request.json for an external responder (a
// human reviewer or an agent) to pick up.
type FileRequest struct {
	Status     string `json:"status"` // waiting, done, error
	DispatchID int64  `json:"dispatch_id"`
	Question   string `json:"question"`
	Excerpt    string `json:"document_excerpt"`
	Timestamp  string `json:"timestamp"`
	Error      string `json:"error,omitempty"`
}

// FileAnswer is what the responder writes to answer.json. It is accepted
// only when DispatchID echoes the current request.
type FileAnswer struct {
	DispatchID int64   `json:"dispatch_id"`
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}

// File is a human-in-the-loop resolver exchanging JSON files in a
// directory. Only one question is outstanding at a time.
type File struct {
	cfg        FileConfig
	log        *slog.Logger
	mu         sync.Mutex
	dispatchID int64
}

// NewFile creates the exchange directory and returns the resolver.
func NewFile(cfg FileConfig) (*File, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("file resolver: dir is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.ExcerptLen <= 0 {
		cfg.ExcerptLen = 2000
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("file resolver: create dir: %w", err)
	}
	l := cfg.Logger
	if l == nil {
		l = logging.New("file-resolver")
	}
	return &File{cfg: cfg, log: l}, nil
}

func (f *File) RequestPath() string { return filepath.Join(f.cfg.Dir, "request.json") }
func (f *File) AnswerPath() string  { return filepath.Join(f.cfg.Dir, "answer.json") }

// Resolve writes request.json and blocks until answer.json carries the same
// dispatch id, or ctx ends.
func (f *File) Resolve(ctx context.Context, question, document string) (Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dispatchID++
	did := f.dispatchID
	dl := f.log.With("dispatch_id", did)

	_ = os.Remove(f.AnswerPath())

	excerpt := document
	if len(excerpt) > f.cfg.ExcerptLen {
		excerpt = excerpt[:f.cfg.ExcerptLen]
	}
	req := FileRequest{
		Status:     "waiting",
		DispatchID: did,
		Question:   question,
		Excerpt:    excerpt,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeJSON(f.RequestPath(), req); err != nil {
		return Proposal{}, fmt.Errorf("write request: %w", err)
	}
	dl.Info("request.json written, waiting for answer", "answer_path", f.AnswerPath())

	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if ans, ok := f.readAnswer(did); ok {
			req.Status = "done"
			_ = writeJSON(f.RequestPath(), req)
			a, err := ParseAnswer(ans.Answer)
			if err != nil {
				return Proposal{Evidence: ans.Evidence}, err
			}
			return Proposal{Answer: a, Confidence: ans.Confidence, Evidence: ans.Evidence}, nil
		}

		select {
		case <-ctx.Done():
			req.Status = "error"
			req.Error = ctx.Err().Error()
			_ = writeJSON(f.RequestPath(), req)
			return Proposal{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *File) readAnswer(did int64) (FileAnswer, bool) {
	data, err := os.ReadFile(f.AnswerPath())
	if err != nil {
		return FileAnswer{}, false
	}
	var ans FileAnswer
	if err := json.Unmarshal(data, &ans); err != nil {
		// Possibly a partial write; try again on the next tick.
		return FileAnswer{}, false
	}
	if ans.DispatchID != did {
		f.log.Debug("ignoring stale answer", "got", ans.DispatchID, "want", did)
		return FileAnswer{}, false
	}
	return ans, true
}

// writeJSON writes v atomically via a temp file and rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
