// Package document reads input documents from disk.
package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"siapcheck/internal/engine"
)

// Extensions are the file types LoadDir picks up.
var Extensions = []string{".txt", ".md"}

// LoadFile reads one document; its id is the file stem.
func LoadFile(path string) (engine.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Document{}, fmt.Errorf("read document: %w", err)
	}
	return engine.Document{ID: ID(path), Text: string(data), Path: path}, nil
}

// Read builds a document from r with the given id.
func Read(r io.Reader, id string) (engine.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return engine.Document{}, fmt.Errorf("read document %q: %w", id, err)
	}
	return engine.Document{ID: id, Text: string(data)}, nil
}

// LoadDir reads every document in dir, sorted by file name.
func LoadDir(dir string) ([]engine.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read document dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && accepted(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]engine.Document, 0, len(names))
	for _, n := range names {
		d, err := LoadFile(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Load accepts a mix of files and directories.
func Load(paths ...string) ([]engine.Document, error) {
	var docs []engine.Document
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			ds, err := LoadDir(p)
			if err != nil {
				return nil, err
			}
			docs = append(docs, ds...)
			continue
		}
		d, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// ID derives a document id from a path.
func ID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func accepted(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
