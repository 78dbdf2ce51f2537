// Package scenarios loads compliance scenario definitions from YAML or JSON
// and builds the immutable scenario registry.
package scenarios

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"siapcheck/pkg/tree"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Scenario is a parsed definition and where it came from.
type Scenario struct {
	ID         string
	Source     string
	Definition tree.Definition
}

var extensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// Parse decodes one definition. JSON input is accepted since it is valid
// YAML. Unknown fields are rejected.
func Parse(id string, data []byte) (tree.Definition, error) {
	var def tree.Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return def, fmt.Errorf("parse scenario %q: empty document", id)
		}
		return def, fmt.Errorf("parse scenario %q: %w", id, err)
	}
	return def, nil
}

// LoadFile reads one definition; the scenario id is the file stem.
func LoadFile(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	id := stem(path)
	def, err := Parse(id, data)
	if err != nil {
		return Scenario{}, err
	}
	return Scenario{ID: id, Source: path, Definition: def}, nil
}

// LoadDir reads every .yaml, .yml and .json file in dir, sorted by id.
// Subdirectories are not descended into.
func LoadDir(dir string) ([]Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	var out []Scenario
	for _, e := range entries {
		if e.IsDir() || !extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		s, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenario definitions in %s", dir)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadEmbedded returns the built-in scenarios, sorted by id.
func LoadEmbedded() ([]Scenario, error) {
	var out []Scenario
	err := fs.WalkDir(builtinFS, "builtin", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			return err
		}
		id := stem(path)
		def, err := Parse(id, data)
		if err != nil {
			return err
		}
		out = append(out, Scenario{ID: id, Source: "builtin:" + d.Name(), Definition: def})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// EmbeddedIDs lists the built-in scenario ids, sorted.
func EmbeddedIDs() []string {
	entries, _ := builtinFS.ReadDir("builtin")
	var ids []string
	for _, e := range entries {
		ids = append(ids, stem(e.Name()))
	}
	sort.Strings(ids)
	return ids
}

// Load reads dir, or the built-in scenarios when dir is empty.
func Load(dir string) ([]Scenario, error) {
	if dir == "" {
		return LoadEmbedded()
	}
	return LoadDir(dir)
}

// Build validates every scenario and returns the registry. Definitions
// that declare no red flags get them inferred from redFlagKeywords. Every
// invalid scenario is reported; none is skipped.
func Build(scs []Scenario, redFlagKeywords []string) (*tree.Registry, error) {
	var (
		graphs []*tree.Graph
		errs   []error
	)
	for _, s := range scs {
		g, err := tree.Build(s.ID, s.Definition.InferRedFlags(redFlagKeywords))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Source, err))
			continue
		}
		graphs = append(graphs, g)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return tree.NewRegistry(graphs...)
}

// LoadRegistry is Load followed by Build.
func LoadRegistry(dir string, redFlagKeywords []string) (*tree.Registry, error) {
	scs, err := Load(dir)
	if err != nil {
		return nil, err
	}
	return Build(scs, redFlagKeywords)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
