package wiring

import (
	"fmt"

	"siapcheck/internal/config"
	"siapcheck/internal/engine"
	"siapcheck/internal/logging"
	"siapcheck/internal/resolve"
	"siapcheck/internal/scenarios"
	"siapcheck/internal/store"
	"siapcheck/pkg/tree"
)

// NewResolver builds the resolver named by cfg.Kind.
func NewResolver(cfg config.ResolverConfig) (resolve.Resolver, error) {
	switch cfg.Kind {
	case config.ResolverKeyword, "":
		k := resolve.NewKeyword()
		if cfg.ContextChars > 0 {
			k.ContextChars = cfg.ContextChars
		}
		return k, nil
	case config.ResolverFile:
		return resolve.NewFile(resolve.FileConfig{
			Dir:          cfg.Dir,
			PollInterval: cfg.PollInterval,
			Logger:       logging.New("file-resolver"),
		})
	}
	return nil, fmt.Errorf("unknown resolver kind %q", cfg.Kind)
}

// FromConfig loads the scenarios and resolver named by cfg and returns a
// ready evaluator together with its registry.
func FromConfig(cfg config.Config, obs engine.Observer) (*Evaluator, error) {
	reg, err := scenarios.LoadRegistry(cfg.ScenariosDir, cfg.RedFlagKeywords)
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	return FromRegistry(cfg, reg, obs)
}

// FromRegistry is FromConfig with an already built registry.
func FromRegistry(cfg config.Config, reg *tree.Registry, obs engine.Observer) (*Evaluator, error) {
	r, err := NewResolver(cfg.Resolver)
	if err != nil {
		return nil, err
	}
	a := resolve.NewAdapter(r, cfg.Resolver.Timeout)
	a.Policy = cfg.Tiers

	ev := New(reg, a, cfg.Engine.MaxQuestions, obs)
	if len(cfg.Requests) > 0 {
		ev.Requests = cfg.Requests
	}
	return ev, nil
}

// OpenStore opens the sqlite store at path, or an in-memory store when
// path is empty.
func OpenStore(path string) (store.Store, error) {
	if path == "" {
		return store.NewMemStore(), nil
	}
	return store.Open(path)
}
