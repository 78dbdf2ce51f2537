// Package config loads the evaluator's YAML configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"siapcheck/internal/logging"
	"siapcheck/internal/resolve"
	"siapcheck/internal/verdict"
	"siapcheck/pkg/tree"
)

// Resolver kinds.
const (
	ResolverKeyword = "keyword"
	ResolverFile    = "file"
)

type Config struct {
	// ScenariosDir holds scenario definitions. Empty means the built-in set.
	ScenariosDir    string             `yaml:"scenarios_dir"`
	RedFlagKeywords []string           `yaml:"red_flag_keywords"`
	Tiers           resolve.TierPolicy `yaml:"tiers"`
	Resolver        ResolverConfig     `yaml:"resolver"`
	Engine          EngineConfig       `yaml:"engine"`
	Batch           BatchConfig        `yaml:"batch"`
	Store           StoreConfig        `yaml:"store"`
	Log             LogConfig          `yaml:"log"`
	Metrics         MetricsConfig      `yaml:"metrics"`
	Requests        verdict.Vocabulary `yaml:"requests"`
}

type ResolverConfig struct {
	Kind    string        `yaml:"kind"`
	Timeout time.Duration `yaml:"timeout"`
	// Dir and PollInterval apply to the file resolver.
	Dir          string        `yaml:"dir"`
	PollInterval time.Duration `yaml:"poll_interval"`
	ContextChars int           `yaml:"context_chars"`
}

type EngineConfig struct {
	// MaxQuestions caps questions per document. Zero derives the cap from
	// the largest scenario.
	MaxQuestions int `yaml:"max_questions"`
}

type BatchConfig struct {
	Workers int `yaml:"workers"`
}

type StoreConfig struct {
	// Path of the sqlite database. Empty disables persistence.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration that needs no file.
func Default() Config {
	return Config{
		RedFlagKeywords: append([]string(nil), tree.DefaultRedFlagKeywords...),
		Tiers:           resolve.DefaultTierPolicy(),
		Resolver: ResolverConfig{
			Kind:         ResolverKeyword,
			Timeout:      30 * time.Second,
			PollInterval: 500 * time.Millisecond,
		},
		Batch:    BatchConfig{Workers: 4},
		Log:      LogConfig{Level: "info", Format: "text"},
		Requests: verdict.DefaultVocabulary(),
	}
}

// Load reads path over Default. Environment variables in the file are
// expanded.
func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if err := c.Tiers.Validate(); err != nil {
		return fmt.Errorf("tiers: %w", err)
	}
	switch c.Resolver.Kind {
	case ResolverKeyword:
	case ResolverFile:
		if c.Resolver.Dir == "" {
			return fmt.Errorf("resolver.dir is required when resolver.kind=file")
		}
	default:
		return fmt.Errorf("resolver.kind must be %q or %q, got %q", ResolverKeyword, ResolverFile, c.Resolver.Kind)
	}
	if c.Resolver.Timeout < 0 {
		return fmt.Errorf("resolver.timeout must not be negative")
	}
	if c.Engine.MaxQuestions < 0 {
		return fmt.Errorf("engine.max_questions must not be negative")
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json")
	}
	if err := c.Requests.Validate(); err != nil {
		return fmt.Errorf("requests: %w", err)
	}
	return nil
}
