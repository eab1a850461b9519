// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/corpusgraph/corpusgraph/services/knowledge/atomize"
	"github.com/corpusgraph/corpusgraph/services/knowledge/walker"
)

// Pipeline defaults.
const (
	// DefaultBatchSize is how many candidates a worker pulls at once.
	DefaultBatchSize = 50

	// DefaultMaxFileSize is the per-file size ceiling (2MB). Larger files
	// are skipped as oversized.
	DefaultMaxFileSize = 2 * 1024 * 1024

	// DefaultMaxFiles and DefaultMaxTotalBytes are the fatal corpus
	// ceilings.
	DefaultMaxFiles      = 200_000
	DefaultMaxTotalBytes = 2 * 1024 * 1024 * 1024
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// ("5s", "250ms") as well as integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML emits the duration in string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config configures one engine instance. Loaded once at run start and
// treated as read-only afterwards.
type Config struct {
	// Root is the absolute path of the corpus to scan.
	Root string `yaml:"root" validate:"required"`

	// Output is the export artifact path. Empty skips the artifact write
	// (library callers consume the in-memory export instead).
	Output string `yaml:"output"`

	// Excludes is the ordered exclusion policy. Directory matches prune
	// descent; file matches skip the file.
	Excludes []walker.Rule `yaml:"excludes"`

	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes" validate:"min=0"`
	MaxFiles         int   `yaml:"max_files" validate:"min=0"`
	MaxTotalBytes    int64 `yaml:"max_total_bytes" validate:"min=0"`

	// Workers bounds the atomization and edge-building pools.
	// Zero means one worker per CPU.
	Workers int `yaml:"workers" validate:"min=0,max=512"`

	// BatchSize is the candidate batch each worker pulls.
	BatchSize int `yaml:"batch_size" validate:"min=0,max=10000"`

	// ExcerptLength bounds content previews, in bytes.
	ExcerptLength int `yaml:"excerpt_length" validate:"min=0,max=65536"`

	// ReadTimeout is the per-file read deadline.
	ReadTimeout Duration `yaml:"read_timeout"`

	// SiblingFanout and DomainFanout cap pairing in the relationship
	// builder; see the graph package for semantics.
	SiblingFanout int `yaml:"sibling_fanout" validate:"min=0,max=1024"`
	DomainFanout  int `yaml:"domain_fanout" validate:"min=0,max=1024"`

	// Taxonomy replaces the built-in domain rule table when non-empty.
	Taxonomy []atomize.DomainRule `yaml:"taxonomy" validate:"dive"`

	// Privacy replaces the built-in privacy rules when non-empty.
	Privacy atomize.PrivacyRules `yaml:"privacy"`

	// StorePath enables the BadgerDB run history at the given directory.
	StorePath string `yaml:"store_path"`
}

// DefaultConfig returns the standard configuration for a root.
func DefaultConfig(root string) Config {
	return Config{
		Root:             root,
		Excludes:         DefaultExcludes(),
		MaxFileSizeBytes: DefaultMaxFileSize,
		MaxFiles:         DefaultMaxFiles,
		MaxTotalBytes:    DefaultMaxTotalBytes,
		BatchSize:        DefaultBatchSize,
		ExcerptLength:    atomize.DefaultExcerptLength,
		ReadTimeout:      Duration(atomize.DefaultReadTimeout),
	}
}

// DefaultExcludes is the built-in exclusion policy: version control
// internals, vendored dependency caches, build output, archives, binary
// media, and secret-bearing environment files. Directory rules here are
// what keeps multi-gigabyte archive subtrees from ever being walked.
func DefaultExcludes() []walker.Rule {
	return []walker.Rule{
		{Pattern: ".git", Reason: "version control internals"},
		{Pattern: ".hg", Reason: "version control internals"},
		{Pattern: ".svn", Reason: "version control internals"},
		{Pattern: "node_modules", Reason: "vendored dependency cache"},
		{Pattern: "vendor", Reason: "vendored dependency cache"},
		{Pattern: ".venv", Reason: "virtualenv"},
		{Pattern: "venv", Reason: "virtualenv"},
		{Pattern: "__pycache__", Reason: "bytecode cache"},
		{Pattern: "target", Reason: "build output"},
		{Pattern: "dist", Reason: "build output"},
		{Pattern: "build", Reason: "build output"},
		{Pattern: ".idea", Reason: "editor state"},
		{Pattern: ".vscode", Reason: "editor state"},
		{Pattern: "**.zip", Reason: "archive"},
		{Pattern: "**.tar", Reason: "archive"},
		{Pattern: "**.tar.gz", Reason: "archive"},
		{Pattern: "**.tgz", Reason: "archive"},
		{Pattern: "**.7z", Reason: "archive"},
		{Pattern: "**.rar", Reason: "archive"},
		{Pattern: "**.png", Reason: "binary media"},
		{Pattern: "**.jpg", Reason: "binary media"},
		{Pattern: "**.jpeg", Reason: "binary media"},
		{Pattern: "**.gif", Reason: "binary media"},
		{Pattern: "**.ico", Reason: "binary media"},
		{Pattern: "**.pdf", Reason: "binary media"},
		{Pattern: "**.exe", Reason: "binary artifact"},
		{Pattern: "**.dll", Reason: "binary artifact"},
		{Pattern: "**.so", Reason: "binary artifact"},
		{Pattern: "**.dylib", Reason: "binary artifact"},
		{Pattern: "**.o", Reason: "binary artifact"},
		{Pattern: "**.a", Reason: "binary artifact"},
		{Pattern: "**.class", Reason: "binary artifact"},
		{Pattern: "**.jar", Reason: "binary artifact"},
		{Pattern: "**.war", Reason: "binary artifact"},
		{Pattern: "**.pyc", Reason: "bytecode"},
		{Pattern: "**.wasm", Reason: "binary artifact"},
		{Pattern: ".env*", Reason: "environment secrets"},
		{Pattern: "**.env", Reason: "environment secrets"},
		{Pattern: "**.pem", Reason: "key material"},
		{Pattern: "**.min.js", Reason: "generated code"},
	}
}

// LoadConfig reads a YAML config file over the defaults for its root.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig("")
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration's declarative constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
