// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atomize

import "testing"

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		name    string
		relPath string
		content string
		want    string
	}{
		{"go by extension", "pkg/server.go", "package server", "go"},
		{"python by extension", "scripts/run.py", "", "python"},
		{"typescript tsx", "web/App.tsx", "", "typescript"},
		{"dockerfile by name", "deploy/Dockerfile", "FROM alpine", "dockerfile"},
		{"makefile case insensitive", "Makefile", "all:", "makefile"},
		{"python shebang", "bin/deploy", "#!/usr/bin/env python3\nprint()", "python"},
		{"bash shebang", "bin/setup", "#!/bin/bash\necho hi", "shell"},
		{"sh shebang", "bin/run", "#!/bin/sh\necho hi", "shell"},
		{"no match", "data.bin2", "\x01\x02", LanguageUnknown},
		{"extension beats shebang", "tool.rb", "#!/usr/bin/env python\n", "ruby"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectLanguage(tc.relPath, []byte(tc.content)); got != tc.want {
				t.Errorf("DetectLanguage(%q) = %s, want %s", tc.relPath, got, tc.want)
			}
		})
	}
}

func TestSummarizeStructure(t *testing.T) {
	t.Run("go functions and types", func(t *testing.T) {
		src := `package x

type Config struct {
	N int
}

type Runner interface {
	Run() error
}

func New() *Config { return nil }

func (c *Config) Apply() error { return nil }
`
		s := SummarizeStructure("go", []byte(src))
		if s.Functions != 2 {
			t.Errorf("Functions = %d, want 2", s.Functions)
		}
		if s.Types != 2 {
			t.Errorf("Types = %d, want 2", s.Types)
		}
	})

	t.Run("python defs and classes", func(t *testing.T) {
		src := "class App:\n    def run(self):\n        pass\n\nasync def main():\n    pass\n"
		s := SummarizeStructure("python", []byte(src))
		if s.Functions != 2 {
			t.Errorf("Functions = %d, want 2", s.Functions)
		}
		if s.Types != 1 {
			t.Errorf("Types = %d, want 1", s.Types)
		}
	})

	t.Run("unknown language yields zero summary", func(t *testing.T) {
		s := SummarizeStructure(LanguageUnknown, []byte("func x() {}"))
		if s.Functions != 0 || s.Types != 0 {
			t.Errorf("expected zero summary, got %+v", s)
		}
	})
}
