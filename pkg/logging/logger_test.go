// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelDebug.String() != "DEBUG" || LevelError.String() != "ERROR" {
		t.Error("unexpected level names")
	}
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Config{Level: LevelDebug, LogDir: dir, Service: "testsvc"})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("hello", "key", "value")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	name := "testsvc_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello") || !strings.Contains(content, "testsvc") {
		t.Errorf("log file missing expected fields: %q", content)
	}
	// File stream is JSON.
	if !strings.Contains(content, `"msg"`) {
		t.Errorf("expected JSON log lines, got %q", content)
	}
}

func TestNew_CloseIdempotent(t *testing.T) {
	l, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}

func TestDefault(t *testing.T) {
	l := Default()
	if l == nil || l.Logger == nil {
		t.Fatal("Default returned unusable logger")
	}
	l.Info("default logger works")
}
