// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package runstore persists run records in BadgerDB.
//
// The store is the engine's memory across runs: it answers "what did the
// last run over this root produce" so the CLI can report whether a fresh
// run reproduced the previous graph. Only run metadata and the export
// content digest are stored, never atom content.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package runstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key layout: runs/<run_id> for records, roots/<root> for the latest run id
// per scan root.
const (
	runKeyPrefix  = "runs/"
	rootKeyPrefix = "roots/"
)

// ErrNotFound is returned when no record exists for a lookup.
var ErrNotFound = errors.New("runstore: not found")

// Record is the persisted summary of one completed run.
type Record struct {
	RunID      string    `json:"run_id"`
	Root       string    `json:"root"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	AtomCount int   `json:"atom_count"`
	EdgeCount int   `json:"edge_count"`
	Bytes     int64 `json:"bytes"`

	// ContentDigest is the content-determined hash of the export, used for
	// idempotence checks between runs.
	ContentDigest string `json:"content_digest"`
}

// Config holds configuration for a run store.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// Logger receives store-level logs. If nil, BadgerDB's internal
	// logging is disabled.
	Logger *slog.Logger
}

// badgerLogger adapts slog to badger.Logger.
type badgerLogger struct{ l *slog.Logger }

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(fmt.Sprintf(format, args...))
}
func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(fmt.Sprintf(format, args...))
}
func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}
func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

// Store is a BadgerDB-backed run history.
//
// # Thread Safety
//
// Safe for concurrent use; BadgerDB transactions provide isolation.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a run store.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("runstore: path required for persistent store")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{l: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("runstore: open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put persists a record and marks it as the latest for its root.
func (s *Store) Put(rec Record) error {
	if rec.RunID == "" || rec.Root == "" {
		return fmt.Errorf("runstore: record requires run_id and root")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("runstore: marshal record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(runKeyPrefix+rec.RunID), data); err != nil {
			return err
		}
		return txn.Set([]byte(rootKeyPrefix+rec.Root), []byte(rec.RunID))
	})
}

// Get fetches one record by run id.
func (s *Store) Get(runID string) (Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(runKeyPrefix + runID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// LastForRoot returns the most recent record for a scan root.
func (s *Store) LastForRoot(root string) (Record, error) {
	var runID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(rootKeyPrefix + root))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			runID = string(val)
			return nil
		})
	})
	if err != nil {
		return Record{}, err
	}
	return s.Get(runID)
}

// List returns all records, newest first.
func (s *Store) List() ([]Record, error) {
	var recs []Record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(runKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].StartedAt.After(recs[j].StartedAt) })
	return recs, nil
}
