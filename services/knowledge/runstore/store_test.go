// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runstore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(runID, root string, started time.Time) Record {
	return Record{
		RunID:         runID,
		Root:          root,
		StartedAt:     started,
		FinishedAt:    started.Add(time.Second),
		AtomCount:     10,
		EdgeCount:     25,
		ContentDigest: "digest-" + runID,
	}
}

func TestStore_PutGet(t *testing.T) {
	s := openInMemory(t)
	rec := record("run-1", "/corpus", time.Now().UTC().Truncate(time.Second))

	require.NoError(t, s.Put(rec))

	got, err := s.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, rec.RunID, got.RunID)
	assert.Equal(t, rec.ContentDigest, got.ContentDigest)
	assert.Equal(t, rec.AtomCount, got.AtomCount)
}

func TestStore_Get_NotFound(t *testing.T) {
	s := openInMemory(t)
	_, err := s.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestStore_Put_Validation(t *testing.T) {
	s := openInMemory(t)
	assert.Error(t, s.Put(Record{RunID: "", Root: "/x"}))
	assert.Error(t, s.Put(Record{RunID: "x", Root: ""}))
}

func TestStore_LastForRoot(t *testing.T) {
	s := openInMemory(t)
	base := time.Now().UTC()

	require.NoError(t, s.Put(record("run-1", "/corpus", base)))
	require.NoError(t, s.Put(record("run-2", "/corpus", base.Add(time.Minute))))
	require.NoError(t, s.Put(record("run-3", "/other", base.Add(2*time.Minute))))

	got, err := s.LastForRoot("/corpus")
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)

	_, err = s.LastForRoot("/never-scanned")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_List_NewestFirst(t *testing.T) {
	s := openInMemory(t)
	base := time.Now().UTC()

	require.NoError(t, s.Put(record("run-old", "/a", base)))
	require.NoError(t, s.Put(record("run-new", "/b", base.Add(time.Hour))))

	recs, err := s.List()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "run-new", recs[0].RunID)
	assert.Equal(t, "run-old", recs[1].RunID)
}
