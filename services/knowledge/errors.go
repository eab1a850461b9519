// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import "errors"

// Fatal run errors. Everything else that goes wrong with an individual file
// is a skip or a recorded FileError and never aborts a run.
var (
	// ErrArtifactWrite wraps failures to produce the export artifact. A run
	// without its artifact is treated as if it never happened.
	ErrArtifactWrite = errors.New("cannot write output artifact")

	// ErrWorkerPool wraps failures to set up the processing pipeline.
	ErrWorkerPool = errors.New("cannot acquire worker resources")

	// ErrRunInProgress is returned when a run is already executing for the
	// same service instance.
	ErrRunInProgress = errors.New("run already in progress")
)
