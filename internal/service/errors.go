package service

import (
	"errors"
	"fmt"
)

// ErrUnavailable is the defined result for degraded-tier operations: the
// store has no resolved user identity, or a save/load round trip failed.
// Callers treat it as "annotation not available", never as a crash.
var ErrUnavailable = errors.New("annotation store unavailable")

// ErrInvalidImportFormat rejects import payloads without a top-level
// canvases mapping.
var ErrInvalidImportFormat = errors.New("import payload missing canvases mapping")

// Surfaced-tier failures. Export, import, clear and delete are explicit
// user actions where a silent failure would mean undetectable data loss, so
// these propagate as typed errors.

type ExportError struct {
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export annotations: %v", e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// ImportError reports how many records were committed before a chunk
// failed. Imports larger than one atomic batch run as sequential chunks, so
// a failure can leave a prefix of the payload written.
type ImportError struct {
	Written int
	Err     error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import annotations: %d records written before failure: %v", e.Written, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

type ClearError struct {
	Deleted int
	Err     error
}

func (e *ClearError) Error() string {
	return fmt.Sprintf("clear annotations: %d records deleted before failure: %v", e.Deleted, e.Err)
}

func (e *ClearError) Unwrap() error { return e.Err }

type DeleteError struct {
	Key string
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete annotation %s: %v", e.Key, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
