package ingest

import (
	"errors"

	"dropzone/internal/history"
)

var (
	// ErrGeometryIndeterminate rejects a drop whose target region could not be measured.
	ErrGeometryIndeterminate = errors.New("drop region could not be measured")
	// ErrOutsideRegion rejects a drop released outside the target region.
	ErrOutsideRegion = errors.New("drop outside target region")
	// ErrEmptyDrop rejects a drop that carried no paths.
	ErrEmptyDrop = errors.New("drop carried no paths")
	// ErrInspectionFailed wraps inspection errors; the inspect kind stays reachable via errors.As.
	ErrInspectionFailed = errors.New("file inspection failed")

	ErrStoreRead  = history.ErrStoreRead
	ErrStoreWrite = history.ErrStoreWrite
)
