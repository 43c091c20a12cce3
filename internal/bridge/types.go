package bridge

import (
	"dropzone/internal/geometry"
	"dropzone/internal/inspect"
)

// ServiceName is the JSON-RPC service prefix.
const ServiceName = "Dropzone"

// Failure describes a pipeline error in a form the UI can display.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Failure kinds beyond the inspect kinds.
const (
	FailureStoreRead  = "store_read"
	FailureStoreWrite = "store_write"
	FailureCanceled   = "canceled"
	FailureInternal   = "internal"
)

// Rejection codes reported for drops that were filtered out.
const (
	RejectionOutside       = "outside_region"
	RejectionIndeterminate = "geometry_indeterminate"
	RejectionEmpty         = "empty_drop"
)

// GreetRequest names the caller.
type GreetRequest struct {
	Name string `json:"name"`
}

// GreetResponse carries the greeting text.
type GreetResponse struct {
	Message string `json:"message"`
}

// HandleDropfileRequest asks for a descriptor of one path.
type HandleDropfileRequest struct {
	Path string `json:"path"`
}

// HandleDropfileResponse holds either the descriptor or the failure.
type HandleDropfileResponse struct {
	File    *inspect.FileDescriptor `json:"file,omitempty"`
	Failure *Failure                `json:"failure,omitempty"`
}

// DragDropRequest reports a drop release.
type DragDropRequest struct {
	Paths    []string       `json:"paths"`
	Position geometry.Point `json:"position"`
}

// DragDropResponse reports the outcome of a drop.
type DragDropResponse struct {
	CorrelationID string                   `json:"correlation_id"`
	Accepted      bool                     `json:"accepted"`
	Rejection     string                   `json:"rejection,omitempty"`
	File          *inspect.FileDescriptor  `json:"file,omitempty"`
	Ignored       []string                 `json:"ignored,omitempty"`
	History       []inspect.FileDescriptor `json:"history,omitempty"`
	Failure       *Failure                 `json:"failure,omitempty"`
}

// ReportLayoutRequest updates or removes the bounds of a UI element.
type ReportLayoutRequest struct {
	Element string        `json:"element"`
	Rect    geometry.Rect `json:"rect"`
	Remove  bool          `json:"remove"`
}

// ReportLayoutResponse lists the elements currently known.
type ReportLayoutResponse struct {
	Elements []string `json:"elements"`
}

// HistoryRequest fetches the history snapshot.
type HistoryRequest struct{}

// HistoryResponse contains the history, most recent first.
type HistoryResponse struct {
	History []inspect.FileDescriptor `json:"history"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon status information.
type StatusResponse struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	StartedAt     string         `json:"started_at,omitempty"`
	StorePath     string         `json:"store_path"`
	StoreBackend  string         `json:"store_backend"`
	LockPath      string         `json:"lock_path"`
	HistoryCount  int            `json:"history_count"`
	TargetElement string         `json:"target_element"`
	TargetBounds  *geometry.Rect `json:"target_bounds,omitempty"`
	MetricsBind   string         `json:"metrics_bind,omitempty"`
}
