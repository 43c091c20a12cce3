package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"dropzone/internal/geometry"
	"dropzone/internal/history"
	"dropzone/internal/inspect"
	"dropzone/internal/logging"
	"dropzone/internal/metrics"
)

// DropEvent is a drag-and-drop release reported by the UI shell.
type DropEvent struct {
	Paths    []string       `json:"paths"`
	Position geometry.Point `json:"position"`
}

// Outcome reports what happened to a drop. Rejected drops carry the reason
// in Rejection and are not errors.
type Outcome struct {
	CorrelationID string
	Accepted      bool
	Rejection     error
	File          *inspect.FileDescriptor
	Ignored       []string
	History       []inspect.FileDescriptor
}

// Inspector produces descriptors for dropped paths.
type Inspector interface {
	Inspect(ctx context.Context, path string) (inspect.FileDescriptor, error)
}

// HistoryStore reads and replaces the persisted history.
type HistoryStore interface {
	List() ([]inspect.FileDescriptor, error)
	Replace(ctx context.Context, list []inspect.FileDescriptor) error
}

// Serializer runs fn exclusively for key.
type Serializer interface {
	Do(ctx context.Context, key string, fn func(context.Context) error) error
}

// Recorder receives drop metrics.
type Recorder interface {
	RecordDrop(outcome string)
	RecordInspect(fileType string, duration time.Duration)
	RecordPersist(duration time.Duration, err error)
	SetHistoryEntries(n int)
}

// Deps are the collaborators a Controller requires.
type Deps struct {
	Region    geometry.RegionSource
	Inspector Inspector
	History   HistoryStore
	Queue     Serializer
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder enables metrics.
func WithRecorder(rec Recorder) Option {
	return func(c *Controller) { c.metrics = rec }
}

// WithObserver registers a transition observer.
func WithObserver(obs Observer) Option {
	return func(c *Controller) { c.observer = obs }
}

// WithIDGenerator replaces the correlation id source.
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// Controller drives drops from release to persisted history.
type Controller struct {
	region    geometry.RegionSource
	inspector Inspector
	history   HistoryStore
	queue     Serializer
	metrics   Recorder
	observer  Observer
	logger    *slog.Logger
	newID     func() string

	mu    sync.RWMutex
	cache []inspect.FileDescriptor
}

// New constructs a controller. The cache starts empty; call Refresh to load
// the persisted history.
func New(deps Deps, opts ...Option) (*Controller, error) {
	if deps.Region == nil || deps.Inspector == nil || deps.History == nil || deps.Queue == nil {
		return nil, errors.New("ingest controller requires region, inspector, history, and queue")
	}
	c := &Controller{
		region:    deps.Region,
		inspector: deps.Inspector,
		history:   deps.History,
		queue:     deps.Queue,
		logger:    logging.NewNop(),
		newID:     uuid.NewString,
		cache:     []inspect.FileDescriptor{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "ingest")
	return c, nil
}

// HandleDrop runs one drop through the pipeline.
func (c *Controller) HandleDrop(ctx context.Context, ev DropEvent) (Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id := c.newID()
	ctx = logging.WithCorrelationID(ctx, id)
	logger := logging.WithContext(ctx, c.logger)
	out := Outcome{CorrelationID: id}

	state := StateIdle
	move := func(next State) {
		if c.observer != nil {
			c.observer(Transition{CorrelationID: id, From: state, To: next})
		}
		logger.Debug("drop state", logging.String(logging.FieldState, next.String()))
		state = next
	}

	move(StateFiltering)
	if outcome, rejection := c.filter(logger, ev); rejection != nil {
		move(StateIdle)
		c.record(outcome)
		out.Rejection = rejection
		return out, nil
	}

	path := ev.Paths[0]
	if len(ev.Paths) > 1 {
		out.Ignored = slices.Clone(ev.Paths[1:])
		logger.Info("multi-file drop; only the first path is processed",
			logging.String(logging.FieldPath, path),
			logging.Int("ignored_count", len(out.Ignored)))
	}

	move(StateInspecting)
	started := time.Now()
	desc, err := c.inspector.Inspect(ctx, path)
	if err != nil {
		move(StateIdle)
		c.record(metrics.OutcomeInspectFailed)
		logging.WarnWithContext(logger, "file inspection failed", "drop_inspection_failed",
			logging.String(logging.FieldPath, path),
			logging.String("kind", string(inspect.KindOf(err))),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, inspectHint(inspect.KindOf(err))),
			logging.String(logging.FieldImpact, "history left unchanged"))
		return out, fmt.Errorf("%w: %w", ErrInspectionFailed, err)
	}
	if c.metrics != nil {
		c.metrics.RecordInspect(desc.FileType, time.Since(started))
	}

	move(StateMerging)
	var updated []inspect.FileDescriptor
	persistStarted := time.Now()
	err = c.queue.Do(ctx, history.Key, func(taskCtx context.Context) error {
		existing, err := c.history.List()
		if err != nil {
			return err
		}
		merged := history.Merge(existing, desc)

		move(StatePersisting)
		if err := c.history.Replace(taskCtx, merged); err != nil {
			return err
		}
		refreshed, err := c.history.List()
		if err != nil {
			return err
		}
		c.setCache(refreshed)
		updated = refreshed
		return nil
	})
	if c.metrics != nil {
		c.metrics.RecordPersist(time.Since(persistStarted), err)
	}
	move(StateIdle)
	if err != nil {
		c.record(metrics.OutcomeStoreFailed)
		logging.ErrorWithContext(logger, "history update failed", "history_persist_failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the store file and data directory permissions"))
		return out, err
	}

	c.record(metrics.OutcomeAccepted)
	if c.metrics != nil {
		c.metrics.SetHistoryEntries(len(updated))
	}
	out.Accepted = true
	out.File = &desc
	out.History = slices.Clone(updated)
	logger.Info("drop accepted",
		logging.String(logging.FieldPath, desc.Path),
		logging.String("file_type", desc.FileType),
		logging.Int("history_count", len(updated)))
	return out, nil
}

// filter returns the metrics outcome and rejection for ev, or a nil rejection
// when the drop should be inspected.
func (c *Controller) filter(logger *slog.Logger, ev DropEvent) (string, error) {
	if len(ev.Paths) == 0 {
		logger.Info("drop ignored", logging.String("reason", ErrEmptyDrop.Error()))
		return metrics.OutcomeEmpty, ErrEmptyDrop
	}
	inside, err := geometry.Evaluate(ev.Position, c.region)
	if err != nil {
		logging.WarnWithContext(logger, "drop region unavailable", "drop_geometry_indeterminate",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the UI reports the drop target layout"),
			logging.String(logging.FieldImpact, "drop treated as outside the target"))
		return metrics.OutcomeIndeterminate, ErrGeometryIndeterminate
	}
	if !inside {
		logger.Info("drop outside target",
			logging.Float64("x", ev.Position.X),
			logging.Float64("y", ev.Position.Y))
		return metrics.OutcomeOutside, ErrOutsideRegion
	}
	return "", nil
}

// History returns a copy of the cached history.
func (c *Controller) History() []inspect.FileDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.cache)
}

// Refresh reloads the cache from the store.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.queue.Do(ctx, history.Key, func(context.Context) error {
		list, err := c.history.List()
		if err != nil {
			return err
		}
		c.setCache(list)
		if c.metrics != nil {
			c.metrics.SetHistoryEntries(len(list))
		}
		return nil
	})
}

func (c *Controller) setCache(list []inspect.FileDescriptor) {
	c.mu.Lock()
	c.cache = slices.Clone(list)
	if c.cache == nil {
		c.cache = []inspect.FileDescriptor{}
	}
	c.mu.Unlock()
}

func (c *Controller) record(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordDrop(outcome)
	}
}

func inspectHint(kind inspect.Kind) string {
	switch kind {
	case inspect.KindNotFound:
		return "the dropped path no longer exists"
	case inspect.KindPermissionDenied:
		return "grant read access to the dropped path"
	case inspect.KindUnsupported:
		return "drop a regular file, a directory, or UTF-8 text"
	default:
		return "check logs for details"
	}
}
