package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"dropzone/internal/config"
	"dropzone/internal/geometry"
	"dropzone/internal/history"
	"dropzone/internal/ingest"
	"dropzone/internal/inspect"
	"dropzone/internal/kvstore"
	"dropzone/internal/logging"
	"dropzone/internal/metrics"
	"dropzone/internal/preflight"
	"dropzone/internal/taskqueue"
)

// Daemon owns the store, the ingestion controller and the optional HTTP endpoint.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	baseLogger *slog.Logger
	store      *kvstore.Store
	queue      *taskqueue.Queue
	layout     *geometry.Layout
	inspector  ingest.Inspector
	controller *ingest.Controller
	metrics    *metrics.Recorder
	api        *apiServer

	running   atomic.Bool
	mu        sync.Mutex
	cancel    context.CancelFunc
	startedAt time.Time
	closeOnce sync.Once
	closeErr  error
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	StartedAt     time.Time
	StorePath     string
	StoreBackend  string
	LockFilePath  string
	HistoryCount  int
	TargetElement string
	TargetBounds  *geometry.Rect
	MetricsBind   string
}

// Option customizes daemon construction.
type Option func(*Daemon)

// WithLayout shares an existing layout registry with the daemon.
func WithLayout(layout *geometry.Layout) Option {
	return func(d *Daemon) {
		if layout != nil {
			d.layout = layout
		}
	}
}

// WithInspector replaces the filesystem inspector.
func WithInspector(inspector ingest.Inspector) Option {
	return func(d *Daemon) {
		if inspector != nil {
			d.inspector = inspector
		}
	}
}

// WithRecorder replaces the metrics recorder.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(d *Daemon) {
		if rec != nil {
			d.metrics = rec
		}
	}
}

// New runs preflight checks, opens the store, bootstraps the history and
// builds the ingestion controller with a loaded cache.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:     cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		baseLogger: logger,
		layout:     geometry.NewLayout(),
		metrics:    metrics.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.inspector == nil {
		d.inspector = inspect.New(inspect.WithLogger(logger))
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	if err := preflight.Failed(preflight.RunAll(ctx, cfg)); err != nil {
		return nil, fmt.Errorf("preflight failed: %w", err)
	}

	store, err := kvstore.Load(ctx, cfg.StorePath(), kvstore.Options{
		Backend:          cfg.Store.Backend,
		AutoSave:         cfg.Store.AutoSave,
		AutoSaveDebounce: cfg.AutoSaveDebounce(),
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	d.store = store

	initialized, err := history.Bootstrap(ctx, store)
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("bootstrap history: %w", err)
	}
	if initialized {
		d.logger.Info("initialized empty history", logging.String(logging.FieldPath, store.Path()))
	}

	d.queue = taskqueue.New()
	controller, err := ingest.New(ingest.Deps{
		Region:    d.layout.Region(cfg.Drop.TargetElement),
		Inspector: d.inspector,
		History:   history.NewRepository(store),
		Queue:     d.queue,
	}, ingest.WithLogger(logger), ingest.WithRecorder(d.metrics))
	if err != nil {
		d.queue.Close()
		_ = store.Close(ctx)
		return nil, err
	}
	if err := controller.Refresh(ctx); err != nil {
		d.queue.Close()
		_ = store.Close(ctx)
		return nil, fmt.Errorf("load history: %w", err)
	}
	d.controller = controller
	return d, nil
}

// Start marks the daemon running and starts the HTTP endpoint when configured.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	api := newAPIServer(d.cfg, d, d.baseLogger)
	if err := api.start(runCtx); err != nil {
		cancel()
		return err
	}
	d.api = api
	d.cancel = cancel
	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("dropzone daemon started",
		logging.String("store", d.store.Path()),
		logging.String("backend", d.store.Backend()),
		logging.Int("history_count", len(d.controller.History())))
	return nil
}

// Stop stops the HTTP endpoint. The store stays open until Close.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.api = nil
	d.running.Store(false)
	d.logger.Info("dropzone daemon stopped")
}

// Close stops the daemon, drains queued history updates and closes the store.
func (d *Daemon) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.Stop()
		d.queue.Close()
		if err := d.store.Close(ctx); err != nil {
			d.closeErr = fmt.Errorf("close store: %w", err)
		}
	})
	return d.closeErr
}

// HandleDrop forwards a drop event to the ingestion controller.
func (d *Daemon) HandleDrop(ctx context.Context, ev ingest.DropEvent) (ingest.Outcome, error) {
	return d.controller.HandleDrop(ctx, ev)
}

// Inspect describes path without touching the history.
func (d *Daemon) Inspect(ctx context.Context, path string) (inspect.FileDescriptor, error) {
	return d.inspector.Inspect(ctx, path)
}

// History returns the cached history.
func (d *Daemon) History() []inspect.FileDescriptor {
	return d.controller.History()
}

// Layout returns the live layout registry used for drop hit tests.
func (d *Daemon) Layout() *geometry.Layout {
	return d.layout
}

// Metrics returns the daemon's recorder.
func (d *Daemon) Metrics() *metrics.Recorder {
	return d.metrics
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	startedAt := d.startedAt
	metricsAddr := d.api.addr()
	d.mu.Unlock()

	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		StartedAt:     startedAt,
		StorePath:     d.store.Path(),
		StoreBackend:  d.store.Backend(),
		LockFilePath:  d.store.LockPath(),
		HistoryCount:  len(d.controller.History()),
		TargetElement: d.cfg.Drop.TargetElement,
		MetricsBind:   d.cfg.Metrics.Bind,
	}
	if metricsAddr != "" {
		status.MetricsBind = metricsAddr
	}
	if rect, ok := d.layout.Bounds(d.cfg.Drop.TargetElement); ok {
		status.TargetBounds = &rect
	}
	return status
}
