package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"dropzone/internal/daemon"
	"dropzone/internal/history"
	"dropzone/internal/ingest"
	"dropzone/internal/inspect"
	"dropzone/internal/logging"
)

// Server exposes the daemon via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer configures the bridge server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("bridge server requires daemon")
	}
	logger = logging.NewComponentLogger(logger, "bridge")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, svc); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
		conns:     make(map[net.Conn]struct{}),
	}, nil
}

// Path returns the socket path.
func (s *Server) Path() string { return s.path }

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("bridge listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "bridge_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "UI clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.track(conn, true)
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer s.track(c, false)
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "bridge_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

// Greet returns the fixed greeting for name.
func (s *service) Greet(req GreetRequest, resp *GreetResponse) error {
	resp.Message = fmt.Sprintf("Hello, %s! You've been greeted from Go!", req.Name)
	return nil
}

func (s *service) HandleDropfile(req HandleDropfileRequest, resp *HandleDropfileResponse) error {
	desc, err := s.daemon.Inspect(s.ctx, req.Path)
	if err != nil {
		resp.Failure = failureFrom(err)
		s.logger.Debug("inspection failed",
			logging.String(logging.FieldPath, req.Path),
			logging.String("kind", resp.Failure.Kind))
		return nil
	}
	resp.File = &desc
	return nil
}

func (s *service) DragDrop(req DragDropRequest, resp *DragDropResponse) error {
	out, err := s.daemon.HandleDrop(s.ctx, ingest.DropEvent{Paths: req.Paths, Position: req.Position})
	resp.CorrelationID = out.CorrelationID
	resp.Accepted = out.Accepted
	resp.Ignored = out.Ignored
	if out.Rejection != nil {
		resp.Rejection = rejectionCode(out.Rejection)
	}
	if err != nil {
		resp.Failure = failureFrom(err)
		return nil
	}
	resp.File = out.File
	resp.History = out.History
	return nil
}

func (s *service) ReportLayout(req ReportLayoutRequest, resp *ReportLayoutResponse) error {
	element := strings.TrimSpace(req.Element)
	if element == "" {
		return errors.New("layout element is required")
	}
	layout := s.daemon.Layout()
	if req.Remove {
		layout.Remove(element)
	} else {
		if !req.Rect.Valid() {
			return fmt.Errorf("invalid bounds for %q: %s", element, req.Rect)
		}
		layout.Report(element, req.Rect)
	}
	resp.Elements = layout.Elements()
	return nil
}

func (s *service) History(_ HistoryRequest, resp *HistoryResponse) error {
	resp.History = s.daemon.History()
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	if !status.StartedAt.IsZero() {
		resp.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	resp.StorePath = status.StorePath
	resp.StoreBackend = status.StoreBackend
	resp.LockPath = status.LockFilePath
	resp.HistoryCount = status.HistoryCount
	resp.TargetElement = status.TargetElement
	resp.TargetBounds = status.TargetBounds
	resp.MetricsBind = status.MetricsBind
	return nil
}

func failureFrom(err error) *Failure {
	if err == nil {
		return nil
	}
	kind := FailureInternal
	var inspectErr *inspect.Error
	switch {
	case errors.As(err, &inspectErr):
		kind = string(inspectErr.Kind)
	case errors.Is(err, history.ErrStoreRead):
		kind = FailureStoreRead
	case errors.Is(err, history.ErrStoreWrite):
		kind = FailureStoreWrite
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = FailureCanceled
	}
	return &Failure{Kind: kind, Message: err.Error()}
}

func rejectionCode(err error) string {
	switch {
	case errors.Is(err, ingest.ErrOutsideRegion):
		return RejectionOutside
	case errors.Is(err, ingest.ErrGeometryIndeterminate):
		return RejectionIndeterminate
	case errors.Is(err, ingest.ErrEmptyDrop):
		return RejectionEmpty
	default:
		return err.Error()
	}
}
