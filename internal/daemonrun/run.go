package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"dropzone/internal/bridge"
	"dropzone/internal/config"
	"dropzone/internal/daemon"
	"dropzone/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level from the config when set.
	LogLevel string
	// Development adds source locations to every record.
	Development bool
	// Logger replaces the logger built from the config.
	Logger *slog.Logger
	// Ready is called once the bridge socket accepts connections.
	Ready func(socketPath string)
}

// Run starts the dropzone daemon and blocks until the context is cancelled
// or the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = newLogger(cfg, opts)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(signalCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer func() {
		if closeErr := d.Close(context.WithoutCancel(signalCtx)); closeErr != nil {
			logger.Error("close daemon", logging.Error(closeErr))
		}
	}()

	socketPath := cfg.SocketPath()
	server, err := bridge.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start bridge server: %w", err)
	}
	defer server.Close()
	server.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	logger.Info("dropzone daemon ready",
		logging.String(logging.FieldEventType, "daemon_ready"),
		logging.String("socket", socketPath),
		logging.String("store", cfg.StorePath()),
		logging.String("backend", cfg.Store.Backend),
		logging.Int("pid", os.Getpid()),
	)
	if opts.Ready != nil {
		opts.Ready(socketPath)
	}

	<-signalCtx.Done()
	logger.Info("dropzone daemon shutting down")
	return nil
}

// PIDPath returns the location of the daemon PID file.
func PIDPath(cfg *config.Config) string {
	if cfg == nil || cfg.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(cfg.Paths.LogDir, "dropzone.pid")
}

// ReadPID returns the PID recorded by a running daemon, or 0 when none is recorded.
func ReadPID(cfg *config.Config) int {
	path := PIDPath(cfg)
	if path == "" {
		return 0
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

func newLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	if opts.LogLevel == "" && !opts.Development {
		return logging.NewFromConfig(cfg)
	}
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr", filepath.Join(cfg.Paths.LogDir, "dropzone.log")},
		Development: opts.Development,
	})
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
