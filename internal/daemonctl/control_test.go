package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"dropzone/internal/bridge"
	"dropzone/internal/config"
	"dropzone/internal/daemon"
	"dropzone/internal/daemonctl"
	"dropzone/internal/history"
	"dropzone/internal/inspect"
	"dropzone/internal/logging"
	"dropzone/internal/testsupport"
)

func serveDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	d, err := daemon.New(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	srv, err := bridge.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		t.Fatalf("bridge.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
	return d
}

func TestProcessInfoWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	alive, pid, err := daemonctl.ProcessInfo(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if alive || pid != 0 {
		t.Fatalf("expected no daemon, got alive=%v pid=%d", alive, pid)
	}

	if _, err := daemonctl.StopAndTerminate(cfg.SocketPath(), cfg, time.Second); !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
	if err := daemonctl.WaitForShutdown(cfg.SocketPath(), time.Second); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
}

func TestWaitForClientTimesOut(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.WaitForClient(cfg.SocketPath(), 250*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "daemon failed to start") {
		t.Fatalf("expected start failure, got %v", err)
	}
}

func TestEnsureStartedReusesRunningDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	serveDaemon(t, cfg)

	result, err := daemonctl.EnsureStarted(cfg.SocketPath(), "", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.State != daemonctl.StartStateAlreadyRunning || result.Launched {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.PID != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), result.PID)
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := daemonctl.Launch("  ", daemonctl.LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

func TestStopRefusesCurrentProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	serveDaemon(t, cfg)

	_, err := daemonctl.StopAndTerminate(cfg.SocketPath(), cfg, time.Second)
	if err == nil || !strings.Contains(err.Error(), "refusing to signal current process") {
		t.Fatalf("expected refusal, got %v", err)
	}
}

func TestBuildStatusSnapshotOnline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	serveDaemon(t, cfg)

	snap, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg.SocketPath(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snap.Offline || !snap.Status.Running {
		t.Fatalf("expected online snapshot, got %+v", snap)
	}
	if snap.Status.StorePath != cfg.StorePath() {
		t.Fatalf("unexpected store path %q", snap.Status.StorePath)
	}
	if len(snap.Checks) == 0 {
		t.Fatal("expected checks")
	}
}

func TestBuildStatusSnapshotOfflineReadsStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	list := []inspect.FileDescriptor{
		testsupport.Descriptor("/tmp/b.txt"),
		testsupport.Descriptor("/tmp/a.txt"),
	}
	testsupport.MustSet(t, store, history.Key, list)
	if err := store.Close(context.Background()); err != nil {
		t.Fatalf("close store: %v", err)
	}

	snap, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg.SocketPath(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if !snap.Offline || snap.Status.Running {
		t.Fatalf("expected offline snapshot, got %+v", snap.Status)
	}
	if snap.OfflineErr != nil {
		t.Fatalf("unexpected offline error: %v", snap.OfflineErr)
	}
	if snap.Status.HistoryCount != 2 {
		t.Fatalf("expected 2 history entries, got %d", snap.Status.HistoryCount)
	}
	if snap.Status.TargetElement != cfg.Drop.TargetElement {
		t.Fatalf("unexpected target element %q", snap.Status.TargetElement)
	}
}

func TestReadHistoryLeavesMissingStoreAlone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	list, err := daemonctl.ReadHistory(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil history, got %v", list)
	}
	if _, err := os.Stat(cfg.StorePath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected store file to stay absent, got %v", err)
	}
}
