package bridge_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dropzone/internal/bridge"
	"dropzone/internal/daemon"
	"dropzone/internal/geometry"
	"dropzone/internal/inspect"
	"dropzone/internal/logging"
	"dropzone/internal/testsupport"
)

func startBridge(t *testing.T) (*bridge.Client, *daemon.Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	d, err := daemon.New(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := bridge.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping bridge test: %v", err)
		}
		t.Fatalf("bridge.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := bridge.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("bridge.Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, d
}

func TestGreet(t *testing.T) {
	client, _ := startBridge(t)
	msg, err := client.Greet("Ada")
	if err != nil {
		t.Fatalf("Greet: %v", err)
	}
	if msg != "Hello, Ada! You've been greeted from Go!" {
		t.Fatalf("unexpected greeting %q", msg)
	}
}

func TestHandleDropfileReturnsDescriptorOrFailure(t *testing.T) {
	client, d := startBridge(t)
	dir := t.TempDir()
	file := testsupport.WriteText(t, filepath.Join(dir, "main.go"), "package main\n\nfunc main() {}\n")

	resp, err := client.HandleDropfile(file)
	if err != nil {
		t.Fatalf("HandleDropfile: %v", err)
	}
	if resp.Failure != nil || resp.File == nil {
		t.Fatalf("expected descriptor, got %+v", resp)
	}
	if resp.File.Extension() != "go" || resp.File.ProcessingResult != "Text file analyzed - Lines: 3, Characters: 29" {
		t.Fatalf("unexpected descriptor: %+v", resp.File)
	}
	if len(d.History()) != 0 {
		t.Fatal("inspection alone must not touch the history")
	}

	resp, err = client.HandleDropfile(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("HandleDropfile: %v", err)
	}
	if resp.Failure == nil || resp.Failure.Kind != string(inspect.KindNotFound) {
		t.Fatalf("expected not_found failure, got %+v", resp)
	}
}

func TestDragDropFlow(t *testing.T) {
	client, _ := startBridge(t)
	dir := t.TempDir()
	a := testsupport.WriteText(t, filepath.Join(dir, "a.txt"), "a")
	b := testsupport.WriteText(t, filepath.Join(dir, "b.txt"), "b")

	resp, err := client.DragDrop(bridge.DragDropRequest{Paths: []string{a}, Position: geometry.Point{X: 5, Y: 5}})
	if err != nil {
		t.Fatalf("DragDrop: %v", err)
	}
	if resp.Accepted || resp.Rejection != bridge.RejectionIndeterminate {
		t.Fatalf("expected indeterminate rejection without layout, got %+v", resp)
	}

	layout, err := client.ReportLayout(bridge.ReportLayoutRequest{
		Element: "drop-area",
		Rect:    geometry.Rect{Left: 0, Top: 0, Width: 100, Height: 100},
	})
	if err != nil {
		t.Fatalf("ReportLayout: %v", err)
	}
	if len(layout.Elements) != 1 || layout.Elements[0] != "drop-area" {
		t.Fatalf("unexpected layout elements: %v", layout.Elements)
	}

	resp, err = client.DragDrop(bridge.DragDropRequest{Paths: []string{a, b}, Position: geometry.Point{X: 100, Y: 100}})
	if err != nil {
		t.Fatalf("DragDrop: %v", err)
	}
	if !resp.Accepted || resp.File == nil || resp.File.Path != a {
		t.Fatalf("expected accepted drop of first path, got %+v", resp)
	}
	if len(resp.Ignored) != 1 || resp.Ignored[0] != b {
		t.Fatalf("unexpected ignored paths: %v", resp.Ignored)
	}

	resp, err = client.DragDrop(bridge.DragDropRequest{Paths: []string{b}, Position: geometry.Point{X: 101, Y: 50}})
	if err != nil {
		t.Fatalf("DragDrop: %v", err)
	}
	if resp.Accepted || resp.Rejection != bridge.RejectionOutside {
		t.Fatalf("expected outside rejection, got %+v", resp)
	}

	missing := filepath.Join(dir, "gone.txt")
	resp, err = client.DragDrop(bridge.DragDropRequest{Paths: []string{missing}, Position: geometry.Point{X: 1, Y: 1}})
	if err != nil {
		t.Fatalf("DragDrop: %v", err)
	}
	if resp.Failure == nil || resp.Failure.Kind != string(inspect.KindNotFound) {
		t.Fatalf("expected not_found failure, got %+v", resp)
	}

	hist, err := client.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist.History) != 1 || hist.History[0].Path != a {
		t.Fatalf("unexpected history: %+v", hist.History)
	}
}

func TestReportLayoutValidation(t *testing.T) {
	client, _ := startBridge(t)
	if _, err := client.ReportLayout(bridge.ReportLayoutRequest{Element: "x", Rect: geometry.Rect{Width: -1}}); err == nil {
		t.Fatal("expected error for negative width")
	}
	if _, err := client.ReportLayout(bridge.ReportLayoutRequest{Element: " "}); err == nil {
		t.Fatal("expected error for empty element")
	}
	if _, err := client.ReportLayout(bridge.ReportLayoutRequest{Element: "x", Rect: geometry.Rect{Width: 1, Height: 1}}); err != nil {
		t.Fatalf("ReportLayout: %v", err)
	}
	resp, err := client.ReportLayout(bridge.ReportLayoutRequest{Element: "x", Remove: true})
	if err != nil {
		t.Fatalf("ReportLayout remove: %v", err)
	}
	if len(resp.Elements) != 0 {
		t.Fatalf("expected element removed, got %v", resp.Elements)
	}
}

func TestStatus(t *testing.T) {
	client, d := startBridge(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID != os.Getpid() {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.StoreBackend != "json" || status.TargetElement != "drop-area" {
		t.Fatalf("unexpected store details: %+v", status)
	}
}
