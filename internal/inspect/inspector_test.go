package inspect_test

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dropzone/internal/inspect"
	"dropzone/internal/testsupport"
)

func TestInspectTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("héllo\nworld\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	desc, err := inspect.New().Inspect(context.Background(), path)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if desc.Path != path || desc.Name != "a.txt" {
		t.Fatalf("unexpected identity: %+v", desc)
	}
	if desc.Extension() != "txt" || desc.FileType != "Text" {
		t.Fatalf("unexpected classification: ext=%q type=%q", desc.Extension(), desc.FileType)
	}
	if !desc.IsFile || desc.IsDir {
		t.Fatalf("expected regular file flags, got is_file=%v is_dir=%v", desc.IsFile, desc.IsDir)
	}
	if desc.Size != 13 || desc.FormattedSize != "13 B" {
		t.Fatalf("unexpected size: %d %q", desc.Size, desc.FormattedSize)
	}
	if want := "Text file analyzed - Lines: 2, Characters: 12"; desc.ProcessingResult != want {
		t.Fatalf("unexpected processing result: %q want %q", desc.ProcessingResult, want)
	}
	if desc.Modified == 0 {
		t.Fatal("expected modified timestamp")
	}
}

func TestInspectProcessingByKind(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "photo.PNG")
	testsupport.WriteFile(t, image, 2048)
	vector := filepath.Join(dir, "logo.svg")
	testsupport.WriteFile(t, vector, 10)
	binary := filepath.Join(dir, "blob.bin")
	testsupport.WriteFile(t, binary, 10)
	noExt := filepath.Join(dir, "README")
	testsupport.WriteFile(t, noExt, 10)
	sub := filepath.Join(dir, "folder")
	testsupport.WriteFile(t, filepath.Join(sub, "one"), 1)
	testsupport.WriteFile(t, filepath.Join(sub, "two"), 1)

	cases := []struct {
		path       string
		fileType   string
		result     string
		formatSize string
	}{
		{image, "Image", "Image file 'photo.PNG' analyzed", "2.00 KB"},
		{vector, "SVG File", "Image file 'logo.svg' analyzed", "10 B"},
		{binary, "BIN File", "File 'blob.bin' information retrieved", "10 B"},
		{noExt, "Unknown", "File 'README' information retrieved", "10 B"},
		{sub, "Directory", "Directory contains 2 items", ""},
	}
	inspector := inspect.New()
	for _, tc := range cases {
		t.Run(filepath.Base(tc.path), func(t *testing.T) {
			desc, err := inspector.Inspect(context.Background(), tc.path)
			if err != nil {
				t.Fatalf("Inspect returned error: %v", err)
			}
			if desc.FileType != tc.fileType {
				t.Errorf("file type = %q, want %q", desc.FileType, tc.fileType)
			}
			if desc.ProcessingResult != tc.result {
				t.Errorf("processing result = %q, want %q", desc.ProcessingResult, tc.result)
			}
			if tc.formatSize != "" && desc.FormattedSize != tc.formatSize {
				t.Errorf("formatted size = %q, want %q", desc.FormattedSize, tc.formatSize)
			}
			if desc.IsDir == desc.IsFile {
				t.Errorf("expected exactly one of is_dir/is_file, got %v/%v", desc.IsDir, desc.IsFile)
			}
		})
	}
}

func TestInspectMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")
	_, err := inspect.New().Inspect(context.Background(), path)
	if !errors.Is(err, inspect.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if inspect.KindOf(err) != inspect.KindNotFound {
		t.Fatalf("expected not_found kind, got %s", inspect.KindOf(err))
	}
	if !strings.Contains(err.Error(), "file does not exist") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestInspectInvalidUTF8TextIsUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 'a'}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := inspect.New().Inspect(context.Background(), path)
	if !errors.Is(err, inspect.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestInspectUnreadableTextIsPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	path := filepath.Join(t.TempDir(), "secret.md")
	if err := os.WriteFile(path, []byte("hidden"), 0o000); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := inspect.New().Inspect(context.Background(), path)
	if !errors.Is(err, inspect.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestInspectSocketIsUnsupported(t *testing.T) {
	dir, err := os.MkdirTemp("", "dz")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	path := filepath.Join(dir, "s.sock")
	listener, err := net.Listen("unix", path)
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}
	t.Cleanup(func() { _ = listener.Close() })

	_, err = inspect.New().Inspect(context.Background(), path)
	if !errors.Is(err, inspect.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestInspectHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := inspect.New().Inspect(ctx, "/")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
