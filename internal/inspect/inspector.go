package inspect

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"dropzone/internal/logging"
)

// Inspector implements the file inspection service.
type Inspector struct {
	logger *slog.Logger
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithLogger sets the logger used for per-kind processing messages.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New constructs an Inspector.
func New(opts ...Option) *Inspector {
	i := &Inspector{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.NewComponentLogger(i.logger, "inspect")
	return i
}

// Inspect stats path and returns its descriptor with a processing result.
func (i *Inspector) Inspect(ctx context.Context, path string) (FileDescriptor, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return FileDescriptor{}, &Error{Kind: KindUnknown, Path: path, Message: "inspection canceled", Err: err}
		}
	}
	if strings.TrimSpace(path) == "" {
		return FileDescriptor{}, &Error{Kind: KindNotFound, Path: path, Message: "file does not exist: (empty path)"}
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileDescriptor{}, &Error{Kind: KindNotFound, Path: path, Message: "file does not exist: " + path}
		}
		return FileDescriptor{}, wrapOSError(path, "failed to get metadata for file", err)
	}

	desc := describe(path, info)
	if !desc.IsFile && !desc.IsDir {
		return FileDescriptor{}, &Error{
			Kind:    KindUnsupported,
			Path:    path,
			Message: fmt.Sprintf("unsupported entry type %s: %s", info.Mode().Type(), path),
		}
	}

	result, err := i.process(desc)
	if err != nil {
		return FileDescriptor{}, err
	}
	desc.ProcessingResult = result
	return desc, nil
}

func describe(path string, info fs.FileInfo) FileDescriptor {
	name := baseName(path)
	ext := extension(name)
	size := uint64(0)
	if info.Size() > 0 {
		size = uint64(info.Size())
	}
	isDir := info.IsDir()
	created, accessed := entryTimes(path)

	return FileDescriptor{
		Path:          path,
		Name:          name,
		Size:          size,
		Ext:           ext,
		IsFile:        info.Mode().IsRegular(),
		IsDir:         isDir,
		FileType:      FileType(isDir, ext),
		FormattedSize: FormatSize(size),
		Modified:      epochMillis(info.ModTime()),
		Created:       created,
		Accessed:      accessed,
	}
}

func epochMillis(t time.Time) uint64 {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

func (i *Inspector) process(desc FileDescriptor) (string, error) {
	switch {
	case desc.IsFile && isImage(desc.Ext):
		i.logger.Debug("processing image file", logging.String(logging.FieldPath, desc.Path))
		return fmt.Sprintf("Image file '%s' analyzed", desc.Name), nil
	case desc.IsFile && isText(desc.Ext):
		i.logger.Debug("processing text file", logging.String(logging.FieldPath, desc.Path))
		return processText(desc)
	case desc.IsFile:
		i.logger.Debug("processing generic file", logging.String(logging.FieldPath, desc.Path))
		return fmt.Sprintf("File '%s' information retrieved", desc.Name), nil
	default:
		i.logger.Debug("processing directory", logging.String(logging.FieldPath, desc.Path))
		entries, err := os.ReadDir(desc.Path)
		if err != nil {
			return "", wrapOSError(desc.Path, "failed to read directory", err)
		}
		return fmt.Sprintf("Directory contains %d items", len(entries)), nil
	}
}

func processText(desc FileDescriptor) (string, error) {
	content, err := os.ReadFile(desc.Path)
	if err != nil {
		return "", wrapOSError(desc.Path, "failed to read text file", err)
	}
	if !utf8.Valid(content) {
		return "", &Error{Kind: KindUnsupported, Path: desc.Path, Message: "failed to read text file: content is not valid UTF-8"}
	}
	text := string(content)
	return fmt.Sprintf("Text file analyzed - Lines: %d, Characters: %d", countLines(text), utf8.RuneCountInString(text)), nil
}

// countLines counts newline-separated lines; a trailing newline does not
// start an extra line.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
