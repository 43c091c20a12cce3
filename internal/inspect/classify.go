package inspect

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lower = cases.Lower(language.Und)
	upper = cases.Upper(language.Und)
)

var fileTypes = map[string]string{
	"jpg": "Image", "jpeg": "Image", "png": "Image", "gif": "Image", "bmp": "Image", "webp": "Image",
	"mp4": "Video", "avi": "Video", "mov": "Video", "wmv": "Video", "flv": "Video", "mkv": "Video",
	"mp3": "Audio", "wav": "Audio", "flac": "Audio", "aac": "Audio", "ogg": "Audio",
	"txt": "Text", "md": "Text", "log": "Text",
	"pdf":  "PDF Document",
	"doc":  "Word Document",
	"docx": "Word Document",
	"xls":  "Excel Document",
	"xlsx": "Excel Document",
	"zip":  "Archive", "rar": "Archive", "7z": "Archive", "tar": "Archive", "gz": "Archive",
}

var imageExtensions = setOf("jpg", "jpeg", "png", "gif", "bmp", "webp", "svg")

var textExtensions = setOf(
	"txt", "md", "json", "xml", "html", "css", "js", "ts", "rs", "py", "java", "c", "cpp", "h", "go",
)

func setOf(values ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

// baseName returns the final element of path, or "Unknown" when the path
// has none ("/", "..", "").
func baseName(path string) string {
	trimmed := strings.TrimRight(path, string(filepath.Separator))
	if trimmed == "" {
		return "Unknown"
	}
	name := filepath.Base(trimmed)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "Unknown"
	}
	return name
}

// extension returns the text after the last dot of name. A name whose only
// dot is the leading one (".bashrc") has no extension; "name." has an empty
// one.
func extension(name string) *string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return nil
	}
	ext := name[idx+1:]
	return &ext
}

// FileType returns the display category for an entry.
func FileType(isDir bool, ext *string) string {
	if isDir {
		return "Directory"
	}
	if ext == nil {
		return "Unknown"
	}
	if kind, ok := fileTypes[lower.String(*ext)]; ok {
		return kind
	}
	return upper.String(*ext) + " File"
}

// FormatSize renders size with 1024-based units.
func FormatSize(size uint64) string {
	const (
		kb = 1024.0
		mb = kb * 1024
		gb = mb * 1024
	)
	value := float64(size)
	switch {
	case value < kb:
		return strconv.FormatFloat(value, 'f', -1, 64) + " B"
	case value < mb:
		return fmt.Sprintf("%.2f KB", value/kb)
	case value < gb:
		return fmt.Sprintf("%.2f MB", value/mb)
	default:
		return fmt.Sprintf("%.2f GB", value/gb)
	}
}

func isImage(ext *string) bool {
	if ext == nil {
		return false
	}
	_, ok := imageExtensions[lower.String(*ext)]
	return ok
}

func isText(ext *string) bool {
	if ext == nil {
		return false
	}
	_, ok := textExtensions[lower.String(*ext)]
	return ok
}
