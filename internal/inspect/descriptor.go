package inspect

// FileDescriptor is the metadata record produced by inspecting one entry.
// Path is the identity key: two descriptors with the same Path describe the
// same history entry. Timestamps are milliseconds since the Unix epoch, zero
// when the platform does not report them.
type FileDescriptor struct {
	Path             string  `json:"path"`
	Name             string  `json:"name"`
	Size             uint64  `json:"size"`
	Ext              *string `json:"ext"`
	IsFile           bool    `json:"is_file"`
	IsDir            bool    `json:"is_dir"`
	FileType         string  `json:"file_type"`
	FormattedSize    string  `json:"formatted_size"`
	ProcessingResult string  `json:"processing_result"`
	Modified         uint64  `json:"modified"`
	Created          uint64  `json:"created"`
	Accessed         uint64  `json:"accessed"`
}

// Extension returns the extension without the dot, or "" when absent.
func (d FileDescriptor) Extension() string {
	if d.Ext == nil {
		return ""
	}
	return *d.Ext
}
