package config

const (
	defaultDataDir            = "~/.local/share/dropzone"
	defaultLogDir             = "~/.local/share/dropzone/logs"
	defaultSocketName         = "dropzone.sock"
	defaultStoreFile          = "store.json"
	defaultStoreBackend       = BackendJSON
	defaultAutoSave           = true
	defaultAutoSaveDebounceMS = 100
	defaultTargetElement      = "drop-area"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Store backend identifiers accepted by store.backend.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Store: Store{
			File:               defaultStoreFile,
			Backend:            defaultStoreBackend,
			AutoSave:           defaultAutoSave,
			AutoSaveDebounceMS: defaultAutoSaveDebounceMS,
		},
		Drop: Drop{
			TargetElement: defaultTargetElement,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
