package preflight

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"dropzone/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckStoreFile("Store file", cfg.StorePath()),
		CheckSocketPath("Bridge socket", cfg.SocketPath()),
	}
	if socketDir := filepath.Dir(cfg.SocketPath()); socketDir != cfg.Paths.DataDir {
		results = append(results, CheckDirectoryAccess("Socket directory", socketDir))
	}
	if strings.TrimSpace(cfg.Metrics.Bind) != "" {
		results = append(results, CheckListenAddress(ctx, "Metrics endpoint", cfg.Metrics.Bind))
	}
	return results
}

// Failed joins the details of every failed result, or returns nil.
func Failed(results []Result) error {
	var errs []error
	for _, r := range results {
		if !r.Passed {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
		}
	}
	return errors.Join(errs...)
}
