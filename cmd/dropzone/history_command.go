package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dropzone/internal/bridge"
	"dropzone/internal/daemonctl"
	"dropzone/internal/inspect"
	"dropzone/internal/kvstore"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var treeOutput bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded files, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, offline, err := loadHistory(cmd, ctx)
			if err != nil {
				return err
			}
			if offline {
				fmt.Fprintf(cmd.ErrOrStderr(), "Daemon not running; read %s directly\n", ctx.configValue().StorePath())
			}

			out := cmd.OutOrStdout()
			switch {
			case jsonOutput:
				return writeJSON(cmd, list)
			case len(list) == 0:
				fmt.Fprintln(out, "History is empty")
			case treeOutput:
				fmt.Fprint(out, renderHistoryTree(list))
			default:
				fmt.Fprint(out, renderHistory(list))
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the history as JSON")
	cmd.Flags().BoolVar(&treeOutput, "tree", false, "Group the history by directory")
	cmd.MarkFlagsMutuallyExclusive("json", "tree")
	return cmd
}

// loadHistory asks the daemon for its cached history and falls back to
// reading the store when no daemon answers.
func loadHistory(cmd *cobra.Command, ctx *commandContext) ([]inspect.FileDescriptor, bool, error) {
	client, err := bridge.Dial(ctx.socketPath())
	if err == nil {
		defer client.Close()
		resp, err := client.History()
		if err != nil {
			return nil, false, err
		}
		if resp.History == nil {
			return []inspect.FileDescriptor{}, false, nil
		}
		return resp.History, false, nil
	}
	if !isDaemonUnavailable(err) {
		return nil, false, wrapDialError(err, ctx.socketPath())
	}

	cfg, cfgErr := ctx.ensureConfig()
	if cfgErr != nil {
		return nil, false, cfgErr
	}
	list, err := daemonctl.ReadHistory(cmd.Context(), cfg)
	if errors.Is(err, kvstore.ErrLocked) {
		return nil, false, fmt.Errorf("store %s is owned by another process that is not answering on %s", cfg.StorePath(), ctx.socketPath())
	}
	if err != nil {
		return nil, false, err
	}
	return list, true, nil
}
