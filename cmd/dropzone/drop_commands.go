package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dropzone/internal/bridge"
	"dropzone/internal/geometry"
)

func newGreetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "greet [name]",
		Short: "Exchange a greeting with the daemon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "World"
			if len(args) == 1 {
				name = args[0]
			}
			return ctx.withClient(func(client *bridge.Client) error {
				msg, err := client.Greet(name)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Describe a file without recording it in the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *bridge.Client) error {
				resp, err := client.HandleDropfile(path)
				if err != nil {
					return err
				}
				if resp.Failure != nil {
					return failureError(resp.Failure)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.File)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderDescriptor(*resp.File))
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the descriptor as JSON")
	return cmd
}

func newDropCommand(ctx *commandContext) *cobra.Command {
	var x, y float64
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "drop <path> [path...]",
		Short: "Simulate a drop release at a window position",
		Long: "Simulate a drop release at a window position.\n\n" +
			"Only the first path is processed; the rest are reported as ignored.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := make([]string, 0, len(args))
			for _, arg := range args {
				path, err := absPath(arg)
				if err != nil {
					return err
				}
				paths = append(paths, path)
			}
			return ctx.withClient(func(client *bridge.Client) error {
				resp, err := client.DragDrop(bridge.DragDropRequest{
					Paths:    paths,
					Position: geometry.Point{X: x, Y: y},
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					if err := writeJSON(cmd, resp); err != nil {
						return err
					}
					if resp.Failure != nil {
						return failureError(resp.Failure)
					}
					return nil
				}

				out := cmd.OutOrStdout()
				if resp.Failure != nil {
					return failureError(resp.Failure)
				}
				if !resp.Accepted {
					fmt.Fprintf(out, "Drop rejected: %s\n", resp.Rejection)
					return nil
				}
				fmt.Fprintf(out, "Drop accepted: %s (%s, %s)\n", resp.File.Name, resp.File.FileType, resp.File.FormattedSize)
				if len(resp.Ignored) > 0 {
					fmt.Fprintf(out, "Ignored: %s\n", strings.Join(resp.Ignored, ", "))
				}
				fmt.Fprintf(out, "History: %d entries\n", len(resp.History))
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "Drop position X in window coordinates")
	cmd.Flags().Float64Var(&y, "y", 0, "Drop position Y in window coordinates")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the drop outcome as JSON")
	return cmd
}

func absPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}

func failureError(f *bridge.Failure) error {
	return fmt.Errorf("%s: %s", f.Kind, f.Message)
}
