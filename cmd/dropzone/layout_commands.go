package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dropzone/internal/bridge"
	"dropzone/internal/geometry"
)

func newLayoutCommand(ctx *commandContext) *cobra.Command {
	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "Report UI element bounds to the daemon",
	}
	layoutCmd.AddCommand(newLayoutSetCommand(ctx))
	layoutCmd.AddCommand(newLayoutRemoveCommand(ctx))
	return layoutCmd
}

func newLayoutSetCommand(ctx *commandContext) *cobra.Command {
	var rect geometry.Rect
	cmd := &cobra.Command{
		Use:   "set <element>",
		Short: "Record the current bounds of an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportLayout(cmd, ctx, bridge.ReportLayoutRequest{Element: args[0], Rect: rect})
		},
	}
	cmd.Flags().Float64Var(&rect.Left, "left", 0, "Left edge in window coordinates")
	cmd.Flags().Float64Var(&rect.Top, "top", 0, "Top edge in window coordinates")
	cmd.Flags().Float64Var(&rect.Width, "width", 0, "Element width")
	cmd.Flags().Float64Var(&rect.Height, "height", 0, "Element height")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func newLayoutRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <element>",
		Short: "Forget an element, as when it leaves the UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportLayout(cmd, ctx, bridge.ReportLayoutRequest{Element: args[0], Remove: true})
		},
	}
}

func reportLayout(cmd *cobra.Command, ctx *commandContext, req bridge.ReportLayoutRequest) error {
	return ctx.withClient(func(client *bridge.Client) error {
		resp, err := client.ReportLayout(req)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if req.Remove {
			fmt.Fprintf(out, "Removed %s\n", req.Element)
		} else {
			fmt.Fprintf(out, "Recorded %s at %s\n", req.Element, req.Rect)
		}
		elements := "none"
		if len(resp.Elements) > 0 {
			elements = strings.Join(resp.Elements, ", ")
		}
		fmt.Fprintf(out, "Known elements: %s\n", elements)
		return nil
	})
}
