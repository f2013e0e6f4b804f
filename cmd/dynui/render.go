package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-dynui"
	"github.com/goliatone/go-dynui/pkg/page"
)

type renderFlags struct {
	output string
	sync   bool
	inputs map[string]string
	clicks []string
}

func newRenderCmd(a *app) *cobra.Command {
	var flags renderFlags
	cmd := &cobra.Command{
		Use:   "render <config>",
		Short: "Apply a page config and print the resulting HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.flags.timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			if flags.output != "" {
				f, err := os.Create(flags.output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer func() { _ = f.Close() }()
				out = f
			}
			return a.render(ctx, args[0], flags, out)
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (stdout if empty)")
	cmd.Flags().BoolVar(&flags.sync, "sync", false, "Sync every endpoint before rendering")
	cmd.Flags().StringToStringVar(&flags.inputs, "set", nil, "Input values applied before rendering (name=value)")
	cmd.Flags().StringSliceVar(&flags.clicks, "click", nil, "Element ids clicked, in order, before rendering")
	return cmd
}

func (a *app) render(ctx context.Context, path string, flags renderFlags, out io.Writer) error {
	c, err := a.loadController(ctx, path)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := dynui.ApplyInputs(ctx, c, flags.inputs); err != nil {
		return err
	}
	for _, id := range flags.clicks {
		if err := c.Handle(ctx, page.Event{Type: page.EventClick, Target: id}); err != nil {
			return err
		}
	}

	if flags.sync {
		// Failed endpoints keep their previous content and are logged.
		_, _ = c.Sync(ctx)
	}
	c.Refresh()

	if err := c.Document().Render(out); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	_, err = fmt.Fprintln(out)
	return err
}
