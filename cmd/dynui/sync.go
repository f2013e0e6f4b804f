package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-dynui/pkg/loop"
	"github.com/goliatone/go-dynui/pkg/page"
)

func newSyncCmd(a *app) *cobra.Command {
	var (
		endpoint string
		watch    bool
	)
	cmd := &cobra.Command{
		Use:   "sync <config>",
		Short: "Fetch the page endpoints and report what was bound",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return a.watch(ctx, args[0], cmd.OutOrStdout())
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.flags.timeout)
			defer cancel()
			return a.sync(ctx, args[0], endpoint, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Sync only the named endpoint")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling endpoints that declare a poll interval")
	return cmd
}

func (a *app) sync(ctx context.Context, path, endpoint string, out io.Writer) error {
	c, err := a.loadController(ctx, path)
	if err != nil {
		return err
	}
	defer c.Close()

	if endpoint != "" {
		res, err := c.SyncEndpoint(ctx, endpoint)
		printSyncResult(out, res)
		return err
	}

	results, err := c.Sync(ctx)
	for _, res := range results {
		printSyncResult(out, res)
	}
	return err
}

// watch runs the page on a UI loop and applies polled responses until ctx
// is done.
func (a *app) watch(ctx context.Context, path string, out io.Writer) error {
	ui := loop.New(loop.WithLogger(a.logger.Named("loop")))
	c, err := a.loadController(ctx, path, page.WithDispatcher(ui))
	if err != nil {
		return err
	}
	defer c.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := ui.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return c.Watch(ctx)
	})

	a.logger.Info("watching endpoints", zap.Strings("endpoints", c.EndpointNames()))
	_, _ = fmt.Fprintln(out, "watching, press Ctrl+C to stop")
	return g.Wait()
}

func printSyncResult(out io.Writer, res page.SyncResult) {
	if res.Endpoint == "" {
		return
	}
	if res.Err != nil {
		_, _ = fmt.Fprintf(out, "%-16s failed: %v\n", res.Endpoint, res.Err)
		return
	}
	_, _ = fmt.Fprintf(out, "%-16s records=%d applied=%d skipped=%d unapplied_slots=%d\n",
		res.Endpoint, res.Records, res.Applied, res.Skipped, res.Unapplied)
}
