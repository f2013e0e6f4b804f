package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/goliatone/go-dynui"
	"github.com/goliatone/go-dynui/pkg/page"
	"github.com/goliatone/go-dynui/pkg/remote"
)

// loadController opens the page config at path with the CLI logger and a
// reporter that logs unavailable endpoints.
func (a *app) loadController(ctx context.Context, path string, fns ...page.OptionFn) (*page.Controller, error) {
	base := []page.OptionFn{
		page.WithLogger(a.logger),
		page.WithReporter(remote.ReporterFunc(func(ep remote.Endpoint, ferr *remote.FetchError) {
			a.logger.Error("endpoint unavailable",
				zap.String("endpoint", ep.Label()),
				zap.String("stage", string(ferr.Stage)),
			)
		})),
	}
	return dynui.Open(ctx, path, append(base, fns...)...)
}
