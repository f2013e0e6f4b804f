package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/components/records"
	"github.com/goliatone/go-dynui/pkg/record"
)

type serveFlags struct {
	addr     string
	base     string
	records  string
	results  string
	idField  string
	pageConf string
}

func newServeCmd(a *app) *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a JSON record collection, and optionally a rendered page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mux, pattern, err := a.serveMux(flags)
			if err != nil {
				return err
			}
			listener, err := net.Listen("tcp", flags.addr)
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "serving records at http://%s%s\n", listener.Addr(), pattern)
			return a.serve(ctx, listener, mux)
		},
	}
	cmd.Flags().StringVar(&flags.addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().StringVar(&flags.base, "base", "/", "Base path for the records route")
	cmd.Flags().StringVar(&flags.records, "records", "", "JSON collection file (embedded sample if empty)")
	cmd.Flags().StringVar(&flags.results, "results-path", "data", "Path to the collection inside the records file")
	cmd.Flags().StringVar(&flags.idField, "id-field", "id", "Identifier field of each record")
	cmd.Flags().StringVar(&flags.pageConf, "page", "", "Page config rendered at / on every request")
	return cmd
}

func (a *app) serveMux(flags serveFlags) (*http.ServeMux, string, error) {
	var fns []records.OptionFn
	if flags.records != "" {
		recs, err := records.LoadFile(flags.records, recordsShape(flags))
		if err != nil {
			return nil, "", err
		}
		fns = append(fns, records.WithRecords(recs))
	}

	mux := http.NewServeMux()
	pattern, err := records.New(fns...).RegisterRoutes(mux, flags.base)
	if err != nil {
		return nil, "", err
	}
	if flags.pageConf != "" {
		mux.Handle("/{$}", a.pageHandler(flags.pageConf))
	}
	return mux, pattern, nil
}

// pageHandler renders the page config per request, so endpoint data and
// input defaults are always fresh.
func (a *app) pageHandler(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), a.flags.timeout)
		defer cancel()

		inputs := map[string]string{}
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				inputs[key] = values[0]
			}
		}

		var buf bytes.Buffer
		if err := a.render(ctx, path, renderFlags{sync: true, inputs: inputs}, &buf); err != nil {
			a.logger.Error("render page failed", zap.String("config", path), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}

func (a *app) serve(ctx context.Context, listener net.Listener, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	a.logger.Info("server started", zap.String("addr", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

func recordsShape(flags serveFlags) record.Shape {
	return record.Shape{ResultsPath: flags.results, IDField: flags.idField}
}
