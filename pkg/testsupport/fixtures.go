// Package testsupport holds fixtures shared by package tests.
package testsupport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/goliatone/go-dynui/pkg/config"
	"github.com/goliatone/go-dynui/pkg/dom"
)

// LoadPage parses an HTML fixture into a document.
func LoadPage(t *testing.T, path string) *dom.Document {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open page: %v", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := dom.Parse(f)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc
}

// MustLoadConfig loads and validates a page document fixture.
func MustLoadConfig(t *testing.T, path string) config.Document {
	t.Helper()

	doc, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return doc
}

// ServeJSON starts a test server answering every request with payload. The
// server is closed when the test ends.
func ServeJSON(t *testing.T, payload string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

// Context returns a context canceled when the test ends.
func Context(t testing.TB) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
