// Package dynui is the convenience entry point: it loads a page config and
// the HTML page it names and returns a started page controller.
//
// The component packages under pkg/ are usable on their own; this package
// only wires them the way the CLI does.
package dynui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/goliatone/go-dynui/pkg/config"
	"github.com/goliatone/go-dynui/pkg/dom"
	"github.com/goliatone/go-dynui/pkg/page"
)

// Event aliases page.Event for callers driving a controller from the root
// package.
type Event = page.Event

// Controller aliases page.Controller.
type Controller = page.Controller

// LoadPage parses the HTML page at path.
func LoadPage(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dynui: open page: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("dynui: parse page: %w", err)
	}
	return doc, nil
}

// Load reads the config at path and the page it names.
func Load(path string) (config.Document, *dom.Document, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Document{}, nil, err
	}
	if cfg.Page == "" {
		return config.Document{}, nil, errors.New("dynui: config does not name a page")
	}
	doc, err := LoadPage(cfg.Page)
	if err != nil {
		return config.Document{}, nil, err
	}
	return cfg, doc, nil
}

// Open loads the config at path and returns a started controller. Callers
// own the controller and must Close it.
func Open(ctx context.Context, path string, options ...page.OptionFn) (*page.Controller, error) {
	cfg, doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	c, err := page.New(doc, cfg, options...)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// RenderFile opens the config at path, applies inputs (keyed by element id),
// syncs every endpoint and returns the resulting HTML. Endpoint failures
// leave their slots untouched and are not returned.
func RenderFile(ctx context.Context, path string, inputs map[string]string, options ...page.OptionFn) ([]byte, error) {
	c, err := Open(ctx, path, options...)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if err := ApplyInputs(ctx, c, inputs); err != nil {
		return nil, err
	}
	_, _ = c.Sync(ctx)
	c.Refresh()

	var buf bytes.Buffer
	if err := c.Document().Render(&buf); err != nil {
		return nil, fmt.Errorf("dynui: render: %w", err)
	}
	return buf.Bytes(), nil
}

// ApplyInputs sends one input event per entry, in key order.
func ApplyInputs(ctx context.Context, c *page.Controller, inputs map[string]string) error {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.Handle(ctx, page.Event{Type: page.EventInput, Target: name, Value: inputs[name]}); err != nil {
			return err
		}
	}
	return nil
}
