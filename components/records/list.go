package records

import (
	"embed"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goliatone/go-dynui/pkg/record"
)

//go:embed data/authors.json
var dataFS embed.FS

const defaultListPath = "data/authors.json"

// DefaultShape is the payload shape served by the handler.
var DefaultShape = record.Shape{ResultsPath: "data"}

var (
	defaultOnce    sync.Once
	defaultRecords []record.Record
	defaultErr     error
)

// DefaultRecords returns the embedded sample collection.
func DefaultRecords() ([]record.Record, error) {
	defaultOnce.Do(func() {
		f, err := dataFS.Open(defaultListPath)
		if err != nil {
			defaultErr = err
			return
		}
		defer func() { _ = f.Close() }()

		recs, err := LoadRecords(f, DefaultShape)
		if err != nil {
			defaultErr = err
			return
		}
		defaultRecords = recs
	})

	if defaultErr != nil {
		return nil, defaultErr
	}
	return append([]record.Record{}, defaultRecords...), nil
}

// LoadRecords decodes a JSON collection. Later duplicates of an ID are
// dropped so the served collection is keyed by ID.
func LoadRecords(r io.Reader, shape record.Shape) ([]record.Record, error) {
	if r == nil {
		return nil, fmt.Errorf("records: missing reader")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("records: read: %w", err)
	}
	decoded, err := record.Decode(data, shape)
	if err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}

	seen := make(map[string]struct{}, len(decoded))
	out := make([]record.Record, 0, len(decoded))
	for _, rec := range decoded {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	return out, nil
}

// LoadFile reads a JSON collection from path.
func LoadFile(path string, shape record.Shape) ([]record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadRecords(f, shape)
}
