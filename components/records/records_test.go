package records

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynui/pkg/record"
)

func sample() []record.Record {
	return []record.Record{
		record.New("ada", map[string]any{"name": "Ada Lovelace", "city": "London"}),
		record.New("grace", map[string]any{"name": "Grace Hopper", "city": "New York"}),
		record.New("hedy", map[string]any{"name": "Hedy Lamarr", "city": "Anaheim"}),
		record.New("lamarr-fan", map[string]any{"name": "Fan Club", "city": "Vienna"}),
	}
}

func ids(recs []record.Record) []string {
	out := make([]string, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.ID)
	}
	return out
}

func TestLoadRecords_DropsDuplicateIDs(t *testing.T) {
	input := strings.NewReader(`{"data":[
		{"id":"a","name":"First"},
		{"id":"b","name":"Second"},
		{"id":"a","name":"Shadow"}
	]}`)

	recs, err := LoadRecords(input, DefaultShape)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, ids(recs)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if name, _ := recs[0].String("name"); name != "First" {
		t.Fatalf("expected first occurrence to win, got %q", name)
	}
}

func TestLoadRecords_RejectsMalformedPayload(t *testing.T) {
	if _, err := LoadRecords(strings.NewReader(`{"data":[{"id":"a"`), DefaultShape); err == nil {
		t.Fatalf("expected error for truncated payload")
	}
	if _, err := LoadRecords(nil, DefaultShape); err == nil {
		t.Fatalf("expected error for nil reader")
	}
}

func TestDefaultRecords_ContainsSampleAuthors(t *testing.T) {
	recs, err := DefaultRecords()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(recs) < 5 {
		t.Fatalf("expected a reasonably sized collection, got %d", len(recs))
	}
	found := map[string]bool{}
	for _, rec := range recs {
		found[rec.ID] = true
	}
	for _, id := range []string{"ada", "grace", "hedy"} {
		if !found[id] {
			t.Fatalf("expected record %q to be present", id)
		}
	}
}

func TestSearch_CaseInsensitiveAcrossStringAttributes(t *testing.T) {
	opts := NewOptions()

	results := Search(sample(), "aNaHeIm", opts)
	if diff := cmp.Diff([]string{"hedy"}, ids(results)); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_PrefixBeforeContains(t *testing.T) {
	opts := NewOptions()

	results := Search(sample(), "lamarr", opts)
	if diff := cmp.Diff([]string{"lamarr-fan", "hedy"}, ids(results)); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_RestrictedFields(t *testing.T) {
	opts := NewOptions(WithSearchFields("city"))

	if results := Search(sample(), "grace", opts); len(results) != 0 {
		t.Fatalf("expected no match outside search fields, got %v", ids(results))
	}
	results := Search(sample(), "new york", opts)
	if diff := cmp.Diff([]string{"grace"}, ids(results)); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_EmptyQueryKeepsCollectionOrder(t *testing.T) {
	all := Search(sample(), "  ", NewOptions())
	if diff := cmp.Diff([]string{"ada", "grace", "hedy", "lamarr-fan"}, ids(all)); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestNewOptions_ClampsDefaultLimit(t *testing.T) {
	opts := NewOptions(WithMaxLimit(10), WithDefaultLimit(500))
	if opts.DefaultLimit != 10 {
		t.Fatalf("expected default limit clamped to max, got %d", opts.DefaultLimit)
	}
}
