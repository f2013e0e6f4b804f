package binder

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynui/pkg/dom"
	"github.com/goliatone/go-dynui/pkg/record"
)

func authorPage(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(`<section id="author">
		<h2 id="greeting">Hello!</h2>
		<p id="bio">Bio goes here</p>
		<a id="profile-link" href="#">Profile</a>
		<input id="author-name" name="author">
	</section>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestBindSkipsSlotsMissingFromRecord(t *testing.T) {
	t.Parallel()

	doc := authorPage(t)
	b := New(doc)

	result, err := b.Bind(record.New("a1", map[string]any{"name": "Ana"}), SlotMap{
		"greeting": {Target: "greeting", Attribute: "name", Template: "Hello, {{ value }}!"},
		"bio":      {Target: "bio"},
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if result.Applied != 1 {
		t.Fatalf("expected 1 applied slot, got %d", result.Applied)
	}
	if diff := cmp.Diff([]string{"bio"}, result.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	if result.Unapplied() != 1 {
		t.Fatalf("expected 1 unapplied slot, got %d", result.Unapplied())
	}

	greeting, _ := doc.ByID("greeting")
	if greeting.Text() != "Hello, Ana!" {
		t.Fatalf("unexpected greeting %q", greeting.Text())
	}
	bio, _ := doc.ByID("bio")
	if bio.Text() != "Bio goes here" {
		t.Fatalf("bio must be left untouched, got %q", bio.Text())
	}
}

func TestBindModes(t *testing.T) {
	t.Parallel()

	doc := authorPage(t)
	b := New(doc)

	rec := record.New("a1", map[string]any{
		"name":    "Ana & Bo",
		"bio":     `<em>Writes Go</em><script>alert(1)</script>`,
		"profile": "https://example.com/ana",
	})
	result, err := b.Bind(rec, SlotMap{
		"name":     {Target: "author-name", Mode: ModeValue},
		"bio":      {Target: "bio", Mode: ModeHTML, Template: "{{ value|safe }}"},
		"profile":  {Target: "profile-link", Mode: AttrMode("href")},
		"greeting": {Target: "greeting", Attribute: "name", Template: "Hi {{ value }}"},
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if result.Applied != 4 {
		t.Fatalf("expected 4 applied slots, got %+v", result)
	}

	input, _ := doc.ByID("author-name")
	if input.Value() != "Ana & Bo" {
		t.Fatalf("unexpected value %q", input.Value())
	}
	bio, _ := doc.ByID("bio")
	if got := bio.InnerHTML(); got != "<em>Writes Go</em>" {
		t.Fatalf("expected sanitized markup, got %q", got)
	}
	link, _ := doc.ByID("profile-link")
	if href, _ := link.Attr("href"); href != "https://example.com/ana" {
		t.Fatalf("unexpected href %q", href)
	}
	greeting, _ := doc.ByID("greeting")
	if greeting.Text() != "Hi Ana & Bo" {
		t.Fatalf("text templates must not pre-escape, got %q", greeting.Text())
	}
	if !strings.Contains(doc.String(), "Hi Ana &amp; Bo") {
		t.Fatalf("expected single escaping on render, got %s", doc.String())
	}
}

func TestBindRawHTMLValueIsEscaped(t *testing.T) {
	t.Parallel()

	doc := authorPage(t)
	b := New(doc)

	_, err := b.Bind(record.New("a1", map[string]any{"bio": "<b>bold</b>"}), SlotMap{
		"bio": {Target: "bio", Mode: ModeHTML},
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	bio, _ := doc.ByID("bio")
	if got := bio.InnerHTML(); got != "&lt;b&gt;bold&lt;/b&gt;" {
		t.Fatalf("expected escaped text, got %q", got)
	}
}

func TestBindExpandsRecordIDInTarget(t *testing.T) {
	t.Parallel()

	doc, err := dom.ParseString(`<ul>
		<li><span id="rating-rec1"></span></li>
		<li><span id="rating-rec2"></span></li>
	</ul>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b := New(doc)
	slots := SlotMap{"stars": {Target: "rating-{id}", Template: "{{ value }}/5"}}

	for _, rec := range []record.Record{
		record.New("rec1", map[string]any{"stars": float64(4)}),
		record.New("rec2", map[string]any{"stars": float64(5)}),
		record.New("rec3", map[string]any{"stars": float64(3)}),
	} {
		result, err := b.Bind(rec, slots)
		if err != nil {
			t.Fatalf("bind %s: %v", rec.ID, err)
		}
		if rec.ID == "rec3" && (result.Applied != 0 || len(result.Detached) != 1) {
			t.Fatalf("expected rec3 target to be reported detached, got %+v", result)
		}
	}

	first, _ := doc.ByID("rating-rec1")
	second, _ := doc.ByID("rating-rec2")
	if first.Text() != "4/5" || second.Text() != "5/5" {
		t.Fatalf("unexpected ratings %q %q", first.Text(), second.Text())
	}
}

func TestBindReportsTemplateFailuresAndContinues(t *testing.T) {
	t.Parallel()

	doc := authorPage(t)
	b := New(doc)

	result, err := b.Bind(record.New("a1", map[string]any{"name": "Ana"}), SlotMap{
		"broken":   {Target: "bio", Attribute: "name", Template: "{% if %}"},
		"greeting": {Target: "greeting", Attribute: "name"},
	})
	if err == nil {
		t.Fatalf("expected template error")
	}
	if result.Applied != 1 {
		t.Fatalf("expected the healthy slot to be applied, got %+v", result)
	}
	if diff := cmp.Diff([]string{"broken"}, result.Failed); diff != "" {
		t.Fatalf("failed mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotMapValidate(t *testing.T) {
	t.Parallel()

	if err := (SlotMap{"a": {Target: "x", Mode: AttrMode("title")}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (SlotMap{"a": {}}).Validate(); err == nil {
		t.Fatalf("expected missing target error")
	}
	if err := (SlotMap{"a": {Target: "x", Mode: "markdown"}}).Validate(); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}
