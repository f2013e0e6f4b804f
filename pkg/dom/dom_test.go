package dom

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseIndexesElementsByID(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`<html><body>
		<form id="signup">
			<input id="city" name="city" value="Irvine">
			<div id="anaheim-offer" class="offer hidden">Free parking</div>
		</form>
	</body></html>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	city, ok := doc.ByID("city")
	if !ok {
		t.Fatalf("expected city input to be indexed")
	}
	if city.Tag() != "input" || city.Value() != "Irvine" {
		t.Fatalf("unexpected input: tag=%s value=%s", city.Tag(), city.Value())
	}

	offer, ok := doc.ByID("anaheim-offer")
	if !ok {
		t.Fatalf("expected offer to be indexed")
	}
	if diff := cmp.Diff([]string{"offer", "hidden"}, offer.Classes()); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}
	if offer.Text() != "Free parking" {
		t.Fatalf("unexpected text %q", offer.Text())
	}
	if offer.Parent().ID() != "signup" {
		t.Fatalf("expected offer parent signup, got %q", offer.Parent().ID())
	}
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	_, err := ParseString(`<div id="a"></div><span id="a"></span>`)
	if !errors.Is(err, ErrIDInUse) {
		t.Fatalf("expected ErrIDInUse, got %v", err)
	}
}

func TestSetClassIsIdempotent(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	el := doc.CreateElement("div", "panel")
	if err := doc.Append(doc.Root(), el); err != nil {
		t.Fatalf("append: %v", err)
	}

	if !el.SetClass("visible", true) {
		t.Fatalf("expected first add to change class list")
	}
	if el.SetClass("visible", true) {
		t.Fatalf("expected second add to be a no-op")
	}
	if diff := cmp.Diff([]string{"visible"}, el.Classes()); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}
	if !el.SetClass("visible", false) || el.HasClass("visible") {
		t.Fatalf("expected class removal")
	}
}

func TestRemoveDetachesSubtreeAndCancelsLifetimes(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	group := doc.CreateElement("div", "group-1")
	input := doc.CreateElement("input", "group-1-name")
	if err := doc.Append(group, input); err != nil {
		t.Fatalf("append detached: %v", err)
	}
	if doc.Attached(input) {
		t.Fatalf("detached subtree must not be indexed")
	}
	if err := doc.Append(doc.Root(), group); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, ok := doc.ByID("group-1-name"); !ok {
		t.Fatalf("expected nested input indexed after attach")
	}

	ctx, cancel := doc.Lifetime(context.Background(), input)
	defer cancel()
	if ctx.Err() != nil {
		t.Fatalf("lifetime of attached element must be live")
	}

	if !doc.Remove(group) {
		t.Fatalf("expected remove to report true")
	}
	if doc.Remove(group) {
		t.Fatalf("expected second remove to be a no-op")
	}
	if ctx.Err() == nil {
		t.Fatalf("expected lifetime canceled after removal")
	}
	if _, ok := doc.ByID("group-1-name"); ok {
		t.Fatalf("expected nested input unindexed")
	}

	late, lateCancel := doc.Lifetime(context.Background(), input)
	defer lateCancel()
	if late.Err() == nil {
		t.Fatalf("lifetime of detached element must start canceled")
	}
}

func TestAppendRejectsIDCollision(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	if err := doc.Append(doc.Root(), doc.CreateElement("div", "dup")); err != nil {
		t.Fatalf("append: %v", err)
	}
	err := doc.Append(doc.Root(), doc.CreateElement("span", "dup"))
	if !errors.Is(err, ErrIDInUse) {
		t.Fatalf("expected ErrIDInUse, got %v", err)
	}
}

func TestRenderWritesAttributesInStableOrder(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	el := doc.CreateElement("div", "greeting")
	el.AddClass("card", "visible")
	el.SetAttr("data-step", "1")
	el.SetAttr("aria-live", "polite")
	el.SetText("Hello, <Ana>")
	if err := doc.Append(doc.Root(), el); err != nil {
		t.Fatalf("append: %v", err)
	}

	got := doc.String()
	want := `<div id="greeting" class="card visible" aria-live="polite" data-step="1">Hello, &lt;Ana&gt;</div>`
	if got != want {
		t.Fatalf("render mismatch:\nwant %s\ngot  %s", want, got)
	}
}

func TestRenderInnerHTML(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	el := doc.CreateElement("p", "bio")
	el.SetInnerHTML("Writes about <em>Go</em>")
	if err := doc.Append(doc.Root(), el); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := doc.String(); !strings.Contains(got, "<em>Go</em>") {
		t.Fatalf("expected inner markup rendered, got %s", got)
	}
}

func TestByClassFollowsDocumentOrder(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`<ul><li id="r1" class="review"></li><li id="r2"></li><li id="r3" class="review"></li></ul>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var ids []string
	for _, el := range doc.ByClass("review") {
		ids = append(ids, el.ID())
	}
	if diff := cmp.Diff([]string{"r1", "r3"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestMixedContentRoundTrip(t *testing.T) {
	t.Parallel()

	markup := `<p id="r">Rated <span id="n">4</span> stars by readers<!-- rating --></p>`
	doc, err := ParseString(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.String(); got != markup {
		t.Fatalf("render mismatch:\nwant %s\ngot  %s", markup, got)
	}

	p, _ := doc.ByID("r")
	if got := p.Text(); got != "Rated  stars by readers" {
		t.Fatalf("unexpected own text %q", got)
	}
	if diff := cmp.Diff([]string{"n"}, elementIDs(p.Children())); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestSetTextKeepsChildElementsInPlace(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`<p id="r">Rated <span id="n">4</span> stars</p>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p, _ := doc.ByID("r")
	p.SetText("Score ")

	want := `<p id="r">Score <span id="n">4</span></p>`
	if got := doc.String(); got != want {
		t.Fatalf("render mismatch:\nwant %s\ngot  %s", want, got)
	}
	if _, ok := doc.ByID("n"); !ok {
		t.Fatalf("child element must stay attached")
	}

	p.SetText("")
	if got := p.Text(); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func elementIDs(els []*Element) []string {
	ids := make([]string, 0, len(els))
	for _, el := range els {
		ids = append(ids, el.ID())
	}
	return ids
}
