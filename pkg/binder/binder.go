package binder

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/dom"
	"github.com/goliatone/go-dynui/pkg/record"
)

// Result reports what a Bind call wrote.
type Result struct {
	// Applied counts slots actually written.
	Applied int
	// Missing lists slots whose attribute is absent from the record.
	Missing []string
	// Detached lists slots whose target element is not attached.
	Detached []string
	// Failed lists slots whose template could not be rendered.
	Failed []string
}

// Unapplied returns the number of declared slots that were not written.
func (r Result) Unapplied() int {
	return len(r.Missing) + len(r.Detached) + len(r.Failed)
}

// Binder writes record attributes into page slots.
type Binder struct {
	doc  *dom.Document
	opts Options

	mu        sync.Mutex
	templates map[string]*pongo2.Template
}

// New constructs a binder writing into doc.
func New(doc *dom.Document, fns ...OptionFn) *Binder {
	return &Binder{
		doc:       doc,
		opts:      NewOptions(fns...),
		templates: make(map[string]*pongo2.Template),
	}
}

// Bind writes rec into every slot whose attribute the record carries.
// Slots without data and slots whose target is gone are skipped and listed
// in the result; the remaining slots are still written. The returned error
// joins template failures only.
func (b *Binder) Bind(rec record.Record, slots SlotMap) (Result, error) {
	var (
		result Result
		errs   []error
	)

	for _, name := range slots.Names() {
		slot := slots[name]

		value, ok := rec.Lookup(slot.attribute(name))
		if !ok {
			result.Missing = append(result.Missing, name)
			continue
		}

		target := slot.target(rec.ID)
		el, ok := b.doc.ByID(target)
		if !ok {
			result.Detached = append(result.Detached, name)
			b.opts.Logger.Debug("binder target missing",
				zap.String("slot", name),
				zap.String("target", target),
			)
			continue
		}

		mode, attr, err := slot.mode()
		if err != nil {
			result.Failed = append(result.Failed, name)
			errs = append(errs, fmt.Errorf("binder: slot %q: %w", name, err))
			continue
		}

		text, err := b.render(slot, mode, value, rec)
		if err != nil {
			result.Failed = append(result.Failed, name)
			errs = append(errs, fmt.Errorf("binder: slot %q: %w", name, err))
			b.opts.Logger.Warn("binder template failed", zap.String("slot", name), zap.Error(err))
			continue
		}

		write(el, mode, attr, text)
		result.Applied++
	}

	return result, errors.Join(errs...)
}

func (b *Binder) render(slot Slot, mode Mode, value any, rec record.Record) (string, error) {
	var out string
	if strings.TrimSpace(slot.Template) == "" {
		out = record.Format(value)
		if mode == ModeHTML {
			// Raw attribute values are text, not markup.
			out = escapeText(out)
		}
	} else {
		tpl, err := b.template(slot.Template, mode == ModeHTML)
		if err != nil {
			return "", err
		}
		out, err = tpl.Execute(pongo2.Context{
			"value":  templateValue(value),
			"raw":    value,
			"id":     rec.ID,
			"record": rec.Map(),
		})
		if err != nil {
			return "", fmt.Errorf("execute template: %w", err)
		}
	}

	if mode == ModeHTML {
		out = b.opts.Sanitizer.Sanitize(out)
	}
	return out, nil
}

func (b *Binder) template(source string, escape bool) (*pongo2.Template, error) {
	key := source
	if !escape {
		// Text, value and attribute targets are escaped when the page is
		// rendered, so the template must not escape them a second time.
		key = "{% autoescape off %}" + source + "{% endautoescape %}"
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if tpl, ok := b.templates[key]; ok {
		return tpl, nil
	}
	tpl, err := pongo2.FromString(key)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	b.templates[key] = tpl
	return tpl, nil
}

// templateValue formats scalars the same way untemplated slots do; objects
// and lists pass through so templates can index them.
func templateValue(value any) any {
	switch value.(type) {
	case map[string]any, []any:
		return value
	default:
		return record.Format(value)
	}
}

func write(el *dom.Element, mode Mode, attr, text string) {
	switch mode {
	case ModeValue:
		el.SetValue(text)
	case ModeHTML:
		el.SetInnerHTML(text)
	case Mode(attrModePrefix):
		el.SetAttr(attr, text)
	default:
		el.SetText(text)
	}
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;")

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// DefaultSanitizer returns the policy used for html slots: user generated
// content formatting without scripts, styles or event handlers.
func DefaultSanitizer() *bluemonday.Policy {
	return bluemonday.UGCPolicy()
}
