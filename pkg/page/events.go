package page

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/config"
	"github.com/goliatone/go-dynui/pkg/dom"
	"github.com/goliatone/go-dynui/pkg/fieldlist"
)

// EventType names the input signals a page reacts to.
type EventType string

const (
	EventInput  EventType = "input"
	EventClick  EventType = "click"
	EventSubmit EventType = "submit"
)

// Event is an input signal aimed at the element with id Target.
type Event struct {
	Type   EventType `json:"type"`
	Target string    `json:"target"`
	Value  string    `json:"value,omitempty"`
}

// Handler reacts to an event on an attached element.
type Handler func(ctx context.Context, el *dom.Element, ev Event) error

// binding ties one event type to a handler. target selects a single element
// by id; match selects any element it accepts.
type binding struct {
	name   string
	event  EventType
	target string
	match  func(*dom.Element) bool
	handle Handler
}

func (b binding) matches(el *dom.Element, ev Event) bool {
	if b.event != ev.Type {
		return false
	}
	if b.target != "" {
		return b.target == el.ID()
	}
	return b.match != nil && b.match(el)
}

func (c *Controller) buildBindings(cfg config.Document) []binding {
	bindings := []binding{
		{name: "input", event: EventInput, match: isFormControl, handle: c.onInput},
		{name: "list:remove", event: EventClick, match: isRemoveButton, handle: c.onRemoveGroup},
		{name: "submit", event: EventSubmit, match: func(*dom.Element) bool { return true }, handle: c.onSubmit},
	}

	for _, lc := range cfg.Lists {
		if lc.Add == "" {
			continue
		}
		list := c.lists[lc.Name]
		name := lc.Name
		bindings = append(bindings, binding{
			name:   "list:" + name + ":add",
			event:  EventClick,
			target: lc.Add,
			handle: func(context.Context, *dom.Element, Event) error {
				id, err := list.Add()
				if err != nil {
					return err
				}
				c.opts.Logger.Debug("field group added", zap.String("list", name), zap.String("group", id))
				return nil
			},
		})
	}

	for _, eb := range c.endpoints {
		if eb.trigger == "" {
			continue
		}
		eb := eb
		bindings = append(bindings, binding{
			name:   "endpoint:" + eb.endpoint.Name,
			event:  EventClick,
			target: eb.trigger,
			handle: func(ctx context.Context, _ *dom.Element, _ Event) error {
				c.syncAsync(ctx, eb, nil)
				return nil
			},
		})
	}

	for _, sc := range cfg.Sequences {
		if sc.Trigger == "" {
			continue
		}
		name := sc.Name
		bindings = append(bindings, binding{
			name:   "sequence:" + name,
			event:  EventClick,
			target: sc.Trigger,
			handle: func(context.Context, *dom.Element, Event) error {
				return c.StartSequence(name)
			},
		})
	}
	return bindings
}

// Handle routes ev to every matching binding. Events aimed at elements that
// are not attached are ignored.
func (c *Controller) Handle(ctx context.Context, ev Event) error {
	el, ok := c.doc.ByID(ev.Target)
	if !ok {
		c.opts.Logger.Debug("event target missing",
			zap.String("type", string(ev.Type)),
			zap.String("target", ev.Target),
		)
		return nil
	}

	var errs []error
	for _, b := range c.bindings {
		if !b.matches(el, ev) {
			continue
		}
		if err := b.handle(ctx, el, ev); err != nil {
			errs = append(errs, fmt.Errorf("page: %s: %w", b.name, err))
		}
	}
	return errors.Join(errs...)
}

// Bindings lists the registered binding names, sorted.
func (c *Controller) Bindings() []string {
	names := make([]string, len(c.bindings))
	for i, b := range c.bindings {
		names[i] = b.name
	}
	sort.Strings(names)
	return names
}

func (c *Controller) onInput(_ context.Context, el *dom.Element, ev Event) error {
	el.SetValue(ev.Value)

	if group, ok := el.Attr(fieldlist.GroupAttr); ok {
		field, _ := el.Attr(fieldlist.FieldAttr)
		list, ok := c.listFor(group)
		if !ok {
			return nil
		}
		return list.SetValue(group, field, ev.Value)
	}

	key := inputKey(el)
	c.mu.Lock()
	c.state[key] = ev.Value
	c.mu.Unlock()

	c.scheduleRefresh()
	return nil
}

func (c *Controller) onRemoveGroup(_ context.Context, el *dom.Element, _ Event) error {
	group, _ := el.Attr(fieldlist.GroupAttr)
	list, ok := c.listFor(group)
	if !ok {
		c.opts.Logger.Debug("field group already removed", zap.String("group", group))
		return nil
	}
	list.Remove(group)
	return nil
}

func (c *Controller) onSubmit(_ context.Context, el *dom.Element, _ Event) error {
	sub := Submission{Form: el.ID(), Inputs: c.State()}
	if len(c.lists) > 0 {
		sub.Lists = make(map[string][]map[string]string, len(c.lists))
		for name, list := range c.lists {
			sub.Lists[name] = list.Values()
		}
	}
	c.opts.Logger.Info("form submitted",
		zap.String("form", sub.Form),
		zap.Int("inputs", len(sub.Inputs)),
	)
	if c.opts.OnSubmit != nil {
		c.opts.OnSubmit(sub)
	}
	return nil
}

func isRemoveButton(el *dom.Element) bool {
	if !el.HasClass(fieldlist.RemoveClass) {
		return false
	}
	_, ok := el.Attr(fieldlist.GroupAttr)
	return ok
}
