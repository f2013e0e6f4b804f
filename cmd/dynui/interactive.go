package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/internal/prompt"
	"github.com/goliatone/go-dynui/pkg/page"
)

const (
	actionInput    = "Set an input"
	actionAdd      = "Add a field group"
	actionRemove   = "Remove a field group"
	actionSync     = "Sync endpoints"
	actionSequence = "Start a sequence"
	actionShow     = "Show visible elements"
	actionQuit     = "Quit"
)

func newInteractiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive <config>",
		Aliases: []string{"i"},
		Short:   "Explore a page by answering prompts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.loadController(ctx, args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			err = a.session(ctx, prompt.NewSurvey(cmd.OutOrStdout()), c)
			if errors.Is(err, prompt.ErrAborted) {
				return nil
			}
			return err
		},
	}
}

// session loops over the action menu until the user quits.
func (a *app) session(ctx context.Context, driver prompt.Driver, c *page.Controller) error {
	for {
		actions := availableActions(c)
		idx, err := driver.Select(ctx, prompt.SelectConfig{Message: "What next?", Options: actions})
		if err != nil {
			return err
		}
		if idx < 0 {
			continue
		}

		action := actions[idx]
		if action == actionQuit {
			return nil
		}
		if err := a.runAction(ctx, driver, c, action); err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				return err
			}
			a.logger.Warn("interactive action failed", zap.String("action", action), zap.Error(err))
			if infoErr := driver.Info(ctx, "error: "+err.Error()); infoErr != nil {
				return infoErr
			}
		}
	}
}

func availableActions(c *page.Controller) []string {
	actions := make([]string, 0, 7)
	if len(c.Inputs()) > 0 {
		actions = append(actions, actionInput)
	}
	if len(c.ListNames()) > 0 {
		actions = append(actions, actionAdd, actionRemove)
	}
	if len(c.EndpointNames()) > 0 {
		actions = append(actions, actionSync)
	}
	if len(c.SequenceNames()) > 0 {
		actions = append(actions, actionSequence)
	}
	return append(actions, actionShow, actionQuit)
}

func (a *app) runAction(ctx context.Context, driver prompt.Driver, c *page.Controller, action string) error {
	switch action {
	case actionInput:
		inputs := c.Inputs()
		idx, err := driver.Select(ctx, prompt.SelectConfig{Message: "Input", Options: inputs})
		if err != nil || idx < 0 {
			return err
		}
		name := inputs[idx]
		value, err := driver.Input(ctx, prompt.InputConfig{
			Message:   name,
			Default:   c.State()[name],
			Validator: singleLine,
		})
		if err != nil {
			return err
		}
		target, ok := c.InputID(name)
		if !ok {
			return fmt.Errorf("dynui: input %q has no element id", name)
		}
		if err := c.Handle(ctx, page.Event{Type: page.EventInput, Target: target, Value: value}); err != nil {
			return err
		}
		return a.showVisible(ctx, driver, c)

	case actionAdd:
		name, err := pick(ctx, driver, "List", c.ListNames())
		if err != nil {
			return err
		}
		list, _ := c.List(name)
		id, err := list.Add()
		if err != nil {
			return err
		}
		return driver.Info(ctx, fmt.Sprintf("added group %s to %s (%d total)", id, name, list.Len()))

	case actionRemove:
		name, err := pick(ctx, driver, "List", c.ListNames())
		if err != nil {
			return err
		}
		list, _ := c.List(name)
		ids := list.IDs()
		if len(ids) == 0 {
			return driver.Info(ctx, name+" has no groups")
		}
		id, err := pick(ctx, driver, "Group", ids)
		if err != nil {
			return err
		}
		ok, err := driver.Confirm(ctx, prompt.ConfirmConfig{
			Message: fmt.Sprintf("Remove group %s and its values?", id),
			Default: true,
		})
		if err != nil {
			return err
		}
		if !ok {
			return driver.Info(ctx, fmt.Sprintf("kept group %s", id))
		}
		list.Remove(id)
		return driver.Info(ctx, fmt.Sprintf("removed group %s from %s", id, name))

	case actionSync:
		results, err := c.Sync(ctx)
		for _, res := range results {
			if infoErr := driver.Info(ctx, res.String()); infoErr != nil {
				return infoErr
			}
		}
		return err

	case actionSequence:
		name, err := pick(ctx, driver, "Sequence", c.SequenceNames())
		if err != nil {
			return err
		}
		if err := c.StartSequence(name); err != nil {
			return err
		}
		if seq, ok := c.Sequence(name); ok {
			st := seq.State()
			return driver.Info(ctx, fmt.Sprintf("%s: %s at %s, %d revealed", name, st.Status, st.Step, st.Count))
		}
		return nil

	case actionShow:
		return a.showVisible(ctx, driver, c)
	}
	return fmt.Errorf("dynui: unknown action %q", action)
}

func (a *app) showVisible(ctx context.Context, driver prompt.Driver, c *page.Controller) error {
	report := c.Refresh()
	visible := "none"
	if len(report.Visible) > 0 {
		visible = strings.Join(report.Visible, ", ")
	}
	return driver.Info(ctx, "visible: "+visible)
}

// singleLine rejects values an <input> element cannot hold.
func singleLine(value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return errors.New("value must fit on one line")
	}
	return nil
}

func pick(ctx context.Context, driver prompt.Driver, message string, options []string) (string, error) {
	if len(options) == 1 {
		return options[0], nil
	}
	idx, err := driver.Select(ctx, prompt.SelectConfig{Message: message, Options: options})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(options) {
		return "", fmt.Errorf("dynui: no %s selected", strings.ToLower(message))
	}
	return options[idx], nil
}
