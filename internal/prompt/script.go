package prompt

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrScriptExhausted is returned by a Script driver that ran out of answers.
var ErrScriptExhausted = errors.New("prompt: script exhausted")

// Script is a Driver replaying canned answers in order. Select answers are
// matched against the offered options by label. Info lines are recorded.
type Script struct {
	mu      sync.Mutex
	answers []string
	Lines   []string
}

// NewScript returns a driver answering with answers in order.
func NewScript(answers ...string) *Script {
	return &Script{answers: append([]string(nil), answers...)}
}

func (s *Script) next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.answers) == 0 {
		return "", ErrScriptExhausted
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func (s *Script) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	answer, err := s.next()
	if err != nil {
		return "", err
	}
	if answer == "" {
		answer = cfg.Default
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (s *Script) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	answer, err := s.next()
	if err != nil {
		return false, err
	}
	switch answer {
	case "":
		return cfg.Default, nil
	case "y", "yes", "true":
		return true, nil
	default:
		return false, nil
	}
}

func (s *Script) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	answer, err := s.next()
	if err != nil {
		return 0, err
	}
	idx := IndexOf(cfg.Options, answer)
	if idx < 0 {
		return 0, fmt.Errorf("prompt: %q is not an option of %q", answer, cfg.Message)
	}
	return idx, nil
}

func (s *Script) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.Lines = append(s.Lines, msg)
	s.mu.Unlock()
	return nil
}
