package util

import (
	"context"

	"github.com/charmbracelet/huh/spinner"
)

// Spinner shows an activity indicator on the terminal until stopped.
type Spinner struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSpinner(c context.Context, msg string) *Spinner {
	ctx, cancel := context.WithCancel(c)
	s := &Spinner{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		spinner.New().Context(ctx).Title(msg).Run()
	}()
	return s
}

// Stop removes the spinner and waits for the terminal to be released.
func (s *Spinner) Stop() {
	s.cancel()
	<-s.done
}

// RunWithSpinner runs task while showing msg. The spinner is skipped when quiet is set.
func RunWithSpinner[T any](ctx context.Context, quiet bool, msg string, task func() (T, error)) (T, error) {
	if quiet {
		return task()
	}
	s := NewSpinner(ctx, msg)
	defer s.Stop()
	return task()
}
