package service

import (
	"context"
	"log/slog"
)

type sagaStep struct {
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context) error
}

// saga runs steps one at a time and remembers the ones that succeeded so
// they can be undone in reverse order.
type saga struct {
	log  *slog.Logger
	done []sagaStep
}

func newSaga(log *slog.Logger) *saga {
	return &saga{log: log}
}

func (s *saga) run(ctx context.Context, step sagaStep) error {
	if err := step.do(ctx); err != nil {
		return err
	}
	if step.undo != nil {
		s.done = append(s.done, step)
	}
	return nil
}

// compensate undoes every completed step. Failures are logged and do not
// stop the remaining compensations.
func (s *saga) compensate(ctx context.Context) {
	for i := len(s.done) - 1; i >= 0; i-- {
		step := s.done[i]
		if err := step.undo(ctx); err != nil {
			s.log.Error("saga_compensation_failed", "step", step.name, "error", err)
			continue
		}
		s.log.Debug("saga_compensated", "step", step.name)
	}
	s.done = nil
}
