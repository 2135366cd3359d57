package tracker

import (
	"context"
	"fmt"

	"github.com/sadopc/habitr/internal/errs"
	"github.com/sadopc/habitr/internal/metrics"
	"github.com/sadopc/habitr/internal/store"
)

func (s *Service) ListTasks(ctx context.Context, f store.TaskFilter) ([]store.Task, error) {
	return s.store.ListTasks(ctx, f)
}

// ActiveTasks lists the open tasks of active habits whose window contains
// now.
func (s *Service) ActiveTasks(ctx context.Context) ([]store.ActiveTask, error) {
	return s.store.ListActiveTasks(ctx, s.Now())
}

// CompleteTask marks a started task completed at now. Completing it again
// returns the task unchanged with its first completion time.
func (s *Service) CompleteTask(ctx context.Context, id int64) (*store.Task, error) {
	now := s.Now()
	var done *store.Task
	var transitioned bool
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		t, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if t.Completed {
			done = t
			return nil
		}
		if t.Start.After(now) {
			return errs.Invalid("task", "task %d has not started yet", id)
		}
		if done, err = tx.CompleteTask(ctx, id, now); err != nil {
			return err
		}
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete task %d: %w", id, err)
	}
	if transitioned {
		metrics.TasksCompleted.Inc()
	}
	return done, nil
}
