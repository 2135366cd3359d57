// Package tracker creates, reschedules and deletes habits together with their
// generated tasks, and answers task and streak queries.
//
// Every mutation runs in a single store transaction; mutations of the same
// habit are additionally serialized so two updates never number tasks from
// the same starting order. The package does not log; failures are returned
// as the typed errors of package errs.
package tracker

import (
	"context"
	"time"

	"github.com/sadopc/habitr/internal/store"
)

const (
	DefaultMaxTasksPerHabit = 10000
	DefaultLockTimeout      = 5 * time.Second
)

type Options struct {
	// MaxTasksPerHabit bounds one generation run. Zero selects the default,
	// a negative value disables the bound.
	MaxTasksPerHabit int
	// LockTimeout bounds the wait for another mutation of the same habit.
	LockTimeout time.Duration
	// Now returns the current instant; defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	store       *store.Store
	now         func() time.Time
	maxTasks    int
	lockTimeout time.Duration
	locks       *lockSet
}

func New(s *store.Store, opts Options) *Service {
	if opts.MaxTasksPerHabit == 0 {
		opts.MaxTasksPerHabit = DefaultMaxTasksPerHabit
	}
	if opts.LockTimeout == 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:       s,
		now:         opts.Now,
		maxTasks:    opts.MaxTasksPerHabit,
		lockTimeout: opts.LockTimeout,
		locks:       newLockSet(),
	}
}

// Now returns the service clock truncated to the second, the precision the
// store keeps.
func (s *Service) Now() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func (s *Service) GetHabit(ctx context.Context, id int64) (*store.Habit, error) {
	return s.store.GetHabit(ctx, id)
}

func (s *Service) ListHabits(ctx context.Context, f store.HabitFilter) ([]store.Habit, error) {
	return s.store.ListHabits(ctx, f)
}
