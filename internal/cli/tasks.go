package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/habitr/internal/query"
	"github.com/sadopc/habitr/internal/store"
)

func tasksCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and complete tasks",
	}
	cmd.AddCommand(tasksListCmd(o))
	cmd.AddCommand(tasksActiveCmd(o))
	cmd.AddCommand(tasksCompleteCmd(o))
	return cmd
}

func tasksListCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List tasks ordered by habit and order. Filters match exactly unless
prefixed with < or > (e.g. --start "<2023-10-25") or written as a set
(e.g. --habit-id "*in(1,3)").`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := query.Tasks(flagGetter(cmd))
			if err != nil {
				return err
			}
			return o.run(cmd, func(a *app) error {
				tasks, err := a.svc.ListTasks(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("failed to list tasks: %w", err)
				}
				return printTasks(cmd.OutOrStdout(), o.format, tasks)
			})
		},
	}
	f := cmd.Flags()
	f.String("id", "", "filter by task id")
	f.String("habit-id", "", "filter by habit id")
	f.String("habit-order", "", "filter by order within the habit")
	f.String("completed", "", "filter by completion (true or false)")
	f.String("start", "", "filter by start")
	f.String("end", "", "filter by end")
	f.String("limit", "", "return at most this many tasks")
	return cmd
}

func tasksActiveCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List open tasks that can be completed now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(a *app) error {
				active, err := a.svc.ActiveTasks(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list active tasks: %w", err)
				}
				return printActive(cmd.OutOrStdout(), o.format, active)
			})
		},
	}
}

func tasksCompleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return o.run(cmd, func(a *app) error {
				t, err := a.svc.CompleteTask(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("failed to complete task: %w", err)
				}
				if o.format == formatTable {
					success(cmd.OutOrStdout(), "Completed task %d (habit %d, #%d)", t.ID, t.HabitID, t.HabitOrder)
				}
				return printTasks(cmd.OutOrStdout(), o.format, []store.Task{*t})
			})
		},
	}
}
