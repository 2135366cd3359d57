package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/habitr/internal/duration"
	"github.com/sadopc/habitr/internal/query"
	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/tracker"
)

const durationHelp = "ISO-8601 duration (P[n]Y[n]M[n]W[n]DT[n]H[n]M[n]S), e.g. "

func habitsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "habits",
		Aliases: []string{"habit"},
		Short:   "Manage habits",
		Long:    "Create, list, update and delete habits. Creating or rescheduling a habit generates its tasks.",
	}
	cmd.AddCommand(habitsCreateCmd(o))
	cmd.AddCommand(habitsListCmd(o))
	cmd.AddCommand(habitsUpdateCmd(o))
	cmd.AddCommand(habitsDeleteCmd(o))
	return cmd
}

func habitsCreateCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a habit and generate its tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := createInput(cmd)
			if err != nil {
				return err
			}
			return o.run(cmd, func(a *app) error {
				if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
					n, err := a.svc.PreviewHabit(in)
					if err != nil {
						return fmt.Errorf("failed to preview habit: %w", err)
					}
					if o.format == formatJSON {
						return writeJSON(cmd.OutOrStdout(), map[string]any{"tasks": n})
					}
					notice(cmd.OutOrStdout(), "Would create habit %q with %d tasks", in.Name, n)
					return nil
				}
				h, err := a.svc.CreateHabit(cmd.Context(), in)
				if err != nil {
					return fmt.Errorf("failed to create habit: %w", err)
				}
				out := cmd.OutOrStdout()
				if o.format == formatTable {
					tasks, err := a.svc.ListTasks(cmd.Context(), store.TaskFilter{HabitID: store.Equals(h.ID)})
					if err != nil {
						return err
					}
					success(out, "Created habit %d: %s (%d tasks)", h.ID, h.Name, len(tasks))
				}
				return printHabits(out, o.format, []store.Habit{*h})
			})
		},
	}
	f := cmd.Flags()
	f.String("name", "", "habit name")
	f.String("description", "", "habit description")
	f.String("interval", "", "how often the habit repeats, "+durationHelp+"P1D")
	f.String("lifetime", "", "how long each task stays open, "+durationHelp+"PT1H")
	f.Bool("active", true, "whether the habit shows up in active tasks")
	f.String("start", "", "first task start, ISO-8601 (default now)")
	f.String("end", "", "schedule end, ISO-8601 (default one year after start)")
	f.Bool("dry-run", false, "only report how many tasks would be generated")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("interval")
	cmd.MarkFlagRequired("lifetime")
	return cmd
}

func createInput(cmd *cobra.Command) (tracker.CreateHabitInput, error) {
	var in tracker.CreateHabitInput
	f := cmd.Flags()
	in.Name, _ = f.GetString("name")
	in.Description, _ = f.GetString("description")
	active, _ := f.GetBool("active")
	in.Active = &active

	var err error
	interval, _ := f.GetString("interval")
	if in.Interval, err = duration.Parse(interval); err != nil {
		return in, err
	}
	lifetime, _ := f.GetString("lifetime")
	if in.Lifetime, err = duration.Parse(lifetime); err != nil {
		return in, err
	}

	in.Start = time.Now().UTC().Truncate(time.Second)
	if raw, _ := f.GetString("start"); raw != "" {
		if in.Start, err = query.Timestamp(raw); err != nil {
			return in, fmt.Errorf("--start: %w", err)
		}
	}
	in.End = in.Start.AddDate(1, 0, 0)
	if raw, _ := f.GetString("end"); raw != "" {
		if in.End, err = query.Timestamp(raw); err != nil {
			return in, fmt.Errorf("--end: %w", err)
		}
	}
	return in, nil
}

func habitsListCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List habits",
		Long: `List habits. Every filter matches exactly unless prefixed with < or >
(e.g. --start ">2023-10-19T13:43:12") or written as a set (e.g. --id "*in(1,2)").`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := query.Habits(flagGetter(cmd))
			if err != nil {
				return err
			}
			return o.run(cmd, func(a *app) error {
				habits, err := a.svc.ListHabits(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("failed to list habits: %w", err)
				}
				return printHabits(cmd.OutOrStdout(), o.format, habits)
			})
		},
	}
	f := cmd.Flags()
	for _, name := range []string{"id", "name", "description", "interval", "lifetime", "active", "start", "end"} {
		f.String(name, "", "filter by "+name)
	}
	return cmd
}

func habitsUpdateCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <habit-id>",
		Short: "Update a habit and reschedule its future tasks",
		Long: `Update a habit. Tasks that already started are kept as they are; later
tasks are regenerated from now (or --resume-at) with the new settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in, err := updateInput(cmd)
			if err != nil {
				return err
			}
			return o.run(cmd, func(a *app) error {
				h, err := a.svc.UpdateHabit(cmd.Context(), id, in)
				if err != nil {
					return fmt.Errorf("failed to update habit: %w", err)
				}
				if o.format == formatTable {
					success(cmd.OutOrStdout(), "Updated habit %d: %s", h.ID, h.Name)
				}
				return printHabits(cmd.OutOrStdout(), o.format, []store.Habit{*h})
			})
		},
	}
	f := cmd.Flags()
	f.String("name", "", "new name")
	f.String("description", "", "new description")
	f.String("interval", "", "new interval, "+durationHelp+"P1W")
	f.String("lifetime", "", "new lifetime, "+durationHelp+"PT30M")
	f.Bool("active", true, "activate or pause the habit")
	f.String("start", "", "new start, ISO-8601")
	f.String("end", "", "new end, ISO-8601")
	f.String("resume-at", "", "regenerate from this instant instead of now, ISO-8601")
	return cmd
}

func updateInput(cmd *cobra.Command) (tracker.UpdateHabitInput, error) {
	var in tracker.UpdateHabitInput
	f := cmd.Flags()

	str := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		return &v
	}
	in.Name = str("name")
	in.Description = str("description")
	if f.Changed("active") {
		v, _ := f.GetBool("active")
		in.Active = &v
	}

	for name, dst := range map[string]**duration.Duration{"interval": &in.Interval, "lifetime": &in.Lifetime} {
		if raw := str(name); raw != nil {
			d, err := duration.Parse(*raw)
			if err != nil {
				return in, err
			}
			*dst = &d
		}
	}
	for name, dst := range map[string]**time.Time{"start": &in.Start, "end": &in.End, "resume-at": &in.ResumeAt} {
		if raw := str(name); raw != nil {
			t, err := query.Timestamp(*raw)
			if err != nil {
				return in, fmt.Errorf("--%s: %w", name, err)
			}
			*dst = &t
		}
	}
	return in, nil
}

func habitsDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <habit-id>",
		Short: "Delete a habit and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return o.run(cmd, func(a *app) error {
				if err := a.svc.DeleteHabit(cmd.Context(), id); err != nil {
					return fmt.Errorf("failed to delete habit: %w", err)
				}
				if o.format == formatJSON {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"status": "ok", "id": id})
				}
				success(cmd.OutOrStdout(), "Deleted habit %d", id)
				return nil
			})
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", raw)
	}
	return id, nil
}

// flagGetter exposes a command's string flags to the query parser. Flag
// names use dashes where query keys use underscores.
func flagGetter(cmd *cobra.Command) query.Getter {
	return func(name string) string {
		flag := cmd.Flags().Lookup(strings.ReplaceAll(name, "_", "-"))
		if flag == nil || !flag.Changed {
			return ""
		}
		return flag.Value.String()
	}
}
