package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/habitr/internal/duration"
	"github.com/sadopc/habitr/internal/streak"
	"github.com/sadopc/habitr/internal/tracker"
)

func analyticsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics <kind>",
		Short: "Query habit and streak analytics",
		Long: `Query analytics. Kinds:
  list-current-habits   active habits (filter with --interval, --habit-id)
  list-longest-streaks  streaks of completed tasks, longest first (--habit-id, --streak)
  get-longest-streak    the single longest streak (--habit-id, --streak)`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := analyticsQuery(cmd, args[0])
			if err != nil {
				return err
			}
			return o.run(cmd, func(a *app) error {
				res, err := a.svc.Analytics(cmd.Context(), q)
				if err != nil {
					return fmt.Errorf("failed to query analytics: %w", err)
				}
				if res.Kind == tracker.KindCurrentHabits {
					return printHabits(cmd.OutOrStdout(), o.format, res.Habits)
				}
				return printStreaks(cmd.OutOrStdout(), o.format, res.Streaks)
			})
		},
	}
	f := cmd.Flags()
	f.String("interval", "", "only habits repeating on this ISO-8601 interval, e.g. P1D")
	f.Int64("habit-id", 0, "only this habit")
	f.String("streak", "", "only streaks whose length matches >n, <n or n, e.g. >3")
	return cmd
}

func analyticsQuery(cmd *cobra.Command, kind string) (tracker.AnalyticsQuery, error) {
	var q tracker.AnalyticsQuery
	var err error
	if q.Kind, err = tracker.ParseKind(kind); err != nil {
		return q, fmt.Errorf("%w (valid: %s)", err, strings.Join(kindNames(), ", "))
	}

	f := cmd.Flags()
	if f.Changed("habit-id") {
		id, _ := f.GetInt64("habit-id")
		q.HabitID = &id
	}
	if raw, _ := f.GetString("interval"); raw != "" {
		d, err := duration.Parse(raw)
		if err != nil {
			return q, err
		}
		q.Interval = &d
	}
	if raw, _ := f.GetString("streak"); raw != "" {
		p, err := streak.ParsePredicate(raw)
		if err != nil {
			return q, err
		}
		q.Streak = &p
	}
	return q, nil
}

func kindNames() []string {
	names := make([]string, len(tracker.Kinds))
	for i, k := range tracker.Kinds {
		names[i] = string(k)
	}
	return names
}
