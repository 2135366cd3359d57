package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/habitr/internal/export"
	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/streak"
)

func exportCmd(o *options) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks (and, as JSON, the streak report) to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "json" {
				return fmt.Errorf("invalid export format %q: use csv or json", format)
			}
			if out == "" {
				out = "habitr-export." + format
			}
			return o.run(cmd, func(a *app) error {
				path, err := exportAll(cmd, a, format, out)
				if err != nil {
					return fmt.Errorf("failed to export: %w", err)
				}
				success(cmd.OutOrStdout(), "Exported to %s", path)
				return nil
			})
		},
	}
	// Shadows the global --format, which selects table or json output.
	cmd.Flags().StringVar(&format, "format", "csv", "file format: csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default habitr-export.<format>)")
	return cmd
}

func exportAll(cmd *cobra.Command, a *app, format, out string) (string, error) {
	ctx := cmd.Context()
	habits, err := a.svc.ListHabits(ctx, store.HabitFilter{})
	if err != nil {
		return "", err
	}
	byID := make(map[int64]*store.Habit, len(habits))
	for i := range habits {
		byID[habits[i].ID] = &habits[i]
	}
	tasks, err := a.svc.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return "", err
	}

	path, err := filepath.Abs(out)
	if err != nil {
		return "", err
	}
	if format == "csv" {
		return path, export.ToCSV(tasks, byID, path)
	}

	var completed []store.Task
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		}
	}
	return path, export.ToJSON(tasks, byID, streak.Longest(streak.Compute(completed)), path)
}
