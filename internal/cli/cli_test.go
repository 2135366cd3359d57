package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/streak"
)

type harness struct {
	t   *testing.T
	dir string
	db  string
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	return &harness{t: t, dir: dir, db: filepath.Join(dir, "habitr.db")}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", h.db, "--config", filepath.Join(h.dir, "missing.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

// mustFail runs args and fails the test if the command succeeds.
func (h *harness) mustFail(args ...string) {
	h.t.Helper()
	if out, err := h.run(args...); err == nil {
		h.t.Errorf("%s: expected error, got output %q", strings.Join(args, " "), out)
	}
}

func jsonOut[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return v
}

func expectContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Errorf("expected output to contain %q, got %q", want, out)
	}
}

func expectLen[T any](t *testing.T, got []T, want int) {
	t.Helper()
	if len(got) != want {
		t.Fatalf("expected %d items, got %d: %+v", want, len(got), got)
	}
}

func iso(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// createHourly creates a habit whose first three hourly tasks have already
// started.
func (h *harness) createHourly(name string) store.Habit {
	h.t.Helper()
	now := time.Now()
	out := h.mustRun("--format", "json", "habits", "create",
		"--name", name,
		"--description", "desc",
		"--interval", "PT1H",
		"--lifetime", "PT45M",
		"--start", iso(now.Add(-150*time.Minute)),
		"--end", iso(now.Add(150*time.Minute)),
	)
	habits := jsonOut[[]store.Habit](h.t, out)
	expectLen(h.t, habits, 1)
	return habits[0]
}

// ==================== Habits ====================

func TestHabitsCreateAndList(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("habits", "create", "--name", "stretch", "--interval", "P1D", "--lifetime", "PT1H")
	expectContains(t, out, "Created habit 1: stretch")
	expectContains(t, out, "P1D")

	h.createHourly("walk")

	habits := jsonOut[[]store.Habit](t, h.mustRun("--format", "json", "habits", "list"))
	expectLen(t, habits, 2)
	if habits[0].Name != "stretch" || !habits[0].Active {
		t.Errorf("unexpected habit %+v", habits[0])
	}
	if want := habits[0].Start.AddDate(1, 0, 0); !habits[0].End.Equal(want) {
		t.Errorf("end = %v, want %v", habits[0].End, want)
	}

	habits = jsonOut[[]store.Habit](t, h.mustRun("--format", "json", "habits", "list", "--interval", "PT1H"))
	expectLen(t, habits, 1)
	if habits[0].Name != "walk" {
		t.Errorf("name = %q, want walk", habits[0].Name)
	}

	habits = jsonOut[[]store.Habit](t, h.mustRun("--format", "json", "habits", "list", "--id", "*in(1,2)", "--name", "stretch"))
	expectLen(t, habits, 1)

	expectContains(t, h.mustRun("habits", "list", "--name", "nobody"), "No habits found")
}

func TestHabitsCreateDryRun(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("--format", "json", "habits", "create", "--dry-run",
		"--name", "walk", "--interval", "PT4H", "--lifetime", "PT2H",
		"--start", "2023-10-24T08:00:00Z", "--end", "2023-10-25T08:00:00Z")
	if n := jsonOut[map[string]int](t, out)["tasks"]; n != 6 {
		t.Errorf("expected 6 tasks, got %d", n)
	}

	habits := jsonOut[[]store.Habit](t, h.mustRun("--format", "json", "habits", "list"))
	expectLen(t, habits, 0)
}

func TestHabitsCreateRejected(t *testing.T) {
	h := newHarness(t)

	h.mustFail("habits", "create", "--name", "x", "--interval", "daily", "--lifetime", "PT1H")
	h.mustFail("habits", "create", "--name", "x", "--interval", "P1D", "--lifetime", "PT1H",
		"--start", "2023-10-24T08:00:00", "--end", "2023-10-24T08:00:00")
	h.mustFail("habits", "create", "--name", "x", "--interval", "PT0.5S", "--lifetime", "PT1H")
	h.mustFail("habits", "create", "--interval", "P1D", "--lifetime", "PT1H")
	h.mustFail("--format", "yaml", "habits", "list")
}

func TestHabitsUpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	habit := h.createHourly("walk")

	expectContains(t, h.mustRun("habits", "update", "1", "--name", "stroll", "--active=false"), "Updated habit 1: stroll")

	updated := jsonOut[[]store.Habit](t, h.mustRun("--format", "json", "habits", "list", "--id", "1"))
	expectLen(t, updated, 1)
	if u := updated[0]; u.Name != "stroll" || u.Active || u.Description != "desc" {
		t.Errorf("unexpected update %+v", u)
	}
	if got, want := updated[0].Interval.String(), habit.Interval.String(); got != want {
		t.Errorf("interval = %s, want %s", got, want)
	}

	h.mustFail("habits", "update", "1", "--start", iso(habit.End.Add(time.Hour)))
	h.mustFail("habits", "update", "99", "--name", "ghost")
	h.mustFail("habits", "update", "abc", "--name", "ghost")

	expectContains(t, h.mustRun("habits", "delete", "1"), "Deleted habit 1")
	tasks := jsonOut[[]store.Task](t, h.mustRun("--format", "json", "tasks", "list"))
	expectLen(t, tasks, 0)

	h.mustFail("habits", "delete", "1")
}

// ==================== Tasks ====================

func TestTasksListActiveComplete(t *testing.T) {
	h := newHarness(t)
	h.createHourly("walk")

	tasks := jsonOut[[]store.Task](t, h.mustRun("--format", "json", "tasks", "list", "--habit-id", "1"))
	expectLen(t, tasks, 5)
	for i, task := range tasks {
		if task.HabitOrder != i+1 {
			t.Errorf("task %d: order = %d, want %d", i, task.HabitOrder, i+1)
		}
	}

	expectLen(t, jsonOut[[]store.Task](t, h.mustRun("--format", "json", "tasks", "list", "--limit", "2")), 2)
	expectLen(t, jsonOut[[]store.Task](t, h.mustRun("--format", "json", "tasks", "list", "--start", "<"+iso(time.Now()))), 3)

	active := jsonOut[[]store.ActiveTask](t, h.mustRun("--format", "json", "tasks", "active"))
	expectLen(t, active, 1)
	if active[0].HabitName != "walk" || active[0].HabitOrder != 3 {
		t.Errorf("unexpected active task %+v", active[0])
	}

	expectContains(t, h.mustRun("tasks", "complete", "1"), "Completed task 1")
	h.mustRun("tasks", "complete", "2")

	expectLen(t, jsonOut[[]store.Task](t, h.mustRun("--format", "json", "tasks", "list", "--completed", "true")), 2)

	// Task 5 has not started.
	h.mustFail("tasks", "complete", "5")
	h.mustFail("tasks", "list", "--completed", "sometimes")
}

// ==================== Analytics ====================

func TestAnalytics(t *testing.T) {
	h := newHarness(t)
	h.createHourly("walk")
	h.createHourly("read")
	h.mustRun("tasks", "complete", "1")
	h.mustRun("tasks", "complete", "2")
	h.mustRun("tasks", "complete", "7")

	streaks := jsonOut[[]streak.Streak](t, h.mustRun("--format", "json", "analytics", "list_longest_streaks"))
	expectLen(t, streaks, 2)
	if streaks[0].Length != 2 || !reflect.DeepEqual(streaks[0].TaskIDs, []int64{1, 2}) {
		t.Errorf("unexpected longest streak %+v", streaks[0])
	}

	streaks = jsonOut[[]streak.Streak](t, h.mustRun("--format", "json", "analytics", "get-longest-streak", "--habit-id", "2"))
	expectLen(t, streaks, 1)
	if streaks[0].HabitID != 2 || !reflect.DeepEqual(streaks[0].TaskIDs, []int64{7}) {
		t.Errorf("unexpected streak for habit 2 %+v", streaks[0])
	}

	expectLen(t, jsonOut[[]streak.Streak](t, h.mustRun("--format", "json", "analytics", "list-longest-streaks", "--streak", "<2")), 1)
	expectLen(t, jsonOut[[]store.Habit](t, h.mustRun("--format", "json", "analytics", "list-current-habits", "--interval", "PT1H")), 2)

	expectContains(t, h.mustRun("analytics", "list-longest-streaks"), "STREAK")

	h.mustFail("analytics", "median")
	h.mustFail("analytics", "get-longest-streak", "--streak", "many")
}

// ==================== Export ====================

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.createHourly("walk")
	h.mustRun("tasks", "complete", "1")

	csvPath := filepath.Join(h.dir, "tasks.csv")
	expectContains(t, h.mustRun("export", "--out", csvPath), "Exported to")

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	expectLen(t, records, 1+5)
	if records[1][1] != "walk" {
		t.Errorf("habit column = %q, want walk", records[1][1])
	}

	jsonPath := filepath.Join(h.dir, "tasks.json")
	h.mustRun("export", "--format", "json", "--out", jsonPath)
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json export: %v", err)
	}
	var doc struct {
		Count   int `json:"count"`
		Streaks []struct {
			Length int `json:"streak"`
		} `json:"streaks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode json export: %v", err)
	}
	if doc.Count != 5 {
		t.Errorf("count = %d, want 5", doc.Count)
	}
	expectLen(t, doc.Streaks, 1)
	if doc.Streaks[0].Length != 1 {
		t.Errorf("streak length = %d, want 1", doc.Streaks[0].Length)
	}

	h.mustFail("export", "--format", "xml")
}
