package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/streak"
	"github.com/sadopc/habitr/internal/tracker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("disk on fire") }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	now := time.Date(2023, 10, 24, 13, 0, 0, 0, time.UTC)
	svc := tracker.New(st, tracker.Options{Now: func() time.Time { return now }})
	return New(svc, st, zap.NewNop())
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = httptest.NewRequest(method, target, bytes.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expectEmptyList(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Fatalf("expected [], got %s", body)
	}
}

var fourHourly = map[string]any{
	"name":        "stretch",
	"description": "five minutes",
	"interval":    "PT4H",
	"lifetime":    "PT2H",
	"start":       "2023-10-24T08:00:00",
	"end":         "2023-10-25T08:00:00",
}

func habitBody(patch map[string]any) map[string]any {
	body := map[string]any{}
	for k, v := range fourHourly {
		body[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(body, k)
			continue
		}
		body[k] = v
	}
	return body
}

func createHabit(t *testing.T, s *Server) store.Habit {
	t.Helper()
	w := do(t, s, http.MethodPost, "/habits", fourHourly)
	expectCode(t, w, http.StatusCreated)
	return decode[store.Habit](t, w)
}

// ==================== Status ====================

func TestStatus(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/", nil)
	expectCode(t, w, http.StatusOK)
	if got := decode[map[string]string](t, w); got["status"] != "ok" {
		t.Errorf("status body = %v", got)
	}

	expectCode(t, do(t, s, http.MethodGet, "/readyz", nil), http.StatusOK)
}

func TestReadyzDatabaseDown(t *testing.T) {
	s := newTestServer(t)
	s.db = failingPinger{}

	w := do(t, s, http.MethodGet, "/readyz", nil)
	expectCode(t, w, http.StatusServiceUnavailable)
	if !strings.Contains(w.Body.String(), "db_not_ready") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	createHabit(t, s)

	w := do(t, s, http.MethodGet, "/metrics", nil)
	expectCode(t, w, http.StatusOK)
	for _, name := range []string{"habitr_tasks_generated_total", "habitr_http_request_duration_seconds"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("metrics missing %s", name)
		}
	}
}

// ==================== Habits ====================

func TestCreateAndGetHabit(t *testing.T) {
	s := newTestServer(t)
	h := createHabit(t, s)

	if h.Name != "stretch" || h.Interval.String() != "PT4H" || !h.Active {
		t.Errorf("unexpected habit %+v", h)
	}
	if want := time.Date(2023, 10, 24, 8, 0, 0, 0, time.UTC); !h.Start.Equal(want) {
		t.Errorf("start = %v, want %v", h.Start, want)
	}

	w := do(t, s, http.MethodGet, "/habits/1", nil)
	expectCode(t, w, http.StatusOK)
	if name := decode[store.Habit](t, w).Name; name != "stretch" {
		t.Errorf("name = %q", name)
	}

	w = do(t, s, http.MethodGet, "/habits/1/tasks", nil)
	expectCode(t, w, http.StatusOK)
	if n := len(decode[[]store.Task](t, w)); n != 6 {
		t.Errorf("expected 6 tasks, got %d", n)
	}
}

func TestCreateHabitRejected(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		patch map[string]any
	}{
		{"bad interval", map[string]any{"interval": "4 hours"}},
		{"zero lifetime", map[string]any{"lifetime": "PT0S"}},
		{"sub-second interval", map[string]any{"interval": "PT0.5S"}},
		{"tasks past year 9999", map[string]any{"interval": "P1Y", "lifetime": "P8000Y"}},
		{"bad start", map[string]any{"start": "tomorrow"}},
		{"end before start", map[string]any{"end": "2023-10-23T08:00:00"}},
		{"missing name", map[string]any{"name": nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/habits", habitBody(tt.patch))
			expectCode(t, w, http.StatusBadRequest)
			if c := decode[map[string]string](t, w)["category"]; c != "bad_request" {
				t.Errorf("category = %q", c)
			}
		})
	}

	r := httptest.NewRequest(http.MethodPost, "/habits", strings.NewReader("{"))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	expectCode(t, w, http.StatusBadRequest)

	// Rejected habits leave the task list readable.
	w = do(t, s, http.MethodGet, "/tasks", nil)
	expectCode(t, w, http.StatusOK)
	expectEmptyList(t, w)
}

func TestListHabitsFilters(t *testing.T) {
	s := newTestServer(t)
	createHabit(t, s)
	expectCode(t, do(t, s, http.MethodPost, "/habits", habitBody(map[string]any{"name": "paused", "active": false})), http.StatusCreated)

	w := do(t, s, http.MethodGet, "/habits", nil)
	expectCode(t, w, http.StatusOK)
	if n := len(decode[[]store.Habit](t, w)); n != 2 {
		t.Errorf("expected 2 habits, got %d", n)
	}

	habits := decode[[]store.Habit](t, do(t, s, http.MethodGet, "/habits?active=false", nil))
	if len(habits) != 1 || habits[0].Name != "paused" {
		t.Errorf("active=false: %+v", habits)
	}

	habits = decode[[]store.Habit](t, do(t, s, http.MethodGet, "/habits?id=*in(1,2)&name=stretch", nil))
	if len(habits) != 1 {
		t.Errorf("id and name filter: %+v", habits)
	}

	expectEmptyList(t, do(t, s, http.MethodGet, "/habits?name=nobody", nil))
	expectCode(t, do(t, s, http.MethodGet, "/habits?id=one", nil), http.StatusBadRequest)
}

func TestUpdateHabit(t *testing.T) {
	s := newTestServer(t)
	h := createHabit(t, s)

	w := do(t, s, http.MethodPut, "/habits/1", map[string]any{"name": "yoga"})
	expectCode(t, w, http.StatusOK)
	updated := decode[store.Habit](t, w)
	if updated.Name != "yoga" || updated.Interval.String() != h.Interval.String() || !updated.End.Equal(h.End) {
		t.Errorf("unexpected update %+v", updated)
	}

	// Body-addressed form.
	w = do(t, s, http.MethodPut, "/habits", map[string]any{"id": 1, "interval": "PT6H"})
	expectCode(t, w, http.StatusOK)
	if iv := decode[store.Habit](t, w).Interval.String(); iv != "PT6H" {
		t.Errorf("interval = %s", iv)
	}

	expectCode(t, do(t, s, http.MethodPut, "/habits/1", map[string]any{"start": "2023-10-26T00:00:00"}), http.StatusBadRequest)
	expectCode(t, do(t, s, http.MethodPut, "/habits/99", map[string]any{"name": "ghost"}), http.StatusNotFound)
	expectCode(t, do(t, s, http.MethodPut, "/habits", map[string]any{"name": "no id"}), http.StatusBadRequest)
}

func TestDeleteHabit(t *testing.T) {
	s := newTestServer(t)
	createHabit(t, s)
	createHabit(t, s)

	expectCode(t, do(t, s, http.MethodDelete, "/habits/1", nil), http.StatusOK)
	expectCode(t, do(t, s, http.MethodDelete, "/habits?id=2", nil), http.StatusOK)
	expectCode(t, do(t, s, http.MethodDelete, "/habits/1", nil), http.StatusNotFound)
	expectCode(t, do(t, s, http.MethodGet, "/habits/1/tasks", nil), http.StatusNotFound)

	if tasks := decode[[]store.Task](t, do(t, s, http.MethodGet, "/tasks", nil)); len(tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(tasks))
	}
}

// ==================== Tasks ====================

func TestTasksAndCompletion(t *testing.T) {
	s := newTestServer(t)
	createHabit(t, s)

	w := do(t, s, http.MethodGet, "/tasks?habit_id=1&start=%3C2023-10-24T13:00:00", nil)
	expectCode(t, w, http.StatusOK)
	if n := len(decode[[]store.Task](t, w)); n != 2 {
		t.Fatalf("expected 2 started tasks, got %d", n)
	}

	w = do(t, s, http.MethodGet, "/tasks/active", nil)
	expectCode(t, w, http.StatusOK)
	active := decode[[]store.ActiveTask](t, w)
	if len(active) != 1 {
		t.Fatalf("expected 1 active task, got %d", len(active))
	}
	if active[0].HabitName != "stretch" || active[0].HabitOrder != 2 {
		t.Errorf("unexpected active task %+v", active[0])
	}

	w = do(t, s, http.MethodPatch, "/tasks", map[string]any{"id": active[0].ID})
	expectCode(t, w, http.StatusOK)
	if done := decode[store.Task](t, w); !done.Completed || done.CompletedAt == nil {
		t.Errorf("task not completed: %+v", done)
	}

	if n := len(decode[[]store.Task](t, do(t, s, http.MethodGet, "/tasks?completed=true", nil))); n != 1 {
		t.Errorf("expected 1 completed task, got %d", n)
	}
	if n := len(decode[[]store.Task](t, do(t, s, http.MethodGet, "/tasks?limit=3", nil))); n != 3 {
		t.Errorf("expected 3 tasks with limit, got %d", n)
	}

	expectCode(t, do(t, s, http.MethodPatch, "/tasks", map[string]any{}), http.StatusBadRequest)
	expectCode(t, do(t, s, http.MethodPatch, "/tasks", map[string]any{"id": 999}), http.StatusNotFound)

	// Order 6 starts tomorrow.
	expectCode(t, do(t, s, http.MethodPatch, "/tasks", map[string]any{"id": 6}), http.StatusBadRequest)
}

// ==================== Analytics ====================

func TestAnalytics(t *testing.T) {
	s := newTestServer(t)
	createHabit(t, s)
	for _, id := range []int{1, 2} {
		expectCode(t, do(t, s, http.MethodPatch, "/tasks", map[string]any{"id": id}), http.StatusOK)
	}

	w := do(t, s, http.MethodGet, "/analytics/list_current_habits?interval=PT4H", nil)
	expectCode(t, w, http.StatusOK)
	if n := len(decode[[]store.Habit](t, w)); n != 1 {
		t.Errorf("expected 1 current habit, got %d", n)
	}

	expectEmptyList(t, do(t, s, http.MethodGet, "/analytics/list-current-habits?interval=P1D", nil))

	w = do(t, s, http.MethodGet, "/analytics/list-longest-streaks?habit_id=1", nil)
	expectCode(t, w, http.StatusOK)
	streaks := decode[[]streak.Streak](t, w)
	if len(streaks) != 1 {
		t.Fatalf("expected 1 streak, got %d", len(streaks))
	}
	if streaks[0].Length != 2 || !reflect.DeepEqual(streaks[0].TaskIDs, []int64{1, 2}) {
		t.Errorf("unexpected streak %+v", streaks[0])
	}

	expectEmptyList(t, do(t, s, http.MethodGet, "/analytics/get-longest-streak?streak=%3E2", nil))

	for _, target := range []string{
		"/analytics/median",
		"/analytics/get-longest-streak?streak=lots",
		"/analytics/list-current-habits?interval=daily",
	} {
		if w := do(t, s, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, w.Code)
		}
	}
}
