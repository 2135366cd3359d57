package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/habitr/internal/errs"
	"github.com/sadopc/habitr/internal/query"
	"github.com/sadopc/habitr/internal/streak"
	"github.com/sadopc/habitr/internal/tracker"
)

func (s *Server) listTasks(c *gin.Context) {
	f, err := query.Tasks(c.Query)
	if err != nil {
		s.fail(c, "list tasks", err)
		return
	}
	tasks, err := s.svc.ListTasks(c.Request.Context(), f)
	if err != nil {
		s.fail(c, "list tasks", err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(tasks))
}

func (s *Server) activeTasks(c *gin.Context) {
	active, err := s.svc.ActiveTasks(c.Request.Context())
	if err != nil {
		s.fail(c, "list active tasks", err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(active))
}

// completeTask serves PATCH /tasks with body {"id": n}.
func (s *Server) completeTask(c *gin.Context) {
	var req struct {
		ID *int64 `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, "complete task", errs.Invalid("", "malformed JSON body: %v", err))
		return
	}
	if req.ID == nil {
		s.fail(c, "complete task", errs.Invalid("id", "is required"))
		return
	}
	t, err := s.svc.CompleteTask(c.Request.Context(), *req.ID)
	if err != nil {
		s.fail(c, "complete task", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// analytics serves GET /analytics/:kind?habit_id=&interval=&streak=.
func (s *Server) analytics(c *gin.Context) {
	q, err := analyticsQuery(c)
	if err != nil {
		s.fail(c, "analytics", err)
		return
	}
	res, err := s.svc.Analytics(c.Request.Context(), q)
	if err != nil {
		s.fail(c, "analytics", err)
		return
	}
	if res.Kind == tracker.KindCurrentHabits {
		c.JSON(http.StatusOK, orEmpty(res.Habits))
		return
	}
	c.JSON(http.StatusOK, orEmpty(res.Streaks))
}

func analyticsQuery(c *gin.Context) (tracker.AnalyticsQuery, error) {
	var q tracker.AnalyticsQuery
	kind, err := tracker.ParseKind(c.Param("kind"))
	if err != nil {
		return q, err
	}
	q.Kind = kind

	if raw := c.Query("habit_id"); raw != "" {
		id, err := parseID("habit_id", raw)
		if err != nil {
			return q, err
		}
		q.HabitID = &id
	}
	raw := c.Query("interval")
	if q.Interval, err = optDuration(nilIfEmpty(raw)); err != nil {
		return q, err
	}
	if raw := c.Query("streak"); raw != "" {
		p, err := streak.ParsePredicate(raw)
		if err != nil {
			return q, err
		}
		q.Streak = &p
	}
	return q, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
