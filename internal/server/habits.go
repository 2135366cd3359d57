package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/habitr/internal/duration"
	"github.com/sadopc/habitr/internal/errs"
	"github.com/sadopc/habitr/internal/query"
	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/tracker"
)

// habitRequest is the body of POST and PUT /habits. Durations are ISO-8601
// text and instants ISO-8601 timestamps; omitted fields are nil.
type habitRequest struct {
	ID          *int64  `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Interval    *string `json:"interval"`
	Lifetime    *string `json:"lifetime"`
	Active      *bool   `json:"active"`
	Start       *string `json:"start"`
	End         *string `json:"end"`
	ResumeAt    *string `json:"resume_at"`
}

func optDuration(raw *string) (*duration.Duration, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := duration.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optTime(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := query.Timestamp(*raw)
	if err != nil {
		return nil, &errs.ValidationError{Field: field, Reason: err.Error()}
	}
	return &t, nil
}

func (r habitRequest) updateInput() (tracker.UpdateHabitInput, error) {
	in := tracker.UpdateHabitInput{
		Name:        r.Name,
		Description: r.Description,
		Active:      r.Active,
	}
	var err error
	if in.Interval, err = optDuration(r.Interval); err != nil {
		return in, err
	}
	if in.Lifetime, err = optDuration(r.Lifetime); err != nil {
		return in, err
	}
	if in.Start, err = optTime("start", r.Start); err != nil {
		return in, err
	}
	if in.End, err = optTime("end", r.End); err != nil {
		return in, err
	}
	if in.ResumeAt, err = optTime("resume_at", r.ResumeAt); err != nil {
		return in, err
	}
	return in, nil
}

func (r habitRequest) createInput() (tracker.CreateHabitInput, error) {
	var in tracker.CreateHabitInput
	u, err := r.updateInput()
	if err != nil {
		return in, err
	}
	switch {
	case u.Name == nil:
		return in, errs.Invalid("name", "is required")
	case u.Interval == nil:
		return in, errs.Invalid("interval", "is required")
	case u.Lifetime == nil:
		return in, errs.Invalid("lifetime", "is required")
	case u.Start == nil:
		return in, errs.Invalid("start", "is required")
	case u.End == nil:
		return in, errs.Invalid("end", "is required")
	}
	in = tracker.CreateHabitInput{
		Name:     *u.Name,
		Interval: *u.Interval,
		Lifetime: *u.Lifetime,
		Active:   u.Active,
		Start:    *u.Start,
		End:      *u.End,
	}
	if u.Description != nil {
		in.Description = *u.Description
	}
	return in, nil
}

func bindHabit(c *gin.Context) (habitRequest, error) {
	var req habitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, errs.Invalid("", "malformed JSON body: %v", err)
	}
	return req, nil
}

func (s *Server) listHabits(c *gin.Context) {
	f, err := query.Habits(c.Query)
	if err != nil {
		s.fail(c, "list habits", err)
		return
	}
	habits, err := s.svc.ListHabits(c.Request.Context(), f)
	if err != nil {
		s.fail(c, "list habits", err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(habits))
}

func (s *Server) getHabit(c *gin.Context) {
	id, err := parseID("id", c.Param("id"))
	if err != nil {
		s.fail(c, "get habit", err)
		return
	}
	h, err := s.svc.GetHabit(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "get habit", err)
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) createHabit(c *gin.Context) {
	req, err := bindHabit(c)
	if err != nil {
		s.fail(c, "create habit", err)
		return
	}
	in, err := req.createInput()
	if err != nil {
		s.fail(c, "create habit", err)
		return
	}
	h, err := s.svc.CreateHabit(c.Request.Context(), in)
	if err != nil {
		s.fail(c, "create habit", err)
		return
	}
	c.JSON(http.StatusCreated, h)
}

// updateHabit serves PUT /habits/:id and PUT /habits with the id in the
// body.
func (s *Server) updateHabit(c *gin.Context) {
	req, err := bindHabit(c)
	if err != nil {
		s.fail(c, "update habit", err)
		return
	}
	raw := c.Param("id")
	if raw == "" && req.ID != nil {
		raw = strconv.FormatInt(*req.ID, 10)
	}
	id, err := parseID("id", raw)
	if err != nil {
		s.fail(c, "update habit", err)
		return
	}
	in, err := req.updateInput()
	if err != nil {
		s.fail(c, "update habit", err)
		return
	}
	h, err := s.svc.UpdateHabit(c.Request.Context(), id, in)
	if err != nil {
		s.fail(c, "update habit", err)
		return
	}
	c.JSON(http.StatusOK, h)
}

// deleteHabit serves DELETE /habits/:id and DELETE /habits?id=n.
func (s *Server) deleteHabit(c *gin.Context) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("id")
	}
	id, err := parseID("id", raw)
	if err != nil {
		s.fail(c, "delete habit", err)
		return
	}
	if err := s.svc.DeleteHabit(c.Request.Context(), id); err != nil {
		s.fail(c, "delete habit", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "id": id})
}

func (s *Server) listHabitTasks(c *gin.Context) {
	id, err := parseID("id", c.Param("id"))
	if err != nil {
		s.fail(c, "list habit tasks", err)
		return
	}
	if _, err := s.svc.GetHabit(c.Request.Context(), id); err != nil {
		s.fail(c, "list habit tasks", err)
		return
	}
	f, err := query.Tasks(c.Query)
	if err != nil {
		s.fail(c, "list habit tasks", err)
		return
	}
	f.HabitID = store.Equals(id)
	tasks, err := s.svc.ListTasks(c.Request.Context(), f)
	if err != nil {
		s.fail(c, "list habit tasks", err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(tasks))
}
