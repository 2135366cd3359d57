package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/errs"
)

// fail writes err as {"error", "category"} with the status of its category.
// Internal failures are logged and their detail is not returned.
func (s *Server) fail(c *gin.Context, op string, err error) {
	cat := errs.CategoryOf(err)
	msg := err.Error()
	if cat == errs.CategoryInternal {
		s.logger.Error(op+" failed", zap.Error(err))
		msg = op + " failed"
	} else {
		s.logger.Warn(op+" rejected", zap.String("category", cat.String()), zap.Error(err))
	}
	c.AbortWithStatusJSON(cat.HTTPStatus(), gin.H{"error": msg, "category": cat.String()})
}

func parseID(field, raw string) (int64, error) {
	if raw == "" {
		return 0, errs.Invalid(field, "is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Invalid(field, "must be a positive integer, got %q", raw)
	}
	return id, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
