package types

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pulsewatch/internal/storage"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// PaginationRequest represents pagination parameters in requests
type PaginationRequest struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=50" binding:"min=1,max=1000"`
}

// Offset returns the number of rows to skip.
func (p PaginationRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// QueryLimit parses the limit query parameter, falling back to def when absent.
// Range checks are left to the store.
func QueryLimit(c *gin.Context, def int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, storage.NewValidationError("limit", "must be an integer")
	}
	return v, nil
}

// OptionalTimestamp parses an RFC3339 query parameter as UTC. An absent
// parameter yields nil.
func OptionalTimestamp(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, storage.NewValidationError(name, "must be an RFC3339 timestamp")
	}
	ts = ts.UTC()
	return &ts, nil
}

// RequiredTimestamp is OptionalTimestamp for a parameter that must be present.
func RequiredTimestamp(c *gin.Context, name string) (time.Time, error) {
	ts, err := OptionalTimestamp(c, name)
	if err != nil {
		return time.Time{}, err
	}
	if ts == nil {
		return time.Time{}, storage.NewValidationError(name, "is required")
	}
	return *ts, nil
}
