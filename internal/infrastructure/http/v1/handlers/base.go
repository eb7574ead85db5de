// Package handlers provides HTTP handlers for the v1 API.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
)

// Error records err for the error middleware and aborts the handler chain.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// BindJSON binds the request body, reporting malformed payloads as
// validation errors. Returns false when binding failed.
func BindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		Error(c, apperror.NewValidation("invalid request body").WithCause(err))
		return false
	}
	return true
}

// ParseIDParam parses a path parameter as an entity id.
func ParseIDParam(c *gin.Context, name string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(name))
	if err != nil {
		Error(c, apperror.NewValidation("invalid id format").WithDetail("param", name))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseIntQuery parses an integer query parameter with a default.
func ParseIntQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// ParseIDQuery parses an optional id query parameter.
func ParseIDQuery(c *gin.Context, name string) (*id.ID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := id.Parse(raw)
	if err != nil {
		Error(c, apperror.NewValidation("invalid id format").WithDetail("param", name))
		return nil, false
	}
	return &parsed, true
}

// listResponse is the envelope for paged listings.
type listResponse struct {
	Items any `json:"items"`
	Total int `json:"total"`
}
