package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Alp4ka/sloth"
	"github.com/Alp4ka/sloth/blog"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func sendError(c *gin.Context, status int, msg string, details string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Message: details})
}

// fail maps err to a status code. Store failures are logged and answered
// without details.
func (s *Server) fail(c *gin.Context, err error) {
	var (
		vErr   *blog.ValidationError
		cfgErr *sloth.ConfigError
	)

	switch {
	case errors.As(err, &vErr):
		sendError(c, http.StatusBadRequest, "Invalid input", vErr.Error())
	case errors.As(err, &cfgErr):
		sendError(c, http.StatusBadRequest, "Invalid parameters", cfgErr.Error())
	case errors.Is(err, sloth.ErrNotFound):
		sendError(c, http.StatusNotFound, "Not found", "")
	case errors.Is(err, blog.ErrDuplicateSlug):
		sendError(c, http.StatusConflict, "Conflict", err.Error())
	default:
		s.logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request failed")
		sendError(c, http.StatusInternalServerError, "Internal error", "")
	}
}
