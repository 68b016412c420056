package http

import (
	"errors"
	"net/http"

	"quizbank-service/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	detailUnauthenticated    = "Authentication credentials were not provided."
	detailInvalidCredentials = "No active account found with the given credentials"
	detailForbidden          = "You do not have permission to perform this action."
	detailNotFound           = "Not found."
	detailProtected          = "Cannot delete this question because it has answers."
)

// writeError maps service errors onto status codes and response bodies.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, domain.ErrUnauthenticated):
		c.Header("WWW-Authenticate", `Bearer realm="api"`)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailUnauthenticated})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.Header("WWW-Authenticate", `Bearer realm="api"`)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailInvalidCredentials})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": detailForbidden})
	case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
	case errors.Is(err, domain.ErrProtected):
		c.JSON(http.StatusBadRequest, gin.H{domain.FieldError: []string{detailProtected}})
	default:
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
}
