package http

import (
	"time"

	"quizbank-service/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	callerKey       = "caller"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// requestLogger tags every request with an id and logs its outcome.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDKey, reqID)
		c.Header(requestIDHeader, reqID)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		})
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// authenticate resolves the bearer token into a caller. Requests without a
// token continue as anonymous; a bad token is rejected outright.
func (h *Handler) authenticate(c *gin.Context) {
	caller, err := h.resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		h.writeError(c, err)
		c.Abort()
		return
	}
	c.Set(callerKey, caller)
	c.Next()
}

func callerFrom(c *gin.Context) *auth.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(*auth.Caller); ok {
			return caller
		}
	}
	return &auth.Caller{}
}

// allow evaluates the access policy and writes the denial when it fails.
func (h *Handler) allow(c *gin.Context, op auth.Operation, ownerID int64) bool {
	if err := auth.Authorize(op, callerFrom(c), ownerID); err != nil {
		h.writeError(c, err)
		return false
	}
	return true
}
