package http

import (
	"net/http"

	"quizbank-service/internal/auth"
	"quizbank-service/internal/domain"

	"github.com/gin-gonic/gin"
)

type submitAnswerRequest struct {
	Choice *int64 `json:"choice"`
}

func (h *Handler) SubmitAnswer(c *gin.Context) {
	if !h.allow(c, auth.OpSubmitAnswer, 0) {
		return
	}
	questionID, ok := pathID(c)
	if !ok {
		return
	}
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.Choice == nil {
		c.JSON(http.StatusBadRequest, gin.H{domain.FieldChoice: []string{"This field is required."}})
		return
	}

	answer, err := h.answers.Submit(c.Request.Context(), questionID, *req.Choice, callerFrom(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, presentAnswer(answer))
}
