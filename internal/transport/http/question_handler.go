package http

import (
	"net/http"

	"quizbank-service/internal/app"
	"quizbank-service/internal/auth"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListQuestions(c *gin.Context) {
	if !h.allow(c, auth.OpListQuestions, 0) {
		return
	}
	questions, err := h.questions.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentQuestions(questions, callerFrom(c).Privileged()))
}

func (h *Handler) CreateQuestion(c *gin.Context) {
	if !h.allow(c, auth.OpCreateQuestion, 0) {
		return
	}
	var in app.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	question, err := h.questions.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, presentQuestion(question, callerFrom(c).Privileged()))
}

func (h *Handler) GetQuestion(c *gin.Context) {
	if !h.allow(c, auth.OpReadQuestion, 0) {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	question, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentQuestion(question, callerFrom(c).Privileged()))
}

func (h *Handler) UpdateQuestion(c *gin.Context) {
	if !h.allow(c, auth.OpUpdateQuestion, 0) {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in app.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	question, err := h.questions.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentQuestion(question, callerFrom(c).Privileged()))
}

func (h *Handler) DeleteQuestion(c *gin.Context) {
	if !h.allow(c, auth.OpDeleteQuestion, 0) {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.questions.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
