package http

import (
	"net/http"

	"quizbank-service/internal/app"
	"quizbank-service/internal/auth"

	"github.com/gin-gonic/gin"
)

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IssueToken exchanges email and password for an access token.
func (h *Handler) IssueToken(c *gin.Context) {
	if !h.allow(c, auth.OpIssueToken, 0) {
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	missing := gin.H{}
	if req.Email == "" {
		missing["email"] = []string{"This field is required."}
	}
	if req.Password == "" {
		missing["password"] = []string{"This field is required."}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, missing)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": token})
}

func (h *Handler) RegisterUser(c *gin.Context) {
	if !h.allow(c, auth.OpRegisterUser, 0) {
		return
	}
	var in app.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	user, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, presentUser(user))
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok || !h.allow(c, auth.OpReadUser, id) {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentUser(user))
}

// UpdateUser serves PUT (full) and PATCH (partial) updates.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok || !h.allow(c, auth.OpUpdateUser, id) {
		return
	}
	var patch app.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.badRequest(c, err)
		return
	}
	user, err := h.users.Update(c.Request.Context(), id, patch, c.Request.Method == http.MethodPatch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentUser(user))
}

// DeactivateUser soft-deletes the account.
func (h *Handler) DeactivateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok || !h.allow(c, auth.OpDeactivateUser, id) {
		return
	}
	if err := h.users.Deactivate(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
