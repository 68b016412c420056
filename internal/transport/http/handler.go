package http

import (
	"net/http"
	"strconv"

	"quizbank-service/internal/app"
	"quizbank-service/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler exposes the quiz use cases over HTTP.
type Handler struct {
	questions *app.QuestionService
	answers   *app.AnswerService
	users     *app.UserService
	tokens    *auth.TokenIssuer
	resolver  *auth.Resolver
	log       logrus.FieldLogger
}

func NewHandler(
	questions *app.QuestionService,
	answers *app.AnswerService,
	users *app.UserService,
	tokens *auth.TokenIssuer,
	resolver *auth.Resolver,
	log logrus.FieldLogger,
) *Handler {
	return &Handler{
		questions: questions,
		answers:   answers,
		users:     users,
		tokens:    tokens,
		resolver:  resolver,
		log:       log,
	}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/")
	api.Use(h.authenticate)
	{
		api.POST("/token", h.IssueToken)

		users := api.Group("/users")
		users.POST("", h.RegisterUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.PATCH("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeactivateUser)

		questions := api.Group("/questions")
		questions.GET("", h.ListQuestions)
		questions.POST("", h.CreateQuestion)
		questions.GET("/:id", h.GetQuestion)
		questions.PUT("/:id", h.UpdateQuestion)
		questions.DELETE("/:id", h.DeleteQuestion)
		questions.POST("/:id/answer", h.SubmitAnswer)
	}
	return r
}

// pathID parses the :id parameter; malformed ids are reported as not found.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
		return 0, false
	}
	return id, true
}
