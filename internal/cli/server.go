package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizbank-service/internal/app"
	"quizbank-service/internal/auth"
	"quizbank-service/internal/config"
	"quizbank-service/internal/infra/memory"
	pgstore "quizbank-service/internal/infra/postgres"
	redislock "quizbank-service/internal/infra/redis"
	transport "quizbank-service/internal/transport/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultJWTSecret = "change-me"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores holds the persistence backends picked from config.
type stores struct {
	questions app.QuestionStore
	users     app.UserStore
	lock      app.SubmissionLock
	closers   []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores uses Postgres and Redis when configured and falls back to
// in-process implementations otherwise.
func openStores(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*stores, error) {
	s := &stores{}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		store := pgstore.NewStore(pool)
		s.questions, s.users = store, store
	} else {
		log.Warn("postgres url not configured, using in-memory store")
		store := memory.NewStore()
		s.questions, s.users = store, store
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = client.Close() })
		ttl := config.Duration(cfg.Redis.LockTTL, 30*time.Second)
		s.lock = redislock.NewSubmissionLock(client, ttl, log)
	} else {
		s.lock = memory.NewSubmissionLock()
	}
	return s, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := cfg.NewLogger()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = defaultJWTSecret
	}
	if secret == defaultJWTSecret {
		log.Warn("using the default JWT secret; set auth.jwt_secret or JWT_SECRET")
	}

	deps, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	tokens := auth.NewTokenIssuer(secret, config.Duration(cfg.Auth.TokenTTL, time.Hour))
	handler := transport.NewHandler(
		app.NewQuestionService(deps.questions, log),
		app.NewAnswerService(deps.questions, deps.lock, log),
		app.NewUserService(deps.users, log),
		tokens,
		auth.NewResolver(tokens, deps.users),
		log,
	)

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("starting quizbank")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
