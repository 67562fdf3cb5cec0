// Package server HTTP API чат-бота на gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"quizbot/internal/auth"
	"quizbot/internal/chat"
	"quizbot/internal/config"
	"quizbot/internal/database"
	"quizbot/internal/logger"
	"quizbot/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const version = "1.0.0"

// Pinger проверка доступности модели для /llm/ping.
type Pinger interface {
	Ping(ctx context.Context) ([]string, error)
}

type Deps struct {
	DB      *database.Database
	Auth    *auth.Service
	Chats   *chat.Service
	LLM     Pinger
	Limiter ratelimit.Limiter
}

type Server struct {
	cfg    *config.Cfg
	log    *logger.Zap
	deps   Deps
	engine *gin.Engine
}

func New(cfg *config.Cfg, log *logger.Zap, deps Deps) *Server {
	if cfg.Logger.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewMemory(cfg.RateLimit.PerMinute, time.Minute)
	}

	s := &Server{cfg: cfg, log: log, deps: deps}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), requestID(), s.requestLog(), cors(s.cfg.CORS.Origins))

	r.GET("/", s.root)
	r.GET("/health", s.health)

	limit := ratelimit.Middleware(s.deps.Limiter, rateKey, s.log.Logger)
	api := r.Group("/api/v1")

	public := api.Group("", limit)
	public.POST("/users/register", s.register)
	public.POST("/users/login", s.login)
	public.POST("/chats/guest/message", s.guestMessage)
	public.GET("/llm/ping", s.llmPing)

	private := api.Group("", s.deps.Auth.RequireUser(), limit)
	private.GET("/users/me", s.me)
	private.GET("/chats", s.listChats)
	private.POST("/chats", s.createChat)
	private.GET("/chats/search/chats", s.searchChats)
	private.GET("/chats/:id", s.getChat)
	private.DELETE("/chats/:id", s.deleteChat)
	private.PATCH("/chats/:id/title", s.renameChat)
	private.POST("/chats/:id/messages", s.sendMessage)

	return r
}

// Run слушает адрес из конфигурации до отмены ctx, затем корректно завершает соединения.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.App.Host, s.cfg.App.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Сервер запущен", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Остановка сервера")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("остановка сервера: %w", err)
	}
	return <-errCh
}
