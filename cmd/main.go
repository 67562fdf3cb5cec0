package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizbot/internal/auth"
	"quizbot/internal/chat"
	"quizbot/internal/cli"
	"quizbot/internal/config"
	"quizbot/internal/conversation"
	"quizbot/internal/database"
	"quizbot/internal/llm"
	"quizbot/internal/logger"
	"quizbot/internal/migrations"
	"quizbot/internal/ratelimit"
	"quizbot/internal/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	mode := "serve"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrations.Run(cfg, log); err != nil {
		log.Fatal("Ошибка миграций", zap.Error(err))
	}

	db, err := database.New(cfg, log)
	if err != nil {
		log.Fatal("Ошибка подключения к БД", zap.Error(err))
	}
	defer db.Close(log)

	repos := db.Repositories()

	if cfg.OpenAI.KeyAI == "" {
		log.Warn("OPENAI_API_KEY не задан, запросы к модели будут завершаться ошибкой")
	}
	llmClient := llm.NewClient(llm.Options{
		APIKey:            cfg.OpenAI.KeyAI,
		Model:             cfg.OpenAI.Model,
		BaseURL:           cfg.OpenAI.BaseURL,
		MaxTokens:         cfg.OpenAI.MaxTokens,
		Temperature:       cfg.OpenAI.Temperature,
		RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
		TokensPerHour:     cfg.OpenAI.TokensPerHour,
	}, repos.LLMLogs, log.Logger)

	builder := conversation.NewBuilder(cfg.Chat.SystemPrompt, cfg.Chat.MaxContextMessages)
	chats := chat.NewService(db, builder, llmClient, chat.Options{GuestEnabled: cfg.Chat.GuestEnabled}, log.Logger)

	switch mode {
	case "console":
		cli.New(db, chats, log).Run(ctx)

	case "serve":
		limiter, closeLimiter := newLimiter(ctx, cfg, log)
		defer closeLimiter()

		srv := server.New(cfg, log, server.Deps{
			DB:      db,
			Auth:    auth.NewService(repos.Users, auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), log.Logger),
			Chats:   chats,
			LLM:     llmClient,
			Limiter: limiter,
		})
		if err := srv.Run(ctx); err != nil {
			log.Error("Ошибка сервера", zap.Error(err))
		}

	default:
		log.Fatal("Неизвестный режим, ожидается serve или console", zap.String("mode", mode))
	}
}

// newLimiter Redis при заданном REDIS_ADDR и доступном сервере, иначе счётчик в памяти.
func newLimiter(ctx context.Context, cfg *config.Cfg, log *logger.Zap) (ratelimit.Limiter, func()) {
	memory := ratelimit.NewMemory(cfg.RateLimit.PerMinute, time.Minute)
	if cfg.Redis.Addr == "" {
		return memory, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis недоступен, лимиты считаются в памяти", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = client.Close()
		return memory, func() {}
	}

	log.Info("Лимиты запросов хранятся в Redis", zap.String("addr", cfg.Redis.Addr))
	return ratelimit.NewRedis(client, cfg.RateLimit.PerMinute, time.Minute), func() { _ = client.Close() }
}
