// Package ratelimit ограничивает число запросов к API по ключу (пользователь или IP)
// в окне фиксированной длины.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Redis счётчик INCR с EXPIRE на каждое окно. Общий для всех экземпляров сервиса.
type Redis struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient, limit int, window time.Duration) *Redis {
	return &Redis{
		client: client,
		limit:  limit,
		window: window,
		prefix: "rate_limit:",
		now:    time.Now,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	slot := r.now().UnixNano() / int64(r.window)
	redisKey := r.prefix + key + ":" + strconv.FormatInt(slot, 10)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, r.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit redis: %w", err)
	}
	return incr.Val() <= int64(r.limit), nil
}

// Memory тот же фиксированный счётчик в памяти процесса, когда Redis не настроен.
type Memory struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	counters map[string]*counter
	now      func() time.Time
}

type counter struct {
	slot  int64
	count int
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:    limit,
		window:   window,
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot := m.now().UnixNano() / int64(m.window)
	c, ok := m.counters[key]
	if !ok || c.slot != slot {
		// старые окна выбрасываем, чтобы карта не росла
		if len(m.counters) > 10000 {
			for k, v := range m.counters {
				if v.slot != slot {
					delete(m.counters, k)
				}
			}
		}
		c = &counter{slot: slot}
		m.counters[key] = c
	}

	c.count++
	return c.count <= m.limit, nil
}

// Middleware отклоняет запросы сверх лимита с 429. Ошибки лимитера запрос не блокируют.
func Middleware(l Limiter, keyFunc func(*gin.Context) string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		allowed, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("Лимитер недоступен, запрос пропущен", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			log.Warn("Превышен лимит запросов", zap.String("key", key), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "слишком много запросов, попробуйте позже"})
			return
		}
		c.Next()
	}
}
