// Package llm предоставляет интеграцию с OpenAI-совместимым API для ответов чат-бота.
// Включает rate limiting, circuit breaker, логирование запросов и маскирование данных в логах.
package llm

import (
	"context"

	"quizbot/internal/conversation"
)

// Logger определяет интерфейс для логирования LLM запросов.
type Logger interface {
	// LogLLMRequest сохраняет информацию о запросе к LLM в базу данных.
	LogLLMRequest(ctx context.Context, chatID *uint, role, promptText, responseText, model string, tokensUsed, estimatedTokens int) error
}

// Completer отправляет упорядоченные реплики модели и возвращает текст ответа.
// Создаётся явно и передаётся в обработчики, в тестах подменяется фейком.
type Completer interface {
	// Complete возвращает ответ модели. chatID используется только для логов (nil для гостей).
	Complete(ctx context.Context, turns []conversation.Turn, chatID *uint) (string, error)
}

// Роли записей в llm_logs.
const (
	LogRoleCompletion      = "completion"
	LogRoleCompletionError = "completion_error"
)
