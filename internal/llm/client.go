package llm

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"quizbot/internal/conversation"
	"quizbot/internal/sanitizer"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Options параметры клиента модели.
type Options struct {
	APIKey            string
	Model             string
	BaseURL           string // пусто для api.openai.com
	MaxTokens         int
	Temperature       float32
	RequestsPerMinute int
	TokensPerHour     int
}

type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      Logger
	log         *zap.Logger
	sanitizer   *sanitizer.DataSanitizer
	rateLimiter *RateLimiter
	breaker     *CircuitBreaker
}

// NewClient создаёт клиента. logger может быть nil, тогда запросы не пишутся в БД.
func NewClient(opts Options, logger Logger, log *zap.Logger) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &Client{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		logger:      logger,
		log:         log,
		sanitizer:   sanitizer.New(),
		rateLimiter: NewRateLimiter(opts.RequestsPerMinute, opts.TokensPerHour),
		breaker:     NewCircuitBreaker(5, 30*time.Second),
	}
}

func (c *Client) Model() string { return c.model }

// Complete отправляет реплики модели и возвращает очищенный текст ответа.
func (c *Client) Complete(ctx context.Context, turns []conversation.Turn, chatID *uint) (string, error) {
	estimated := conversation.EstimateTokenCount(turns)
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toMessages(turns),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.createChatCompletionWithRateLimit(ctx, req, estimated)
	if err != nil {
		c.logRequest(ctx, chatID, LogRoleCompletionError, turns, err.Error(), 0, estimated)
		c.log.Error("Ошибка запроса к модели", zap.Error(err), zap.Int("estimated_tokens", estimated))
		return "", err
	}

	if len(resp.Choices) == 0 {
		err := &UpstreamError{Kind: ErrorKindEmptyResponse, Message: "пустой ответ от модели"}
		c.logRequest(ctx, chatID, LogRoleCompletionError, turns, err.Error(), resp.Usage.TotalTokens, estimated)
		return "", err
	}

	answer := CleanResponse(resp.Choices[0].Message.Content)
	c.logRequest(ctx, chatID, LogRoleCompletion, turns, answer, resp.Usage.TotalTokens, estimated)
	c.log.Info("Ответ модели получен",
		zap.Int("response_chars", len([]rune(answer))),
		zap.Int("tokens_used", resp.Usage.TotalTokens),
		zap.Int("estimated_tokens", estimated),
	)
	return answer, nil
}

// createChatCompletionWithRateLimit выполняет запрос с проверкой rate limit и circuit breaker
func (c *Client) createChatCompletionWithRateLimit(ctx context.Context, req openai.ChatCompletionRequest, estimatedTokens int) (openai.ChatCompletionResponse, error) {
	if err := c.rateLimiter.AllowRequest(); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	// к оценке промпта добавляем токены ответа
	budget := estimatedTokens + req.MaxTokens
	if err := c.rateLimiter.AllowTokens(budget); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	var resp openai.ChatCompletionResponse
	err := c.breaker.Call(func() error {
		var callErr error
		resp, callErr = c.client.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return resp, err
		}
		return resp, &UpstreamError{Kind: kindOf(err), Message: "запрос к модели не выполнен", Err: err}
	}

	// корректируем использованные токены, теперь известно точное значение
	if resp.Usage.TotalTokens > budget {
		c.rateLimiter.ConsumeTokens(resp.Usage.TotalTokens - budget)
	}
	return resp, nil
}

// Ping проверяет ключ и доступность провайдера, возвращает список моделей.
func (c *Client) Ping(ctx context.Context) ([]string, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, &UpstreamError{Kind: kindOf(err), Message: "список моделей недоступен", Err: err}
	}
	models := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, m.ID)
	}
	return models, nil
}

func (c *Client) logRequest(ctx context.Context, chatID *uint, role string, turns []conversation.Turn, response string, tokensUsed, estimated int) {
	if c.logger == nil {
		return
	}
	prompt := c.sanitizer.Sanitize(formatPrompt(turns))
	response = c.sanitizer.Sanitize(response)
	if err := c.logger.LogLLMRequest(context.WithoutCancel(ctx), chatID, role, prompt, response, c.model, tokensUsed, estimated); err != nil {
		c.log.Warn("Не удалось сохранить лог LLM", zap.Error(err))
	}
}

func kindOf(err error) ErrorKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return ErrorKindRateLimited
	}
	return classifyError(err)
}

func toMessages(turns []conversation.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}
	return messages
}

func formatPrompt(turns []conversation.Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}

var asterisks = regexp.MustCompile(`\*+`)

// CleanResponse убирает звёздочки markdown и крайние пробелы из ответа модели.
func CleanResponse(text string) string {
	return strings.TrimSpace(asterisks.ReplaceAllString(text, ""))
}
