package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"quizbot/internal/conversation"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type logEntry struct {
	chatID   *uint
	role     string
	prompt   string
	response string
	tokens   int
	estimate int
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) LogLLMRequest(_ context.Context, chatID *uint, role, prompt, response, _ string, tokensUsed, estimated int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{chatID, role, prompt, response, tokensUsed, estimated})
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordingLogger) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logs := &recordingLogger{}
	c := NewClient(Options{
		APIKey:      "test-key",
		Model:       "gpt-4o",
		BaseURL:     srv.URL + "/v1",
		MaxTokens:   100,
		Temperature: 0.7,
	}, logs, zap.NewNop())
	return c, logs
}

func TestClient_Complete(t *testing.T) {
	var got openai.ChatCompletionRequest
	c, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: "assistant", Content: "  **Столица** Франции: Париж  "},
			}},
			Usage: openai.Usage{TotalTokens: 42},
		})
	})

	turns := []conversation.Turn{
		{Role: conversation.RoleSystem, Content: "P"},
		{Role: conversation.RoleUser, Content: "мой пароль: hunter2, столица Франции?"},
	}
	chatID := uint(7)

	answer, err := c.Complete(context.Background(), turns, &chatID)
	require.NoError(t, err)
	assert.Equal(t, "Столица Франции: Париж", answer)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "P", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 100, got.MaxTokens)

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.Equal(t, LogRoleCompletion, entry.role)
	require.NotNil(t, entry.chatID)
	assert.Equal(t, uint(7), *entry.chatID)
	assert.Equal(t, 42, entry.tokens)
	assert.Equal(t, conversation.EstimateTokenCount(turns), entry.estimate)
	assert.NotContains(t, entry.prompt, "hunter2")
}

func TestClient_CompleteEmptyChoices(t *testing.T) {
	c, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{})
	})

	_, err := c.Complete(context.Background(), []conversation.Turn{{Role: conversation.RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ErrorKindEmptyResponse, ue.Kind)

	require.Len(t, logs.entries, 1)
	assert.Equal(t, LogRoleCompletionError, logs.entries[0].role)
	assert.Nil(t, logs.entries[0].chatID)
}

func TestClient_CompleteProviderError(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_exceeded"}}`))
	})

	_, err := c.Complete(context.Background(), []conversation.Turn{{Role: conversation.RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
	assert.True(t, IsUpstream(err))

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ErrorKindRateLimited, ue.Kind)
	assert.Equal(t, 1, calls, "повторов быть не должно")
}

func TestClient_CircuitOpensAfterFailures(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	turns := []conversation.Turn{{Role: conversation.RoleUser, Content: "hi"}}
	for i := 0; i < 5; i++ {
		_, err := c.Complete(context.Background(), turns, nil)
		require.Error(t, err)
	}

	_, err := c.Complete(context.Background(), turns, nil)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ErrorKindCircuitOpen, ue.Kind)
	assert.Equal(t, 5, calls)
}

func TestClient_Ping(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o","object":"model"},{"id":"gpt-4o-mini","object":"model"}]}`))
	})

	models, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, models)
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, "жирный и курсив", CleanResponse("**жирный** и *курсив*"))
	assert.Equal(t, "", CleanResponse("  ***  "))
	assert.Equal(t, "текст", CleanResponse("\nтекст\n"))
}
