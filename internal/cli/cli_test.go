package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"quizbot/internal/chat"
	"quizbot/internal/conversation"
	"quizbot/internal/database"
	"quizbot/internal/database/dbtest"
	"quizbot/internal/llm"
	"quizbot/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type echoModel struct{}

func (echoModel) Complete(_ context.Context, turns []conversation.Turn, _ *uint) (string, error) {
	return "эхо: " + turns[len(turns)-1].Content, nil
}

func newTestCLI(t *testing.T) (*CLI, *database.Database, *bytes.Buffer) {
	t.Helper()
	db := dbtest.Open(t)
	chats := chat.NewService(db, conversation.NewBuilder("P", 20), echoModel{}, chat.Options{GuestEnabled: true}, zap.NewNop())
	var out bytes.Buffer
	return newWithOutput(db, chats, logger.Nop(), &out), db, &out
}

func TestConsole_SeedAndBrowse(t *testing.T) {
	ctx := context.Background()
	c, db, out := newTestCLI(t)

	require.True(t, c.handleCommand(ctx, "seed"))
	assert.Contains(t, out.String(), database.DemoEmail)

	out.Reset()
	c.handleCommand(ctx, "seed")
	assert.Contains(t, out.String(), "уже есть")

	out.Reset()
	c.handleCommand(ctx, "stats")
	assert.Contains(t, out.String(), "Пользователей: 1")
	assert.Contains(t, out.String(), "Чатов:         3")

	out.Reset()
	c.handleCommand(ctx, "users")
	assert.Contains(t, out.String(), database.DemoEmail)

	user, err := db.Repositories().Users.GetByEmail(ctx, database.DemoEmail)
	require.NoError(t, err)

	out.Reset()
	c.handleCommand(ctx, fmt.Sprintf("chats %d", user.ID))
	assert.Contains(t, out.String(), "React Hooks Explained")

	chats, err := db.Repositories().Chats.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chats)

	out.Reset()
	c.handleCommand(ctx, fmt.Sprintf("show %d", chats[0].ID))
	assert.Contains(t, out.String(), chats[0].Title)
	assert.Contains(t, out.String(), "ассистент")
}

func TestConsole_AskAndLogs(t *testing.T) {
	ctx := context.Background()
	c, db, out := newTestCLI(t)

	c.handleCommand(ctx, "ask столица Франции?")
	assert.Contains(t, out.String(), "эхо: столица Франции?")

	err := db.Repositories().LLMLogs.LogLLMRequest(ctx, nil, llm.LogRoleCompletionError, "prompt", "boom", "gpt-4o", 0, 3)
	require.NoError(t, err)

	out.Reset()
	c.handleCommand(ctx, "logs guest")
	assert.Contains(t, out.String(), "[ОШИБКА]")
	assert.Contains(t, out.String(), "gpt-4o")
}

func TestConsole_BadInput(t *testing.T) {
	ctx := context.Background()
	c, _, out := newTestCLI(t)

	c.handleCommand(ctx, "show abc")
	assert.Contains(t, out.String(), "Неверный ID чата")

	out.Reset()
	c.handleCommand(ctx, "show 999")
	assert.Contains(t, out.String(), "Чат не найден")

	out.Reset()
	c.handleCommand(ctx, "chats 999")
	assert.Contains(t, out.String(), "Пользователь не найден")

	out.Reset()
	c.handleCommand(ctx, "unknown")
	assert.Contains(t, out.String(), "Доступные команды")

	assert.False(t, c.handleCommand(ctx, "exit"))
}
