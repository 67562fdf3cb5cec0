package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"quizbot/internal/conversation"
	"quizbot/internal/database"
	"quizbot/internal/database/dbtest"
	"quizbot/internal/llm"
	"quizbot/internal/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeModel struct {
	answer string
	err    error
	calls  [][]conversation.Turn
	chats  []*uint
}

func (f *fakeModel) Complete(_ context.Context, turns []conversation.Turn, chatID *uint) (string, error) {
	f.calls = append(f.calls, turns)
	f.chats = append(f.chats, chatID)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fixture struct {
	svc   *Service
	db    *database.Database
	model *fakeModel
	user  *database.User
	other *database.User
}

func newFixture(t *testing.T, maxTurns int) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	model := &fakeModel{answer: "ответ"}
	svc := NewService(db, conversation.NewBuilder("P", maxTurns), model, Options{GuestEnabled: true}, zap.NewNop())

	users := db.Repositories().Users
	user := &database.User{Name: "A", Email: "a@test.io", PasswordHash: "x"}
	other := &database.User{Name: "B", Email: "b@test.io", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), user))
	require.NoError(t, users.Create(context.Background(), other))

	return &fixture{svc: svc, db: db, model: model, user: user, other: other}
}

func TestSubmit_FirstMessageTitlesChat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 20)

	chat, err := f.svc.Create(ctx, f.user.ID, "")
	require.NoError(t, err)
	assert.Equal(t, database.DefaultChatTitle, chat.Title)

	content := strings.Repeat("в", 60)
	ex, err := f.svc.Submit(ctx, Submission{Persist: true, UserID: f.user.ID, ChatID: chat.ID, Content: "  " + content + " "})
	require.NoError(t, err)

	assert.NotZero(t, ex.UserMessage.ID)
	assert.NotZero(t, ex.AssistantMessage.ID)
	assert.Equal(t, content, ex.UserMessage.Content)
	assert.Equal(t, "ответ", ex.AssistantMessage.Content)
	assert.Equal(t, strings.Repeat("в", 50)+"...", ex.ChatTitle)

	require.Len(t, f.model.calls, 1)
	assert.Equal(t, []conversation.Turn{
		{Role: conversation.RoleSystem, Content: "P"},
		{Role: conversation.RoleUser, Content: content},
	}, f.model.calls[0])
	require.NotNil(t, f.model.chats[0])
	assert.Equal(t, chat.ID, *f.model.chats[0])

	detail, err := f.svc.Get(ctx, f.user.ID, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, ex.ChatTitle, detail.Title)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, database.RoleUser, detail.Messages[0].Role)
	assert.Equal(t, database.RoleAssistant, detail.Messages[1].Role)
}

func TestSubmit_FirstMessageReplacesCustomTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 20)

	chat, err := f.svc.Create(ctx, f.user.ID, "Physics")
	require.NoError(t, err)
	require.Equal(t, "Physics", chat.Title)

	ex, err := f.svc.Submit(ctx, Submission{Persist: true, UserID: f.user.ID, ChatID: chat.ID, Content: "What is gravity?"})
	require.NoError(t, err)
	assert.Equal(t, "What is gravity?", ex.ChatTitle)

	detail, err := f.svc.Get(ctx, f.user.ID, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "What is gravity?", detail.Title)
}

func TestSubmit_SecondMessageKeepsTitleAndSendsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 20)
	chat, err := f.svc.Create(ctx, f.user.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, Submission{Persist: true, UserID: f.user.ID, ChatID: chat.ID, Content: "первый"})
	require.NoError(t, err)
	ex, err := f.svc.Submit(ctx, Submission{Persist: true, UserID: f.user.ID, ChatID: chat.ID, Content: "второй"})
	require.NoError(t, err)
	assert.Equal(t, "первый", ex.ChatTitle)

	last := f.model.calls[1]
	require.Len(t, last, 4)
	assert.Equal(t, conversation.RoleSystem, last[0].Role)
	assert.Equal(t, "первый", last[1].Content)
	assert.Equal(t, "ответ", last[2].Content)
	assert.Equal(t, "второй", last[3].Content)
}

func TestSubmit_TruncatesLongHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	chat, err := f.svc.Create(ctx, f.user.ID, "Длинный")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Submit(ctx, Submission{Persist: true, UserID: f.user.ID, ChatID: chat.ID, Content: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}

	// 4 записи в истории + новое сообщение, в контекст попадают последние 3
	last := f.model.calls[2]
	require.Len(t, last, 4)
	assert.Equal(t, conversation.Turn{Role: conversation.RoleSystem, Content: "P"}, last[0])
	assert.Equal(t, "m1", last[1].Content)
	assert.Equal(t, "ответ", last[2].Content)
	assert.Equal(t, "m2", last[3].Content)
}

func TestSubmit_ModelFailureLeavesNoMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 20)
	chat, err := f.svc.Create(ctx, f.user.ID, "")
	require.NoError(t, err)

	f.model.err = &llm.UpstreamError{Kind: llm.ErrorKindProvider, Message: "down"}
	_, err = f.svc.Submit(ctx, Submission{Persist: true, UserID: f.user.ID, ChatID: chat.ID, Content: "привет"})
	require.Error(t, err)
	assert.True(t, llm.IsUpstream(err))

	n, err := f.db.Repositories().Messages.CountByChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := f.db.Repositories().Chats.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, database.DefaultChatTitle, got.Title)
}

func TestSubmit_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 20)
	chat, err := f.svc.Create(ctx, f.user.ID, "")
	require.NoError(t, err)

	tests := []struct {
		name string
		sub  Submission
		want error
	}{
		{"пустое сообщение", Submission{Persist: true, UserID: f.user.ID, ChatID: chat.ID, Content: " \x00 "}, ErrEmptyMessage},
		{"нет чата", Submission{Persist: true, UserID: f.user.ID, ChatID: 9999, Content: "hi"}, ErrChatNotFound},
		{"чужой чат", Submission{Persist: true, UserID: f.other.ID, ChatID: chat.ID, Content: "hi"}, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, tt.sub)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.model.calls, "модель не должна вызываться")
}

func TestSubmit_Guest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 20)

	ex, err := f.svc.Submit(ctx, Submission{Content: "кто ты?"})
	require.NoError(t, err)
	assert.Zero(t, ex.UserMessage.ID)
	assert.Zero(t, ex.AssistantMessage.ID)
	assert.Equal(t, "ответ", ex.AssistantMessage.Content)
	assert.Empty(t, ex.ChatTitle)

	require.Len(t, f.model.calls, 1)
	assert.Len(t, f.model.calls[0], 2)
	assert.Nil(t, f.model.chats[0])

	stats, err := f.db.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Messages)

	f.svc.opts.GuestEnabled = false
	_, err = f.svc.Submit(ctx, Submission{Content: "ещё"})
	assert.ErrorIs(t, err, ErrGuestDisabled)
}

func TestChatCRUD(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 20)

	a, err := f.svc.Create(ctx, f.user.ID, "Python basics")
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.user.ID, "Go channels")
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.other.ID, "Python advanced")
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.user.ID, strings.Repeat("x", 201))
	assert.ErrorIs(t, err, validate.ErrLongTitle)

	list, err := f.svc.List(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	found, err := f.svc.Search(ctx, f.user.ID, "PYTHON")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	renamed, err := f.svc.Rename(ctx, f.user.ID, a.ID, "  Python 3  ")
	require.NoError(t, err)
	assert.Equal(t, "Python 3", renamed.Title)

	_, err = f.svc.Rename(ctx, f.other.ID, a.ID, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Rename(ctx, f.user.ID, a.ID, "   ")
	assert.ErrorIs(t, err, validate.ErrEmptyTitle)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.other.ID, a.ID), ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, f.user.ID, a.ID))
	_, err = f.svc.Get(ctx, f.user.ID, a.ID)
	assert.True(t, errors.Is(err, ErrChatNotFound))
}

func TestAutoTitle(t *testing.T) {
	assert.Equal(t, "short", AutoTitle("short"))
	assert.Equal(t, strings.Repeat("a", 50), AutoTitle(strings.Repeat("a", 50)))
	assert.Equal(t, strings.Repeat("ы", 50)+"...", AutoTitle(strings.Repeat("ы", 51)))
}
