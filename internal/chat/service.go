// Package chat управляет чатами пользователя и обменом сообщениями с моделью.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"quizbot/internal/conversation"
	"quizbot/internal/database"
	"quizbot/internal/llm"
	"quizbot/internal/validate"

	"go.uber.org/zap"
)

var (
	ErrChatNotFound  = errors.New("чат не найден")
	ErrForbidden     = errors.New("чат принадлежит другому пользователю")
	ErrEmptyMessage  = errors.New("сообщение не может быть пустым")
	ErrGuestDisabled = errors.New("гостевой режим отключён")
)

const titleLength = 50

// Submission сообщение пользователя. Persist=false означает гостевой режим:
// UserID и ChatID игнорируются, ничего не сохраняется.
type Submission struct {
	Persist bool
	UserID  uint
	ChatID  uint
	Content string
}

// Exchange пара сообщений, полученная в результате Submit.
// В гостевом режиме ID сообщений равны 0.
type Exchange struct {
	UserMessage      database.Message `json:"user_message"`
	AssistantMessage database.Message `json:"assistant_message"`
	ChatTitle        string           `json:"chat_title,omitempty"`
	EstimatedTokens  int              `json:"estimated_tokens"`
}

// Detail чат вместе с историей.
type Detail struct {
	database.Chat
	Messages []database.Message `json:"messages"`
}

type Options struct {
	GuestEnabled bool
}

type Service struct {
	db      *database.Database
	builder *conversation.Builder
	model   llm.Completer
	opts    Options
	log     *zap.Logger
	now     func() time.Time
}

func NewService(db *database.Database, builder *conversation.Builder, model llm.Completer, opts Options, log *zap.Logger) *Service {
	return &Service{
		db:      db,
		builder: builder,
		model:   model,
		opts:    opts,
		log:     log,
		now:     time.Now,
	}
}

// Submit отправляет сообщение модели. Для сохраняемого варианта владелец чата
// проверяется до любых записей, а сообщения пишутся только после ответа модели,
// поэтому ошибка модели не оставляет следов в базе.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Exchange, error) {
	content := validate.SanitizeInput(sub.Content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if !sub.Persist {
		return s.submitGuest(ctx, content)
	}
	return s.submitPersisted(ctx, sub.UserID, sub.ChatID, content)
}

func (s *Service) submitGuest(ctx context.Context, content string) (*Exchange, error) {
	if !s.opts.GuestEnabled {
		return nil, ErrGuestDisabled
	}

	sentAt := s.now()
	prepared := s.builder.Build([]conversation.Turn{{Role: conversation.RoleUser, Content: content}})
	s.log.Info("Гостевой запрос", zap.Int("estimated_tokens", prepared.EstimatedTokens))

	answer, err := s.model.Complete(ctx, prepared.Turns, nil)
	if err != nil {
		return nil, err
	}

	return &Exchange{
		UserMessage:      database.Message{Role: database.RoleUser, Content: content, CreatedAt: sentAt},
		AssistantMessage: database.Message{Role: database.RoleAssistant, Content: answer, CreatedAt: s.now()},
		EstimatedTokens:  prepared.EstimatedTokens,
	}, nil
}

func (s *Service) submitPersisted(ctx context.Context, userID, chatID uint, content string) (*Exchange, error) {
	repos := s.db.Repositories()
	chat, err := s.ownedChat(ctx, repos, userID, chatID)
	if err != nil {
		return nil, err
	}

	history, err := repos.Messages.ListByChat(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("загрузка истории: %w", err)
	}

	sentAt := s.now()
	pending := conversation.Record{Role: conversation.RoleUser, Content: content, CreatedAt: sentAt}
	turns := append(conversation.ToTurns(history), conversation.ToTurns([]conversation.Record{pending})...)
	prepared := s.builder.Build(turns)

	s.log.Info("Контекст для модели",
		zap.Uint("chat_id", chat.ID),
		zap.Int("history", len(history)),
		zap.Int("turns", len(prepared.Turns)),
		zap.String("tokens", fmt.Sprintf("~%d tokens", prepared.EstimatedTokens)),
	)

	answer, err := s.model.Complete(ctx, prepared.Turns, &chat.ID)
	if err != nil {
		s.log.Warn("Модель не ответила, сообщение не сохранено", zap.Uint("chat_id", chat.ID), zap.Error(err))
		return nil, err
	}

	exchange := &Exchange{
		UserMessage:      database.Message{ChatID: chat.ID, Role: database.RoleUser, Content: content, CreatedAt: sentAt},
		AssistantMessage: database.Message{ChatID: chat.ID, Role: database.RoleAssistant, Content: answer, CreatedAt: s.now()},
		ChatTitle:        chat.Title,
		EstimatedTokens:  prepared.EstimatedTokens,
	}

	err = s.db.Transaction(ctx, func(r *database.Repositories) error {
		if err := r.Messages.Create(ctx, &exchange.UserMessage); err != nil {
			return fmt.Errorf("сохранение сообщения пользователя: %w", err)
		}
		if err := r.Messages.Create(ctx, &exchange.AssistantMessage); err != nil {
			return fmt.Errorf("сохранение ответа: %w", err)
		}

		if len(history) == 0 {
			exchange.ChatTitle = AutoTitle(content)
			return r.Chats.UpdateTitle(ctx, chat.ID, exchange.ChatTitle)
		}
		return r.Chats.Touch(ctx, chat.ID)
	})
	if err != nil {
		return nil, err
	}
	return exchange, nil
}

// AutoTitle заголовок чата из первого сообщения: первые 50 символов и "..." для длинных.
func AutoTitle(content string) string {
	if utf8.RuneCountInString(content) <= titleLength {
		return content
	}
	return string([]rune(content)[:titleLength]) + "..."
}

func (s *Service) ownedChat(ctx context.Context, repos *database.Repositories, userID, chatID uint) (*database.Chat, error) {
	chat, err := repos.Chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if chat.UserID != userID {
		s.log.Warn("Попытка доступа к чужому чату", zap.Uint("user_id", userID), zap.Uint("chat_id", chatID))
		return nil, ErrForbidden
	}
	return chat, nil
}

func (s *Service) Create(ctx context.Context, userID uint, title string) (*database.Chat, error) {
	chat := &database.Chat{UserID: userID, Title: database.DefaultChatTitle}
	if validate.SanitizeInput(title) != "" {
		clean, err := validate.ChatTitle(title)
		if err != nil {
			return nil, err
		}
		chat.Title = clean
	}

	if err := s.db.Repositories().Chats.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("создание чата: %w", err)
	}
	return chat, nil
}

func (s *Service) List(ctx context.Context, userID uint) ([]database.ChatSummary, error) {
	chats, err := s.db.Repositories().Chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []database.ChatSummary{}
	}
	return chats, nil
}

func (s *Service) Get(ctx context.Context, userID, chatID uint) (*Detail, error) {
	repos := s.db.Repositories()
	chat, err := s.ownedChat(ctx, repos, userID, chatID)
	if err != nil {
		return nil, err
	}
	messages, err := repos.Messages.ListByChat(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	return &Detail{Chat: *chat, Messages: messages}, nil
}

func (s *Service) Rename(ctx context.Context, userID, chatID uint, title string) (*database.Chat, error) {
	clean, err := validate.ChatTitle(title)
	if err != nil {
		return nil, err
	}

	repos := s.db.Repositories()
	chat, err := s.ownedChat(ctx, repos, userID, chatID)
	if err != nil {
		return nil, err
	}
	if err := repos.Chats.UpdateTitle(ctx, chat.ID, clean); err != nil {
		return nil, err
	}
	return repos.Chats.GetByID(ctx, chat.ID)
}

func (s *Service) Delete(ctx context.Context, userID, chatID uint) error {
	repos := s.db.Repositories()
	chat, err := s.ownedChat(ctx, repos, userID, chatID)
	if err != nil {
		return err
	}
	if err := repos.Chats.Delete(ctx, chat.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrChatNotFound
		}
		return err
	}
	s.log.Info("Чат удалён", zap.Uint("chat_id", chat.ID), zap.Uint("user_id", userID))
	return nil
}

func (s *Service) Search(ctx context.Context, userID uint, query string) ([]database.ChatSummary, error) {
	return s.db.Repositories().Chats.SearchForUser(ctx, userID, validate.SanitizeInput(query))
}
