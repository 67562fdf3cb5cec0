package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("запись не найдена")
	ErrDuplicate = errors.New("запись уже существует")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]User, error) {
	var users []User
	if err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&User{}).Count(&n).Error
	return n, err
}

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(ctx context.Context, c *Chat) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ChatRepository) GetByID(ctx context.Context, id uint) (*Chat, error) {
	var chat Chat
	if err := r.db.WithContext(ctx).First(&chat, id).Error; err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

const summarySelect = "chats.*, (SELECT COUNT(*) FROM messages WHERE messages.chat_id = chats.id) AS message_count"

// ListForUser чаты пользователя, свежие сверху.
func (r *ChatRepository) ListForUser(ctx context.Context, userID uint) ([]ChatSummary, error) {
	var chats []ChatSummary
	err := r.db.WithContext(ctx).
		Model(&Chat{}).
		Select(summarySelect).
		Where("chats.user_id = ?", userID).
		Order("chats.updated_at DESC, chats.id DESC").
		Scan(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// SearchForUser ищет по подстроке заголовка без учёта регистра.
// Пустой запрос возвращает пустой список.
func (r *ChatRepository) SearchForUser(ctx context.Context, userID uint, query string) ([]ChatSummary, error) {
	chats := []ChatSummary{}
	query = strings.TrimSpace(query)
	if query == "" {
		return chats, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	err := r.db.WithContext(ctx).
		Model(&Chat{}).
		Select(summarySelect).
		Where("chats.user_id = ? AND LOWER(chats.title) LIKE ? ESCAPE '\\'", userID, pattern).
		Order("chats.updated_at DESC, chats.id DESC").
		Scan(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *ChatRepository) UpdateTitle(ctx context.Context, id uint, title string) error {
	return r.db.WithContext(ctx).Model(&Chat{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":      title,
			"updated_at": time.Now(),
		}).Error
}

// Touch обновляет updated_at, чтобы чат поднялся в списке.
func (r *ChatRepository) Touch(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&Chat{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

// Delete удаляет чат вместе с сообщениями.
func (r *ChatRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&Message{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Chat{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *ChatRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Chat{}).Count(&n).Error
	return n, err
}

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListByChat история чата в хронологическом порядке.
func (r *MessageRepository) ListByChat(ctx context.Context, chatID uint) ([]Message, error) {
	messages := []Message{}
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MessageRepository) CountByChat(ctx context.Context, chatID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Message{}).Where("chat_id = ?", chatID).Count(&n).Error
	return n, err
}

func (r *MessageRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Message{}).Count(&n).Error
	return n, err
}

type LLMLogRepository struct {
	db *gorm.DB
}

func NewLLMLogRepository(db *gorm.DB) *LLMLogRepository {
	return &LLMLogRepository{db: db}
}

// LogLLMRequest сохраняет информацию о запросе к LLM.
func (r *LLMLogRepository) LogLLMRequest(ctx context.Context, chatID *uint, role, promptText, responseText, model string, tokensUsed, estimatedTokens int) error {
	return r.db.WithContext(ctx).Create(&LlmLog{
		ChatID:          chatID,
		Role:            role,
		PromptText:      promptText,
		ResponseText:    responseText,
		Model:           model,
		TokensUsed:      tokensUsed,
		EstimatedTokens: estimatedTokens,
	}).Error
}

// ListByChat последние записи по чату; chatID=nil выбирает гостевые запросы.
func (r *LLMLogRepository) ListByChat(ctx context.Context, chatID *uint, limit int) ([]LlmLog, error) {
	var logs []LlmLog
	q := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if chatID == nil {
		q = q.Where("chat_id IS NULL")
	} else {
		q = q.Where("chat_id = ?", *chatID)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
