// Package database предоставляет модели данных и репозитории для работы с PostgreSQL или SQLite.
// Использует GORM ORM с prepared statements для защиты от SQL injection.
package database

import (
	"net/url"
	"time"
)

// Роли сообщений в чате.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const DefaultChatTitle = "New Chat"

// AvatarURL ссылка на аватар с инициалами пользователя.
func AvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=10b981&color=fff&size=128&bold=true"
}

// User зарегистрированный пользователь.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`        // bcrypt хеш
	AvatarURL    string    `gorm:"type:varchar(255)" json:"avatar_url,omitempty"` // ссылка на сгенерированный аватар
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Chat диалог пользователя с ассистентом.
type Chat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`                                  // Владелец чата
	Title     string    `gorm:"type:varchar(200);not null;default:'New Chat'" json:"title"` // Заголовок, генерируется по первому сообщению
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ChatSummary чат с количеством сообщений, для списков.
type ChatSummary struct {
	Chat         `gorm:"embedded"`
	MessageCount int64 `json:"message_count"`
}

// Message одно сообщение чата. Записи только добавляются и не изменяются.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    uint      `gorm:"index;not null" json:"chat_id"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role"` // user или assistant
	Content   string    `gorm:"type:text;not null" json:"content"`
	FilePath  *string   `gorm:"type:text" json:"file_path,omitempty"`
	FileName  *string   `gorm:"type:text" json:"file_name,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (m Message) StoredRole() string    { return m.Role }
func (m Message) StoredContent() string { return m.Content }

// LlmLog представляет лог запроса к LLM.
// Промпт и ответ сохраняются после маскирования чувствительных данных.
type LlmLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ChatID          *uint     `gorm:"index" json:"chat_id,omitempty"`           // nil для гостевых запросов
	Role            string    `gorm:"type:varchar(32);not null" json:"role"`    // completion, completion_error
	PromptText      string    `gorm:"type:text;not null" json:"prompt_text"`    // Текст промпта
	ResponseText    string    `gorm:"type:text" json:"response_text"`           // Текст ответа или ошибки
	Model           string    `gorm:"type:varchar(64)" json:"model"`            // Модель (gpt-4o)
	TokensUsed      int       `json:"tokens_used"`                              // По данным провайдера
	EstimatedTokens int       `json:"estimated_tokens"`                         // Оценка символы/4
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}
