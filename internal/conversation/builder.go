package conversation

import "time"

// Record простая реализация Stored для сообщений, которых нет в базе
// (гостевой режим, ещё не сохранённое сообщение пользователя).
type Record struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}

func (r Record) StoredRole() string    { return string(r.Role) }
func (r Record) StoredContent() string { return r.Content }

// Context итоговый набор реплик для модели и оценка его размера.
type Context struct {
	Turns           []Turn
	EstimatedTokens int
}

// Builder хранит системный промпт и лимит реплик.
// Безопасен для конкурентного использования: состояние не меняется после создания.
type Builder struct {
	systemPrompt string
	maxTurns     int
}

func NewBuilder(systemPrompt string, maxTurns int) *Builder {
	return &Builder{systemPrompt: systemPrompt, maxTurns: maxTurns}
}

func (b *Builder) SystemPrompt() string { return b.systemPrompt }
func (b *Builder) MaxTurns() int        { return b.maxTurns }

// Build выполняет шаги после проекции: системный промпт, обрезка, оценка токенов.
// Оценка считается по итоговой последовательности.
func (b *Builder) Build(turns []Turn) Context {
	turns = InjectSystemTurn(turns, b.systemPrompt)
	turns = Truncate(turns, b.maxTurns)
	return Context{
		Turns:           turns,
		EstimatedTokens: EstimateTokenCount(turns),
	}
}

// Prepare полный конвейер от сохранённой истории до контекста модели.
func Prepare[S Stored](b *Builder, history []S) Context {
	return b.Build(ToTurns(history))
}
