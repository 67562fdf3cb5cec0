// Package conversation готовит контекст диалога перед вызовом модели.
// Порядок шагов фиксирован: ToTurns -> InjectSystemTurn -> Truncate -> EstimateTokenCount.
// Пакет не выполняет I/O и не возвращает ошибок.
package conversation

import "unicode/utf8"

// Role роль реплики в диалоге с моделью.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn одна реплика, отправляемая модели.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Stored запись истории чата в том виде, в котором её отдаёт хранилище.
type Stored interface {
	StoredRole() string
	StoredContent() string
}

// ToTurns проецирует сохранённые сообщения в реплики, сохраняя порядок и длину.
func ToTurns[S Stored](stored []S) []Turn {
	turns := make([]Turn, 0, len(stored))
	for _, s := range stored {
		turns = append(turns, Turn{Role: Role(s.StoredRole()), Content: s.StoredContent()})
	}
	return turns
}

// InjectSystemTurn удаляет все system-реплики и ставит одну новую на позицию 0.
// Пустой промпт тоже вставляется.
func InjectSystemTurn(turns []Turn, systemPrompt string) []Turn {
	result := make([]Turn, 0, len(turns)+1)
	result = append(result, Turn{Role: RoleSystem, Content: systemPrompt})
	for _, t := range turns {
		if t.Role != RoleSystem {
			result = append(result, t)
		}
	}
	return result
}

// Truncate оставляет system-реплики и последние maxTurns остальных реплик.
// Если остальных реплик не больше maxTurns, вход возвращается как есть.
func Truncate(turns []Turn, maxTurns int) []Turn {
	if maxTurns < 0 {
		maxTurns = 0
	}
	if countNonSystem(turns) <= maxTurns {
		return turns
	}

	var system, other []Turn
	for _, t := range turns {
		if t.Role == RoleSystem {
			system = append(system, t)
		} else {
			other = append(other, t)
		}
	}

	result := make([]Turn, 0, len(system)+maxTurns)
	result = append(result, system...)
	return append(result, other[len(other)-maxTurns:]...)
}

// EstimateTokenCount грубая оценка числа токенов: символы / 4.
// Используется только для логирования.
func EstimateTokenCount(turns []Turn) int {
	total := 0
	for _, t := range turns {
		total += utf8.RuneCountInString(t.Content)
	}
	return total / 4
}

func countNonSystem(turns []Turn) int {
	n := 0
	for _, t := range turns {
		if t.Role != RoleSystem {
			n++
		}
	}
	return n
}
