package commands

import (
	"context"
	"fmt"
	"io"

	"quizbot/internal/cli/ui"
	"quizbot/internal/database"
	"quizbot/internal/llm"

	"go.uber.org/zap"
)

const logsLimit = 20

// LogsHandler обрабатывает команды просмотра логов модели
type LogsHandler struct {
	repos *database.Repositories
	log   *zap.Logger
	out   io.Writer
}

func NewLogsHandler(repos *database.Repositories, log *zap.Logger, out io.Writer) *LogsHandler {
	return &LogsHandler{repos: repos, log: log, out: out}
}

// Show выводит последние запросы к модели по чату; "guest" для гостевых запросов
func (h *LogsHandler) Show(ctx context.Context, idStr string) {
	var chatID *uint
	title := "гостевые запросы"
	if idStr != "guest" {
		id, ok := parseID(h.out, idStr, "чата")
		if !ok {
			return
		}
		chatID = &id
		title = fmt.Sprintf("чат #%d", id)
	}

	logs, err := h.repos.LLMLogs.ListByChat(ctx, chatID, logsLimit)
	if err != nil {
		h.log.Error("Ошибка чтения логов", zap.Error(err))
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Ошибка чтения логов"+ui.ColorReset)
		return
	}

	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== "+ui.IconList+" Логи LLM: %s ==="+ui.ColorReset+"\n\n", title)
	if len(logs) == 0 {
		fmt.Fprintln(h.out, ui.ColorGray+"Записей нет"+ui.ColorReset)
		return
	}

	for _, l := range logs {
		status := ui.ColorGreen + "[OK]" + ui.ColorReset
		if l.Role == llm.LogRoleCompletionError {
			status = ui.ColorRed + "[ОШИБКА]" + ui.ColorReset
		}
		fmt.Fprintf(h.out, ui.ColorGray+"[%s]"+ui.ColorReset+" %s "+ui.ColorCyan+"%s"+ui.ColorReset+" ~%d / %d токенов\n",
			l.CreatedAt.Format("2006-01-02 15:04:05"), status, l.Model, l.EstimatedTokens, l.TokensUsed)
		fmt.Fprintf(h.out, "  "+ui.ColorGray+"→"+ui.ColorReset+" %s\n", ui.Shorten(l.PromptText, 100))
		fmt.Fprintf(h.out, "  "+ui.ColorGray+"←"+ui.ColorReset+" %s\n", ui.Shorten(l.ResponseText, 100))
	}
	fmt.Fprintln(h.out)
}
