package commands

import (
	"context"
	"fmt"
	"io"

	"quizbot/internal/auth"
	"quizbot/internal/cli/ui"
	"quizbot/internal/database"

	"go.uber.org/zap"
)

const demoPassword = "Demo1234"

// AdminHandler сводка по базе, список пользователей и демо-данные
type AdminHandler struct {
	db  *database.Database
	log *zap.Logger
	out io.Writer
}

func NewAdminHandler(db *database.Database, log *zap.Logger, out io.Writer) *AdminHandler {
	return &AdminHandler{db: db, log: log, out: out}
}

func (h *AdminHandler) Stats(ctx context.Context) {
	stats, err := h.db.Stats(ctx)
	if err != nil {
		h.log.Error("Ошибка получения статистики", zap.Error(err))
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Ошибка получения статистики"+ui.ColorReset)
		return
	}
	fmt.Fprintln(h.out, "\n"+ui.ColorBold+ui.IconChart+" Статистика:"+ui.ColorReset)
	fmt.Fprintf(h.out, "  Пользователей: %d\n", stats.Users)
	fmt.Fprintf(h.out, "  Чатов:         %d\n", stats.Chats)
	fmt.Fprintf(h.out, "  Сообщений:     %d\n\n", stats.Messages)
}

func (h *AdminHandler) Users(ctx context.Context) {
	users, err := h.db.Repositories().Users.List(ctx, 100, 0)
	if err != nil {
		h.log.Error("Ошибка чтения пользователей", zap.Error(err))
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Ошибка чтения пользователей"+ui.ColorReset)
		return
	}
	fmt.Fprintf(h.out, "\n"+ui.ColorBold+ui.IconList+" Пользователи (%d):"+ui.ColorReset+"\n\n", len(users))
	for _, u := range users {
		fmt.Fprintf(h.out, "  "+ui.ColorBold+"#%d"+ui.ColorReset+" %s "+ui.ColorGray+"<%s>"+ui.ColorReset+"\n", u.ID, u.Name, u.Email)
	}
	fmt.Fprintln(h.out)
}

// Seed создаёт демо-пользователя, если его ещё нет
func (h *AdminHandler) Seed(ctx context.Context) {
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка:"+ui.ColorReset+" %v\n", err)
		return
	}
	created, err := h.db.SeedDemo(ctx, hash)
	if err != nil {
		h.log.Error("Ошибка создания демо-данных", zap.Error(err))
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка:"+ui.ColorReset+" %v\n", err)
		return
	}
	if !created {
		fmt.Fprintln(h.out, ui.ColorYellow+ui.IconSeed+" Демо-данные уже есть"+ui.ColorReset)
		return
	}
	fmt.Fprintf(h.out, ui.ColorGreen+ui.IconCheckmark+" Демо-пользователь %s / %s создан"+ui.ColorReset+"\n", database.DemoEmail, demoPassword)
}
