package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"quizbot/internal/cli/ui"
	"quizbot/internal/database"

	"go.uber.org/zap"
)

// ChatsHandler просмотр чатов и их истории без проверки владельца
type ChatsHandler struct {
	repos *database.Repositories
	log   *zap.Logger
	out   io.Writer
}

func NewChatsHandler(repos *database.Repositories, log *zap.Logger, out io.Writer) *ChatsHandler {
	return &ChatsHandler{repos: repos, log: log, out: out}
}

// List выводит чаты пользователя
func (h *ChatsHandler) List(ctx context.Context, idStr string) {
	id, ok := parseID(h.out, idStr, "пользователя")
	if !ok {
		return
	}
	user, err := h.repos.Users.GetByID(ctx, id)
	if err != nil {
		printNotFound(h.out, err, "Пользователь не найден")
		return
	}

	chats, err := h.repos.Chats.ListForUser(ctx, user.ID)
	if err != nil {
		h.log.Error("Ошибка чтения чатов", zap.Error(err))
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Ошибка чтения чатов"+ui.ColorReset)
		return
	}

	fmt.Fprintf(h.out, "\n"+ui.ColorBold+ui.IconList+" Чаты %s (%d):"+ui.ColorReset+"\n\n", user.Email, len(chats))
	for _, c := range chats {
		fmt.Fprintf(h.out, "  "+ui.ColorBold+"#%d"+ui.ColorReset+" %s "+ui.ColorGray+"(%d сообщ.)"+ui.ColorReset+"\n", c.ID, c.Title, c.MessageCount)
		fmt.Fprintf(h.out, "  "+ui.ColorGray+"└─ "+ui.IconTime+" %s"+ui.ColorReset+"\n", c.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(h.out)
}

// Show выводит историю чата
func (h *ChatsHandler) Show(ctx context.Context, idStr string) {
	id, ok := parseID(h.out, idStr, "чата")
	if !ok {
		return
	}
	chat, err := h.repos.Chats.GetByID(ctx, id)
	if err != nil {
		printNotFound(h.out, err, "Чат не найден")
		return
	}

	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== Чат #%d ==="+ui.ColorReset+"\n", chat.ID)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconChat+" Заголовок:"+ui.ColorReset+" %s\n", chat.Title)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconUser+" Владелец:"+ui.ColorReset+" #%d\n", chat.UserID)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconTime+" Создан:"+ui.ColorReset+" %s\n", chat.CreatedAt.Format("2006-01-02 15:04:05"))

	messages, err := h.repos.Messages.ListByChat(ctx, chat.ID)
	if err != nil {
		h.log.Error("Ошибка получения сообщений", zap.Error(err))
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Ошибка получения сообщений"+ui.ColorReset)
		return
	}
	if len(messages) == 0 {
		fmt.Fprintln(h.out, "\n"+ui.ColorGray+"Сообщений нет"+ui.ColorReset)
		fmt.Fprintln(h.out)
		return
	}

	fmt.Fprintln(h.out)
	for _, m := range messages {
		icon, color, text := ui.FormatRole(m.Role)
		fmt.Fprintf(h.out, ui.ColorGray+"[%s]"+ui.ColorReset+" %s%s %s:"+ui.ColorReset+" %s\n",
			m.CreatedAt.Format("15:04:05"), color, icon, text, m.Content)
	}
	fmt.Fprintln(h.out)
}

func parseID(out io.Writer, idStr, what string) (uint, bool) {
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		fmt.Fprintf(out, ui.ColorRed+ui.IconCross+" Неверный ID %s"+ui.ColorReset+"\n", what)
		return 0, false
	}
	return uint(id), true
}

func printNotFound(out io.Writer, err error, msg string) {
	if errors.Is(err, database.ErrNotFound) {
		fmt.Fprintln(out, ui.ColorRed+ui.IconCross+" "+msg+ui.ColorReset)
		return
	}
	fmt.Fprintf(out, ui.ColorRed+ui.IconCross+" Ошибка:"+ui.ColorReset+" %v\n", err)
}
