package commands

import (
	"context"
	"fmt"
	"io"

	"quizbot/internal/chat"
	"quizbot/internal/cli/ui"
)

// AskHandler отправляет гостевой вопрос модели
type AskHandler struct {
	chats *chat.Service
	out   io.Writer
}

func NewAskHandler(chats *chat.Service, out io.Writer) *AskHandler {
	return &AskHandler{chats: chats, out: out}
}

func (h *AskHandler) Ask(ctx context.Context, text string) {
	ex, err := h.chats.Submit(ctx, chat.Submission{Content: text})
	if err != nil {
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка:"+ui.ColorReset+" %v\n", err)
		return
	}
	fmt.Fprintf(h.out, "\n"+ui.ColorCyan+ui.IconRobot+" "+ui.ColorReset+"%s\n", ex.AssistantMessage.Content)
	fmt.Fprintf(h.out, ui.ColorGray+"~%d токенов в контексте"+ui.ColorReset+"\n\n", ex.EstimatedTokens)
}
