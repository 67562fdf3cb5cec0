package server

import (
	"errors"
	"net/http"

	"quizbot/internal/auth"
	"quizbot/internal/chat"
	"quizbot/internal/llm"
	"quizbot/internal/validate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, chat.ErrChatNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrForbidden), errors.Is(err, chat.ErrGuestDisabled):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, validate.ErrInvalidEmail),
		errors.Is(err, validate.ErrWeakPassword),
		errors.Is(err, validate.ErrEmptyTitle),
		errors.Is(err, validate.ErrLongTitle):
		return http.StatusBadRequest
	case llm.IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail отвечает JSON-ошибкой. Внутренние ошибки не раскрываются клиенту.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusOf(err)
	_ = c.Error(err)

	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		s.log.Error("Ошибка обработки запроса",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		msg = "внутренняя ошибка сервера"
	case http.StatusBadGateway:
		msg = "модель недоступна: " + err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
