package auth

import (
	"errors"
	"net/http"
	"strings"

	"quizbot/internal/database"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userKey = "auth.user"

// RequireUser пропускает запрос только с валидным "Authorization: Bearer <token>".
func (s *Service) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		user, err := s.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				s.log.Warn("Токен отклонён",
					zap.String("path", c.Request.URL.Path),
					zap.String("ip", c.ClientIP()),
					zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "недействительный токен"})
				return
			}
			s.log.Error("Ошибка авторизации", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CurrentUser пользователь, установленный RequireUser.
func CurrentUser(c *gin.Context) (*database.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*database.User)
	return user, ok
}
